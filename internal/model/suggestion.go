package model

type SuggestionRequest struct {
	Text    string `json:"text"`
	Context string `json:"context"`
}

type Suggestion struct {
	Title    string `json:"title"`
	FullText string `json:"fullText"`
}

type SuggestionResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}
