package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/writeitupx/backend/internal/model"
)

var (
	ErrInvalidSuggestionRequest = errors.New("invalid suggestion request")
	ErrNoSuggestions            = errors.New("no valid suggestions generated")
)

const maxSuggestions = 5

type textGenerator interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
}

type SuggestService struct {
	gen textGenerator
}

func NewSuggestService(gen textGenerator) *SuggestService {
	return &SuggestService{gen: gen}
}

func (s *SuggestService) Suggest(ctx context.Context, req model.SuggestionRequest) ([]model.Suggestion, error) {
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: text is required", ErrInvalidSuggestionRequest)
	}
	docContext := strings.TrimSpace(req.Context)
	if docContext == "" {
		docContext = "letter"
	}

	raw, err := s.gen.GenerateText(ctx, buildSuggestionPrompt(text, docContext))
	if err != nil {
		return nil, err
	}

	suggestions := ParseSuggestions(raw)
	if len(suggestions) == 0 {
		return nil, ErrNoSuggestions
	}
	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions, nil
}

func buildSuggestionPrompt(text, docContext string) string {
	return fmt.Sprintf(`As a professional writing assistant, analyze the following text and provide 3-5 specific suggestions to improve its clarity, tone, and effectiveness. Consider this is a %s.

Text to analyze:
%s

Please format your response with exactly 3-5 detailed suggestions. Each suggestion should:
1. Start with a bullet point (•)
2. Include a clear title/summary
3. Be followed by a detailed explanation

Focus your suggestions on:
- Clarity and conciseness
- Professional tone
- Structure and organization
- Grammar and word choice`, docContext, text)
}

var bulletStart = regexp.MustCompile(`^(•|-|\d+\.)\s*`)

// ParseSuggestions splits model prose into suggestion entries. A new entry
// starts at a bullet or numbered line; continuation lines are folded into
// the current entry. Entries under 10 characters are discarded.
func ParseSuggestions(raw string) []model.Suggestion {
	var chunks []string
	var current string

	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if bulletStart.MatchString(line) {
			if current != "" {
				chunks = append(chunks, strings.TrimSpace(current))
			}
			current = bulletStart.ReplaceAllString(line, "")
		} else if current != "" && line != "" {
			current += " " + line
		}
	}
	if current != "" {
		chunks = append(chunks, strings.TrimSpace(current))
	}

	var suggestions []model.Suggestion
	for _, chunk := range chunks {
		if len(chunk) < 10 {
			continue
		}
		title, _, _ := strings.Cut(chunk, ":")
		suggestions = append(suggestions, model.Suggestion{
			Title:    strings.TrimSpace(title),
			FullText: chunk,
		})
	}
	return suggestions
}
