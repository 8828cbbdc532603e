package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/writeitupx/backend/internal/model"
)

type fakeGenerator struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.lastPrompt = prompt
	return f.reply, f.err
}

func TestSuggestRejectsEmptyText(t *testing.T) {
	svc := NewSuggestService(&fakeGenerator{})
	if _, err := svc.Suggest(context.Background(), model.SuggestionRequest{Text: "   "}); !errors.Is(err, ErrInvalidSuggestionRequest) {
		t.Fatalf("expected ErrInvalidSuggestionRequest, got %v", err)
	}
}

func TestSuggestDefaultsContext(t *testing.T) {
	gen := &fakeGenerator{reply: "• Tighten the opening: your first sentence buries the request."}
	svc := NewSuggestService(gen)

	if _, err := svc.Suggest(context.Background(), model.SuggestionRequest{Text: "Dear Sir"}); err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if !strings.Contains(gen.lastPrompt, "this is a letter") {
		t.Fatalf("default context missing from prompt:\n%s", gen.lastPrompt)
	}
}

func TestSuggestNoUsableReply(t *testing.T) {
	svc := NewSuggestService(&fakeGenerator{reply: "Sure! Here are my thoughts."})
	if _, err := svc.Suggest(context.Background(), model.SuggestionRequest{Text: "Dear Sir"}); !errors.Is(err, ErrNoSuggestions) {
		t.Fatalf("expected ErrNoSuggestions, got %v", err)
	}
}

func TestSuggestCapsAtFive(t *testing.T) {
	reply := strings.Join([]string{
		"1. First point: long enough to keep around",
		"2. Second point: long enough to keep around",
		"3. Third point: long enough to keep around",
		"4. Fourth point: long enough to keep around",
		"5. Fifth point: long enough to keep around",
		"6. Sixth point: long enough to keep around",
	}, "\n")
	svc := NewSuggestService(&fakeGenerator{reply: reply})

	suggestions, err := svc.Suggest(context.Background(), model.SuggestionRequest{Text: "Dear Sir", Context: "cover letter"})
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(suggestions) != 5 {
		t.Fatalf("expected 5 suggestions, got %d", len(suggestions))
	}
}

func TestParseSuggestions(t *testing.T) {
	raw := `Here are some suggestions:

• Strengthen the greeting: "Dear Sir" reads cold.
  Prefer addressing the recipient by name.
- Trim filler words: phrases like "I am writing to" add nothing.
• ok
3. Close with an action: state what you want the reader to do next.`

	suggestions := ParseSuggestions(raw)
	if len(suggestions) != 3 {
		t.Fatalf("expected 3 suggestions, got %d: %+v", len(suggestions), suggestions)
	}
	if suggestions[0].Title != "Strengthen the greeting" {
		t.Fatalf("unexpected title: %q", suggestions[0].Title)
	}
	if !strings.Contains(suggestions[0].FullText, "addressing the recipient by name") {
		t.Fatalf("continuation line not folded in: %q", suggestions[0].FullText)
	}
	if suggestions[1].Title != "Trim filler words" {
		t.Fatalf("unexpected title: %q", suggestions[1].Title)
	}
}

func TestParseSuggestionsTitleWithoutColon(t *testing.T) {
	suggestions := ParseSuggestions("• Use shorter paragraphs throughout the letter")
	if len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
	}
	if suggestions[0].Title != suggestions[0].FullText {
		t.Fatalf("title should fall back to the whole entry: %+v", suggestions[0])
	}
}
