package analytics

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestGenerateTitle(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
	}{
		{"first line only", "# Hello\nWorld", "Hello"},
		{"empty content", "", UntitledNote},
		{"whitespace only", "   \n\n\t", UntitledNote},
		{"heading marker stripped", "### Deep Heading", "Deep Heading"},
		{"bare marker", "#", UntitledNote},
		{"marker without space", "##Tight", "Tight"},
		{"plain text", "groceries for the week", "groceries for the week"},
		{"surrounding spaces trimmed", "  padded title  \nbody", "padded title"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateTitle(tt.content); got != tt.want {
				t.Errorf("GenerateTitle(%q) = %q, want %q", tt.content, got, tt.want)
			}
		})
	}
}

func TestGenerateTitleTruncation(t *testing.T) {
	long := strings.Repeat("a", 60)
	got := GenerateTitle(long)
	want := strings.Repeat("a", 47) + "..."
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
	if utf8.RuneCountInString(got) != 50 {
		t.Errorf("title length = %d runes, want 50", utf8.RuneCountInString(got))
	}

	exact := strings.Repeat("b", 50)
	if got := GenerateTitle(exact); got != exact {
		t.Errorf("50-rune title was altered: %q", got)
	}
}

func TestGenerateTitleDeterministic(t *testing.T) {
	content := "# Meeting notes\n- item one\n- item two"
	first := GenerateTitle(content)
	for i := 0; i < 5; i++ {
		if got := GenerateTitle(content); got != first {
			t.Fatalf("title varied: %q then %q", first, got)
		}
	}
}
