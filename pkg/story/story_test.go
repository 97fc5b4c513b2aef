package story

import (
	"strings"
	"testing"
)

func validInput() Input {
	return Input{
		Title:     "The Clever Crow",
		Content:   "A thirsty crow found a pitcher with a little water at the bottom.",
		StoryType: TypeFolkTale,
		Culture:   "Indian",
	}
}

func TestInputValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Input)
		wantErr bool
	}{
		{
			name:   "valid input",
			mutate: func(in *Input) {},
		},
		{
			name:    "empty title",
			mutate:  func(in *Input) { in.Title = "" },
			wantErr: true,
		},
		{
			name:    "title too long",
			mutate:  func(in *Input) { in.Title = strings.Repeat("x", 201) },
			wantErr: true,
		},
		{
			name:    "content too short",
			mutate:  func(in *Input) { in.Content = "short" },
			wantErr: true,
		},
		{
			name:    "invalid story type",
			mutate:  func(in *Input) { in.StoryType = "thriller" },
			wantErr: true,
		},
		{
			name:    "empty culture",
			mutate:  func(in *Input) { in.Culture = "" },
			wantErr: true,
		},
		{
			name:    "culture too long",
			mutate:  func(in *Input) { in.Culture = strings.Repeat("x", 101) },
			wantErr: true,
		},
		{
			name:    "invalid language",
			mutate:  func(in *Input) { in.Language = "xx" },
			wantErr: true,
		},
		{
			name:    "invalid age group",
			mutate:  func(in *Input) { in.TargetAgeGroup = "elders" },
			wantErr: true,
		},
		{
			name:   "explicit age group",
			mutate: func(in *Input) { in.TargetAgeGroup = "children" },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			err := in.Validate()
			if tt.wantErr && err == nil {
				t.Error("Expected validation error, got nil")
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Expected no error, got %v", err)
			}
		})
	}
}

func TestInputValidateDefaults(t *testing.T) {
	in := validInput()
	if err := in.Validate(); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if in.Language != LanguageEnglish {
		t.Errorf("Expected default language en, got %s", in.Language)
	}
	if in.TargetAgeGroup != "all" {
		t.Errorf("Expected default age group all, got %s", in.TargetAgeGroup)
	}
	if !in.InteractiveEnabled() {
		t.Error("Expected interactive to default to enabled")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name string
		text string
		n    int
		want string
	}{
		{"shorter than limit", "hello", 10, "hello"},
		{"exactly at limit", "hello", 5, "hello"},
		{"over limit", "hello world", 5, "hello"},
		{"multibyte runes", "नमस्ते दुनिया", 6, "नमस्ते"},
		{"empty", "", 5, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Truncate(tt.text, tt.n); got != tt.want {
				t.Errorf("Truncate(%q, %d) = %q, want %q", tt.text, tt.n, got, tt.want)
			}
		})
	}
}

func TestExcerpt(t *testing.T) {
	s := &Story{EnhancedContent: strings.Repeat("a", 600)}
	if got := s.Excerpt(500); len(got) != 500 {
		t.Errorf("Expected 500-rune excerpt, got %d", len(got))
	}
}
