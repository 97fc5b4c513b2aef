package story

import (
	"fmt"
	"time"
)

// StoryType categorizes the narrative tradition a story belongs to.
type StoryType string

const (
	TypeFolkTale          StoryType = "folk_tale"
	TypeHistorical        StoryType = "historical"
	TypeMythology         StoryType = "mythology"
	TypeCulturalTradition StoryType = "cultural_tradition"
)

// IsValid reports whether the story type is one of the known values.
func (t StoryType) IsValid() bool {
	switch t {
	case TypeFolkTale, TypeHistorical, TypeMythology, TypeCulturalTradition:
		return true
	}
	return false
}

// Choice is one reader-selectable branch offered by a scene.
// Choice IDs are unique within the scene that offers them, not globally;
// a new scene replaces the whole set.
type Choice struct {
	ID          string `json:"choice_id"`
	Text        string `json:"choice_text"`
	Consequence string `json:"consequence"`
}

// Story is an enhanced narrative record held by the story registry.
// Translation forks a new Story under a new ID; the source is never
// mutated. Media URLs are attached later by the media pipeline.
type Story struct {
	ID              string    `json:"story_id"`
	Title           string    `json:"title"`
	EnhancedContent string    `json:"enhanced_content"`
	Language        Language  `json:"language"`
	Culture         string    `json:"culture"`
	StoryType       StoryType `json:"story_type"`
	Interactive     bool      `json:"interactive_enabled"`
	Choices         []Choice  `json:"choices"`
	AudioURL        string    `json:"audio_url,omitempty"`
	ImageURL        string    `json:"image_url,omitempty"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
}

// Excerpt returns the first n runes of the enhanced content. It is the
// canonical scene-0 text for interactive sessions.
func (s *Story) Excerpt(n int) string {
	return Truncate(s.EnhancedContent, n)
}

// Truncate returns the first n runes of text, whole text if shorter.
func Truncate(text string, n int) string {
	runes := []rune(text)
	if len(runes) <= n {
		return text
	}
	return string(runes[:n])
}

// Input is the raw authored story submitted to the authoring flow,
// before enhancement.
type Input struct {
	Title          string    `json:"title"`
	Content        string    `json:"content"`
	StoryType      StoryType `json:"story_type"`
	Language       Language  `json:"language"`
	Culture        string    `json:"culture"`
	Tags           []string  `json:"tags,omitempty"`
	TargetAgeGroup string    `json:"target_age_group,omitempty"`

	// Interactive defaults to true when absent.
	Interactive *bool `json:"interactive_enabled,omitempty"`
}

// InteractiveEnabled resolves the tri-state flag.
func (in *Input) InteractiveEnabled() bool {
	return in.Interactive == nil || *in.Interactive
}

const (
	maxTitleLen   = 200
	minContentLen = 10
	maxCultureLen = 100
)

var ageGroups = map[string]bool{
	"children": true,
	"teens":    true,
	"adults":   true,
	"all":      true,
}

// Validate checks the authored input and fills defaults. It rejects
// malformed input before it reaches the session core.
func (in *Input) Validate() error {
	if in.Title == "" {
		return fmt.Errorf("title cannot be empty")
	}
	if len(in.Title) > maxTitleLen {
		return fmt.Errorf("title cannot exceed %d characters", maxTitleLen)
	}
	if len(in.Content) < minContentLen {
		return fmt.Errorf("content must be at least %d characters", minContentLen)
	}
	if !in.StoryType.IsValid() {
		return fmt.Errorf("invalid story type: %q", in.StoryType)
	}
	if in.Culture == "" {
		return fmt.Errorf("culture cannot be empty")
	}
	if len(in.Culture) > maxCultureLen {
		return fmt.Errorf("culture cannot exceed %d characters", maxCultureLen)
	}
	if in.Language == "" {
		in.Language = LanguageEnglish
	}
	if !in.Language.IsValid() {
		return fmt.Errorf("invalid language: %q", in.Language)
	}
	if in.TargetAgeGroup == "" {
		in.TargetAgeGroup = "all"
	}
	if !ageGroups[in.TargetAgeGroup] {
		return fmt.Errorf("invalid target age group: %q", in.TargetAgeGroup)
	}
	return nil
}
