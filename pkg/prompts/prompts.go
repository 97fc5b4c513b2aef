// Package prompts holds the prompt templates sent to the text-generation
// backend. Templates are plain format strings; the content service owns
// truncation and fallback policy.
package prompts

import (
	"fmt"
	"strings"

	"github.com/kahani-labs/kahani/pkg/story"
)

// ChoiceCount is the number of branch choices requested per scene.
const ChoiceCount = 3

const enhanceTemplate = `You are a master storyteller specializing in cultural narratives.

Original Story Details:
- Title: %s
- Type: %s
- Culture: %s
- Language: %s
- Target Age: %s
- Content: %s

Please enhance this story by:
1. Improving the narrative flow and engagement
2. Adding authentic cultural details and context
3. Making it appropriate for the target age group
4. Preserving the original cultural essence
5. Making it more vivid and immersive

Return only the enhanced story content, maintaining cultural authenticity.`

func Enhance(in *story.Input) string {
	return fmt.Sprintf(enhanceTemplate,
		in.Title, in.StoryType, in.Culture, in.Language.DisplayName(),
		in.TargetAgeGroup, in.Content)
}

const choicesTemplate = `Based on this story context: "%s"

Generate exactly %d meaningful choices for the reader that would lead to different story paths.
Each choice should:
1. Be engaging and culturally appropriate
2. Lead to a distinct narrative direction
3. Maintain the story's cultural authenticity

Format your response as a JSON array with this structure:
[
    {
        "choice_id": "choice_1",
        "choice_text": "Clear, engaging choice description",
        "consequence": "Brief description of what happens next"
    }
]
Return only the JSON array.`

func Choices(sceneContext string) string {
	return fmt.Sprintf(choicesTemplate, sceneContext, ChoiceCount)
}

const continueTemplate = `Story History: %s
User Chose: %s

Continue the story based on this choice. The continuation should:
1. Be 2-3 paragraphs long
2. Maintain cultural authenticity
3. Be engaging and immersive
4. Lead naturally to the next decision point
5. Preserve the original story's tone and style

Return only the story continuation.`

// Continue builds the continuation prompt from at most the last three
// history entries and the chosen consequence.
func Continue(history []string, consequence string) string {
	recent := history
	if len(recent) > 3 {
		recent = recent[len(recent)-3:]
	}
	return fmt.Sprintf(continueTemplate, strings.Join(recent, " -> "), consequence)
}

const translateTemplate = `Translate the following cultural story to %s while:
1. Preserving all cultural references and context
2. Maintaining the story's emotional tone
3. Keeping cultural terms that don't have direct translations (with brief explanations)
4. Ensuring the translation is natural and engaging

Story to translate: %s`

func Translate(content string, target story.Language) string {
	return fmt.Sprintf(translateTemplate, target.DisplayName(), content)
}

const visualTemplate = `Based on this story context: "%s"

Create a detailed visual description suitable for AI image generation that captures:
1. The cultural setting and atmosphere
2. Key characters and their traditional attire
3. Important cultural artifacts or symbols
4. The mood and tone of the scene
5. Traditional architectural or natural elements

Keep the description concise but vivid, focusing on visual elements that represent the culture authentically.`

func Visual(sceneContext string) string {
	return fmt.Sprintf(visualTemplate, sceneContext)
}
