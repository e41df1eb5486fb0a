package imagemeta

import (
	"regexp"
	"strings"
)

var (
	promptPattern          = regexp.MustCompile(`(?s)GrokImagePrompt:\s*(.*?),(?:\s*GrokImageUpsampledPrompt:|$)`)
	upsampledPromptPattern = regexp.MustCompile(`(?s)GrokImageUpsampledPrompt:\s*(.*)`)
)

// Prompts holds the prompt that produced an image and its upsampled rewrite.
type Prompts struct {
	Prompt          string `json:"prompt" yaml:"prompt"`
	UpsampledPrompt string `json:"upsampledPrompt" yaml:"upsampled_prompt"`
}

func (p Prompts) IsZero() bool {
	return p.Prompt == "" && p.UpsampledPrompt == ""
}

// ParsePrompts extracts both prompt fields from a comment. The two fields are
// matched independently, so either may be missing.
func ParsePrompts(comment string) Prompts {
	var ret Prompts
	if m := promptPattern.FindStringSubmatch(comment); m != nil {
		ret.Prompt = strings.TrimSpace(m[1])
	}
	if m := upsampledPromptPattern.FindStringSubmatch(comment); m != nil {
		ret.UpsampledPrompt = strings.TrimSpace(m[1])
	}
	return ret
}

// ExtractPrompts reads the comment segment of an image and parses its prompts.
func ExtractPrompts(data []byte) (Prompts, error) {
	comment, err := ExtractComment(data)
	if err != nil {
		return Prompts{}, err
	}
	return ParsePrompts(comment), nil
}
