package imagemeta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePrompts(t *testing.T) {
	tests := []struct {
		name     string
		comment  string
		expected Prompts
	}{
		{
			name:     "both fields",
			comment:  "GrokImagePrompt: a cat,GrokImageUpsampledPrompt: a fluffy cat",
			expected: Prompts{Prompt: "a cat", UpsampledPrompt: "a fluffy cat"},
		},
		{
			name:     "whitespace between fields",
			comment:  "GrokImagePrompt:   robot , \n GrokImageUpsampledPrompt:  shiny robot \n",
			expected: Prompts{Prompt: "robot", UpsampledPrompt: "shiny robot"},
		},
		{
			name:     "multiline values",
			comment:  "GrokImagePrompt: a cat\non a mat,GrokImageUpsampledPrompt: a fluffy cat\nsitting on a mat",
			expected: Prompts{Prompt: "a cat\non a mat", UpsampledPrompt: "a fluffy cat\nsitting on a mat"},
		},
		{
			name:     "prompt with inner commas",
			comment:  "GrokImagePrompt: red, green, blue,GrokImageUpsampledPrompt: colors",
			expected: Prompts{Prompt: "red, green, blue", UpsampledPrompt: "colors"},
		},
		{
			name:     "trailing comma at end of string",
			comment:  "GrokImagePrompt: only this,",
			expected: Prompts{Prompt: "only this"},
		},
		{
			name:     "upsampled only",
			comment:  "GrokImageUpsampledPrompt: a detailed landscape",
			expected: Prompts{UpsampledPrompt: "a detailed landscape"},
		},
		{name: "unrelated comment", comment: "Created with GIMP"},
		{name: "empty", comment: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, ParsePrompts(tt.comment))
		})
	}
}

func TestExtractPrompts(t *testing.T) {
	data := jpegWithComment("GrokImagePrompt: robot,GrokImageUpsampledPrompt: shiny robot")
	prompts, err := ExtractPrompts(data)
	require.NoError(t, err)
	assert.Equal(t, "robot", prompts.Prompt)
	assert.Equal(t, "shiny robot", prompts.UpsampledPrompt)
	assert.False(t, prompts.IsZero())
}

func TestExtractPromptsWithoutMarker(t *testing.T) {
	prompts, err := ExtractPrompts([]byte("not an image"))
	require.NoError(t, err)
	assert.True(t, prompts.IsZero())
	assert.Equal(t, "", prompts.Prompt)
	assert.Equal(t, "", prompts.UpsampledPrompt)
}

func TestExtractPromptsBadLength(t *testing.T) {
	_, err := ExtractPrompts([]byte{0xFF, 0xFE, 0xFF, 0xFF})
	assert.ErrorIs(t, err, ErrBinaryFormat)
}
