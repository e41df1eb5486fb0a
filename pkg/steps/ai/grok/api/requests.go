package api

import "github.com/go-go-golems/grokker/pkg/conversation"

type PromptMetadata struct {
	PromptSource string `json:"promptSource"`
	Action       string `json:"action"`
}

type RequestFeatures struct {
	EagerTweets   bool `json:"eagerTweets"`
	ServerHistory bool `json:"serverHistory"`
}

// AddResponseRequest is the body of an add_response call. Field order
// matches what the web client sends.
type AddResponseRequest struct {
	Responses            []conversation.ResponseItem `json:"responses"`
	SystemPromptName     string                      `json:"systemPromptName"`
	GrokModelOptionID    string                      `json:"grokModelOptionId"`
	ConversationID       string                      `json:"conversationId"`
	ReturnSearchResults  bool                        `json:"returnSearchResults"`
	ReturnCitations      bool                        `json:"returnCitations"`
	PromptMetadata       PromptMetadata              `json:"promptMetadata"`
	ImageGenerationCount int                         `json:"imageGenerationCount"`
	RequestFeatures      RequestFeatures             `json:"requestFeatures"`
}

func NewAddResponseRequest(
	conversationID string,
	model string,
	imageGenerationCount int,
	responses []conversation.ResponseItem,
) *AddResponseRequest {
	if responses == nil {
		responses = []conversation.ResponseItem{}
	}
	return &AddResponseRequest{
		Responses:           responses,
		SystemPromptName:    "",
		GrokModelOptionID:   model,
		ConversationID:      conversationID,
		ReturnSearchResults: true,
		ReturnCitations:     true,
		PromptMetadata: PromptMetadata{
			PromptSource: "NATURAL",
			Action:       "INPUT",
		},
		ImageGenerationCount: imageGenerationCount,
		RequestFeatures: RequestFeatures{
			EagerTweets:   true,
			ServerHistory: true,
		},
	}
}
