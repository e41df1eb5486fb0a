package api

import "github.com/huandu/go-clone"

const (
	CreateConversationURL = "https://x.com/i/api/graphql/vvC5uy7pWWHXS2aDi1FZeA/CreateGrokConversation"
	ConversationItemsURL  = "https://x.com/i/api/graphql/nuCH8TfQbItLdaiNCCfQ_Q/GrokConversationItemsByRestId"
	AttachmentURL         = "https://x.com/i/api/2/grok/attachment.json"
	AddResponseURL        = "https://grok.x.com/2/grok/add_response.json"
	ShareConversationURL  = "https://x.com/i/api/graphql/VjcMAfH8MXzaWoNmAsUidw/useShareGrokConversationMutation"
)

const (
	DefaultModel                = "grok-2a"
	DefaultImageGenerationCount = 4
	DefaultLang                 = "en-US"
)

// Endpoints is the URL table a Client talks to.
type Endpoints struct {
	CreateConversation string
	ConversationItems  string
	Attachment         string
	AddResponse        string
}

func DefaultEndpoints() Endpoints {
	return Endpoints{
		CreateConversation: CreateConversationURL,
		ConversationItems:  ConversationItemsURL,
		Attachment:         AttachmentURL,
		AddResponse:        AddResponseURL,
	}
}

var conversationItemsFeatures = map[string]bool{
	"creator_subscriptions_tweet_preview_api_enabled":                         true,
	"premium_content_api_read_enabled":                                        false,
	"communities_web_enable_tweet_community_results_fetch":                    true,
	"c9s_tweet_anatomy_moderator_badge_enabled":                               true,
	"responsive_web_grok_analyze_button_fetch_trends_enabled":                 false,
	"responsive_web_grok_analyze_post_followups_enabled":                      true,
	"responsive_web_grok_share_attachment_enabled":                            true,
	"articles_preview_enabled":                                                true,
	"responsive_web_edit_tweet_api_enabled":                                   true,
	"graphql_is_translatable_rweb_tweet_is_translatable_enabled":              true,
	"view_counts_everywhere_api_enabled":                                      true,
	"longform_notetweets_consumption_enabled":                                 true,
	"responsive_web_twitter_article_tweet_consumption_enabled":                true,
	"tweet_awards_web_tipping_enabled":                                        false,
	"creator_subscriptions_quote_tweet_preview_enabled":                       false,
	"freedom_of_speech_not_reach_fetch_enabled":                               true,
	"standardized_nudges_misinfo":                                             true,
	"tweet_with_visibility_results_prefer_gql_limited_actions_policy_enabled": true,
	"rweb_video_timestamps_enabled":                                           true,
	"longform_notetweets_rich_text_read_enabled":                              true,
	"longform_notetweets_inline_media_enabled":                                true,
	"profile_label_improvements_pcf_label_in_post_enabled":                    false,
	"rweb_tipjar_consumption_enabled":                                         true,
	"responsive_web_graphql_exclude_directive_enabled":                        true,
	"verified_phone_label_enabled":                                            false,
	"responsive_web_graphql_skip_user_profile_image_extensions_enabled":       false,
	"responsive_web_graphql_timeline_navigation_enabled":                      true,
	"responsive_web_enhance_cards_enabled":                                    false,
}

// ConversationItemsFeatures returns a copy of the GraphQL feature flags sent
// with GrokConversationItemsByRestId.
func ConversationItemsFeatures() map[string]bool {
	return clone.Clone(conversationItemsFeatures).(map[string]bool)
}
