package handlers

import "aibot/core/session"

// Event id patterns for the provider menus and their start actions. The
// start keys are prefixes: variant events like "freepik_image_mystic_2k"
// dispatch to the same handler via prefix matching.
const (
	EventChatTextMenu  = "chatgpt_text"
	EventChatTextStart = "chatgpt_text_chat"

	EventChatImageMenu  = "chatgpt_image"
	EventChatImageStart = "chatgpt_image_chat"

	EventImageGenMenu  = "freepik_image"
	EventImageGenStart = "freepik_image_mystic"

	EventVideoGenMenu  = "kling_video"
	EventVideoGenStart = "kling_video_standard"
)

// NewChatText builds the conversational text provider.
func NewChatText(deps Deps) *generation {
	return &generation{
		deps:      deps,
		provider:  session.ProviderChatText,
		menuKey:   EventChatTextMenu,
		startKey:  EventChatTextStart,
		title:     "*Chat*: talk to the assistant.",
		askPrompt: "Send your message. The session stays open until you switch modes.",
	}
}

// NewChatImage builds the image-understanding chat provider.
func NewChatImage(deps Deps) *generation {
	return &generation{
		deps:      deps,
		provider:  session.ProviderChatImage,
		menuKey:   EventChatImageMenu,
		startKey:  EventChatImageStart,
		title:     "*Vision chat*: discuss an image.",
		askPrompt: "Describe what you want to know about your image.",
	}
}

// NewImageGen builds the image generation provider.
func NewImageGen(deps Deps) *generation {
	return &generation{
		deps:      deps,
		provider:  session.ProviderImageGen,
		menuKey:   EventImageGenMenu,
		startKey:  EventImageGenStart,
		title:     "*Image generation*: turn a prompt into a picture.",
		askPrompt: "Describe the image you want to generate.",
	}
}

// NewVideoGen builds the video generation provider.
func NewVideoGen(deps Deps) *generation {
	return &generation{
		deps:      deps,
		provider:  session.ProviderVideoGen,
		menuKey:   EventVideoGenMenu,
		startKey:  EventVideoGenStart,
		title:     "*Video generation*: turn a prompt into a short clip.",
		askPrompt: "Describe the video you want to generate.",
	}
}
