package providers

// ChatbotType selects the persona (system prompt) used for a conversation
type ChatbotType string

const (
	ChatbotNews      ChatbotType = "news"
	ChatbotPersonal  ChatbotType = "personal"
	ChatbotCreative  ChatbotType = "creative"
	ChatbotTechnical ChatbotType = "technical"
	ChatbotOther     ChatbotType = "other"
)

// DefaultSystemPrompt is used for chatbot types without a dedicated persona
const DefaultSystemPrompt = "You are a helpful assistant."

// DefaultPersonas returns the built-in persona prompts.
// ChatbotOther deliberately has no entry and falls back to DefaultSystemPrompt.
func DefaultPersonas() map[ChatbotType]string {
	return map[ChatbotType]string{
		ChatbotNews:      "You are a knowledgeable news assistant. Provide accurate, up-to-date news information. Be concise and informative.",
		ChatbotPersonal:  "You are a helpful personal assistant. Be friendly, supportive, and provide practical advice.",
		ChatbotCreative:  "You are a creative assistant. Be imaginative, innovative, and help with brainstorming and creative projects.",
		ChatbotTechnical: "You are a technical expert. Provide detailed, accurate technical information and coding help.",
	}
}

// SystemPrompt looks up the persona for chatbotType. It never fails.
func SystemPrompt(personas map[ChatbotType]string, chatbotType ChatbotType) string {
	if prompt, ok := personas[chatbotType]; ok && prompt != "" {
		return prompt
	}
	return DefaultSystemPrompt
}

// BuildMessages assembles [system, last window entries of history, user message].
// History order is preserved; window <= 0 drops the history entirely.
func BuildMessages(systemPrompt string, history []Message, window int, message string) []Message {
	if window < 0 {
		window = 0
	}
	tail := history
	if len(tail) > window {
		tail = tail[len(tail)-window:]
	}

	messages := make([]Message, 0, len(tail)+2)
	messages = append(messages, Message{Role: RoleSystem, Content: systemPrompt})
	messages = append(messages, tail...)
	messages = append(messages, Message{Role: RoleUser, Content: message})
	return messages
}
