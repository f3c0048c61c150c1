package httpdto

type CreateChatRequest struct {
	ParticipantIDs []string `json:"participantIds" binding:"required"`
	Name           string   `json:"name"`
	IsGroup        bool     `json:"isGroup"`
}

type SendMessageRequest struct {
	ConversationID string `json:"conversationId" binding:"required"`
	Content        string `json:"content" binding:"required"`
}

type EditMessageRequest struct {
	Content string `json:"content" binding:"required"`
}
