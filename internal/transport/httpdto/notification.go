package httpdto

type CreateNotificationRequest struct {
	Type         string `json:"type" binding:"required"`
	Content      string `json:"content"`
	ReceiverID   string `json:"receiverId" binding:"required"`
	ReferenceID  string `json:"referenceId"`
	ReferenceURL string `json:"referenceUrl"`
}
