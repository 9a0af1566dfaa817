package dto

// PostMessageRequest - запрос на публикацию сообщения
type PostMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

// ReactionRequest - запрос на переключение реакции
type ReactionRequest struct {
	Emoji string `json:"emoji" binding:"required"`
}
