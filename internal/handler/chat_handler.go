package handler

import (
	"errors"
	"net/http"

	"ChatSync/internal/middleware"
	"ChatSync/internal/repo"
	"ChatSync/internal/service"

	"github.com/gin-gonic/gin"
)

type ChatHandler interface {
	CreateConversation(c *gin.Context)
	ListConversations(c *gin.Context)
	ListMessages(c *gin.Context)
	SendMessage(c *gin.Context)
	SendPhotoMessage(c *gin.Context)
}

type chatHandler struct {
	service service.ChatService
}

func NewChatHandler(service service.ChatService) ChatHandler {
	return &chatHandler{service: service}
}

type createConversationRequest struct {
	OtherUserEmail string `json:"other_user_email" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Text           string `json:"text" binding:"required"`
}

func (h *chatHandler) CreateConversation(c *gin.Context) {
	session := middleware.SessionFrom(c)

	var req createConversationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.service.StartConversation(c.Request.Context(), session, req.OtherUserEmail, req.Name, req.Text)
	if err != nil {
		status, msg := chatErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"conversation_id": id})
}

func (h *chatHandler) ListConversations(c *gin.Context) {
	session := middleware.SessionFrom(c)

	conversations, err := h.service.Conversations(c.Request.Context(), session)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list conversations"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

func (h *chatHandler) ListMessages(c *gin.Context) {
	conversationID := c.Param("conversationId")

	messages, err := h.service.Messages(c.Request.Context(), conversationID)
	if err != nil {
		status, msg := chatErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}

type sendMessageRequest struct {
	OtherUserEmail string `json:"other_user_email" binding:"required"`
	Name           string `json:"name" binding:"required"`
	Text           string `json:"text" binding:"required"`
}

func (h *chatHandler) SendMessage(c *gin.Context) {
	session := middleware.SessionFrom(c)
	conversationID := c.Param("conversationId")

	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	err := h.service.SendText(c.Request.Context(), session, conversationID, req.OtherUserEmail, req.Name, req.Text)
	if err != nil {
		status, msg := chatErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "sent"})
}

// SendPhotoMessage accepts a multipart form with the photo in "image" plus
// "other_user_email" and "name" fields. The photo is uploaded to the blob
// store first; the message then carries its URL.
func (h *chatHandler) SendPhotoMessage(c *gin.Context) {
	session := middleware.SessionFrom(c)
	conversationID := c.Param("conversationId")

	otherUserEmail := c.PostForm("other_user_email")
	name := c.PostForm("name")
	if otherUserEmail == "" || name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "other_user_email and name are required"})
		return
	}

	data, err := readUpload(c)
	if err != nil || len(data) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "image is required"})
		return
	}

	url, err := h.service.SendPhoto(c.Request.Context(), session, conversationID, otherUserEmail, name, data)
	if err != nil {
		status, msg := chatErrorStatus(err)
		c.JSON(status, gin.H{"error": msg})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{"status": "sent", "url": url})
}

func chatErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, repo.ErrNotAuthenticated):
		return http.StatusUnauthorized, "not authenticated"
	case errors.Is(err, repo.ErrUserNotFound):
		return http.StatusNotFound, "user not found"
	case errors.Is(err, repo.ErrConversationNotFound):
		return http.StatusNotFound, "conversation not found"
	default:
		return http.StatusInternalServerError, "operation failed"
	}
}
