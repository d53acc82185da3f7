package handler

import (
	"errors"
	"io"
	"net/http"

	"ChatSync/internal/middleware"
	"ChatSync/internal/model"
	"ChatSync/internal/service"

	"github.com/gin-gonic/gin"
)

const maxPictureBytes = 10 << 20

type UserHandler interface {
	CreateUser(c *gin.Context)
	SearchUsers(c *gin.Context)
	GetProfilePicture(c *gin.Context)
	UploadProfilePicture(c *gin.Context)
}

type userHandler struct {
	service service.ChatService
}

func NewUserHandler(service service.ChatService) UserHandler {
	return &userHandler{service: service}
}

type createUserRequest struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

// CreateUser registers an account on first sign-in.
func (h *userHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user := model.User{FirstName: req.FirstName, LastName: req.LastName, Email: req.Email}
	if err := h.service.Register(c.Request.Context(), user, nil); err != nil {
		if errors.Is(err, service.ErrUserAlreadyExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "user already exists"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"user_key": user.SafeEmail()})
}

func (h *userHandler) SearchUsers(c *gin.Context) {
	session := middleware.SessionFrom(c)
	query := c.Query("q")

	users, err := h.service.SearchUsers(c.Request.Context(), session, query)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to search users"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"users": users})
}

func (h *userHandler) GetProfilePicture(c *gin.Context) {
	email := c.Param("email")

	url, err := h.service.ProfilePictureURL(c.Request.Context(), email)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "no profile picture"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

func (h *userHandler) UploadProfilePicture(c *gin.Context) {
	session := middleware.SessionFrom(c)

	data, err := readUpload(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	url, err := h.service.UploadProfilePicture(c.Request.Context(), session, data)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "upload failed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"url": url})
}

// readUpload pulls the image out of a multipart form ("image" field) or the
// raw request body.
func readUpload(c *gin.Context) ([]byte, error) {
	if file, err := c.FormFile("image"); err == nil {
		f, err := file.Open()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return io.ReadAll(io.LimitReader(f, maxPictureBytes))
	}
	return io.ReadAll(io.LimitReader(c.Request.Body, maxPictureBytes))
}
