package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ChatSync/internal/blob"
	"ChatSync/internal/identity"
	"ChatSync/internal/model"
	"ChatSync/internal/repo"

	"go.uber.org/zap"
)

var ErrUserAlreadyExists = errors.New("user already exists")

// ChatService orchestrates the sync engine, the user directory and the blob
// store behind the HTTP and websocket surfaces.
type ChatService interface {
	Register(ctx context.Context, user model.User, picture []byte) error
	SearchUsers(ctx context.Context, session model.Session, query string) ([]model.DirectoryEntry, error)
	ProfilePictureURL(ctx context.Context, email string) (string, error)
	UploadProfilePicture(ctx context.Context, session model.Session, picture []byte) (string, error)

	StartConversation(ctx context.Context, session model.Session, otherEmail, name, text string) (string, error)
	SendText(ctx context.Context, session model.Session, conversationID, otherEmail, name, text string) error
	SendPhoto(ctx context.Context, session model.Session, conversationID, otherEmail, name string, image []byte) (string, error)
	Send(ctx context.Context, session model.Session, conversationID, otherEmail, name string, msg model.Message) error

	Conversations(ctx context.Context, session model.Session) ([]model.ConversationSummary, error)
	Messages(ctx context.Context, conversationID string) ([]model.MessageRecord, error)
	ObserveConversations(ctx context.Context, userKey string) (<-chan []model.ConversationSummary, error)
	ObserveMessages(ctx context.Context, conversationID string) (<-chan []model.MessageRecord, error)
}

type chatService struct {
	conversations repo.ConversationRepository
	users         repo.UserRepository
	blobs         blob.Store
	logger        *zap.Logger
}

func NewChatService(conversations repo.ConversationRepository, users repo.UserRepository, blobs blob.Store, logger *zap.Logger) ChatService {
	return &chatService{
		conversations: conversations,
		users:         users,
		blobs:         blobs,
		logger:        logger,
	}
}

// Register creates the user record on first sign-in and uploads the profile
// picture when one is provided. A failed picture upload does not undo the
// registration.
func (s *chatService) Register(ctx context.Context, user model.User, picture []byte) error {
	exists, err := s.users.UserExists(ctx, user.Email)
	if err != nil {
		return err
	}
	if exists {
		return ErrUserAlreadyExists
	}

	if err := s.users.InsertUser(ctx, user); err != nil {
		return err
	}

	if len(picture) > 0 {
		url, err := s.blobs.Upload(ctx, picture, user.ProfilePictureFileName())
		if err != nil {
			s.logger.Error("profile picture upload failed",
				zap.String("user_key", user.SafeEmail()),
				zap.Error(err),
			)
		} else {
			s.logger.Info("profile picture uploaded",
				zap.String("user_key", user.SafeEmail()),
				zap.String("url", url),
			)
		}
	}
	return nil
}

// SearchUsers returns directory entries matching query, excluding the
// caller.
func (s *chatService) SearchUsers(ctx context.Context, session model.Session, query string) ([]model.DirectoryEntry, error) {
	all, err := s.users.AllUsers(ctx)
	if err != nil {
		return nil, err
	}

	selfKey := session.Key()
	query = strings.ToLower(query)
	return Filter(all, func(e model.DirectoryEntry) bool {
		if e.Email == selfKey {
			return false
		}
		if query == "" {
			return true
		}
		return strings.Contains(strings.ToLower(e.Name), query) ||
			strings.Contains(strings.ToLower(e.Email), query)
	}), nil
}

func (s *chatService) ProfilePictureURL(ctx context.Context, email string) (string, error) {
	return s.blobs.DownloadURL(ctx, "images/"+identity.ProfilePictureFileName(email))
}

func (s *chatService) UploadProfilePicture(ctx context.Context, session model.Session, picture []byte) (string, error) {
	return s.blobs.Upload(ctx, picture, identity.ProfilePictureFileName(session.Email))
}

func (s *chatService) StartConversation(ctx context.Context, session model.Session, otherEmail, name, text string) (string, error) {
	msg := model.Message{
		ID:     identity.MessageID(otherEmail, session.Email, time.Now()),
		Kind:   model.KindText,
		Text:   text,
		SentAt: time.Now(),
	}
	return s.conversations.CreateConversation(ctx, session, otherEmail, name, msg)
}

func (s *chatService) SendText(ctx context.Context, session model.Session, conversationID, otherEmail, name, text string) error {
	msg := model.Message{
		ID:     identity.MessageID(otherEmail, session.Email, time.Now()),
		Kind:   model.KindText,
		Text:   text,
		SentAt: time.Now(),
	}
	return s.Send(ctx, session, conversationID, otherEmail, name, msg)
}

// SendPhoto uploads the image first, then appends a photo message carrying
// the blob URL. It returns the URL.
func (s *chatService) SendPhoto(ctx context.Context, session model.Session, conversationID, otherEmail, name string, image []byte) (string, error) {
	id := identity.MessageID(otherEmail, session.Email, time.Now())
	url, err := s.blobs.Upload(ctx, image, identity.PhotoMessageFileName(id))
	if err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}

	msg := model.Message{
		ID:       id,
		Kind:     model.KindPhoto,
		MediaURL: url,
		SentAt:   time.Now(),
	}
	if err := s.Send(ctx, session, conversationID, otherEmail, name, msg); err != nil {
		return "", err
	}
	return url, nil
}

func (s *chatService) Send(ctx context.Context, session model.Session, conversationID, otherEmail, name string, msg model.Message) error {
	return s.conversations.SendMessage(ctx, session, conversationID, otherEmail, name, msg)
}

func (s *chatService) Conversations(ctx context.Context, session model.Session) ([]model.ConversationSummary, error) {
	return s.conversations.Conversations(ctx, session.Key())
}

func (s *chatService) Messages(ctx context.Context, conversationID string) ([]model.MessageRecord, error) {
	return s.conversations.Messages(ctx, conversationID)
}

func (s *chatService) ObserveConversations(ctx context.Context, userKey string) (<-chan []model.ConversationSummary, error) {
	return s.conversations.ObserveConversations(ctx, userKey)
}

func (s *chatService) ObserveMessages(ctx context.Context, conversationID string) (<-chan []model.MessageRecord, error) {
	return s.conversations.ObserveMessages(ctx, conversationID)
}
