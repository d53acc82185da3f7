package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"ChatSync/internal/blob"
	"ChatSync/internal/model"
	"ChatSync/internal/repo"
	"ChatSync/internal/treestore"

	"go.uber.org/zap"
)

func newTestService(t *testing.T) ChatService {
	t.Helper()
	store := treestore.NewMemoryStore()
	logger := zap.NewNop()
	blobs, err := blob.NewFilesystemStore(t.TempDir(), "http://localhost:8080", logger)
	if err != nil {
		t.Fatalf("blob store: %v", err)
	}
	return NewChatService(
		repo.NewConversationRepository(store, logger, repo.Serialized),
		repo.NewUserRepository(store, logger),
		blobs,
		logger,
	)
}

func mustRegister(t *testing.T, svc ChatService, first, last, email string) {
	t.Helper()
	err := svc.Register(context.Background(), model.User{FirstName: first, LastName: last, Email: email}, nil)
	if err != nil {
		t.Fatalf("Register %s failed: %v", email, err)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc := newTestService(t)
	mustRegister(t, svc, "A", "B", "a.b@example.com")

	err := svc.Register(context.Background(), model.User{FirstName: "A", LastName: "B", Email: "a.b@example.com"}, nil)
	if !errors.Is(err, ErrUserAlreadyExists) {
		t.Fatalf("got %v, want ErrUserAlreadyExists", err)
	}
}

func TestSearchUsersExcludesSelf(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	mustRegister(t, svc, "A", "B", "a.b@example.com")
	mustRegister(t, svc, "X", "Y", "x.y@example.com")

	session := model.Session{Email: "a.b@example.com", Name: "A B"}

	results, err := svc.SearchUsers(ctx, session, "")
	if err != nil {
		t.Fatalf("SearchUsers failed: %v", err)
	}
	if len(results) != 1 || results[0].Email != "x-y-example-com" {
		t.Fatalf("results = %+v", results)
	}

	results, err = svc.SearchUsers(ctx, session, "nobody")
	if err != nil || len(results) != 0 {
		t.Fatalf("filtered results = %+v, %v", results, err)
	}
}

func TestSendPhotoUploadsThenAppends(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	mustRegister(t, svc, "A", "B", "a.b@example.com")
	mustRegister(t, svc, "X", "Y", "x.y@example.com")

	session := model.Session{Email: "a.b@example.com", Name: "A B"}
	conversationID, err := svc.StartConversation(ctx, session, "x.y@example.com", "X Y", "hi")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}

	url, err := svc.SendPhoto(ctx, session, conversationID, "x.y@example.com", "X Y", []byte("png"))
	if err != nil {
		t.Fatalf("SendPhoto failed: %v", err)
	}
	if !strings.HasPrefix(url, "http://localhost:8080/images/photo_message_") {
		t.Fatalf("photo url = %q", url)
	}

	records, err := svc.Messages(ctx, conversationID)
	if err != nil {
		t.Fatalf("Messages failed: %v", err)
	}
	last := records[len(records)-1]
	if last.Type != model.KindPhoto || last.MediaURL() != url {
		t.Fatalf("photo record = %+v", last)
	}
}

func TestStartConversationThenListBothSides(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)
	mustRegister(t, svc, "A", "B", "a.b@example.com")
	mustRegister(t, svc, "X", "Y", "x.y@example.com")

	sessionA := model.Session{Email: "a.b@example.com", Name: "A B"}
	sessionX := model.Session{Email: "x.y@example.com", Name: "X Y"}

	id, err := svc.StartConversation(ctx, sessionA, "x.y@example.com", "X Y", "hello")
	if err != nil {
		t.Fatalf("StartConversation failed: %v", err)
	}

	for _, session := range []model.Session{sessionA, sessionX} {
		summaries, err := svc.Conversations(ctx, session)
		if err != nil {
			t.Fatalf("Conversations(%s) failed: %v", session.Email, err)
		}
		if len(summaries) != 1 || summaries[0].ID != id {
			t.Fatalf("summaries for %s = %+v", session.Email, summaries)
		}
	}
}
