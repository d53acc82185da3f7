package repo

import (
	"context"
	"errors"
	"testing"

	"ChatSync/internal/model"
	"ChatSync/internal/treestore"

	"go.uber.org/zap"
)

func TestInsertUserAndLookup(t *testing.T) {
	ctx := context.Background()
	store := treestore.NewMemoryStore()
	r := NewUserRepository(store, zap.NewNop())

	user := model.User{FirstName: "A", LastName: "B", Email: "a.b@example.com"}

	exists, err := r.UserExists(ctx, user.Email)
	if err != nil || exists {
		t.Fatalf("UserExists before insert: %v %v", exists, err)
	}

	if err := r.InsertUser(ctx, user); err != nil {
		t.Fatalf("InsertUser failed: %v", err)
	}

	exists, err = r.UserExists(ctx, user.Email)
	if err != nil || !exists {
		t.Fatalf("UserExists after insert: %v %v", exists, err)
	}

	profile, err := r.Profile(ctx, user.Email)
	if err != nil {
		t.Fatalf("Profile failed: %v", err)
	}
	if profile.FirstName != "A" || profile.LastName != "B" {
		t.Fatalf("profile = %+v", profile)
	}

	if _, err := r.Profile(ctx, "nobody@example.com"); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("Profile for unknown user: %v", err)
	}
}

func TestAllUsersDirectory(t *testing.T) {
	ctx := context.Background()
	store := treestore.NewMemoryStore()
	r := NewUserRepository(store, zap.NewNop())

	users, err := r.AllUsers(ctx)
	if err != nil || len(users) != 0 {
		t.Fatalf("empty directory: %v %v", users, err)
	}

	for _, u := range []model.User{
		{FirstName: "A", LastName: "B", Email: "a.b@example.com"},
		{FirstName: "X", LastName: "Y", Email: "x.y@example.com"},
	} {
		if err := r.InsertUser(ctx, u); err != nil {
			t.Fatalf("InsertUser failed: %v", err)
		}
	}

	users, err = r.AllUsers(ctx)
	if err != nil {
		t.Fatalf("AllUsers failed: %v", err)
	}
	if len(users) != 2 {
		t.Fatalf("directory size = %d", len(users))
	}
	if users[0].Email != "a-b-example-com" || users[0].Name != "A B" {
		t.Fatalf("entry = %+v", users[0])
	}
}
