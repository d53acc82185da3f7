package repo

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"ChatSync/internal/identity"
	"ChatSync/internal/model"
	"ChatSync/internal/treestore"

	"go.uber.org/zap"
)

// usersDirectoryPath is the global directory node used for user search.
const usersDirectoryPath = "users"

type UserRepository interface {
	InsertUser(ctx context.Context, user model.User) error
	UserExists(ctx context.Context, email string) (bool, error)
	AllUsers(ctx context.Context) ([]model.DirectoryEntry, error)
	Profile(ctx context.Context, email string) (model.User, error)
}

type userRepository struct {
	store  treestore.Store
	logger *zap.Logger

	// serializes append-or-initialize cycles on the users directory
	directoryMu sync.Mutex
}

func NewUserRepository(store treestore.Store, logger *zap.Logger) UserRepository {
	return &userRepository{
		store:  store,
		logger: logger,
	}
}

// InsertUser writes the user node and adds the user to the search directory.
// Callers check UserExists first; inserting over an existing key replaces
// the node, conversations included.
func (r *userRepository) InsertUser(ctx context.Context, user model.User) error {
	key := user.SafeEmail()
	node := map[string]any{
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	}
	if err := r.store.Write(ctx, key, node); err != nil {
		r.logger.Error("failed to write user node",
			zap.String("user_key", key),
			zap.Error(err),
		)
		return fmt.Errorf("insert user: %w", err)
	}

	r.directoryMu.Lock()
	defer r.directoryMu.Unlock()

	cur, err := r.store.ReadOnce(ctx, usersDirectoryPath)
	if err != nil && !errors.Is(err, treestore.ErrPathNotFound) {
		return fmt.Errorf("read users directory: %w", err)
	}
	list, _ := cur.([]any)
	list = append(list, map[string]any{
		"name":  user.DisplayName(),
		"email": key,
	})
	if err := r.store.Write(ctx, usersDirectoryPath, list); err != nil {
		return fmt.Errorf("update users directory: %w", err)
	}

	r.logger.Info("user inserted", zap.String("user_key", key))
	return nil
}

func (r *userRepository) UserExists(ctx context.Context, email string) (bool, error) {
	_, err := r.store.ReadOnce(ctx, identity.SafeKey(email))
	if err != nil {
		if errors.Is(err, treestore.ErrPathNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("check user: %w", err)
	}
	return true, nil
}

// AllUsers returns the search directory. Malformed entries are dropped.
func (r *userRepository) AllUsers(ctx context.Context) ([]model.DirectoryEntry, error) {
	value, err := r.store.ReadOnce(ctx, usersDirectoryPath)
	if err != nil {
		if errors.Is(err, treestore.ErrPathNotFound) {
			return []model.DirectoryEntry{}, nil
		}
		return nil, fmt.Errorf("read users directory: %w", err)
	}

	entries, _ := asMapList(value)
	out := make([]model.DirectoryEntry, 0, len(entries))
	for _, entry := range entries {
		name, okName := asString(entry["name"])
		email, okEmail := asString(entry["email"])
		if !okName || !okEmail {
			continue
		}
		out = append(out, model.DirectoryEntry{Name: name, Email: email})
	}
	return out, nil
}

func (r *userRepository) Profile(ctx context.Context, email string) (model.User, error) {
	value, err := r.store.ReadOnce(ctx, identity.SafeKey(email))
	if err != nil {
		if errors.Is(err, treestore.ErrPathNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("read user node: %w", err)
	}

	node, ok := asMap(value)
	if !ok {
		return model.User{}, ErrUserNotFound
	}
	first, _ := asString(node["first_name"])
	last, _ := asString(node["last_name"])
	return model.User{FirstName: first, LastName: last, Email: email}, nil
}
