package repo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"ChatSync/internal/identity"
	"ChatSync/internal/model"
	"ChatSync/internal/treestore"

	"go.uber.org/zap"
)

var (
	ErrNotAuthenticated     = errors.New("caller has no session identity")
	ErrUserNotFound         = errors.New("user record not found")
	ErrConversationNotFound = errors.New("conversation not found")
)

const (
	// Timeouts
	defaultOpTimeout = 15 * time.Second

	// Retry configuration (serialized mode only)
	maxRetries     = 3
	baseRetryDelay = 100 * time.Millisecond
	maxRetryDelay  = 2 * time.Second
)

// Consistency selects how the engine handles concurrent read-modify-write
// cycles against the same store paths.
type Consistency int

const (
	// LastWriteWins keeps compatibility with legacy clients: list appends
	// are unguarded whole-list overwrites, so concurrent appends to
	// the same conversation can lose updates, and SendMessage reports
	// success once the message-log write lands, with both summary updates
	// propagated in the background.
	LastWriteWins Consistency = iota

	// Serialized trades latency for safety: a per-key lock serializes every
	// read-modify-write cycle, store writes are retried with capped
	// backoff, and SendMessage returns only after the message log and both
	// participants' summaries are acknowledged.
	Serialized
)

// ConversationRepository is the conversation sync engine. It owns the
// mapping between domain entities and store paths:
//
//	<userKey>                      user node (first_name, last_name, conversations)
//	<userKey>/conversations        []ConversationSummary
//	<conversationID>/messages      []MessageRecord
type ConversationRepository interface {
	CreateConversation(ctx context.Context, session model.Session, otherUserEmail, name string, first model.Message) (string, error)
	SendMessage(ctx context.Context, session model.Session, conversationID, otherUserEmail, name string, msg model.Message) error
	Conversations(ctx context.Context, userKey string) ([]model.ConversationSummary, error)
	Messages(ctx context.Context, conversationID string) ([]model.MessageRecord, error)
	ObserveConversations(ctx context.Context, userKey string) (<-chan []model.ConversationSummary, error)
	ObserveMessages(ctx context.Context, conversationID string) (<-chan []model.MessageRecord, error)
}

type conversationRepository struct {
	store  treestore.Store
	logger *zap.Logger
	mode   Consistency
	locks  *pathLocks
}

func NewConversationRepository(store treestore.Store, logger *zap.Logger, mode Consistency) ConversationRepository {
	return &conversationRepository{
		store:  store,
		logger: logger,
		mode:   mode,
		locks:  newPathLocks(),
	}
}

// CreateConversation creates a two-party conversation seeded with first and
// returns its id ("conversation_" + first.ID). The summary entry is fanned
// out to both participants' conversation lists; only a text first message
// contributes preview content, every other kind seeds an empty one.
func (r *conversationRepository) CreateConversation(ctx context.Context, session model.Session, otherUserEmail, name string, first model.Message) (string, error) {
	if !session.Valid() {
		return "", ErrNotAuthenticated
	}

	ctx, cancel := r.ensureTimeout(ctx)
	defer cancel()

	selfKey := session.Key()
	otherKey := identity.SafeKey(otherUserEmail)

	if _, err := r.store.ReadOnce(ctx, selfKey); err != nil {
		if errors.Is(err, treestore.ErrPathNotFound) {
			return "", ErrUserNotFound
		}
		return "", fmt.Errorf("read user node: %w", err)
	}

	preview := ""
	if first.Kind == model.KindText {
		preview = first.Text
	}

	conversationID := "conversation_" + first.ID
	latest := model.LatestMessage{
		Date:    first.SentAt,
		Message: preview,
		IsRead:  false,
	}
	ownSummary := model.ConversationSummary{
		ID:             conversationID,
		Name:           name,
		OtherUserEmail: otherKey,
		LatestMessage:  latest,
	}
	theirSummary := model.ConversationSummary{
		ID:             conversationID,
		Name:           session.Name,
		OtherUserEmail: selfKey,
		LatestMessage:  latest,
	}

	appendEntry := func(summary model.ConversationSummary) func(any) (any, error) {
		return func(cur any) (any, error) {
			list, _ := cur.([]any)
			return append(list, encodeSummary(summary)), nil
		}
	}

	// Fan out the recipient's copy. In last-write-wins mode the write is
	// fired without waiting and failure only logged.
	if r.mode == LastWriteWins {
		bg := context.WithoutCancel(ctx)
		go func() {
			if err := r.readModifyWrite(bg, otherKey+"/conversations", appendEntry(theirSummary)); err != nil {
				r.logger.Error("failed to fan out conversation summary",
					zap.String("conversation_id", conversationID),
					zap.String("user_key", otherKey),
					zap.Error(err),
				)
			}
		}()
	} else {
		if err := r.readModifyWrite(ctx, otherKey+"/conversations", appendEntry(theirSummary)); err != nil {
			return "", fmt.Errorf("fan out summary to %s: %w", otherKey, err)
		}
	}

	if err := r.readModifyWrite(ctx, selfKey+"/conversations", appendEntry(ownSummary)); err != nil {
		return "", fmt.Errorf("append own summary: %w", err)
	}

	record := model.MessageRecord{
		ID:          first.ID,
		Type:        first.Kind,
		Content:     preview,
		Date:        first.SentAt,
		SenderEmail: selfKey,
		IsRead:      false,
		Name:        name,
	}
	value := map[string]any{
		"messages": []any{encodeRecord(record)},
	}
	if err := r.writeValue(ctx, conversationID, value); err != nil {
		return "", fmt.Errorf("initialize message log: %w", err)
	}

	r.logger.Info("conversation created",
		zap.String("conversation_id", conversationID),
		zap.String("sender_key", selfKey),
		zap.String("recipient_key", otherKey),
	)
	return conversationID, nil
}

// SendMessage appends msg to the conversation's message log and rewrites the
// latest-message preview in both participants' conversation lists.
//
// In LastWriteWins mode the call returns once the log write lands; the two
// summary updates run in the background and their failures are only logged.
// In Serialized mode all three writes must acknowledge.
func (r *conversationRepository) SendMessage(ctx context.Context, session model.Session, conversationID, otherUserEmail, name string, msg model.Message) error {
	if !session.Valid() {
		return ErrNotAuthenticated
	}

	ctx, cancel := r.ensureTimeout(ctx)
	defer cancel()

	selfKey := session.Key()
	otherKey := identity.SafeKey(otherUserEmail)

	record := model.MessageRecord{
		ID:          msg.ID,
		Type:        msg.Kind,
		Content:     msg.Content(),
		Date:        msg.SentAt,
		SenderEmail: selfKey,
		IsRead:      false,
		Name:        name,
	}

	err := r.readModifyWrite(ctx, conversationID+"/messages", func(cur any) (any, error) {
		if cur == nil {
			return nil, ErrConversationNotFound
		}
		list, ok := cur.([]any)
		if !ok {
			return nil, ErrConversationNotFound
		}
		return append(list, encodeRecord(record)), nil
	})
	if err != nil {
		return fmt.Errorf("append message: %w", err)
	}

	latest := model.LatestMessage{
		Date:    msg.SentAt,
		Message: msg.Content(),
		IsRead:  false,
	}

	if r.mode == LastWriteWins {
		bg := context.WithoutCancel(ctx)
		for _, key := range []string{selfKey, otherKey} {
			key := key
			go func() {
				if err := r.updateLatest(bg, key, conversationID, latest); err != nil {
					r.logger.Error("failed to propagate latest message",
						zap.String("conversation_id", conversationID),
						zap.String("user_key", key),
						zap.Error(err),
					)
				}
			}()
		}
		return nil
	}

	if err := r.updateLatest(ctx, selfKey, conversationID, latest); err != nil {
		return fmt.Errorf("update own summary: %w", err)
	}
	if err := r.updateLatest(ctx, otherKey, conversationID, latest); err != nil {
		return fmt.Errorf("update recipient summary: %w", err)
	}
	return nil
}

// updateLatest rewrites the latest_message of the entry matching
// conversationID in userKey's conversation list.
func (r *conversationRepository) updateLatest(ctx context.Context, userKey, conversationID string, latest model.LatestMessage) error {
	return r.readModifyWrite(ctx, userKey+"/conversations", func(cur any) (any, error) {
		entries, ok := asMapList(cur)
		if cur == nil || !ok {
			return nil, ErrConversationNotFound
		}

		list := make([]any, len(entries))
		found := false
		for i, entry := range entries {
			if id, _ := asString(entry["id"]); id == conversationID {
				entry["latest_message"] = encodeLatest(latest)
				found = true
			}
			list[i] = entry
		}
		if !found {
			return nil, ErrConversationNotFound
		}
		return list, nil
	})
}

// Conversations is the one-shot read of a user's conversation list. Entries
// that fail to decode are dropped.
func (r *conversationRepository) Conversations(ctx context.Context, userKey string) ([]model.ConversationSummary, error) {
	ctx, cancel := r.ensureTimeout(ctx)
	defer cancel()

	value, err := r.store.ReadOnce(ctx, userKey+"/conversations")
	if err != nil {
		if errors.Is(err, treestore.ErrPathNotFound) {
			return []model.ConversationSummary{}, nil
		}
		return nil, fmt.Errorf("read conversations: %w", err)
	}
	return decodeSummaries(value), nil
}

// Messages is the one-shot read of a conversation's message log.
func (r *conversationRepository) Messages(ctx context.Context, conversationID string) ([]model.MessageRecord, error) {
	ctx, cancel := r.ensureTimeout(ctx)
	defer cancel()

	value, err := r.store.ReadOnce(ctx, conversationID+"/messages")
	if err != nil {
		if errors.Is(err, treestore.ErrPathNotFound) {
			return nil, ErrConversationNotFound
		}
		return nil, fmt.Errorf("read messages: %w", err)
	}
	return decodeRecords(value), nil
}

// ObserveConversations streams the decoded conversation list on every store
// mutation until ctx is done.
func (r *conversationRepository) ObserveConversations(ctx context.Context, userKey string) (<-chan []model.ConversationSummary, error) {
	raw, err := r.store.Observe(ctx, userKey+"/conversations")
	if err != nil {
		return nil, fmt.Errorf("observe conversations: %w", err)
	}

	out := make(chan []model.ConversationSummary, 1)
	go func() {
		defer close(out)
		for value := range raw {
			forward(out, decodeSummaries(value))
		}
	}()
	return out, nil
}

// ObserveMessages streams the decoded message log on every store mutation
// until ctx is done.
func (r *conversationRepository) ObserveMessages(ctx context.Context, conversationID string) (<-chan []model.MessageRecord, error) {
	raw, err := r.store.Observe(ctx, conversationID+"/messages")
	if err != nil {
		return nil, fmt.Errorf("observe messages: %w", err)
	}

	out := make(chan []model.MessageRecord, 1)
	go func() {
		defer close(out)
		for value := range raw {
			forward(out, decodeRecords(value))
		}
	}()
	return out, nil
}

// forward is a coalescing send: a slow consumer sees the newest snapshot.
func forward[T any](ch chan []T, snapshot []T) {
	select {
	case ch <- snapshot:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- snapshot:
	default:
	}
}

// readModifyWrite runs one read-compute-overwrite cycle against path. apply
// receives nil when the path does not exist yet. In Serialized mode the
// whole cycle holds the lock for the path's top-level key.
func (r *conversationRepository) readModifyWrite(ctx context.Context, path string, apply func(cur any) (any, error)) error {
	if r.mode == Serialized {
		unlock := r.locks.acquire(topKey(path))
		defer unlock()
	}

	cur, err := r.store.ReadOnce(ctx, path)
	if err != nil && !errors.Is(err, treestore.ErrPathNotFound) {
		return fmt.Errorf("read %s: %w", path, err)
	}

	next, err := apply(cur)
	if err != nil {
		return err
	}
	return r.writeValue(ctx, path, next)
}

// writeValue overwrites path. Serialized mode retries transient failures
// with capped exponential backoff; last-write-wins mode is single attempt.
func (r *conversationRepository) writeValue(ctx context.Context, path string, value any) error {
	if r.mode == LastWriteWins {
		return r.store.Write(ctx, path, value)
	}

	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		if attempt > 0 {
			if err := r.waitForRetry(ctx, attempt); err != nil {
				return err
			}
			r.logger.Warn("retrying store write",
				zap.String("path", path),
				zap.Int("attempt", attempt+1),
			)
		}

		if err := r.store.Write(ctx, path, value); err == nil {
			return nil
		} else {
			lastErr = err
			if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
				break
			}
		}
	}
	return fmt.Errorf("write %s: %w", path, lastErr)
}

func (r *conversationRepository) waitForRetry(ctx context.Context, attempt int) error {
	delay := time.Duration(1<<uint(attempt)) * baseRetryDelay
	if delay > maxRetryDelay {
		delay = maxRetryDelay
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("retry wait cancelled: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

func (r *conversationRepository) ensureTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hadDeadline := ctx.Deadline(); hadDeadline {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, defaultOpTimeout)
}

func topKey(path string) string {
	if i := strings.IndexByte(path, '/'); i >= 0 {
		return path[:i]
	}
	return path
}
