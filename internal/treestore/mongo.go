package treestore

import (
	"context"
	"errors"
	"fmt"

	"ChatSync/internal/db"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// treeNode is one top-level key of the tree, stored as a single document.
type treeNode struct {
	Key   string `bson:"_id"`
	Value any    `bson:"value"`
}

// MongoStore keeps the tree in a MongoDB collection, one document per
// top-level key. Like BoltStore, observation is in-process: it reflects
// writes made through this store instance, not out-of-band writes to the
// collection.
type MongoStore struct {
	nodes    *db.Repository[treeNode]
	notifier *notifier
	logger   *zap.Logger
}

func NewMongoStore(database *mongo.Database, collection string, logger *zap.Logger) *MongoStore {
	s := &MongoStore{
		nodes:  db.NewRepository[treeNode](database, collection),
		logger: logger,
	}
	s.notifier = newNotifier(s.ReadOnce)
	return s
}

func (s *MongoStore) ReadOnce(ctx context.Context, path string) (any, error) {
	segs := splitPath(path)
	if len(segs) == 0 {
		return nil, ErrEmptyPath
	}

	node, err := s.nodes.FindOne(ctx, db.NewFilter().Eq("_id", segs[0]).Build())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrPathNotFound
		}
		s.logger.Error("failed to read tree node",
			zap.String("path", path),
			zap.Error(err),
		)
		return nil, fmt.Errorf("read node %q: %w", segs[0], err)
	}

	value, ok := valueAt(denormalize(node.Value), segs[1:])
	if !ok || value == nil {
		return nil, ErrPathNotFound
	}
	return value, nil
}

func (s *MongoStore) Write(ctx context.Context, path string, value any) error {
	segs := splitPath(path)
	if len(segs) == 0 {
		return ErrEmptyPath
	}

	next := value
	if len(segs) > 1 {
		root := make(map[string]any)
		node, err := s.nodes.FindOne(ctx, db.NewFilter().Eq("_id", segs[0]).Build())
		if err == nil {
			if m, ok := denormalize(node.Value).(map[string]any); ok {
				root = m
			}
		} else if !errors.Is(err, mongo.ErrNoDocuments) {
			return fmt.Errorf("read node %q before write: %w", segs[0], err)
		}
		setAt(root, segs[1:], value)
		next = root
	}

	filter := db.NewFilter().Eq("_id", segs[0]).Build()
	if _, err := s.nodes.Replace(ctx, filter, treeNode{Key: segs[0], Value: next}); err != nil {
		s.logger.Error("failed to write tree node",
			zap.String("path", path),
			zap.Error(err),
		)
		return fmt.Errorf("write node %q: %w", segs[0], err)
	}

	s.notifier.publish(ctx, path)
	return nil
}

func (s *MongoStore) Observe(ctx context.Context, path string) (<-chan any, error) {
	if len(splitPath(path)) == 0 {
		return nil, ErrEmptyPath
	}
	return s.notifier.subscribe(ctx, path), nil
}

// denormalize rewrites bson container types into the JSON-shaped values the
// rest of the package traverses.
func denormalize(v any) any {
	switch t := v.(type) {
	case bson.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = denormalize(e)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = denormalize(e)
		}
		return out
	case bson.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = denormalize(e)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = denormalize(e)
		}
		return out
	case bson.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = denormalize(e.Value)
		}
		return out
	case primitive.DateTime:
		return t.Time()
	default:
		return v
	}
}
