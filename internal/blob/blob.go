// Package blob is the client for the opaque byte store holding profile
// pictures and message photos. A successful upload yields a durable URL the
// chat data layer embeds in records; single attempt, no retry.
package blob

import (
	"context"
	"errors"
)

var (
	ErrUploadFailed   = errors.New("blob store: upload failed")
	ErrURLUnavailable = errors.New("blob store: no retrievable URL for path")
)

type Store interface {
	// Upload stores data under images/<fileName> and returns its URL.
	Upload(ctx context.Context, data []byte, fileName string) (string, error)

	// DownloadURL resolves the URL for a previously uploaded path, e.g.
	// "images/a-b-example-com_profile_picture.png".
	DownloadURL(ctx context.Context, path string) (string, error)
}
