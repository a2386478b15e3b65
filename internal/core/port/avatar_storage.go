package port

import (
	"context"
	"io"
)

// AvatarStorage persists user avatar images in an object store and
// returns a publicly resolvable URL.
type AvatarStorage interface {
	Upload(ctx context.Context, key, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, key string) error
}
