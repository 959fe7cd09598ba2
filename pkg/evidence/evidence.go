// Package evidence stores uploaded proof files and fingerprints them.
package evidence

import (
	"context"
	"encoding/hex"
	"errors"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/blake2b"
)

var (
	ErrEmpty    = errors.New("evidence is empty")
	ErrTooLarge = errors.New("evidence is too large")
	ErrBadRef   = errors.New("evidence reference is not owned by this store")
)

//go:generate mockgen -source=evidence.go -destination=mock_evidence.go -package=evidence

type Store interface {
	Save(ctx context.Context, object *Object) (*Stored, error)
	// Delete removes an object returned by Save. Missing objects are not an error.
	Delete(ctx context.Context, ref string) error
}

type Object struct {
	Prefix   string
	FileName string
	Mime     string
	Data     []byte
}

// Stored is what the rest of the system keeps about an upload: a stable
// reference and the content fingerprint.
type Stored struct {
	Ref         string
	Fingerprint string
}

// Fingerprint is the hex BLAKE2b-256 digest of data.
func Fingerprint(data []byte) string {
	sum := blake2b.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func validate(object *Object, maxBytes int64) error {
	if len(object.Data) == 0 {
		return ErrEmpty
	}
	if maxBytes > 0 && int64(len(object.Data)) > maxBytes {
		return ErrTooLarge
	}
	return nil
}

// objectName keeps the original extension and replaces the rest with a
// random id, so user supplied names never reach the storage path.
func objectName(object *Object) string {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(object.FileName))
	if object.Prefix != "" {
		name = object.Prefix + "/" + name
	}
	return name
}
