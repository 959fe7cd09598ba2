package evidence

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// LocalStore keeps evidence on the local filesystem under dir.
type LocalStore struct {
	dir      string
	maxBytes int64
}

func NewLocalStore(dir string, maxBytes int64) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create evidence dir: %w", err)
	}
	return &LocalStore{dir: dir, maxBytes: maxBytes}, nil
}

func (s *LocalStore) Save(ctx context.Context, object *Object) (*Stored, error) {
	if err := validate(object, s.maxBytes); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	name := objectName(object)
	path := filepath.Join(s.dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}

	tmp := path + ".part"
	if err := os.WriteFile(tmp, object.Data, 0o640); err != nil {
		zap.L().Error("can't write evidence", zap.String("path", tmp), zap.Error(err))
		return nil, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		zap.L().Error("can't store evidence", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	return &Stored{Ref: name, Fingerprint: Fingerprint(object.Data)}, nil
}

func (s *LocalStore) Delete(ctx context.Context, ref string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	name := filepath.Clean(filepath.FromSlash(ref))
	if ref == "" || filepath.IsAbs(name) || name == ".." || strings.HasPrefix(name, ".."+string(filepath.Separator)) {
		return ErrBadRef
	}

	path := filepath.Join(s.dir, name)
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		zap.L().Error("can't delete evidence", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}
