// Package upload reads multipart files into evidence objects.
package upload

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/GlebRadaev/bountyhub/pkg/evidence"
	"go.uber.org/zap"
)

// formOverhead covers the non-file parts of a multipart body.
const formOverhead = 1 << 20

// ReadFile parses the multipart body and returns the file posted under field.
// Other form values stay available through r.FormValue.
func ReadFile(w http.ResponseWriter, r *http.Request, field, prefix string, maxBytes int64) (*evidence.Object, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes+formOverhead)
	if err := r.ParseMultipartForm(maxBytes + formOverhead); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, evidence.ErrTooLarge
		}
		return nil, evidence.ErrEmpty
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		return nil, evidence.ErrEmpty
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, evidence.ErrEmpty
	}
	if int64(len(data)) > maxBytes {
		return nil, evidence.ErrTooLarge
	}

	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}

	return &evidence.Object{
		Prefix:   prefix,
		FileName: header.Filename,
		Mime:     mime,
		Data:     data,
	}, nil
}

// Discard removes a stored object whose submit was refused. It outlives the
// request context so a client hang-up does not leave the object behind.
func Discard(ctx context.Context, store evidence.Store, ref string) {
	if err := store.Delete(context.WithoutCancel(ctx), ref); err != nil {
		zap.L().Warn("can't discard refused evidence", zap.String("ref", ref), zap.Error(err))
	}
}
