// Package fraud flags evidence that is already backing another live
// submission.
package fraud

import (
	"context"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"go.uber.org/zap"
)

//go:generate mockgen -source=fraud.go -destination=mock_fraud.go -package=fraud

type Verdict uint8

const (
	Unique Verdict = iota + 1
	Duplicate
)

func (v Verdict) String() string {
	switch v {
	case Unique:
		return "unique"
	case Duplicate:
		return "duplicate"
	}
	return "unknown"
}

type Store interface {
	ExistsActiveFingerprint(ctx context.Context, fingerprint string, excludeID int) (bool, error)
}

type Detector struct {
	store Store
}

func New(store Store) *Detector {
	return &Detector{store: store}
}

// Check reports Duplicate when a submission other than excludeID holds the
// fingerprint in a non-rejected state. Rejected submissions never count.
func (d *Detector) Check(ctx context.Context, fingerprint string, excludeID int) (Verdict, error) {
	if fingerprint == "" {
		return 0, domain.ErrEmptyFingerprint
	}
	exists, err := d.store.ExistsActiveFingerprint(ctx, fingerprint, excludeID)
	if err != nil {
		return 0, err
	}
	if exists {
		zap.L().Warn("duplicate evidence fingerprint",
			zap.String("fingerprint", fingerprint),
			zap.Int("submission_id", excludeID),
		)
		return Duplicate, nil
	}
	return Unique, nil
}
