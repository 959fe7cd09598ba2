package submissionrepo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/pg"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
)

const (
	userTaskKey       = "submissions_user_task_key"
	materialKey       = "submissions_material_key"
	activeFingerprint = "submissions_active_fingerprint_key"

	columns = `id, user_id, task_id, material_id, status, fingerprint, evidence_ref, post_link, feedback, appeal_reason, final_amount, created_at, updated_at`
)

type Repository struct {
	db pg.Database
}

func New(db pg.Database) *Repository {
	return &Repository{
		db: db,
	}
}

func (r *Repository) Create(ctx context.Context, s *domain.Submission) (*domain.Submission, error) {
	query := `
		INSERT INTO submissions (user_id, task_id, material_id, status)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, updated_at
	`
	err := r.db.QueryRow(ctx, query, s.UserID, s.TaskID, s.MaterialID, s.Status.String()).Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		switch {
		case pg.IsUniqueViolation(err, userTaskKey):
			return nil, domain.ErrAlreadyClaimed
		case pg.IsUniqueViolation(err, materialKey):
			zap.L().Error("material handed out twice", zap.Intp("material_id", s.MaterialID), zap.Error(err))
			return nil, fmt.Errorf("%w: material referenced by two submissions", domain.ErrStorageInvariant)
		}
		zap.L().Error("can't save submission", zap.Error(err))
		return nil, err
	}
	return s, nil
}

func (r *Repository) GetByID(ctx context.Context, id int) (*domain.Submission, error) {
	query := `SELECT ` + columns + ` FROM submissions WHERE id = $1`
	return r.findOne(ctx, "can't find submission", query, id)
}

// GetForUpdate reads the submission and locks its row until the surrounding
// transaction ends.
func (r *Repository) GetForUpdate(ctx context.Context, id int) (*domain.Submission, error) {
	query := `SELECT ` + columns + ` FROM submissions WHERE id = $1 FOR UPDATE`
	return r.findOne(ctx, "can't lock submission", query, id)
}

func (r *Repository) FindByUserAndTask(ctx context.Context, userID, taskID int) (*domain.Submission, error) {
	query := `SELECT ` + columns + ` FROM submissions WHERE user_id = $1 AND task_id = $2`
	return r.findOne(ctx, "can't find submission", query, userID, taskID)
}

// AttachEvidence stores the evidence and moves the submission to pending.
// Approved submissions are never touched; nil is returned for them.
func (r *Repository) AttachEvidence(ctx context.Context, id int, fingerprint, evidenceRef, link string) (*domain.Submission, error) {
	query := `
		UPDATE submissions
		SET status = 'pending', fingerprint = $2, evidence_ref = $3, post_link = $4, updated_at = now()
		WHERE id = $1 AND status <> 'approved'
		RETURNING ` + columns
	s, err := scanSubmission(r.db.QueryRow(ctx, query, id, fingerprint, evidenceRef, link))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if pg.IsUniqueViolation(err, activeFingerprint) {
			return nil, domain.ErrDuplicateFingerprint
		}
		zap.L().Error("can't attach evidence", zap.Int("submission_id", id), zap.Error(err))
		return nil, err
	}
	return s, nil
}

// Settle approves a pending or appealing submission. nil means the row was
// in neither state and nothing was written.
func (r *Repository) Settle(ctx context.Context, id int, amount float64, feedback string) (*domain.Submission, error) {
	query := `
		UPDATE submissions
		SET status = 'approved', final_amount = $2, feedback = $3, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'appealing')
		RETURNING ` + columns
	return r.findOne(ctx, "can't settle submission", query, id, amount, feedback)
}

func (r *Repository) Reject(ctx context.Context, id int, feedback string) (*domain.Submission, error) {
	query := `
		UPDATE submissions
		SET status = 'rejected', feedback = $2, updated_at = now()
		WHERE id = $1 AND status IN ('pending', 'appealing')
		RETURNING ` + columns
	return r.findOne(ctx, "can't reject submission", query, id, feedback)
}

func (r *Repository) Appeal(ctx context.Context, id int, reason string) (*domain.Submission, error) {
	query := `
		UPDATE submissions
		SET status = 'appealing', appeal_reason = $2, updated_at = now()
		WHERE id = $1 AND status = 'rejected'
		RETURNING ` + columns
	s, err := scanSubmission(r.db.QueryRow(ctx, query, id, reason))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		if pg.IsUniqueViolation(err, activeFingerprint) {
			return nil, domain.ErrEvidenceTaken
		}
		zap.L().Error("can't appeal submission", zap.Int("submission_id", id), zap.Error(err))
		return nil, err
	}
	return s, nil
}

// DeleteReservation removes a submission still waiting for its first upload.
func (r *Repository) DeleteReservation(ctx context.Context, id int) (bool, error) {
	tag, err := r.db.Exec(ctx, `DELETE FROM submissions WHERE id = $1 AND status = 'pending_upload'`, id)
	if err != nil {
		zap.L().Error("can't delete reservation", zap.Int("submission_id", id), zap.Error(err))
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (r *Repository) ListByUser(ctx context.Context, userID int) ([]domain.Submission, error) {
	query := `SELECT ` + columns + ` FROM submissions WHERE user_id = $1 ORDER BY created_at DESC`
	return r.findMany(ctx, query, userID)
}

// FindStaleReservations returns pending_upload submissions created before
// the given moment, oldest first.
func (r *Repository) FindStaleReservations(ctx context.Context, before time.Time, limit int) ([]domain.Submission, error) {
	query := `
		SELECT ` + columns + `
		FROM submissions
		WHERE status = 'pending_upload' AND created_at < $1
		ORDER BY created_at
		LIMIT $2
	`
	return r.findMany(ctx, query, before, limit)
}

// ExistsActiveFingerprint reports whether a submission other than excludeID
// holds the fingerprint while pending, approved or appealing.
func (r *Repository) ExistsActiveFingerprint(ctx context.Context, fingerprint string, excludeID int) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM submissions
			WHERE fingerprint = $1 AND id <> $2 AND status IN ('pending', 'approved', 'appealing')
		)
	`
	var exists bool
	if err := r.db.QueryRow(ctx, query, fingerprint, excludeID).Scan(&exists); err != nil {
		zap.L().Error("can't check fingerprint", zap.Error(err))
		return false, err
	}
	return exists, nil
}

func (r *Repository) findOne(ctx context.Context, msg, query string, args ...any) (*domain.Submission, error) {
	s, err := scanSubmission(r.db.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		zap.L().Error(msg, zap.Error(err))
		return nil, err
	}
	return s, nil
}

func (r *Repository) findMany(ctx context.Context, query string, args ...any) ([]domain.Submission, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		zap.L().Error("can't get submissions", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	var submissions []domain.Submission
	for rows.Next() {
		s, err := scanSubmission(rows)
		if err != nil {
			zap.L().Error("can't scan submission row", zap.Error(err))
			return nil, err
		}
		submissions = append(submissions, *s)
	}
	return submissions, rows.Err()
}

func scanSubmission(row pgx.Row) (*domain.Submission, error) {
	var (
		s      domain.Submission
		status string
	)
	err := row.Scan(
		&s.ID, &s.UserID, &s.TaskID, &s.MaterialID, &status, &s.Fingerprint, &s.EvidenceRef,
		&s.PostLink, &s.Feedback, &s.AppealReason, &s.FinalAmount, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if s.Status, err = domain.ParseSubmissionStatus(status); err != nil {
		return nil, err
	}
	return &s, nil
}
