package claimservice

import (
	"context"
	"sync"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/pg"
)

// memDB is an in-process stand-in for the Postgres repositories. Each call
// is atomic on its own; cross-call atomicity comes from the task lock, as it
// does for the row locks in production.
type memDB struct {
	mu          sync.Mutex
	tasks       map[int]*domain.Task
	users       map[int]*domain.User
	categories  map[int]*domain.MaterialCategory
	materials   []*domain.Material
	submissions map[int]*domain.Submission
	nextID      int
	audit       []domain.AuditLog
	notified    []domain.Notification
}

func newMemDB() *memDB {
	return &memDB{
		tasks:       map[int]*domain.Task{},
		users:       map[int]*domain.User{},
		categories:  map[int]*domain.MaterialCategory{},
		submissions: map[int]*domain.Submission{},
	}
}

func (db *memDB) addMaterials(categoryID, n int) {
	db.mu.Lock()
	defer db.mu.Unlock()
	cat, ok := db.categories[categoryID]
	if !ok {
		cat = &domain.MaterialCategory{ID: categoryID, Name: "pool"}
		db.categories[categoryID] = cat
	}
	for i := 0; i < n; i++ {
		db.materials = append(db.materials, &domain.Material{
			ID:         len(db.materials) + 1,
			CategoryID: categoryID,
			Status:     domain.MaterialUnused,
		})
	}
	cat.TotalCount += n
}

func (db *memDB) category(id int) domain.MaterialCategory {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.categories[id]
}

func (db *memDB) material(id int) domain.Material {
	db.mu.Lock()
	defer db.mu.Unlock()
	return *db.materials[id-1]
}

func (db *memDB) submissionCount() int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return len(db.submissions)
}

func (db *memDB) balance(userID int) float64 {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.users[userID].Balance
}

func (db *memDB) creditScore(userID int) int {
	db.mu.Lock()
	defer db.mu.Unlock()
	return db.users[userID].CreditScore
}

func (db *memDB) repos() Repos {
	return Repos{
		Tasks:       memTasks{db},
		Materials:   memMaterials{db},
		Submissions: memSubmissions{db},
		Audit:       memAudit{db},
	}
}

type directTx struct{}

func (directTx) Begin(ctx context.Context, fn pg.TransactionalFn) error {
	return fn(ctx)
}

type memTasks struct{ *memDB }

func (r memTasks) GetByID(_ context.Context, id int) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[id]
	if !ok {
		return nil, nil
	}
	cp := *task
	return &cp, nil
}

type memMaterials struct{ *memDB }

func (r memMaterials) Allocate(_ context.Context, categoryID, userID int) (*domain.Material, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.materials {
		if m.CategoryID == categoryID && m.Status == domain.MaterialUnused && !m.Deleted {
			now := time.Now()
			m.Status = domain.MaterialLocked
			m.AssignedUserID = &userID
			m.AssignedAt = &now
			r.categories[categoryID].UsedCount++
			cp := *m
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memMaterials) Release(_ context.Context, materialID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.materials {
		if m.ID == materialID && m.Status == domain.MaterialLocked {
			m.Status = domain.MaterialUnused
			m.AssignedUserID = nil
			m.AssignedAt = nil
			if cat := r.categories[m.CategoryID]; cat.UsedCount > 0 {
				cat.UsedCount--
			}
			return true, nil
		}
	}
	return false, nil
}

func (r memMaterials) MarkUsed(_ context.Context, materialID int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.materials {
		if m.ID == materialID && m.Status == domain.MaterialLocked {
			m.Status = domain.MaterialUsed
			return nil
		}
	}
	return domain.ErrStorageInvariant
}

type memSubmissions struct{ *memDB }

func (r memSubmissions) Create(_ context.Context, s *domain.Submission) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.submissions {
		if existing.UserID == s.UserID && existing.TaskID == s.TaskID {
			return nil, domain.ErrAlreadyClaimed
		}
	}
	r.nextID++
	cp := *s
	cp.ID = r.nextID
	cp.CreatedAt = time.Now()
	cp.UpdatedAt = cp.CreatedAt
	r.submissions[cp.ID] = &cp
	out := cp
	return &out, nil
}

func (r memSubmissions) FindByUserAndTask(_ context.Context, userID, taskID int) (*domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.submissions {
		if s.UserID == userID && s.TaskID == taskID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, nil
}

func (r memSubmissions) GetForUpdate(_ context.Context, id int) (*domain.Submission, error) {
	return r.get(id), nil
}

func (r memSubmissions) get(id int) *domain.Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil
	}
	cp := *s
	return &cp
}

func (r memSubmissions) update(id int, allowed []domain.SubmissionStatus, fn func(s *domain.Submission)) *domain.Submission {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok {
		return nil
	}
	for _, status := range allowed {
		if s.Status == status {
			fn(s)
			s.UpdatedAt = time.Now()
			cp := *s
			return &cp
		}
	}
	return nil
}

func (r memSubmissions) AttachEvidence(_ context.Context, id int, fingerprint, evidenceRef, link string) (*domain.Submission, error) {
	open := []domain.SubmissionStatus{domain.SubmissionPendingUpload, domain.SubmissionPending, domain.SubmissionRejected, domain.SubmissionAppealing}
	return r.update(id, open, func(s *domain.Submission) {
		s.Status = domain.SubmissionPending
		s.Fingerprint = fingerprint
		s.EvidenceRef = evidenceRef
		s.PostLink = link
	}), nil
}

func (r memSubmissions) Appeal(ctx context.Context, id int, reason string) (*domain.Submission, error) {
	if current := r.get(id); current != nil && current.Fingerprint != "" {
		taken, _ := r.ExistsActiveFingerprint(ctx, current.Fingerprint, id)
		if taken {
			return nil, domain.ErrEvidenceTaken
		}
	}
	return r.update(id, []domain.SubmissionStatus{domain.SubmissionRejected}, func(s *domain.Submission) {
		s.Status = domain.SubmissionAppealing
		s.AppealReason = reason
	}), nil
}

func (r memSubmissions) Settle(_ context.Context, id int, amount float64, feedback string) (*domain.Submission, error) {
	return r.update(id, []domain.SubmissionStatus{domain.SubmissionPending, domain.SubmissionAppealing}, func(s *domain.Submission) {
		s.Status = domain.SubmissionApproved
		s.FinalAmount = amount
		s.Feedback = feedback
	}), nil
}

func (r memSubmissions) Reject(_ context.Context, id int, feedback string) (*domain.Submission, error) {
	return r.update(id, []domain.SubmissionStatus{domain.SubmissionPending, domain.SubmissionAppealing}, func(s *domain.Submission) {
		s.Status = domain.SubmissionRejected
		s.Feedback = feedback
	}), nil
}

func (r memSubmissions) DeleteReservation(_ context.Context, id int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.submissions[id]
	if !ok || s.Status != domain.SubmissionPendingUpload {
		return false, nil
	}
	delete(r.submissions, id)
	return true, nil
}

func (r memSubmissions) ListByUser(_ context.Context, userID int) ([]domain.Submission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.Submission
	for _, s := range r.submissions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (r memSubmissions) ExistsActiveFingerprint(_ context.Context, fingerprint string, excludeID int) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.submissions {
		if s.ID == excludeID || s.Fingerprint != fingerprint {
			continue
		}
		for _, status := range domain.ActiveForFraud {
			if s.Status == status {
				return true, nil
			}
		}
	}
	return false, nil
}

type memUsers struct{ *memDB }

func (r memUsers) GetByID(_ context.Context, id int) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (r memUsers) AdjustBalance(_ context.Context, userID int, delta float64) (float64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok || u.Balance+delta < 0 {
		return 0, domain.ErrInsufficientBalance
	}
	u.Balance += delta
	return u.Balance, nil
}

func (r memUsers) DecrementCredit(_ context.Context, userID, penalty int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return 0, domain.ErrUserNotFound
	}
	u.CreditScore -= penalty
	if u.CreditScore < 0 {
		u.CreditScore = 0
	}
	return u.CreditScore, nil
}

type memAudit struct{ *memDB }

func (r memAudit) Append(_ context.Context, log *domain.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	log.ID = int64(len(r.audit) + 1)
	r.audit = append(r.audit, *log)
	return nil
}

func (r memAudit) Notify(_ context.Context, n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notified = append(r.notified, n)
}

type noMedals struct{}

func (noMedals) Award(context.Context, int) ([]domain.Medal, error) { return nil, nil }
