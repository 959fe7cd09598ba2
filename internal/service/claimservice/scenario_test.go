package claimservice

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/config"
	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/GlebRadaev/bountyhub/internal/fraud"
	"github.com/GlebRadaev/bountyhub/internal/metrics"
	"github.com/GlebRadaev/bountyhub/internal/service/reviewservice"
	"github.com/GlebRadaev/bountyhub/pkg/lock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type platform struct {
	db     *memDB
	claims *Service
	review *reviewservice.Service
}

func newPlatform(t *testing.T) *platform {
	t.Helper()
	db := newMemDB()
	cfg := &config.Config{LockTTL: time.Second, VIPBonus: 1.10, CommissionPercent: 10, RejectPenalty: 10}
	m := metrics.New(prometheus.NewRegistry())
	notifier := memAudit{db}

	claims := New(cfg, db.repos(), directTx{}, lock.NewMemory(), fraud.New(memSubmissions{db}), notifier, m)
	review := reviewservice.New(cfg, reviewservice.Repos{
		Submissions: memSubmissions{db},
		Tasks:       memTasks{db},
		Users:       memUsers{db},
		Audit:       memAudit{db},
	}, directTx{}, notifier, noMedals{}, m)
	return &platform{db: db, claims: claims, review: review}
}

func (p *platform) user(u domain.User) domain.Actor {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	p.db.users[u.ID] = &u
	return domain.Actor{UserID: u.ID, Tags: u.Tags}
}

func (p *platform) task(task domain.Task) {
	p.db.mu.Lock()
	defer p.db.mu.Unlock()
	p.db.tasks[task.ID] = &task
}

func amount(v float64) *float64 { return &v }

func TestScenario_ConcurrentClaimsOnSingleMaterial(t *testing.T) {
	p := newPlatform(t)
	p.db.addMaterials(3, 1)
	p.task(domain.Task{ID: 1, Active: true, PricingMode: domain.PricingFixed, Price: 5, Material: domain.Pooled(3)})

	const callers = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		granted int
		refused []error
	)
	for i := 1; i <= callers; i++ {
		actor := p.user(domain.User{ID: i, CreditScore: 100})
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.claims.GrabTask(context.Background(), actor, 1)
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				granted++
				return
			}
			refused = append(refused, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, granted)
	require.Len(t, refused, callers-1)
	for _, err := range refused {
		assert.True(t, errors.Is(err, domain.ErrNoMaterial) || errors.Is(err, domain.ErrBusy), "unexpected error: %v", err)
	}
	assert.Equal(t, 1, p.db.category(3).UsedCount)
	assert.Equal(t, 1, p.db.submissionCount())
}

func TestScenario_ReleaseRestoresPool(t *testing.T) {
	p := newPlatform(t)
	p.db.addMaterials(3, 1)
	p.task(domain.Task{ID: 1, Active: true, PricingMode: domain.PricingFixed, Price: 5, Material: domain.Pooled(3)})
	alice := p.user(domain.User{ID: 1})
	bob := p.user(domain.User{ID: 2})

	sub, err := p.claims.GrabTask(context.Background(), alice, 1)
	require.NoError(t, err)
	_, err = p.claims.GrabTask(context.Background(), bob, 1)
	require.ErrorIs(t, err, domain.ErrNoMaterial)

	require.NoError(t, p.claims.ReleaseReservation(context.Background(), alice, sub.ID))
	assert.Equal(t, 0, p.db.category(3).UsedCount)

	_, err = p.claims.GrabTask(context.Background(), bob, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, p.db.category(3).UsedCount)
}

func TestScenario_DuplicateEvidenceAcrossUsers(t *testing.T) {
	p := newPlatform(t)
	p.task(domain.Task{ID: 1, Active: true, PricingMode: domain.PricingFixed, Price: 5})
	p.task(domain.Task{ID: 2, Active: true, PricingMode: domain.PricingFixed, Price: 5})
	alice := p.user(domain.User{ID: 1})
	bob := p.user(domain.User{ID: 2})
	ctx := context.Background()

	first, err := p.claims.GrabTask(ctx, alice, 1)
	require.NoError(t, err)
	second, err := p.claims.GrabTask(ctx, bob, 2)
	require.NoError(t, err)

	_, err = p.claims.SubmitEvidence(ctx, alice, first.ID, "fp-1", "evidence/1.png", "")
	require.NoError(t, err)

	_, err = p.claims.SubmitEvidence(ctx, bob, second.ID, "fp-1", "evidence/2.png", "")
	require.ErrorIs(t, err, domain.ErrDuplicateFingerprint)

	got, err := memSubmissions{p.db}.GetForUpdate(ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Fingerprint)
	assert.Equal(t, domain.SubmissionPending, got.Status)
}

func TestScenario_VIPRewardAndCommission(t *testing.T) {
	p := newPlatform(t)
	p.task(domain.Task{ID: 1, Active: true, PricingMode: domain.PricingFixed, Price: 100})
	vipUntil := time.Now().Add(24 * time.Hour)
	inviterID := 2
	p.user(domain.User{ID: inviterID})
	member := p.user(domain.User{ID: 1, InviterID: &inviterID, VIPUntil: &vipUntil, CreditScore: 100})
	ctx := context.Background()

	sub, err := p.claims.GrabTask(ctx, member, 1)
	require.NoError(t, err)
	_, err = p.claims.SubmitEvidence(ctx, member, sub.ID, "fp", "evidence/1.png", "")
	require.NoError(t, err)

	outcome, err := p.review.ReviewSubmission(ctx, 99, sub.ID, domain.DecisionApprove, nil, "")
	require.NoError(t, err)
	assert.Equal(t, 110.0, outcome.FinalAmount)
	assert.Equal(t, 11.0, outcome.Commission)
	assert.Equal(t, 110.0, p.db.balance(1))
	assert.Equal(t, 11.0, p.db.balance(inviterID))

	_, err = p.review.ReviewSubmission(ctx, 99, sub.ID, domain.DecisionApprove, nil, "")
	require.ErrorIs(t, err, domain.ErrAlreadySettled)
	assert.Equal(t, 110.0, p.db.balance(1))
	assert.Equal(t, 11.0, p.db.balance(inviterID))
}

func TestScenario_RejectAppealApprove(t *testing.T) {
	p := newPlatform(t)
	p.db.addMaterials(3, 1)
	p.task(domain.Task{ID: 1, Active: true, PricingMode: domain.PricingDynamic, Material: domain.Pooled(3)})
	a := p.user(domain.User{ID: 1, CreditScore: 100})
	b := p.user(domain.User{ID: 2, CreditScore: 100})
	ctx := context.Background()

	sub, err := p.claims.GrabTask(ctx, a, 1)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionPendingUpload, sub.Status)
	require.NotNil(t, sub.MaterialID)
	material := p.db.material(*sub.MaterialID)
	assert.Equal(t, domain.MaterialLocked, material.Status)
	require.NotNil(t, material.AssignedUserID)
	assert.Equal(t, a.UserID, *material.AssignedUserID)
	assert.Equal(t, 1, p.db.category(3).UsedCount)

	_, err = p.claims.GrabTask(ctx, b, 1)
	require.ErrorIs(t, err, domain.ErrNoMaterial)
	assert.ErrorIs(t, err, domain.ErrResourceExhausted)
	assert.Equal(t, 1, p.db.category(3).UsedCount)

	sub, err = p.claims.SubmitEvidence(ctx, a, sub.ID, "fp-a", "evidence/a.png", "https://post/1")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionPending, sub.Status)
	assert.Equal(t, domain.MaterialUsed, p.db.material(*sub.MaterialID).Status)

	outcome, err := p.review.ReviewSubmission(ctx, 99, sub.ID, domain.DecisionReject, nil, "blurry")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionRejected, outcome.Status)
	assert.Equal(t, 90, p.db.creditScore(1))
	assert.Equal(t, 0.0, p.db.balance(1))

	sub, err = p.claims.Appeal(ctx, a, sub.ID, "retake")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionAppealing, sub.Status)

	outcome, err = p.review.ReviewSubmission(ctx, 99, sub.ID, domain.DecisionApprove, amount(8), "")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionApproved, outcome.Status)
	assert.Equal(t, 8.0, outcome.FinalAmount)
	assert.Equal(t, 8.0, p.db.balance(1))

	_, err = p.claims.Appeal(ctx, a, sub.ID, "again")
	require.ErrorIs(t, err, domain.ErrNotEligible)
	_, err = p.claims.SubmitEvidence(ctx, a, sub.ID, "fp-b", "evidence/b.png", "")
	require.ErrorIs(t, err, domain.ErrAlreadyApproved)
	_, err = p.review.ReviewSubmission(ctx, 99, sub.ID, domain.DecisionApprove, amount(8), "")
	require.ErrorIs(t, err, domain.ErrAlreadySettled)
	assert.Equal(t, 8.0, p.db.balance(1))

	assert.Equal(t, domain.MaterialUsed, p.db.material(*sub.MaterialID).Status)
	assert.Equal(t, 1, p.db.category(3).UsedCount)
}

func TestScenario_AppealAfterEvidenceReused(t *testing.T) {
	p := newPlatform(t)
	p.task(domain.Task{ID: 1, Active: true, PricingMode: domain.PricingFixed, Price: 5})
	p.task(domain.Task{ID: 2, Active: true, PricingMode: domain.PricingFixed, Price: 5})
	alice := p.user(domain.User{ID: 1, CreditScore: 100})
	bob := p.user(domain.User{ID: 2, CreditScore: 100})
	ctx := context.Background()

	first, err := p.claims.GrabTask(ctx, alice, 1)
	require.NoError(t, err)
	_, err = p.claims.SubmitEvidence(ctx, alice, first.ID, "fp-shared", "evidence/1.png", "")
	require.NoError(t, err)
	_, err = p.review.ReviewSubmission(ctx, 99, first.ID, domain.DecisionReject, nil, "blurry")
	require.NoError(t, err)

	second, err := p.claims.GrabTask(ctx, bob, 2)
	require.NoError(t, err)
	_, err = p.claims.SubmitEvidence(ctx, bob, second.ID, "fp-shared", "evidence/2.png", "")
	require.NoError(t, err)

	_, err = p.claims.Appeal(ctx, alice, first.ID, "it was mine")
	require.ErrorIs(t, err, domain.ErrEvidenceTaken)
	assert.ErrorIs(t, err, domain.ErrNotEligible)

	got, err := memSubmissions{p.db}.GetForUpdate(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionRejected, got.Status)

	sub, err := p.claims.SubmitEvidence(ctx, alice, first.ID, "fp-new", "evidence/3.png", "")
	require.NoError(t, err)
	assert.Equal(t, domain.SubmissionPending, sub.Status)
}
