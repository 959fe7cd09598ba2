package domain

import "time"

type User struct {
	ID          int        `db:"id"`
	Username    string     `db:"username"`
	Balance     float64    `db:"balance"`
	CreditScore int        `db:"credit_score"`
	Banned      bool       `db:"is_banned"`
	Admin       bool       `db:"is_admin"`
	Tags        []string   `db:"tags"`
	InviterID   *int       `db:"inviter_id"`
	VIPUntil    *time.Time `db:"vip_until"`
	CreatedAt   time.Time  `db:"created_at"`
}

func (u *User) VIPActive(now time.Time) bool {
	return u.VIPUntil != nil && u.VIPUntil.After(now)
}

type MaterialCategory struct {
	ID         int       `db:"id"`
	Name       string    `db:"name"`
	TotalCount int       `db:"total_count"`
	UsedCount  int       `db:"used_count"`
	CreatedAt  time.Time `db:"created_at"`
}

type Material struct {
	ID             int            `db:"id"`
	CategoryID     int            `db:"category_id"`
	Title          string         `db:"title"`
	Content        string         `db:"content"`
	Images         []string       `db:"images"`
	Status         MaterialStatus `db:"status"`
	Deleted        bool           `db:"is_deleted"`
	AssignedUserID *int           `db:"assigned_user_id"`
	AssignedAt     *time.Time     `db:"assigned_at"`
	CreatedAt      time.Time      `db:"created_at"`
}

type Task struct {
	ID           int            `db:"id"`
	Title        string         `db:"title"`
	Description  string         `db:"description"`
	PricingMode  PricingMode    `db:"price_mode"`
	Price        float64        `db:"price"`
	Material     MaterialPolicy `db:"material_category_id"`
	RequiredTags []string       `db:"required_tags"`
	Active       bool           `db:"is_active"`
	CreatedAt    time.Time      `db:"created_at"`
}

// VisibleTo reports whether every required tag is present in tags.
func (t *Task) VisibleTo(tags []string) bool {
	if len(t.RequiredTags) == 0 {
		return true
	}
	have := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		have[tag] = struct{}{}
	}
	for _, tag := range t.RequiredTags {
		if _, ok := have[tag]; !ok {
			return false
		}
	}
	return true
}

type Submission struct {
	ID           int              `db:"id"`
	UserID       int              `db:"user_id"`
	TaskID       int              `db:"task_id"`
	MaterialID   *int             `db:"material_id"`
	Status       SubmissionStatus `db:"status"`
	Fingerprint  string           `db:"fingerprint"`
	EvidenceRef  string           `db:"evidence_ref"`
	PostLink     string           `db:"post_link"`
	Feedback     string           `db:"feedback"`
	AppealReason string           `db:"appeal_reason"`
	FinalAmount  float64          `db:"final_amount"`
	CreatedAt    time.Time        `db:"created_at"`
	UpdatedAt    time.Time        `db:"updated_at"`
}

type AuditLog struct {
	ID         int64     `db:"id"`
	OperatorID int       `db:"operator_id"`
	Action     string    `db:"action"`
	TargetID   int       `db:"target_id"`
	Detail     string    `db:"detail"`
	CreatedAt  time.Time `db:"created_at"`
}

const SystemOperator = 0

type Withdrawal struct {
	ID        int              `db:"id"`
	UserID    int              `db:"user_id"`
	Amount    float64          `db:"amount"`
	RealName  string           `db:"real_name"`
	Account   string           `db:"account"`
	Status    WithdrawalStatus `db:"status"`
	AdminNote string           `db:"admin_note"`
	CreatedAt time.Time        `db:"created_at"`
}

type Deposit struct {
	ID        int           `db:"id"`
	UserID    int           `db:"user_id"`
	Amount    float64       `db:"amount"`
	ProofRef  string        `db:"proof_ref"`
	Status    DepositStatus `db:"status"`
	CreatedAt time.Time     `db:"created_at"`
}

const (
	NotifySettlement = "settlement"
	NotifyReview     = "review"
	NotifyBalance    = "balance"
	NotifySystem     = "system"
)

type Notification struct {
	ID        int       `db:"id"`
	UserID    int       `db:"user_id"`
	Title     string    `db:"title"`
	Content   string    `db:"content"`
	Kind      string    `db:"kind"`
	Read      bool      `db:"is_read"`
	CreatedAt time.Time `db:"created_at"`
}

// CheckIn is one daily attendance credit. Balance is the user's balance
// right after the credit and is not stored.
type CheckIn struct {
	UserID    int       `db:"user_id"`
	Day       time.Time `db:"day"`
	Amount    float64   `db:"amount"`
	CreatedAt time.Time `db:"created_at"`
	Balance   float64   `db:"-"`
}

type Medal string

const (
	MedalFirstGold  Medal = "first_gold"
	MedalTaskMaster Medal = "task_master"
)

// BadgeProgress is what medal rules are evaluated against.
type BadgeProgress struct {
	UserID   int
	Earned   float64
	Approved int
	Medals   []Medal
}

func (p *BadgeProgress) Has(medal Medal) bool {
	for _, m := range p.Medals {
		if m == medal {
			return true
		}
	}
	return false
}

// Balance is a read model over users, withdrawals and deposits.
type Balance struct {
	UserID         int
	Current        float64
	WithdrawnTotal float64
	PendingTotal   float64
}

// Actor is the authenticated caller as supplied by the identity layer.
type Actor struct {
	UserID int
	Admin  bool
	Banned bool
	Tags   []string
}

type Decision int

const (
	DecisionApprove Decision = iota + 1
	DecisionReject
)

func ParseDecision(s string) (Decision, error) {
	switch s {
	case "approve":
		return DecisionApprove, nil
	case "reject":
		return DecisionReject, nil
	}
	return 0, ErrUnknownDecision
}

// Outcome is the result of reviewing a submission.
type Outcome struct {
	SubmissionID int
	Status       SubmissionStatus
	FinalAmount  float64
	InviterID    *int
	Commission   float64
	CreditScore  int
}
