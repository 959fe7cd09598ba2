package domain

import "fmt"

type SubmissionStatus uint8

const (
	SubmissionPendingUpload SubmissionStatus = iota + 1
	SubmissionPending
	SubmissionApproved
	SubmissionRejected
	SubmissionAppealing
)

var submissionStatusNames = map[SubmissionStatus]string{
	SubmissionPendingUpload: "pending_upload",
	SubmissionPending:       "pending",
	SubmissionApproved:      "approved",
	SubmissionRejected:      "rejected",
	SubmissionAppealing:     "appealing",
}

func (s SubmissionStatus) String() string {
	if name, ok := submissionStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("SubmissionStatus(%d)", uint8(s))
}

func (s SubmissionStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func ParseSubmissionStatus(v string) (SubmissionStatus, error) {
	for status, name := range submissionStatusNames {
		if name == v {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown submission status %q", ErrStorageInvariant, v)
}

// ActiveForFraud lists statuses that keep a fingerprint reserved.
var ActiveForFraud = []SubmissionStatus{SubmissionPending, SubmissionApproved, SubmissionAppealing}

type SubmissionEvent uint8

const (
	EventClaimPooled SubmissionEvent = iota + 1
	EventClaimUnpooled
	EventEvidence
	EventApprove
	EventReject
	EventAppeal
)

// Transition is the only place submission states change.
func Transition(from SubmissionStatus, event SubmissionEvent) (SubmissionStatus, error) {
	switch event {
	case EventClaimPooled:
		if from == 0 {
			return SubmissionPendingUpload, nil
		}
	case EventClaimUnpooled:
		if from == 0 {
			return SubmissionPending, nil
		}
	case EventEvidence:
		switch from {
		case SubmissionPendingUpload, SubmissionPending, SubmissionRejected, SubmissionAppealing:
			return SubmissionPending, nil
		case SubmissionApproved:
			return 0, ErrAlreadyApproved
		}
	case EventApprove:
		switch from {
		case SubmissionPending, SubmissionAppealing:
			return SubmissionApproved, nil
		case SubmissionApproved:
			return 0, ErrAlreadySettled
		}
	case EventReject:
		switch from {
		case SubmissionPending, SubmissionAppealing:
			return SubmissionRejected, nil
		}
	case EventAppeal:
		if from == SubmissionRejected {
			return SubmissionAppealing, nil
		}
		return 0, ErrNotEligible
	}
	return 0, fmt.Errorf("%w: %s does not accept event %d", ErrInvalidState, from, event)
}

type MaterialStatus uint8

const (
	MaterialUnused MaterialStatus = iota + 1
	MaterialLocked
	MaterialUsed
)

var materialStatusNames = map[MaterialStatus]string{
	MaterialUnused: "unused",
	MaterialLocked: "locked",
	MaterialUsed:   "used",
}

func (s MaterialStatus) String() string {
	if name, ok := materialStatusNames[s]; ok {
		return name
	}
	return fmt.Sprintf("MaterialStatus(%d)", uint8(s))
}

func (s MaterialStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func ParseMaterialStatus(v string) (MaterialStatus, error) {
	for status, name := range materialStatusNames {
		if name == v {
			return status, nil
		}
	}
	return 0, fmt.Errorf("%w: unknown material status %q", ErrStorageInvariant, v)
}

type PricingMode uint8

const (
	PricingFixed PricingMode = iota + 1
	PricingDynamic
)

func (m PricingMode) String() string {
	switch m {
	case PricingFixed:
		return "fixed"
	case PricingDynamic:
		return "dynamic"
	}
	return fmt.Sprintf("PricingMode(%d)", uint8(m))
}

func (m PricingMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func ParsePricingMode(v string) (PricingMode, error) {
	switch v {
	case "fixed":
		return PricingFixed, nil
	case "dynamic":
		return PricingDynamic, nil
	}
	return 0, fmt.Errorf("%w: unknown pricing mode %q", ErrValidation, v)
}

type WithdrawalStatus string

const (
	WithdrawalPending  WithdrawalStatus = "pending"
	WithdrawalPaid     WithdrawalStatus = "paid"
	WithdrawalRejected WithdrawalStatus = "rejected"
)

type DepositStatus string

const (
	DepositPending  DepositStatus = "pending"
	DepositApproved DepositStatus = "approved"
	DepositRejected DepositStatus = "rejected"
)
