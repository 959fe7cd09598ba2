package domain

import (
	"errors"
	"fmt"
)

// Error kinds. Every specific error below wraps exactly one of them.
var (
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrConflict          = errors.New("conflict")
	ErrInvalidState      = errors.New("invalid state")
	ErrValidation        = errors.New("validation error")
	ErrForbidden         = errors.New("forbidden")
	ErrTransient         = errors.New("temporarily unavailable")
	ErrStorageInvariant  = errors.New("storage invariant violated")
)

var ErrNotFound = fmt.Errorf("%w: not found", ErrValidation)

var (
	ErrNoMaterial = fmt.Errorf("%w: no material left", ErrResourceExhausted)

	ErrAlreadyClaimed       = fmt.Errorf("%w: task already claimed by user", ErrConflict)
	ErrDuplicateFingerprint = fmt.Errorf("%w: evidence already used by another submission", ErrConflict)
	ErrBusy                 = fmt.Errorf("%w: task is busy, try again", ErrConflict)
	ErrCategoryExists       = fmt.Errorf("%w: category already exists", ErrConflict)
	ErrAlreadyCheckedIn     = fmt.Errorf("%w: already checked in today", ErrConflict)

	ErrNotEligible         = fmt.Errorf("%w: submission is not eligible for appeal", ErrInvalidState)
	ErrAlreadySettled      = fmt.Errorf("%w: submission already settled", ErrInvalidState)
	ErrAlreadyApproved     = fmt.Errorf("%w: submission already approved", ErrInvalidState)
	ErrTaskInactive        = fmt.Errorf("%w: task is not active", ErrInvalidState)
	ErrInsufficientBalance = fmt.Errorf("%w: insufficient balance", ErrInvalidState)
	ErrAlreadyProcessed    = fmt.Errorf("%w: request already processed", ErrInvalidState)

	ErrTaskNotFound       = fmt.Errorf("%w: task", ErrNotFound)
	ErrSubmissionNotFound = fmt.Errorf("%w: submission", ErrNotFound)
	ErrUserNotFound       = fmt.Errorf("%w: user", ErrNotFound)
	ErrCategoryNotFound   = fmt.Errorf("%w: material category", ErrNotFound)
	ErrWithdrawalNotFound = fmt.Errorf("%w: withdrawal", ErrNotFound)
	ErrDepositNotFound    = fmt.Errorf("%w: deposit", ErrNotFound)

	ErrInvalidID        = fmt.Errorf("%w: id must be positive", ErrValidation)
	ErrInvalidPage      = fmt.Errorf("%w: page must be positive", ErrValidation)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrValidation)
	ErrNegativeAmount   = fmt.Errorf("%w: amount must not be negative", ErrValidation)
	ErrAmountRequired   = fmt.Errorf("%w: dynamic task needs an operator amount", ErrValidation)
	ErrEmptyFingerprint = fmt.Errorf("%w: fingerprint is required", ErrValidation)
	ErrEmptyEvidence    = fmt.Errorf("%w: evidence reference is required", ErrValidation)
	ErrEmptyReason      = fmt.Errorf("%w: reason is required", ErrValidation)
	ErrEmptyName        = fmt.Errorf("%w: name is required", ErrValidation)
	ErrNoMaterials      = fmt.Errorf("%w: nothing to import", ErrValidation)
	ErrUnknownDecision  = fmt.Errorf("%w: decision must be approve or reject", ErrValidation)
	ErrInvalidAccount   = fmt.Errorf("%w: account number fails the Luhn check", ErrValidation)
	ErrEmptyRealName    = fmt.Errorf("%w: real name is required", ErrValidation)
	ErrEmptyProof       = fmt.Errorf("%w: deposit proof is required", ErrValidation)
	ErrPricingMode      = fmt.Errorf("%w: pricing mode must be fixed or dynamic", ErrValidation)

	ErrBanned          = fmt.Errorf("%w: account is banned", ErrForbidden)
	ErrCheckInDisabled = fmt.Errorf("%w: daily check-in is disabled", ErrForbidden)
)

// ErrEvidenceTaken is returned when a rejected submission's evidence went to
// another live submission before the appeal. The owner must upload again.
var ErrEvidenceTaken = fmt.Errorf("%w: evidence is now used by another submission", ErrNotEligible)
