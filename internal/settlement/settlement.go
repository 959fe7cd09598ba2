// Package settlement computes what an approved submission pays out.
package settlement

import (
	"time"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/shopspring/decimal"
)

const cents = 2

var hundred = decimal.NewFromInt(100)

type Calculator struct {
	vipBonus       decimal.Decimal
	commissionRate decimal.Decimal
}

// New takes the VIP multiplier (1.10 adds ten percent) and the inviter
// commission in percent of the reward.
func New(vipBonus, commissionPercent float64) *Calculator {
	if vipBonus < 1 {
		vipBonus = 1
	}
	if commissionPercent < 0 {
		commissionPercent = 0
	}
	return &Calculator{
		vipBonus:       decimal.NewFromFloat(vipBonus),
		commissionRate: decimal.NewFromFloat(commissionPercent).Div(hundred),
	}
}

// Reward returns the amount credited to the submitter. adminAmount is only
// consulted for dynamically priced tasks, where it is required.
func (c *Calculator) Reward(task *domain.Task, user *domain.User, adminAmount *float64, now time.Time) (float64, error) {
	var base decimal.Decimal
	switch task.PricingMode {
	case domain.PricingFixed:
		base = decimal.NewFromFloat(task.Price)
	case domain.PricingDynamic:
		if adminAmount == nil {
			return 0, domain.ErrAmountRequired
		}
		if *adminAmount < 0 {
			return 0, domain.ErrNegativeAmount
		}
		base = decimal.NewFromFloat(*adminAmount)
	default:
		return 0, domain.ErrStorageInvariant
	}

	if user.VIPActive(now) {
		base = base.Mul(c.vipBonus)
	}
	return roundCents(base), nil
}

// Commission is the single-tier inviter share of reward.
func (c *Calculator) Commission(reward float64) float64 {
	return roundCents(decimal.NewFromFloat(reward).Mul(c.commissionRate))
}

// Cents rounds an externally supplied amount the same way rewards are
// rounded.
func Cents(amount float64) float64 {
	return roundCents(decimal.NewFromFloat(amount))
}

// roundCents rounds half away from zero, which is half-up for the
// non-negative amounts handled here.
func roundCents(d decimal.Decimal) float64 {
	return d.Round(cents).InexactFloat64()
}
