package settlement

import (
	"testing"
	"time"

	"github.com/GlebRadaev/bountyhub/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func amount(v float64) *float64 { return &v }

func TestCalculator_Reward(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	vipUntil := now.Add(24 * time.Hour)
	expired := now.Add(-time.Minute)

	calc := New(1.10, 10)

	tests := []struct {
		name        string
		task        *domain.Task
		user        *domain.User
		adminAmount *float64
		expected    float64
		expectedErr error
	}{
		{
			name:     "fixed price",
			task:     &domain.Task{PricingMode: domain.PricingFixed, Price: 100},
			user:     &domain.User{},
			expected: 100,
		},
		{
			name:        "fixed price ignores operator amount",
			task:        &domain.Task{PricingMode: domain.PricingFixed, Price: 12.5},
			user:        &domain.User{},
			adminAmount: amount(99),
			expected:    12.5,
		},
		{
			name:     "fixed price with active vip",
			task:     &domain.Task{PricingMode: domain.PricingFixed, Price: 100},
			user:     &domain.User{VIPUntil: &vipUntil},
			expected: 110,
		},
		{
			name:     "expired vip gets no bonus",
			task:     &domain.Task{PricingMode: domain.PricingFixed, Price: 100},
			user:     &domain.User{VIPUntil: &expired},
			expected: 100,
		},
		{
			name:        "vip bonus rounds half up",
			task:        &domain.Task{PricingMode: domain.PricingDynamic},
			user:        &domain.User{VIPUntil: &vipUntil},
			adminAmount: amount(0.05),
			expected:    0.06,
		},
		{
			name:        "dynamic price",
			task:        &domain.Task{PricingMode: domain.PricingDynamic},
			user:        &domain.User{},
			adminAmount: amount(8),
			expected:    8,
		},
		{
			name:        "dynamic zero is allowed",
			task:        &domain.Task{PricingMode: domain.PricingDynamic},
			user:        &domain.User{},
			adminAmount: amount(0),
			expected:    0,
		},
		{
			name:        "dynamic without amount",
			task:        &domain.Task{PricingMode: domain.PricingDynamic},
			user:        &domain.User{},
			expectedErr: domain.ErrAmountRequired,
		},
		{
			name:        "dynamic negative amount",
			task:        &domain.Task{PricingMode: domain.PricingDynamic},
			user:        &domain.User{},
			adminAmount: amount(-1),
			expectedErr: domain.ErrNegativeAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := calc.Reward(tt.task, tt.user, tt.adminAmount, now)
			if tt.expectedErr != nil {
				assert.ErrorIs(t, err, tt.expectedErr)
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestCalculator_Commission(t *testing.T) {
	tests := []struct {
		name     string
		percent  float64
		reward   float64
		expected float64
	}{
		{name: "ten percent of vip reward", percent: 10, reward: 110, expected: 11},
		{name: "rounds half up", percent: 10, reward: 0.25, expected: 0.03},
		{name: "rounds down below half", percent: 10, reward: 0.24, expected: 0.02},
		{name: "zero rate", percent: 0, reward: 50, expected: 0},
		{name: "negative rate treated as zero", percent: -5, reward: 50, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, New(1.10, tt.percent).Commission(tt.reward))
		})
	}
}

func TestNew_BonusBelowOneIsIgnored(t *testing.T) {
	now := time.Now()
	until := now.Add(time.Hour)

	got, err := New(0.5, 10).Reward(
		&domain.Task{PricingMode: domain.PricingFixed, Price: 20},
		&domain.User{VIPUntil: &until},
		nil,
		now,
	)
	require.NoError(t, err)
	assert.Equal(t, 20.0, got)
}

func TestCents(t *testing.T) {
	assert.Equal(t, 12.35, Cents(12.345))
	assert.Equal(t, 8.0, Cents(8))
	assert.Equal(t, 0.1, Cents(0.1))
}
