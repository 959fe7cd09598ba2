package dto

import "time"

type BalanceResponseDTO struct {
	Current   float64 `json:"current" example:"500.5"`
	Withdrawn float64 `json:"withdrawn" example:"42"`
	Pending   float64 `json:"pending" example:"10"`
}

type BalanceWithdrawRequestDTO struct {
	Amount   float64 `json:"amount" example:"50"`
	RealName string  `json:"real_name" example:"Ivan Petrov"`
	Account  string  `json:"account" example:"4539148803436467"`
}

type WithdrawalResponseDTO struct {
	ID        int       `json:"id" example:"4"`
	Amount    float64   `json:"amount" example:"50"`
	Account   string    `json:"account" example:"4539148803436467"`
	Status    string    `json:"status" example:"pending"`
	AdminNote string    `json:"admin_note,omitempty"`
	CreatedAt time.Time `json:"created_at" example:"2020-12-09T16:09:57+03:00"`
}

type DepositResponseDTO struct {
	ID        int       `json:"id" example:"9"`
	Amount    float64   `json:"amount" example:"100"`
	Status    string    `json:"status" example:"pending"`
	CreatedAt time.Time `json:"created_at" example:"2020-12-09T16:09:57+03:00"`
}

type LedgerReviewRequestDTO struct {
	Decision string `json:"decision" example:"approve"`
	Note     string `json:"note,omitempty" example:"paid via bank transfer"`
}

type CheckInResponseDTO struct {
	Day     string  `json:"day" example:"2024-05-01"`
	Amount  float64 `json:"amount" example:"0.5"`
	Balance float64 `json:"balance" example:"12.5"`
}
