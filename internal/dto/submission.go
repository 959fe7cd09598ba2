package dto

import "time"

type SubmissionResponseDTO struct {
	ID           int       `json:"id" example:"15"`
	TaskID       int       `json:"task_id" example:"7"`
	MaterialID   *int      `json:"material_id,omitempty" example:"120"`
	Status       string    `json:"status" example:"pending_upload"`
	EvidenceRef  string    `json:"evidence_ref,omitempty" example:"submissions/5f0c.png"`
	PostLink     string    `json:"post_link,omitempty" example:"https://example.com/p/1"`
	Feedback     string    `json:"feedback,omitempty"`
	AppealReason string    `json:"appeal_reason,omitempty"`
	FinalAmount  float64   `json:"final_amount" example:"0"`
	CreatedAt    time.Time `json:"created_at" example:"2024-05-01T10:00:00Z"`
	UpdatedAt    time.Time `json:"updated_at" example:"2024-05-01T10:00:00Z"`
}

type AppealRequestDTO struct {
	Reason string `json:"reason" example:"The post is still online"`
}

type ReviewRequestDTO struct {
	Decision string   `json:"decision" example:"approve"`
	Amount   *float64 `json:"amount,omitempty" example:"8"`
	Feedback string   `json:"feedback,omitempty" example:"Screenshot is cropped"`
}

type ReviewResponseDTO struct {
	SubmissionID int     `json:"submission_id" example:"15"`
	Status       string  `json:"status" example:"approved"`
	FinalAmount  float64 `json:"final_amount" example:"11"`
	InviterID    *int    `json:"inviter_id,omitempty" example:"2"`
	Commission   float64 `json:"commission" example:"1.1"`
	CreditScore  int     `json:"credit_score,omitempty" example:"90"`
}
