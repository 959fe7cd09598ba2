package dto

import "time"

type AuditLogResponseDTO struct {
	ID         int64     `json:"id" example:"120"`
	OperatorID int       `json:"operator_id" example:"1"`
	Action     string    `json:"action" example:"submission.approve"`
	TargetID   int       `json:"target_id" example:"5"`
	Detail     string    `json:"detail"`
	CreatedAt  time.Time `json:"created_at" example:"2024-05-01T10:00:00Z"`
}
