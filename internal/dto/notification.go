package dto

import "time"

type NotificationResponseDTO struct {
	ID        int       `json:"id" example:"31"`
	Title     string    `json:"title" example:"Submission approved"`
	Content   string    `json:"content" example:"Reward 11.00 credited"`
	Kind      string    `json:"kind" example:"settlement"`
	Read      bool      `json:"read" example:"false"`
	CreatedAt time.Time `json:"created_at" example:"2024-05-01T10:00:00Z"`
}
