package dto

import "time"

type TaskResponseDTO struct {
	ID           int       `json:"id" example:"7"`
	Title        string    `json:"title" example:"Post a review"`
	Description  string    `json:"description,omitempty" example:"Publish the provided text with images"`
	PricingMode  string    `json:"price_mode" example:"fixed"`
	Price        float64   `json:"price" example:"10"`
	CategoryID   *int      `json:"material_category_id,omitempty" example:"3"`
	RequiredTags []string  `json:"required_tags,omitempty"`
	CreatedAt    time.Time `json:"created_at" example:"2024-05-01T10:00:00Z"`
}

type CreateTaskRequestDTO struct {
	Title        string   `json:"title" example:"Post a review"`
	Description  string   `json:"description" example:"Publish the provided text with images"`
	PricingMode  string   `json:"price_mode" example:"fixed"`
	Price        float64  `json:"price" example:"10"`
	CategoryID   *int     `json:"material_category_id,omitempty" example:"3"`
	RequiredTags []string `json:"required_tags,omitempty"`
}
