package dto

type CreateCategoryRequestDTO struct {
	Name string `json:"name" example:"Spring campaign"`
}

type CategoryResponseDTO struct {
	ID         int    `json:"id" example:"3"`
	Name       string `json:"name" example:"Spring campaign"`
	TotalCount int    `json:"total_count" example:"100"`
	UsedCount  int    `json:"used_count" example:"12"`
}

type ImportMaterialsRequestDTO struct {
	Title    string   `json:"title" example:"Spring post"`
	Content  string   `json:"content" example:"Text to publish"`
	Images   []string `json:"images"`
	Carousel bool     `json:"carousel" example:"false"`
}

type DeleteMaterialsRequestDTO struct {
	IDs []int `json:"ids"`
}

type CountResponseDTO struct {
	Count int `json:"count" example:"5"`
}
