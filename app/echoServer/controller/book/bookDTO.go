package book

type UpsertBookReq struct {
	Title       string  `json:"title" validate:"required"`
	Author      string  `json:"author" validate:"required"`
	ISBN        *string `json:"isbn,omitempty"`
	Description *string `json:"description,omitempty"`
	Genre       string  `json:"genre" validate:"omitempty,oneof=Fiction Non-Fiction Science History Literature Children Other"`
	CoverImage  *string `json:"cover_image,omitempty" validate:"omitempty,url"`
	TotalCopies int64   `json:"total_copies" validate:"required,gte=1"`
	Location    string  `json:"location" validate:"required"`
}

type UpdateBookReq struct {
	Title       string  `json:"title"`
	Author      string  `json:"author"`
	ISBN        *string `json:"isbn,omitempty"`
	Description *string `json:"description,omitempty"`
	Genre       string  `json:"genre" validate:"omitempty,oneof=Fiction Non-Fiction Science History Literature Children Other"`
	CoverImage  *string `json:"cover_image,omitempty" validate:"omitempty,url"`
	Location    string  `json:"location"`
}
