package reservation

type CreateReservationReq struct {
	Type      string  `json:"type" validate:"required,oneof=Book Room"`
	ItemID    int64   `json:"item_id" validate:"required,gt=0"`
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	StartTime *string `json:"start_time,omitempty" validate:"omitempty,hhmm"`
	EndTime   *string `json:"end_time,omitempty" validate:"omitempty,hhmm"`
	Notes     *string `json:"notes,omitempty"`
}

type ReserveItemReq struct {
	StartDate string  `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string  `json:"end_date" validate:"required,datetime=2006-01-02"`
	StartTime *string `json:"start_time,omitempty" validate:"omitempty,hhmm"`
	EndTime   *string `json:"end_time,omitempty" validate:"omitempty,hhmm"`
	Notes     *string `json:"notes,omitempty"`
}
