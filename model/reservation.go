// model/reservation.go
package model

import (
	"time"

	"townbook/util/schedule"
)

type ItemType string

const (
	ItemBook ItemType = "Book"
	ItemRoom ItemType = "Room"
)

type ReservationStatus string

// Status spellings are part of the wire contract and keep the original
// values, spaces included.
const (
	StatusPending    ReservationStatus = "Pending"
	StatusApproved   ReservationStatus = "Approved"
	StatusDeclined   ReservationStatus = "Declined"
	StatusCheckedIn  ReservationStatus = "Checked In"
	StatusCheckedOut ReservationStatus = "Checked Out"
	StatusReturned   ReservationStatus = "Returned"
)

type Reservation struct {
	ID     int64             `json:"id"`
	UserID int64             `json:"user_id"`
	Type   ItemType          `json:"type"`
	ItemID int64             `json:"item_id"`
	Status ReservationStatus `json:"status"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	// Clock times in "HH:MM"; set for room reservations only.
	StartTime *string `json:"start_time,omitempty"`
	EndTime   *string `json:"end_time,omitempty"`

	Notes      *string    `json:"notes,omitempty"`
	ApprovedBy *int64     `json:"approved_by,omitempty"`
	ApprovedAt *time.Time `json:"approved_at,omitempty"`
	ReturnedAt *time.Time `json:"returned_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// Slot builds the schedule window for overlap checks. Reservations without
// clock times span the whole day.
func (r *Reservation) Slot() schedule.Slot {
	s := schedule.Slot{
		StartDate: r.StartDate,
		EndDate:   r.EndDate,
		StartTime: "00:00",
		EndTime:   "23:59",
	}
	if r.StartTime != nil {
		s.StartTime = *r.StartTime
	}
	if r.EndTime != nil {
		s.EndTime = *r.EndTime
	}
	return s
}
