// model/room.go
package model

import "time"

type RoomStatus string

const (
	RoomAvailable   RoomStatus = "Available"
	RoomReserved    RoomStatus = "Reserved"
	RoomMaintenance RoomStatus = "Maintenance"
)

// ScheduleEntry is one weekly opening-hours slot (0 = Sunday).
type ScheduleEntry struct {
	DayOfWeek int    `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string `json:"start_time" validate:"required,hhmm"`
	EndTime   string `json:"end_time" validate:"required,hhmm"`
}

type Room struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Capacity    int64           `json:"capacity"`
	Description *string         `json:"description,omitempty"`
	Location    string          `json:"location"`
	Amenities   []string        `json:"amenities"`
	Status      RoomStatus      `json:"status"`
	Schedule    []ScheduleEntry `json:"schedule"`
	AddedBy     int64           `json:"added_by"`
	CreatedAt   time.Time       `json:"created_at"`
}
