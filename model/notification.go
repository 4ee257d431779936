// model/notification.go
package model

import "time"

type NotificationType string

const (
	NotifReservation NotificationType = "Reservation"
	NotifRoom        NotificationType = "Room"
	NotifBook        NotificationType = "Book"
	NotifSystem      NotificationType = "System"
)

type Notification struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	Type      NotificationType `json:"type"`
	Read      bool             `json:"read"`
	RelatedID *int64           `json:"related_id,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
}
