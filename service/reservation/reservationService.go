package reservation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"townbook/model"
	"townbook/util/schedule"
)

// errors used by controllers

type ErrCode string

const (
	ErrNotFound     ErrCode = "NOT_FOUND"
	ErrInvalidState ErrCode = "INVALID_STATE"
	ErrConflict     ErrCode = "CONFLICT"
	ErrOutOfStock   ErrCode = "OUT_OF_STOCK"
	ErrBadSlot      ErrCode = "BAD_SLOT"
	ErrInternal     ErrCode = "INTERNAL"
)

type codedError struct{ code ErrCode }

func (e codedError) Error() string { return string(e.code) }
func (e codedError) Code() ErrCode { return e.code }
func makeErr(c ErrCode) error      { return codedError{code: c} }

// Code extracts error code
func Code(err error) ErrCode {
	var ce interface{ Code() ErrCode }
	if errors.As(err, &ce) {
		return ce.Code()
	}
	return ""
}

// Repo is the storage surface the state machine runs against. Methods that
// take a tx only run inside WithinTx; passing tx == nil to ApprovedRoomSlots
// reads outside any transaction.
type Repo interface {
	WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error

	ByID(ctx context.Context, id int64) (*model.Reservation, error)
	ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error)
	ListForItem(ctx context.Context, typ model.ItemType, itemID int64) ([]model.Reservation, error)
	ApprovedRoomSlots(ctx context.Context, tx *sql.Tx, roomID, excludeID int64) ([]schedule.Slot, error)
	BookByID(ctx context.Context, id int64) (*model.Book, error)
	RoomByID(ctx context.Context, id int64) (*model.Room, error)
	UserNameByID(ctx context.Context, id int64) (string, error)

	ReservationForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error)
	Insert(ctx context.Context, tx *sql.Tx, r *model.Reservation) error
	MarkDecided(ctx context.Context, tx *sql.Tx, id, approverID int64, to model.ReservationStatus) (bool, error)
	UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, from, to model.ReservationStatus) (bool, error)
	MarkReturned(ctx context.Context, tx *sql.Tx, id int64) (bool, error)
	DecrementCopies(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	IncrementCopies(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error)
	AttachToItem(ctx context.Context, tx *sql.Tx, typ model.ItemType, itemID, resID int64) error
	DetachFromItem(ctx context.Context, tx *sql.Tx, typ model.ItemType, itemID, resID int64) error
	Delete(ctx context.Context, tx *sql.Tx, id int64) error
}

// Notifier delivers user-facing notices. Delivery is best effort: the service
// logs failures and never lets them roll back a committed transition.
type Notifier interface {
	Notify(ctx context.Context, userID int64, title, message string, typ model.NotificationType, relatedID int64) error
	NotifyRole(ctx context.Context, role model.Role, title, message string, typ model.NotificationType, relatedID int64) error
}

type CreateInput struct {
	UserID    int64
	Type      model.ItemType
	ItemID    int64
	StartDate time.Time
	EndDate   time.Time
	StartTime *string
	EndTime   *string
	Notes     *string
}

type Service interface {
	CheckAvailability(ctx context.Context, roomID int64, slot schedule.Slot) (bool, error)
	Create(ctx context.Context, in CreateInput) (*model.Reservation, error)
	Approve(ctx context.Context, id, approverID int64) (*model.Reservation, error)
	Decline(ctx context.Context, id, approverID int64) (*model.Reservation, error)
	Checkout(ctx context.Context, id int64) (*model.Reservation, error)
	Return(ctx context.Context, id int64) (*model.Reservation, error)
	CheckIn(ctx context.Context, id int64) (*model.Reservation, error)
	CheckOutRoom(ctx context.Context, id int64) (*model.Reservation, error)
	Delete(ctx context.Context, id int64) error
	Get(ctx context.Context, userID, id int64) (*model.Reservation, error)
	ListMine(ctx context.Context, userID int64) ([]model.Reservation, error)
	ListForItem(ctx context.Context, typ model.ItemType, itemID int64) ([]model.Reservation, error)
}

type service struct {
	r      Repo
	n      Notifier
	policy schedule.Policy
	log    *slog.Logger
}

func New(r Repo, n Notifier, policy schedule.Policy, log *slog.Logger) Service {
	return &service{r: r, n: n, policy: policy, log: log}
}

// CheckAvailability decides whether the slot collides with any Approved room
// reservation under the configured overlap policy. Read-only.
func (s *service) CheckAvailability(ctx context.Context, roomID int64, slot schedule.Slot) (bool, error) {
	if err := slot.Validate(); err != nil {
		return false, makeErr(ErrBadSlot)
	}
	existing, err := s.r.ApprovedRoomSlots(ctx, nil, roomID, 0)
	if err != nil {
		return false, err
	}
	for _, ex := range existing {
		if schedule.Conflicts(ex, slot, s.policy) {
			return false, nil
		}
	}
	return true, nil
}

func (s *service) Create(ctx context.Context, in CreateInput) (*model.Reservation, error) {
	var itemName string

	switch in.Type {
	case model.ItemBook:
		b, err := s.r.BookByID(ctx, in.ItemID)
		if err != nil {
			return nil, notFoundOr(err)
		}
		itemName = b.Title
	case model.ItemRoom:
		rm, err := s.r.RoomByID(ctx, in.ItemID)
		if err != nil {
			return nil, notFoundOr(err)
		}
		itemName = rm.Name

		if in.StartTime == nil || in.EndTime == nil {
			return nil, makeErr(ErrBadSlot)
		}
		ok, err := s.CheckAvailability(ctx, in.ItemID, schedule.Slot{
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			StartTime: *in.StartTime,
			EndTime:   *in.EndTime,
		})
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, makeErr(ErrConflict)
		}
	default:
		return nil, makeErr(ErrNotFound)
	}

	res := &model.Reservation{
		UserID:    in.UserID,
		Type:      in.Type,
		ItemID:    in.ItemID,
		Status:    model.StatusPending,
		StartDate: in.StartDate,
		EndDate:   in.EndDate,
		StartTime: in.StartTime,
		EndTime:   in.EndTime,
		Notes:     in.Notes,
	}

	err := s.r.WithinTx(ctx, func(tx *sql.Tx) error {
		if err := s.r.Insert(ctx, tx, res); err != nil {
			return err
		}
		return s.r.AttachToItem(ctx, tx, in.Type, in.ItemID, res.ID)
	})
	if err != nil {
		return nil, err
	}

	requester, err := s.r.UserNameByID(ctx, in.UserID)
	if err != nil {
		requester = "A member"
	}
	s.broadcast(ctx, model.RoleLibrarian, "New Reservation",
		fmt.Sprintf("%s has requested to reserve %s", requester, itemName), res.ID)

	return res, nil
}

func (s *service) Approve(ctx context.Context, id, approverID int64) (*model.Reservation, error) {
	var out *model.Reservation

	err := s.r.WithinTx(ctx, func(tx *sql.Tx) error {
		res, err := s.r.ReservationForUpdate(ctx, tx, id)
		if err != nil {
			return notFoundOr(err)
		}
		if res.Status != model.StatusPending {
			return makeErr(ErrInvalidState)
		}

		// Rooms re-run the availability check inside the transaction so a
		// reservation approved since the request was made is seen.
		if res.Type == model.ItemRoom {
			existing, err := s.r.ApprovedRoomSlots(ctx, tx, res.ItemID, res.ID)
			if err != nil {
				return err
			}
			slot := res.Slot()
			for _, ex := range existing {
				if schedule.Conflicts(ex, slot, s.policy) {
					return makeErr(ErrConflict)
				}
			}
		}

		if res.Type == model.ItemBook {
			ok, err := s.r.DecrementCopies(ctx, tx, res.ItemID)
			if err != nil {
				return err
			}
			if !ok {
				return makeErr(ErrOutOfStock)
			}
		}

		ok, err := s.r.MarkDecided(ctx, tx, id, approverID, model.StatusApproved)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrInvalidState)
		}

		now := time.Now().UTC()
		res.Status = model.StatusApproved
		res.ApprovedBy = &approverID
		res.ApprovedAt = &now
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, out, "Reservation Approved",
		fmt.Sprintf("Your reservation for %s has been approved", s.itemName(ctx, out)))
	return out, nil
}

func (s *service) Decline(ctx context.Context, id, approverID int64) (*model.Reservation, error) {
	var out *model.Reservation

	err := s.r.WithinTx(ctx, func(tx *sql.Tx) error {
		res, err := s.r.ReservationForUpdate(ctx, tx, id)
		if err != nil {
			return notFoundOr(err)
		}
		if res.Status != model.StatusPending {
			return makeErr(ErrInvalidState)
		}

		ok, err := s.r.MarkDecided(ctx, tx, id, approverID, model.StatusDeclined)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrInvalidState)
		}

		now := time.Now().UTC()
		res.Status = model.StatusDeclined
		res.ApprovedBy = &approverID
		res.ApprovedAt = &now
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, out, "Reservation Declined",
		fmt.Sprintf("Your reservation for %s has been declined", s.itemName(ctx, out)))
	return out, nil
}

func (s *service) Checkout(ctx context.Context, id int64) (*model.Reservation, error) {
	out, err := s.transition(ctx, id, model.StatusApproved, model.StatusCheckedOut, "")
	if err != nil {
		return nil, err
	}
	s.notifyOwner(ctx, out, "Reservation Checked Out",
		fmt.Sprintf("Your reservation for %s has been checked out", s.itemName(ctx, out)))
	return out, nil
}

func (s *service) Return(ctx context.Context, id int64) (*model.Reservation, error) {
	var out *model.Reservation

	err := s.r.WithinTx(ctx, func(tx *sql.Tx) error {
		res, err := s.r.ReservationForUpdate(ctx, tx, id)
		if err != nil {
			return notFoundOr(err)
		}
		if res.Status != model.StatusCheckedOut {
			return makeErr(ErrInvalidState)
		}

		ok, err := s.r.MarkReturned(ctx, tx, id)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrInvalidState)
		}

		if res.Type == model.ItemBook {
			ok, err := s.r.IncrementCopies(ctx, tx, res.ItemID)
			if err != nil {
				return err
			}
			if !ok {
				// available_copies would exceed total_copies; the counter
				// has drifted and the transition is aborted.
				s.log.Error("copy counter clamp violated", "book_id", res.ItemID, "reservation_id", id)
				return makeErr(ErrInternal)
			}
		}

		now := time.Now().UTC()
		res.Status = model.StatusReturned
		res.ReturnedAt = &now
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, out, "Reservation Returned",
		fmt.Sprintf("Your reservation for %s has been returned", s.itemName(ctx, out)))
	return out, nil
}

func (s *service) CheckIn(ctx context.Context, id int64) (*model.Reservation, error) {
	out, err := s.transition(ctx, id, model.StatusApproved, model.StatusCheckedIn, model.ItemRoom)
	if err != nil {
		return nil, err
	}
	s.notifyOwner(ctx, out, "Room Checked In",
		fmt.Sprintf("You have successfully checked into %s", s.itemName(ctx, out)))
	return out, nil
}

func (s *service) CheckOutRoom(ctx context.Context, id int64) (*model.Reservation, error) {
	out, err := s.transition(ctx, id, model.StatusCheckedIn, model.StatusCheckedOut, model.ItemRoom)
	if err != nil {
		return nil, err
	}
	s.notifyOwner(ctx, out, "Room Checked Out",
		fmt.Sprintf("You have successfully checked out of %s", s.itemName(ctx, out)))
	return out, nil
}

// transition is the shared side-effect-free status move. typ restricts the
// transition to one item type; empty means both.
func (s *service) transition(ctx context.Context, id int64, from, to model.ReservationStatus, typ model.ItemType) (*model.Reservation, error) {
	var out *model.Reservation

	err := s.r.WithinTx(ctx, func(tx *sql.Tx) error {
		res, err := s.r.ReservationForUpdate(ctx, tx, id)
		if err != nil {
			return notFoundOr(err)
		}
		if typ != "" && res.Type != typ {
			return makeErr(ErrInvalidState)
		}
		if res.Status != from {
			return makeErr(ErrInvalidState)
		}

		ok, err := s.r.UpdateStatus(ctx, tx, id, from, to)
		if err != nil {
			return err
		}
		if !ok {
			return makeErr(ErrInvalidState)
		}

		res.Status = to
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes a reservation in any state and drops the back-reference on
// the item. Book stock is intentionally not restored; that matches the
// behavior callers currently depend on.
// TODO: revisit with product whether deleting an Approved book reservation
// should release the copy.
func (s *service) Delete(ctx context.Context, id int64) error {
	return s.r.WithinTx(ctx, func(tx *sql.Tx) error {
		res, err := s.r.ReservationForUpdate(ctx, tx, id)
		if err != nil {
			return notFoundOr(err)
		}
		if err := s.r.DetachFromItem(ctx, tx, res.Type, res.ItemID, res.ID); err != nil {
			return err
		}
		return s.r.Delete(ctx, tx, id)
	})
}

func (s *service) Get(ctx context.Context, userID, id int64) (*model.Reservation, error) {
	res, err := s.r.ByID(ctx, id)
	if err != nil {
		return nil, notFoundOr(err)
	}
	if res.UserID != userID {
		return nil, makeErr(ErrNotFound)
	}
	return res, nil
}

func (s *service) ListMine(ctx context.Context, userID int64) ([]model.Reservation, error) {
	return s.r.ListByUser(ctx, userID)
}

func (s *service) ListForItem(ctx context.Context, typ model.ItemType, itemID int64) ([]model.Reservation, error) {
	return s.r.ListForItem(ctx, typ, itemID)
}

func (s *service) notifyOwner(ctx context.Context, res *model.Reservation, title, message string) {
	if err := s.n.Notify(ctx, res.UserID, title, message, model.NotifReservation, res.ID); err != nil {
		s.log.Warn("notify failed", "user_id", res.UserID, "reservation_id", res.ID, "err", err)
	}
}

func (s *service) broadcast(ctx context.Context, role model.Role, title, message string, relatedID int64) {
	if err := s.n.NotifyRole(ctx, role, title, message, model.NotifReservation, relatedID); err != nil {
		s.log.Warn("role broadcast failed", "role", role, "reservation_id", relatedID, "err", err)
	}
}

func (s *service) itemName(ctx context.Context, res *model.Reservation) string {
	switch res.Type {
	case model.ItemBook:
		if b, err := s.r.BookByID(ctx, res.ItemID); err == nil {
			return b.Title
		}
		return "the book"
	default:
		if rm, err := s.r.RoomByID(ctx, res.ItemID); err == nil {
			return rm.Name
		}
		return "the room"
	}
}

func notFoundOr(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return makeErr(ErrNotFound)
	}
	return err
}
