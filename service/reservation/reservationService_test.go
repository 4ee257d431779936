package reservation

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"townbook/model"
	"townbook/util/schedule"
)

// fakeRepo is an in-memory Repo. WithinTx serializes mutations behind a
// mutex; tx-scoped methods run with that lock already held and must not
// lock again. Read methods without a tx parameter lock on their own.
type fakeRepo struct {
	mu           sync.Mutex
	reservations map[int64]*model.Reservation
	books        map[int64]*model.Book
	rooms        map[int64]*model.Room
	users        map[int64]string
	attached     map[string][]int64
	nextID       int64
}

var _ Repo = (*fakeRepo)(nil)

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		reservations: map[int64]*model.Reservation{},
		books:        map[int64]*model.Book{},
		rooms:        map[int64]*model.Room{},
		users:        map[int64]string{},
		attached:     map[string][]int64{},
	}
}

func itemKey(typ model.ItemType, itemID int64) string {
	return fmt.Sprintf("%s:%d", typ, itemID)
}

func (f *fakeRepo) WithinTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return fn(nil)
}

func (f *fakeRepo) ByID(ctx context.Context, id int64) (*model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) ListByUser(ctx context.Context, userID int64) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, r := range f.reservations {
		if r.UserID == userID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListForItem(ctx context.Context, typ model.ItemType, itemID int64) ([]model.Reservation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Reservation
	for _, r := range f.reservations {
		if r.Type == typ && r.ItemID == itemID {
			out = append(out, *r)
		}
	}
	return out, nil
}

func (f *fakeRepo) ApprovedRoomSlots(ctx context.Context, tx *sql.Tx, roomID, excludeID int64) ([]schedule.Slot, error) {
	var out []schedule.Slot
	for _, r := range f.reservations {
		if r.Type == model.ItemRoom && r.ItemID == roomID && r.ID != excludeID && r.Status == model.StatusApproved {
			out = append(out, r.Slot())
		}
	}
	return out, nil
}

func (f *fakeRepo) BookByID(ctx context.Context, id int64) (*model.Book, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *b
	return &cp, nil
}

func (f *fakeRepo) RoomByID(ctx context.Context, id int64) (*model.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rm, ok := f.rooms[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *rm
	return &cp, nil
}

func (f *fakeRepo) UserNameByID(ctx context.Context, id int64) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	name, ok := f.users[id]
	if !ok {
		return "", sql.ErrNoRows
	}
	return name, nil
}

func (f *fakeRepo) ReservationForUpdate(ctx context.Context, tx *sql.Tx, id int64) (*model.Reservation, error) {
	r, ok := f.reservations[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	cp := *r
	return &cp, nil
}

func (f *fakeRepo) Insert(ctx context.Context, tx *sql.Tx, r *model.Reservation) error {
	f.nextID++
	r.ID = f.nextID
	r.CreatedAt = time.Now().UTC()
	cp := *r
	f.reservations[r.ID] = &cp
	return nil
}

func (f *fakeRepo) MarkDecided(ctx context.Context, tx *sql.Tx, id, approverID int64, to model.ReservationStatus) (bool, error) {
	r, ok := f.reservations[id]
	if !ok || r.Status != model.StatusPending {
		return false, nil
	}
	now := time.Now().UTC()
	r.Status = to
	r.ApprovedBy = &approverID
	r.ApprovedAt = &now
	return true, nil
}

func (f *fakeRepo) UpdateStatus(ctx context.Context, tx *sql.Tx, id int64, from, to model.ReservationStatus) (bool, error) {
	r, ok := f.reservations[id]
	if !ok || r.Status != from {
		return false, nil
	}
	r.Status = to
	return true, nil
}

func (f *fakeRepo) MarkReturned(ctx context.Context, tx *sql.Tx, id int64) (bool, error) {
	r, ok := f.reservations[id]
	if !ok || r.Status != model.StatusCheckedOut {
		return false, nil
	}
	now := time.Now().UTC()
	r.Status = model.StatusReturned
	r.ReturnedAt = &now
	return true, nil
}

func (f *fakeRepo) DecrementCopies(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
	b, ok := f.books[bookID]
	if !ok || b.AvailableCopies <= 0 {
		return false, nil
	}
	b.AvailableCopies--
	return true, nil
}

func (f *fakeRepo) IncrementCopies(ctx context.Context, tx *sql.Tx, bookID int64) (bool, error) {
	b, ok := f.books[bookID]
	if !ok || b.AvailableCopies >= b.TotalCopies {
		return false, nil
	}
	b.AvailableCopies++
	return true, nil
}

func (f *fakeRepo) AttachToItem(ctx context.Context, tx *sql.Tx, typ model.ItemType, itemID, resID int64) error {
	k := itemKey(typ, itemID)
	f.attached[k] = append(f.attached[k], resID)
	return nil
}

func (f *fakeRepo) DetachFromItem(ctx context.Context, tx *sql.Tx, typ model.ItemType, itemID, resID int64) error {
	k := itemKey(typ, itemID)
	ids := f.attached[k]
	for i, id := range ids {
		if id == resID {
			f.attached[k] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (f *fakeRepo) Delete(ctx context.Context, tx *sql.Tx, id int64) error {
	delete(f.reservations, id)
	return nil
}

func (f *fakeRepo) availableCopies(t *testing.T, bookID int64) int64 {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.books[bookID]
	require.True(t, ok)
	return b.AvailableCopies
}

func (f *fakeRepo) status(t *testing.T, id int64) model.ReservationStatus {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.reservations[id]
	require.True(t, ok)
	return r.Status
}

type fakeNotifier struct {
	mu     sync.Mutex
	sent   []string
	toRole []string
}

func (n *fakeNotifier) Notify(ctx context.Context, userID int64, title, message string, typ model.NotificationType, relatedID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, title)
	return nil
}

func (n *fakeNotifier) NotifyRole(ctx context.Context, role model.Role, title, message string, typ model.NotificationType, relatedID int64) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.toRole = append(n.toRole, title)
	return nil
}

func (n *fakeNotifier) titles() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.sent...)
}

// --- fixtures ---

func testService(f *fakeRepo, n *fakeNotifier, p schedule.Policy) Service {
	return New(f, n, p, slog.New(slog.DiscardHandler))
}

func seedBook(f *fakeRepo, id, copies int64) {
	f.books[id] = &model.Book{ID: id, Title: "Dune", TotalCopies: copies, AvailableCopies: copies}
}

func seedRoom(f *fakeRepo, id int64) {
	f.rooms[id] = &model.Room{ID: id, Name: "Study Room A", Capacity: 6}
}

func seedReservation(f *fakeRepo, r model.Reservation) int64 {
	f.nextID++
	r.ID = f.nextID
	f.reservations[r.ID] = &r
	return r.ID
}

func strp(s string) *string { return &s }

func bookReservation(userID, bookID int64, status model.ReservationStatus) model.Reservation {
	return model.Reservation{
		UserID:    userID,
		Type:      model.ItemBook,
		ItemID:    bookID,
		Status:    status,
		StartDate: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.March, 17, 0, 0, 0, 0, time.UTC),
	}
}

func roomReservation(userID, roomID int64, status model.ReservationStatus, start, end string) model.Reservation {
	return model.Reservation{
		UserID:    userID,
		Type:      model.ItemRoom,
		ItemID:    roomID,
		Status:    status,
		StartDate: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		StartTime: strp(start),
		EndTime:   strp(end),
	}
}

// --- tests ---

func TestCreate_BookPendingAndBroadcast(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedBook(f, 1, 3)
	f.users[7] = "Alex Morgan"
	n := &fakeNotifier{}
	svc := testService(f, n, schedule.PolicyStrict)

	res, err := svc.Create(ctx, CreateInput{
		UserID:    7,
		Type:      model.ItemBook,
		ItemID:    1,
		StartDate: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.March, 17, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Equal(t, model.StatusPending, res.Status)
	require.NotZero(t, res.ID)

	// Creation never touches the counter.
	require.Equal(t, int64(3), f.availableCopies(t, 1))
	require.Contains(t, f.attached[itemKey(model.ItemBook, 1)], res.ID)
	require.Equal(t, []string{"New Reservation"}, n.toRole)
}

func TestCreate_UnknownItem(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	_, err := svc.Create(ctx, CreateInput{UserID: 1, Type: model.ItemBook, ItemID: 99})
	require.Equal(t, ErrNotFound, Code(err))
}

func TestCreate_RoomRequiresClockTimes(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedRoom(f, 2)
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	_, err := svc.Create(ctx, CreateInput{
		UserID:    1,
		Type:      model.ItemRoom,
		ItemID:    2,
		StartDate: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
	})
	require.Equal(t, ErrBadSlot, Code(err))
}

func TestCreate_RoomConflictRejected(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedRoom(f, 2)
	seedReservation(f, roomReservation(5, 2, model.StatusApproved, "10:00", "11:00"))
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	_, err := svc.Create(ctx, CreateInput{
		UserID:    1,
		Type:      model.ItemRoom,
		ItemID:    2,
		StartDate: time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC),
		StartTime: strp("10:30"),
		EndTime:   strp("11:30"),
	})
	require.Equal(t, ErrConflict, Code(err))
}

func TestCheckAvailability(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedRoom(f, 2)
	seedReservation(f, roomReservation(5, 2, model.StatusApproved, "10:00", "11:00"))
	// Pending reservations never block.
	seedReservation(f, roomReservation(6, 2, model.StatusPending, "13:00", "14:00"))
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	day := time.Date(2026, time.March, 10, 0, 0, 0, 0, time.UTC)

	ok, err := svc.CheckAvailability(ctx, 2, schedule.Slot{StartDate: day, EndDate: day, StartTime: "10:30", EndTime: "11:30"})
	require.NoError(t, err)
	require.False(t, ok)

	ok, err = svc.CheckAvailability(ctx, 2, schedule.Slot{StartDate: day, EndDate: day, StartTime: "13:00", EndTime: "14:00"})
	require.NoError(t, err)
	require.True(t, ok)

	_, err = svc.CheckAvailability(ctx, 2, schedule.Slot{StartDate: day, EndDate: day, StartTime: "25:00", EndTime: "26:00"})
	require.Equal(t, ErrBadSlot, Code(err))
}

func TestApprove_DecrementsAndStamps(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedBook(f, 1, 2)
	id := seedReservation(f, bookReservation(7, 1, model.StatusPending))
	n := &fakeNotifier{}
	svc := testService(f, n, schedule.PolicyStrict)

	res, err := svc.Approve(ctx, id, 99)
	require.NoError(t, err)
	require.Equal(t, model.StatusApproved, res.Status)
	require.NotNil(t, res.ApprovedBy)
	require.Equal(t, int64(99), *res.ApprovedBy)
	require.NotNil(t, res.ApprovedAt)
	require.Equal(t, int64(1), f.availableCopies(t, 1))
	require.Equal(t, []string{"Reservation Approved"}, n.titles())

	// A second approve must fail without touching the counter again.
	_, err = svc.Approve(ctx, id, 99)
	require.Equal(t, ErrInvalidState, Code(err))
	require.Equal(t, int64(1), f.availableCopies(t, 1))
}

func TestApprove_OutOfStock(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedBook(f, 1, 0)
	id := seedReservation(f, bookReservation(7, 1, model.StatusPending))
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	_, err := svc.Approve(ctx, id, 99)
	require.Equal(t, ErrOutOfStock, Code(err))
	require.Equal(t, model.StatusPending, f.status(t, id))
	require.Equal(t, int64(0), f.availableCopies(t, 1))
}

func TestApprove_RoomConflictInsideTx(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedRoom(f, 2)
	seedReservation(f, roomReservation(5, 2, model.StatusApproved, "10:00", "11:00"))
	id := seedReservation(f, roomReservation(6, 2, model.StatusPending, "10:30", "11:30"))
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	_, err := svc.Approve(ctx, id, 99)
	require.Equal(t, ErrConflict, Code(err))
	require.Equal(t, model.StatusPending, f.status(t, id))
}

func TestDecline(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedBook(f, 1, 2)
	id := seedReservation(f, bookReservation(7, 1, model.StatusPending))
	n := &fakeNotifier{}
	svc := testService(f, n, schedule.PolicyStrict)

	res, err := svc.Decline(ctx, id, 99)
	require.NoError(t, err)
	require.Equal(t, model.StatusDeclined, res.Status)
	// Declining never touches stock.
	require.Equal(t, int64(2), f.availableCopies(t, 1))
	require.Equal(t, []string{"Reservation Declined"}, n.titles())

	_, err = svc.Approve(ctx, id, 99)
	require.Equal(t, ErrInvalidState, Code(err))
}

func TestBookLifecycle_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedBook(f, 1, 1)
	id := seedReservation(f, bookReservation(7, 1, model.StatusPending))
	n := &fakeNotifier{}
	svc := testService(f, n, schedule.PolicyStrict)

	_, err := svc.Approve(ctx, id, 99)
	require.NoError(t, err)
	require.Equal(t, int64(0), f.availableCopies(t, 1))

	res, err := svc.Checkout(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusCheckedOut, res.Status)

	res, err = svc.Return(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusReturned, res.Status)
	require.NotNil(t, res.ReturnedAt)
	require.Equal(t, int64(1), f.availableCopies(t, 1))

	require.Equal(t, []string{
		"Reservation Approved",
		"Reservation Checked Out",
		"Reservation Returned",
	}, n.titles())
}

func TestReturn_Twice(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedBook(f, 1, 2)
	f.books[1].AvailableCopies = 1 // one copy out
	id := seedReservation(f, bookReservation(7, 1, model.StatusCheckedOut))
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	_, err := svc.Return(ctx, id)
	require.NoError(t, err)
	require.Equal(t, int64(2), f.availableCopies(t, 1))

	_, err = svc.Return(ctx, id)
	require.Equal(t, ErrInvalidState, Code(err))
	require.Equal(t, int64(2), f.availableCopies(t, 1))
}

func TestTransitions_IllegalStates(t *testing.T) {
	ctx := context.Background()

	cases := []struct {
		name string
		from model.ReservationStatus
		op   func(svc Service, id int64) error
	}{
		{"checkout pending", model.StatusPending, func(svc Service, id int64) error {
			_, err := svc.Checkout(ctx, id)
			return err
		}},
		{"checkout returned", model.StatusReturned, func(svc Service, id int64) error {
			_, err := svc.Checkout(ctx, id)
			return err
		}},
		{"return approved", model.StatusApproved, func(svc Service, id int64) error {
			_, err := svc.Return(ctx, id)
			return err
		}},
		{"return declined", model.StatusDeclined, func(svc Service, id int64) error {
			_, err := svc.Return(ctx, id)
			return err
		}},
		{"approve checked out", model.StatusCheckedOut, func(svc Service, id int64) error {
			_, err := svc.Approve(ctx, id, 99)
			return err
		}},
		{"decline approved", model.StatusApproved, func(svc Service, id int64) error {
			_, err := svc.Decline(ctx, id, 99)
			return err
		}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFakeRepo()
			seedBook(f, 1, 5)
			id := seedReservation(f, bookReservation(7, 1, tc.from))
			svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

			err := tc.op(svc, id)
			require.Equal(t, ErrInvalidState, Code(err))
			require.Equal(t, tc.from, f.status(t, id))
			require.Equal(t, int64(5), f.availableCopies(t, 1))
		})
	}
}

func TestRoomCheckInFlow(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedRoom(f, 2)
	id := seedReservation(f, roomReservation(7, 2, model.StatusApproved, "10:00", "11:00"))
	n := &fakeNotifier{}
	svc := testService(f, n, schedule.PolicyStrict)

	res, err := svc.CheckIn(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusCheckedIn, res.Status)

	res, err = svc.CheckOutRoom(ctx, id)
	require.NoError(t, err)
	require.Equal(t, model.StatusCheckedOut, res.Status)

	require.Equal(t, []string{"Room Checked In", "Room Checked Out"}, n.titles())
}

func TestCheckIn_BookRejected(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedBook(f, 1, 1)
	id := seedReservation(f, bookReservation(7, 1, model.StatusApproved))
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	_, err := svc.CheckIn(ctx, id)
	require.Equal(t, ErrInvalidState, Code(err))
	require.Equal(t, model.StatusApproved, f.status(t, id))
}

func TestConcurrentApprove_SingleWinner(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedBook(f, 1, 1)
	first := seedReservation(f, bookReservation(7, 1, model.StatusPending))
	second := seedReservation(f, bookReservation(8, 1, model.StatusPending))
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	errs := make(chan error, 2)
	var wg sync.WaitGroup
	for _, id := range []int64{first, second} {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, err := svc.Approve(ctx, id, 99)
			errs <- err
		}(id)
	}
	wg.Wait()
	close(errs)

	var wins, outOfStock int
	for err := range errs {
		switch {
		case err == nil:
			wins++
		case Code(err) == ErrOutOfStock:
			outOfStock++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	require.Equal(t, 1, wins)
	require.Equal(t, 1, outOfStock)
	require.Equal(t, int64(0), f.availableCopies(t, 1))
}

func TestDelete_DoesNotRestoreStock(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedBook(f, 1, 1)
	id := seedReservation(f, bookReservation(7, 1, model.StatusPending))
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	_, err := svc.Approve(ctx, id, 99)
	require.NoError(t, err)
	require.Equal(t, int64(0), f.availableCopies(t, 1))

	require.NoError(t, svc.Delete(ctx, id))

	_, err = svc.Get(ctx, 7, id)
	require.Equal(t, ErrNotFound, Code(err))
	require.Empty(t, f.attached[itemKey(model.ItemBook, 1)])
	// The held copy stays held.
	require.Equal(t, int64(0), f.availableCopies(t, 1))
}

func TestGet_ScopedToOwner(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedBook(f, 1, 1)
	id := seedReservation(f, bookReservation(7, 1, model.StatusPending))
	svc := testService(f, &fakeNotifier{}, schedule.PolicyStrict)

	res, err := svc.Get(ctx, 7, id)
	require.NoError(t, err)
	require.Equal(t, id, res.ID)

	_, err = svc.Get(ctx, 8, id)
	require.Equal(t, ErrNotFound, Code(err))

	_, err = svc.Get(ctx, 7, 999)
	require.Equal(t, ErrNotFound, Code(err))
}

func TestApprove_ConservativePolicyBlocksAdjacent(t *testing.T) {
	ctx := context.Background()
	f := newFakeRepo()
	seedRoom(f, 2)
	seedReservation(f, roomReservation(5, 2, model.StatusApproved, "10:00", "11:00"))
	id := seedReservation(f, roomReservation(6, 2, model.StatusPending, "11:00", "12:00"))

	strict := testService(f, &fakeNotifier{}, schedule.PolicyStrict)
	conservative := testService(f, &fakeNotifier{}, schedule.PolicyConservative)

	_, err := conservative.Approve(ctx, id, 99)
	require.Equal(t, ErrConflict, Code(err))

	_, err = strict.Approve(ctx, id, 99)
	require.NoError(t, err)
}
