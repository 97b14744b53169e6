package service

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/resort-reservation/internal/model"
	"github.com/iliyamo/resort-reservation/internal/queue"
	"github.com/iliyamo/resort-reservation/internal/repository"
)

var fixedNow = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.ReservationEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, ev queue.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestService(store *memStore, pub EventPublisher, policy DeletePolicy) *BookingService {
	return NewBookingService(BookingOptions{
		Store:        store,
		Publisher:    pub,
		Logger:       quietLogger(),
		Now:          func() time.Time { return fixedNow },
		DeletePolicy: policy,
	})
}

func seeded() *memStore {
	m := newMemStore()
	m.addRoom(1, "101", model.RoomAvailable)
	m.addRoom(2, "102", model.RoomAvailable)
	m.addRoom(3, "201", model.RoomMaintenance)
	m.addClient(10)
	return m
}

func TestCreateReservationReservesRoom(t *testing.T) {
	store := seeded()
	pub := &recordingPublisher{}
	svc := newTestService(store, pub, "")

	res, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		Code: "ABC12", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"), ClientID: 10, RoomID: 1, Actor: "alice",
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if res.Status != model.ReservationPending {
		t.Fatalf("status = %s, want PENDING", res.Status)
	}
	if !res.RegistrationDate.Equal(fixedNow) {
		t.Fatalf("registration date = %v", res.RegistrationDate)
	}
	if got := store.room(1).Status; got != model.RoomReserved {
		t.Fatalf("room status = %s, want RESERVED", got)
	}
	stored, ok := store.reservation(res.ID)
	if !ok || len(stored.RoomIDs) != 1 || stored.RoomIDs[0] != 1 {
		t.Fatalf("stored reservation = %+v", stored)
	}
	if store.auditCount() != 1 {
		t.Fatalf("audit entries = %d, want 1", store.auditCount())
	}
	if len(pub.events) != 1 || pub.events[0].Type != queue.EventReservationCreated || pub.events[0].ID == "" {
		t.Fatalf("events = %+v", pub.events)
	}
}

func TestCreateReservationKeepsNonAvailableStatus(t *testing.T) {
	store := seeded()
	svc := newTestService(store, nil, "")
	_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		Code: "MNT01", CheckIn: day("2026-04-01"), CheckOut: day("2026-04-03"), ClientID: 10, RoomID: 3,
	})
	if err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
	if got := store.room(3).Status; got != model.RoomMaintenance {
		t.Fatalf("room status = %s, want MAINTENANCE", got)
	}
	if store.auditCount() != 0 {
		t.Fatalf("no transition expected, got %d audit entries", store.auditCount())
	}
}

func TestCreateReservationValidation(t *testing.T) {
	tests := []struct {
		name string
		in   CreateReservationInput
		want error
	}{
		{"inverted dates", CreateReservationInput{Code: "ABC", CheckIn: day("2026-03-12"), CheckOut: day("2026-03-10"), ClientID: 10, RoomID: 1}, ErrValidation},
		{"empty range", CreateReservationInput{Code: "ABC", CheckIn: day("2026-03-12"), CheckOut: day("2026-03-12"), ClientID: 10, RoomID: 1}, ErrValidation},
		{"short code", CreateReservationInput{Code: "AB", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"), ClientID: 10, RoomID: 1}, ErrValidation},
		{"long code", CreateReservationInput{Code: "ABCDEFGHIJK", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"), ClientID: 10, RoomID: 1}, ErrValidation},
		{"missing client", CreateReservationInput{Code: "ABC", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"), RoomID: 1}, ErrValidation},
		{"missing room", CreateReservationInput{Code: "ABC", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"), ClientID: 10}, ErrValidation},
		{"unknown room", CreateReservationInput{Code: "ABC", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"), ClientID: 10, RoomID: 99}, ErrNotFound},
		{"unknown client", CreateReservationInput{Code: "ABC", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"), ClientID: 77, RoomID: 1}, ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seeded()
			svc := newTestService(store, nil, "")
			_, err := svc.CreateReservation(context.Background(), tt.in)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if len(store.state.reservations) != 0 {
				t.Fatal("nothing should have been written")
			}
			if store.room(1).Status != model.RoomAvailable {
				t.Fatal("room status must be untouched")
			}
		})
	}
}

func TestCreateReservationConflict(t *testing.T) {
	store := seeded()
	store.addReservation(model.Reservation{
		Code: "OLD01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-15"),
		Status: model.ReservationActive, ClientID: 10, RoomIDs: []uint64{1},
	})
	svc := newTestService(store, nil, "")

	_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		Code: "NEW01", CheckIn: day("2026-03-14"), CheckOut: day("2026-03-16"), ClientID: 10, RoomID: 1,
	})
	var ce *ConflictError
	if !errors.As(err, &ce) || !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want ConflictError", err)
	}
	if ce.RoomNumber != "101" {
		t.Fatalf("conflict room = %q", ce.RoomNumber)
	}

	// Checking in on the day the previous guest checks out is fine.
	if _, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		Code: "NEW02", CheckIn: day("2026-03-15"), CheckOut: day("2026-03-16"), ClientID: 10, RoomID: 1,
	}); err != nil {
		t.Fatalf("back-to-back booking: %v", err)
	}
}

func TestDisabledReservationNeverBlocks(t *testing.T) {
	store := seeded()
	store.addReservation(model.Reservation{
		Code: "OFF01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-15"),
		Status: model.ReservationDisabled, ClientID: 10, RoomIDs: []uint64{1},
	})
	svc := newTestService(store, nil, "")
	if _, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		Code: "NEW01", CheckIn: day("2026-03-11"), CheckOut: day("2026-03-13"), ClientID: 10, RoomID: 1,
	}); err != nil {
		t.Fatalf("CreateReservation over disabled booking: %v", err)
	}
}

func TestNoDoubleBookingUnderConcurrency(t *testing.T) {
	store := seeded()
	svc := newTestService(store, nil, "")

	const n = 8
	var wg sync.WaitGroup
	errs := make(chan error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
				Code: "RACE1", CheckIn: day("2026-05-01"), CheckOut: day("2026-05-04"), ClientID: 10, RoomID: 2,
			})
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	ok, conflicts := 0, 0
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if ok != 1 || conflicts != n-1 {
		t.Fatalf("ok=%d conflicts=%d", ok, conflicts)
	}
}

func TestCreateReservationRollsBackOnFailedStatusUpdate(t *testing.T) {
	store := seeded()
	store.fail["SetRoomStatus"] = errors.New("disk full")
	svc := newTestService(store, nil, "")

	_, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		Code: "ABC12", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"), ClientID: 10, RoomID: 1,
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(store.state.reservations) != 0 {
		t.Fatal("reservation must not persist")
	}
	if store.room(1).Status != model.RoomAvailable {
		t.Fatal("room must stay AVAILABLE")
	}
}

func TestCreateReservationCancelledContext(t *testing.T) {
	store := seeded()
	svc := newTestService(store, nil, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := svc.CreateReservation(ctx, CreateReservationInput{
		Code: "ABC12", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"), ClientID: 10, RoomID: 1,
	}); !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if len(store.state.reservations) != 0 {
		t.Fatal("nothing should have been written")
	}
}

func editInput(id uint64, status model.ReservationStatus) EditReservationInput {
	return EditReservationInput{
		ID: id, Code: "EDT01", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"),
		Status: status, ClientID: 10, Actor: "bob",
	}
}

func TestEditReservationProjectsRoomStatus(t *testing.T) {
	tests := []struct {
		name    string
		status  model.ReservationStatus
		another *model.Reservation
		want    model.RoomStatus
	}{
		{name: "active occupies", status: model.ReservationActive, want: model.RoomOccupied},
		{name: "pending reserves", status: model.ReservationPending, want: model.RoomReserved},
		{name: "disabled frees", status: model.ReservationDisabled, want: model.RoomAvailable},
		{
			name:   "disabled keeps upcoming pending",
			status: model.ReservationDisabled,
			another: &model.Reservation{Code: "NEXT1", CheckInDate: day("2026-04-01"), CheckOutDate: day("2026-04-03"),
				Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1}},
			want: model.RoomReserved,
		},
		{
			name:   "disabled ignores past pending",
			status: model.ReservationDisabled,
			another: &model.Reservation{Code: "PAST1", CheckInDate: day("2026-02-01"), CheckOutDate: day("2026-02-03"),
				Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1}},
			want: model.RoomAvailable,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := seeded()
			store.state.rooms[1] = model.Room{RoomID: 1, RoomNumber: "101", Status: model.RoomReserved}
			id := store.addReservation(model.Reservation{
				Code: "EDT01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-12"),
				Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1},
			})
			if tt.another != nil {
				store.addReservation(*tt.another)
			}
			pub := &recordingPublisher{}
			svc := newTestService(store, pub, "")

			res, err := svc.EditReservation(context.Background(), editInput(id, tt.status))
			if err != nil {
				t.Fatalf("EditReservation: %v", err)
			}
			if got := store.room(1).Status; got != tt.want {
				t.Fatalf("room status = %s, want %s", got, tt.want)
			}
			if res.Version != 2 || res.UpdateDate == nil {
				t.Fatalf("version=%d update=%v", res.Version, res.UpdateDate)
			}
			if len(pub.events) != 1 || pub.events[0].Type != queue.EventReservationUpdated {
				t.Fatalf("events = %+v", pub.events)
			}
		})
	}
}

func TestEditReservationRechecksConflicts(t *testing.T) {
	store := seeded()
	store.addReservation(model.Reservation{
		Code: "HOLD1", CheckInDate: day("2026-03-20"), CheckOutDate: day("2026-03-25"),
		Status: model.ReservationActive, ClientID: 10, RoomIDs: []uint64{1},
	})
	id := store.addReservation(model.Reservation{
		Code: "EDT01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-12"),
		Status: model.ReservationDisabled, ClientID: 10, RoomIDs: []uint64{1},
	})
	svc := newTestService(store, nil, "")

	in := editInput(id, model.ReservationPending)
	in.CheckIn, in.CheckOut = day("2026-03-22"), day("2026-03-24")
	if _, err := svc.EditReservation(context.Background(), in); !errors.Is(err, ErrConflict) {
		t.Fatalf("err = %v, want conflict", err)
	}

	// Staying disabled on the same dates does not claim the room.
	in.Status = model.ReservationDisabled
	if _, err := svc.EditReservation(context.Background(), in); err != nil {
		t.Fatalf("disabled edit: %v", err)
	}

	// The reservation does not conflict with itself.
	in = editInput(id, model.ReservationPending)
	if _, err := svc.EditReservation(context.Background(), in); err != nil {
		t.Fatalf("self overlap: %v", err)
	}
}

func TestEditReservationFailedStatusUpdateIsAtomic(t *testing.T) {
	store := seeded()
	store.state.rooms[1] = model.Room{RoomID: 1, RoomNumber: "101", Status: model.RoomReserved}
	id := store.addReservation(model.Reservation{
		Code: "EDT01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-12"),
		Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1},
	})
	store.fail["SetRoomStatus"] = errors.New("lost connection")
	svc := newTestService(store, nil, "")

	if _, err := svc.EditReservation(context.Background(), editInput(id, model.ReservationActive)); err == nil {
		t.Fatal("expected error")
	}
	res, _ := store.reservation(id)
	if res.Status != model.ReservationPending || res.Version != 1 {
		t.Fatalf("reservation changed: %+v", res)
	}
	if store.room(1).Status != model.RoomReserved {
		t.Fatal("room status changed")
	}
}

func TestEditReservationConcurrency(t *testing.T) {
	t.Run("stale version", func(t *testing.T) {
		store := seeded()
		id := store.addReservation(model.Reservation{
			Code: "EDT01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-12"),
			Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1}, Version: 3,
		})
		svc := newTestService(store, nil, "")
		in := editInput(id, model.ReservationActive)
		stale := uint32(2)
		in.Version = &stale
		if _, err := svc.EditReservation(context.Background(), in); !errors.Is(err, ErrConcurrency) {
			t.Fatalf("err = %v, want ErrConcurrency", err)
		}
	})

	t.Run("deleted underneath", func(t *testing.T) {
		store := seeded()
		id := store.addReservation(model.Reservation{
			Code: "EDT01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-12"),
			Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1},
		})
		store.fail["UpdateReservation"] = repository.ErrConcurrentUpdate
		store.afterFail = func(s *memState) { delete(s.reservations, id) }
		svc := newTestService(store, nil, "")
		_, err := svc.EditReservation(context.Background(), editInput(id, model.ReservationActive))
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})

	t.Run("deadlock", func(t *testing.T) {
		store := seeded()
		id := store.addReservation(model.Reservation{
			Code: "EDT01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-12"),
			Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1},
		})
		store.fail["UpdateReservation"] = repository.ErrConcurrentUpdate
		svc := newTestService(store, nil, "")
		_, err := svc.EditReservation(context.Background(), editInput(id, model.ReservationActive))
		if !errors.Is(err, ErrConcurrency) {
			t.Fatalf("err = %v, want ErrConcurrency", err)
		}
	})
}

func TestEditReservationNotFoundAndValidation(t *testing.T) {
	store := seeded()
	svc := newTestService(store, nil, "")
	if _, err := svc.EditReservation(context.Background(), editInput(404, model.ReservationActive)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	in := editInput(1, "CANCELLED")
	if _, err := svc.EditReservation(context.Background(), in); !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestDeleteReservationPolicies(t *testing.T) {
	setup := func() (*memStore, uint64) {
		store := seeded()
		store.state.rooms[1] = model.Room{RoomID: 1, RoomNumber: "101", Status: model.RoomReserved}
		id := store.addReservation(model.Reservation{
			Code: "DEL01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-12"),
			Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1},
		})
		store.addReservation(model.Reservation{
			Code: "NEXT1", CheckInDate: day("2026-03-20"), CheckOutDate: day("2026-03-22"),
			Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1},
		})
		return store, id
	}

	tests := []struct {
		policy DeletePolicy
		want   model.RoomStatus
	}{
		{DeleteUnconditional, model.RoomAvailable},
		{DeleteRecheck, model.RoomReserved},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			store, id := setup()
			pub := &recordingPublisher{}
			svc := newTestService(store, pub, tt.policy)
			if err := svc.DeleteReservation(context.Background(), id, ""); err != nil {
				t.Fatalf("DeleteReservation: %v", err)
			}
			if _, ok := store.reservation(id); ok {
				t.Fatal("reservation still present")
			}
			if got := store.room(1).Status; got != tt.want {
				t.Fatalf("room status = %s, want %s", got, tt.want)
			}
			if len(pub.events) != 1 || pub.events[0].Type != queue.EventReservationDeleted || pub.events[0].Actor != SystemActor {
				t.Fatalf("events = %+v", pub.events)
			}
		})
	}
}

func TestDeleteReservationNotFound(t *testing.T) {
	svc := newTestService(seeded(), nil, "")
	if err := svc.DeleteReservation(context.Background(), 42, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestPublishFailureDoesNotFailOperation(t *testing.T) {
	store := seeded()
	pub := &recordingPublisher{err: errors.New("broker down")}
	svc := newTestService(store, pub, "")
	if _, err := svc.CreateReservation(context.Background(), CreateReservationInput{
		Code: "ABC12", CheckIn: day("2026-03-10"), CheckOut: day("2026-03-12"), ClientID: 10, RoomID: 1,
	}); err != nil {
		t.Fatalf("CreateReservation: %v", err)
	}
}
