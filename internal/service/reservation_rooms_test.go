package service

import (
	"context"
	"errors"
	"slices"
	"testing"

	"github.com/iliyamo/resort-reservation/internal/model"
	"github.com/iliyamo/resort-reservation/internal/queue"
)

// twoRoomStore holds a PENDING reservation on rooms 101 and 102 plus an
// upcoming PENDING booking that also claims 102.
func twoRoomStore() (*memStore, uint64) {
	store := seeded()
	store.state.rooms[1] = model.Room{RoomID: 1, RoomNumber: "101", Status: model.RoomReserved}
	store.state.rooms[2] = model.Room{RoomID: 2, RoomNumber: "102", Status: model.RoomReserved}
	id := store.addReservation(model.Reservation{
		Code: "EDT01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-12"),
		Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1, 2},
	})
	store.addReservation(model.Reservation{
		Code: "NEXT1", CheckInDate: day("2026-03-20"), CheckOutDate: day("2026-03-22"),
		Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{2},
	})
	return store, id
}

func TestEditTwoRoomReservationToDisabled(t *testing.T) {
	store, id := twoRoomStore()
	svc := newTestService(store, nil, "")

	if _, err := svc.EditReservation(context.Background(), editInput(id, model.ReservationDisabled)); err != nil {
		t.Fatalf("EditReservation: %v", err)
	}
	if got := store.room(1).Status; got != model.RoomAvailable {
		t.Fatalf("room 101 = %s, want AVAILABLE", got)
	}
	if got := store.room(2).Status; got != model.RoomReserved {
		t.Fatalf("room 102 = %s, want RESERVED", got)
	}
	if store.auditCount() != 1 {
		t.Fatalf("audit entries = %d, want 1", store.auditCount())
	}
}

func TestDeleteTwoRoomReservation(t *testing.T) {
	tests := []struct {
		policy    DeletePolicy
		want      [2]model.RoomStatus
		wantAudit int
	}{
		{DeleteUnconditional, [2]model.RoomStatus{model.RoomAvailable, model.RoomAvailable}, 2},
		{DeleteRecheck, [2]model.RoomStatus{model.RoomAvailable, model.RoomReserved}, 1},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			store, id := twoRoomStore()
			svc := newTestService(store, nil, tt.policy)
			if err := svc.DeleteReservation(context.Background(), id, "carol"); err != nil {
				t.Fatalf("DeleteReservation: %v", err)
			}
			if _, ok := store.reservation(id); ok {
				t.Fatal("reservation still present")
			}
			for i, want := range tt.want {
				if got := store.room(uint64(i + 1)).Status; got != want {
					t.Errorf("room %d = %s, want %s", i+1, got, want)
				}
			}
			if store.auditCount() != tt.wantAudit {
				t.Fatalf("audit entries = %d, want %d", store.auditCount(), tt.wantAudit)
			}
		})
	}
}

func TestAddRoom(t *testing.T) {
	setup := func(status model.ReservationStatus) (*memStore, uint64) {
		store := seeded()
		store.state.rooms[1] = model.Room{RoomID: 1, RoomNumber: "101", Status: model.RoomReserved}
		id := store.addReservation(model.Reservation{
			Code: "ADD01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-12"),
			Status: status, ClientID: 10, RoomIDs: []uint64{1},
		})
		return store, id
	}

	t.Run("links and reserves", func(t *testing.T) {
		store, id := setup(model.ReservationPending)
		pub := &recordingPublisher{}
		svc := newTestService(store, pub, "")
		res, err := svc.AddRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 2}, "dave")
		if err != nil {
			t.Fatalf("AddRoom: %v", err)
		}
		if !slices.Equal(res.RoomIDs, []uint64{1, 2}) || res.Version != 2 {
			t.Fatalf("reservation = %+v", res)
		}
		stored, _ := store.reservation(id)
		if !slices.Equal(stored.RoomIDs, []uint64{1, 2}) {
			t.Fatalf("stored rooms = %v", stored.RoomIDs)
		}
		if got := store.room(2).Status; got != model.RoomReserved {
			t.Fatalf("room 102 = %s, want RESERVED", got)
		}
		if len(pub.events) != 1 || pub.events[0].Type != queue.EventReservationUpdated || len(pub.events[0].RoomIDs) != 2 {
			t.Fatalf("events = %+v", pub.events)
		}
	})

	t.Run("active occupies", func(t *testing.T) {
		store, id := setup(model.ReservationActive)
		svc := newTestService(store, nil, "")
		if _, err := svc.AddRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 2}, ""); err != nil {
			t.Fatalf("AddRoom: %v", err)
		}
		if got := store.room(2).Status; got != model.RoomOccupied {
			t.Fatalf("room 102 = %s, want OCCUPIED", got)
		}
	})

	t.Run("overlapping claim", func(t *testing.T) {
		store, id := setup(model.ReservationPending)
		store.addReservation(model.Reservation{
			Code: "HOLD1", CheckInDate: day("2026-03-11"), CheckOutDate: day("2026-03-13"),
			Status: model.ReservationActive, ClientID: 10, RoomIDs: []uint64{2},
		})
		svc := newTestService(store, nil, "")
		_, err := svc.AddRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 2}, "")
		var ce *ConflictError
		if !errors.As(err, &ce) || ce.RoomNumber != "102" {
			t.Fatalf("err = %v, want conflict on 102", err)
		}
		stored, _ := store.reservation(id)
		if len(stored.RoomIDs) != 1 || stored.Version != 1 {
			t.Fatalf("reservation changed: %+v", stored)
		}
		if store.room(2).Status != model.RoomAvailable {
			t.Fatal("room status changed")
		}
	})

	t.Run("disabled skips the check", func(t *testing.T) {
		store, id := setup(model.ReservationDisabled)
		store.addReservation(model.Reservation{
			Code: "HOLD1", CheckInDate: day("2026-03-11"), CheckOutDate: day("2026-03-13"),
			Status: model.ReservationActive, ClientID: 10, RoomIDs: []uint64{2},
		})
		svc := newTestService(store, nil, "")
		if _, err := svc.AddRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 2}, ""); err != nil {
			t.Fatalf("AddRoom: %v", err)
		}
		if store.room(2).Status != model.RoomAvailable || store.auditCount() != 0 {
			t.Fatalf("room 102 = %s, audit = %d", store.room(2).Status, store.auditCount())
		}
	})

	t.Run("already linked", func(t *testing.T) {
		store, id := setup(model.ReservationPending)
		svc := newTestService(store, nil, "")
		_, err := svc.AddRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 1}, "")
		var ce *ConflictError
		if !errors.Is(err, ErrConflict) || errors.As(err, &ce) {
			t.Fatalf("err = %v, want plain conflict", err)
		}
	})

	t.Run("missing rows", func(t *testing.T) {
		store, id := setup(model.ReservationPending)
		svc := newTestService(store, nil, "")
		if _, err := svc.AddRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 99}, ""); !errors.Is(err, ErrNotFound) {
			t.Fatalf("unknown room: err = %v", err)
		}
		if _, err := svc.AddRoom(context.Background(), model.ReservationRoom{ReservationID: 99, RoomID: 2}, ""); !errors.Is(err, ErrNotFound) {
			t.Fatalf("unknown reservation: err = %v", err)
		}
		if _, err := svc.AddRoom(context.Background(), model.ReservationRoom{ReservationID: id}, ""); !errors.Is(err, ErrValidation) {
			t.Fatalf("zero room: err = %v", err)
		}
	})

	t.Run("failed status update is atomic", func(t *testing.T) {
		store, id := setup(model.ReservationPending)
		store.fail["SetRoomStatus"] = errors.New("lost connection")
		svc := newTestService(store, nil, "")
		if _, err := svc.AddRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 2}, ""); err == nil {
			t.Fatal("expected error")
		}
		stored, _ := store.reservation(id)
		if len(stored.RoomIDs) != 1 || stored.Version != 1 {
			t.Fatalf("reservation changed: %+v", stored)
		}
	})
}

func TestRemoveRoom(t *testing.T) {
	t.Run("frees the room", func(t *testing.T) {
		store, id := twoRoomStore()
		pub := &recordingPublisher{}
		svc := newTestService(store, pub, "")
		res, err := svc.RemoveRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 1}, "erin")
		if err != nil {
			t.Fatalf("RemoveRoom: %v", err)
		}
		if !slices.Equal(res.RoomIDs, []uint64{2}) || res.Version != 2 {
			t.Fatalf("reservation = %+v", res)
		}
		if got := store.room(1).Status; got != model.RoomAvailable {
			t.Fatalf("room 101 = %s, want AVAILABLE", got)
		}
		if len(pub.events) != 1 || pub.events[0].Type != queue.EventReservationUpdated {
			t.Fatalf("events = %+v", pub.events)
		}
	})

	t.Run("keeps room held by upcoming pending", func(t *testing.T) {
		store, id := twoRoomStore()
		svc := newTestService(store, nil, "")
		if _, err := svc.RemoveRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 2}, ""); err != nil {
			t.Fatalf("RemoveRoom: %v", err)
		}
		stored, _ := store.reservation(id)
		if !slices.Equal(stored.RoomIDs, []uint64{1}) {
			t.Fatalf("stored rooms = %v", stored.RoomIDs)
		}
		if got := store.room(2).Status; got != model.RoomReserved {
			t.Fatalf("room 102 = %s, want RESERVED", got)
		}
	})

	t.Run("disabled reservation leaves status", func(t *testing.T) {
		store, id := twoRoomStore()
		r := store.state.reservations[id]
		r.Status = model.ReservationDisabled
		store.state.reservations[id] = r
		svc := newTestService(store, nil, "")
		if _, err := svc.RemoveRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 1}, ""); err != nil {
			t.Fatalf("RemoveRoom: %v", err)
		}
		if got := store.room(1).Status; got != model.RoomReserved || store.auditCount() != 0 {
			t.Fatalf("room 101 = %s, audit = %d", got, store.auditCount())
		}
	})

	t.Run("last room", func(t *testing.T) {
		store := seeded()
		id := store.addReservation(model.Reservation{
			Code: "ONE01", CheckInDate: day("2026-03-10"), CheckOutDate: day("2026-03-12"),
			Status: model.ReservationPending, ClientID: 10, RoomIDs: []uint64{1},
		})
		svc := newTestService(store, nil, "")
		if _, err := svc.RemoveRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 1}, ""); !errors.Is(err, ErrValidation) {
			t.Fatalf("err = %v, want ErrValidation", err)
		}
	})

	t.Run("not linked", func(t *testing.T) {
		store, id := twoRoomStore()
		svc := newTestService(store, nil, "")
		if _, err := svc.RemoveRoom(context.Background(), model.ReservationRoom{ReservationID: id, RoomID: 3}, ""); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
		if _, err := svc.RemoveRoom(context.Background(), model.ReservationRoom{ReservationID: 99, RoomID: 1}, ""); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	})
}
