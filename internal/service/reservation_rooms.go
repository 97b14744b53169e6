package service

import (
	"context"
	"fmt"
	"slices"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/resort-reservation/internal/model"
	"github.com/iliyamo/resort-reservation/internal/queue"
)

// AddRoom links another room to a reservation.  An ACTIVE or PENDING
// reservation must not overlap any other claim on the room, and the room
// takes the status the reservation implies.  A DISABLED reservation
// claims nothing, so the room is linked without a check and keeps its
// status.
func (s *BookingService) AddRoom(ctx context.Context, link model.ReservationRoom, actor string) (*model.Reservation, error) {
	if link.ReservationID == 0 || link.RoomID == 0 {
		return nil, validationf("reservation and room are required")
	}
	actor = actorOrSystem(actor)
	today := s.today()

	var res *model.Reservation
	err := s.store.WithinTx(ctx, func(tx BookingTx) error {
		var err error
		res, err = tx.LockReservation(ctx, link.ReservationID)
		if err != nil {
			return mapNotFound(err)
		}
		room, err := tx.LockRoom(ctx, link.RoomID)
		if err != nil {
			return mapNotFound(err)
		}
		if slices.Contains(res.RoomIDs, room.RoomID) {
			return fmt.Errorf("%w: room %s is already part of reservation %s", ErrConflict, room.RoomNumber, res.Code)
		}
		if res.Status.Blocking() {
			conflict, err := tx.HasConflict(ctx, room.RoomID, res.Range(), &res.ID)
			if err != nil {
				return err
			}
			if conflict {
				return &ConflictError{RoomID: room.RoomID, RoomNumber: room.RoomNumber}
			}
		}
		if err := tx.LinkRoom(ctx, res.ID, room.RoomID); err != nil {
			return err
		}
		res.RoomIDs = append(res.RoomIDs, room.RoomID)
		if err := s.touch(ctx, tx, res); err != nil {
			return err
		}
		if !res.Status.Blocking() {
			return nil
		}
		target, err := roomStatusFor(ctx, tx, res.Status, room.RoomID, res.ID, today)
		if err != nil {
			return err
		}
		return s.transition(ctx, tx, room, target, actor, fmt.Sprintf("room added to reservation %s", res.Code))
	})
	if err != nil {
		return nil, s.resolveConcurrency(ctx, link.ReservationID, err)
	}
	s.log.WithFields(logrus.Fields{"reservation_id": res.ID, "room_id": link.RoomID, "actor": actor}).Info("room added to reservation")
	s.publish(ctx, queue.EventReservationUpdated, res, actor)
	return res, nil
}

// RemoveRoom unlinks a room from a reservation.  When the reservation
// still claimed the room, the room is released the same way a disabled
// reservation releases it.  The last room of a reservation cannot be
// removed; delete the reservation instead.
func (s *BookingService) RemoveRoom(ctx context.Context, link model.ReservationRoom, actor string) (*model.Reservation, error) {
	actor = actorOrSystem(actor)
	today := s.today()

	var res *model.Reservation
	err := s.store.WithinTx(ctx, func(tx BookingTx) error {
		var err error
		res, err = tx.LockReservation(ctx, link.ReservationID)
		if err != nil {
			return mapNotFound(err)
		}
		idx := slices.Index(res.RoomIDs, link.RoomID)
		if idx < 0 {
			return notFoundf("room %d is not part of reservation %d", link.RoomID, res.ID)
		}
		if len(res.RoomIDs) == 1 {
			return validationf("reservation %s must keep at least one room", res.Code)
		}
		room, err := tx.LockRoom(ctx, link.RoomID)
		if err != nil {
			return mapNotFound(err)
		}
		if err := tx.UnlinkRoom(ctx, res.ID, room.RoomID); err != nil {
			return mapNotFound(err)
		}
		res.RoomIDs = slices.Delete(res.RoomIDs, idx, idx+1)
		if err := s.touch(ctx, tx, res); err != nil {
			return err
		}
		if !res.Status.Blocking() {
			return nil
		}
		target, err := roomStatusFor(ctx, tx, model.ReservationDisabled, room.RoomID, res.ID, today)
		if err != nil {
			return err
		}
		return s.transition(ctx, tx, room, target, actor, fmt.Sprintf("room removed from reservation %s", res.Code))
	})
	if err != nil {
		return nil, s.resolveConcurrency(ctx, link.ReservationID, err)
	}
	s.log.WithFields(logrus.Fields{"reservation_id": res.ID, "room_id": link.RoomID, "actor": actor}).Info("room removed from reservation")
	s.publish(ctx, queue.EventReservationUpdated, res, actor)
	return res, nil
}

// touch bumps the version of a locked reservation after its room set
// changed, so that a concurrent edit holding the old version fails.
func (s *BookingService) touch(ctx context.Context, tx BookingTx, res *model.Reservation) error {
	expected := res.Version
	now := s.now().UTC()
	res.UpdateDate = &now
	return tx.UpdateReservation(ctx, res, expected)
}
