// Package service holds the booking logic of the resort: the availability
// checks, the reservation lifecycle and the room status projection that
// follows from it, plus the catalog operations behind the HTTP API.
package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/iliyamo/resort-reservation/internal/model"
	"github.com/iliyamo/resort-reservation/internal/queue"
	"github.com/iliyamo/resort-reservation/internal/repository"
)

// DeletePolicy decides what happens to a room when a reservation that
// claims it is deleted.
type DeletePolicy string

const (
	// DeleteUnconditional frees every room of the deleted reservation.
	DeleteUnconditional DeletePolicy = "unconditional"
	// DeleteRecheck applies the same rule as disabling the reservation:
	// a room stays RESERVED while another upcoming PENDING booking holds it.
	DeleteRecheck DeletePolicy = "recheck"
)

// SystemActor is recorded when no staff member is known.
const SystemActor = "system"

const (
	codeMinLen = 3
	codeMaxLen = 10
)

// EventPublisher delivers reservation events to the broker.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.ReservationEvent) error
}

// BookingOptions carries the dependencies of a BookingService.
type BookingOptions struct {
	Store        BookingStore
	Publisher    EventPublisher // optional
	Logger       logrus.FieldLogger
	Now          func() time.Time
	DeletePolicy DeletePolicy
}

// BookingService creates, edits and deletes reservations.  Each operation
// is a single store transaction: either every write lands or none does.
type BookingService struct {
	store        BookingStore
	publisher    EventPublisher
	log          logrus.FieldLogger
	now          func() time.Time
	deletePolicy DeletePolicy
}

// NewBookingService applies defaults to the missing options.
func NewBookingService(opts BookingOptions) *BookingService {
	s := &BookingService{
		store:        opts.Store,
		publisher:    opts.Publisher,
		log:          opts.Logger,
		now:          opts.Now,
		deletePolicy: opts.DeletePolicy,
	}
	if s.log == nil {
		s.log = logrus.StandardLogger()
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.deletePolicy == "" {
		s.deletePolicy = DeleteUnconditional
	}
	return s
}

// CreateReservationInput is the request to book one room.
type CreateReservationInput struct {
	Code     string
	CheckIn  time.Time
	CheckOut time.Time
	ClientID uint64
	RoomID   uint64
	Actor    string
}

// EditReservationInput replaces the mutable fields of a reservation.
// Version, when set, must match the stored version.
type EditReservationInput struct {
	ID       uint64
	Code     string
	CheckIn  time.Time
	CheckOut time.Time
	Status   model.ReservationStatus
	ClientID uint64
	Version  *uint32
	Actor    string
}

func (s *BookingService) today() time.Time { return model.Day(s.now().UTC()) }

func actorOrSystem(a string) string {
	if strings.TrimSpace(a) == "" {
		return SystemActor
	}
	return a
}

func validateCode(code string) (string, error) {
	code = strings.TrimSpace(code)
	if n := len(code); n < codeMinLen || n > codeMaxLen {
		return "", validationf("code must be between %d and %d characters", codeMinLen, codeMaxLen)
	}
	return code, nil
}

func dateRange(in, out time.Time) (model.DateRange, error) {
	if in.IsZero() || out.IsZero() {
		return model.DateRange{}, validationf("check-in and check-out dates are required")
	}
	rng, err := model.NewDateRange(in, out)
	if err != nil {
		return model.DateRange{}, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	return rng, nil
}

// FindConflict reports whether an ACTIVE or PENDING reservation on the
// room overlaps [checkIn, checkOut).  excludeID skips one reservation,
// typically the one being edited.
func (s *BookingService) FindConflict(ctx context.Context, roomID uint64, checkIn, checkOut time.Time, excludeID *uint64) (bool, error) {
	rng, err := dateRange(checkIn, checkOut)
	if err != nil {
		return false, err
	}
	var conflict bool
	err = s.store.WithinTx(ctx, func(tx BookingTx) error {
		if _, err := tx.GetRoom(ctx, roomID); err != nil {
			return mapNotFound(err)
		}
		conflict, err = tx.HasConflict(ctx, roomID, rng, excludeID)
		return err
	})
	return conflict, err
}

// ListAvailableRooms returns every room without a conflicting reservation
// in [checkIn, checkOut), ordered by room number.  The current status of
// a room is deliberately ignored: it reflects today, not the requested
// dates.
func (s *BookingService) ListAvailableRooms(ctx context.Context, checkIn, checkOut time.Time) ([]model.Room, error) {
	rng, err := dateRange(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	var free []model.Room
	err = s.store.WithinTx(ctx, func(tx BookingTx) error {
		rooms, err := tx.ListRooms(ctx)
		if err != nil {
			return err
		}
		blocked, err := tx.BlockedRoomIDs(ctx, rng)
		if err != nil {
			return err
		}
		free = make([]model.Room, 0, len(rooms))
		for _, rm := range rooms {
			if _, taken := blocked[rm.RoomID]; !taken {
				free = append(free, rm)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(free, func(i, j int) bool { return free[i].RoomNumber < free[j].RoomNumber })
	return free, nil
}

// CreateReservation books a room.  The reservation starts PENDING and an
// AVAILABLE room becomes RESERVED; a room in any other status keeps it.
func (s *BookingService) CreateReservation(ctx context.Context, in CreateReservationInput) (*model.Reservation, error) {
	code, err := validateCode(in.Code)
	if err != nil {
		return nil, err
	}
	rng, err := dateRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	if in.ClientID == 0 {
		return nil, validationf("client is required")
	}
	if in.RoomID == 0 {
		return nil, validationf("room is required")
	}
	actor := actorOrSystem(in.Actor)

	res := &model.Reservation{
		Code:             code,
		CheckInDate:      rng.CheckIn,
		CheckOutDate:     rng.CheckOut,
		Status:           model.ReservationPending,
		ClientID:         in.ClientID,
		RegistrationDate: s.now().UTC(),
		RoomIDs:          []uint64{in.RoomID},
	}
	err = s.store.WithinTx(ctx, func(tx BookingTx) error {
		room, err := tx.LockRoom(ctx, in.RoomID)
		if err != nil {
			return mapNotFound(err)
		}
		if ok, err := tx.ClientExists(ctx, in.ClientID); err != nil {
			return err
		} else if !ok {
			return notFoundf("client %d", in.ClientID)
		}
		conflict, err := tx.HasConflict(ctx, room.RoomID, rng, nil)
		if err != nil {
			return err
		}
		if conflict {
			return &ConflictError{RoomID: room.RoomID, RoomNumber: room.RoomNumber}
		}
		if err := tx.InsertReservation(ctx, res); err != nil {
			return err
		}
		if err := tx.LinkRoom(ctx, res.ID, room.RoomID); err != nil {
			return err
		}
		if room.Status == model.RoomAvailable {
			return s.transition(ctx, tx, room, model.RoomReserved, actor, fmt.Sprintf("reservation %s created", res.Code))
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConcurrentUpdate) {
			err = fmt.Errorf("%w: %v", ErrConcurrency, err)
		}
		s.log.WithError(err).WithFields(logrus.Fields{"room_id": in.RoomID, "client_id": in.ClientID}).Info("create reservation failed")
		return nil, err
	}
	s.log.WithFields(logrus.Fields{"reservation_id": res.ID, "room_id": in.RoomID, "actor": actor}).Info("reservation created")
	s.publish(ctx, queue.EventReservationCreated, res, actor)
	return res, nil
}

// EditReservation replaces the mutable fields of a reservation and
// projects its new status onto every room it holds:
//
//	ACTIVE   -> OCCUPIED
//	PENDING  -> RESERVED
//	DISABLED -> RESERVED while another upcoming PENDING booking holds the
//	            room, AVAILABLE otherwise
func (s *BookingService) EditReservation(ctx context.Context, in EditReservationInput) (*model.Reservation, error) {
	code, err := validateCode(in.Code)
	if err != nil {
		return nil, err
	}
	rng, err := dateRange(in.CheckIn, in.CheckOut)
	if err != nil {
		return nil, err
	}
	if !in.Status.Valid() {
		return nil, validationf("invalid status %q", in.Status)
	}
	if in.ClientID == 0 {
		return nil, validationf("client is required")
	}
	actor := actorOrSystem(in.Actor)
	today := s.today()

	var res *model.Reservation
	err = s.store.WithinTx(ctx, func(tx BookingTx) error {
		var err error
		res, err = tx.LockReservation(ctx, in.ID)
		if err != nil {
			return mapNotFound(err)
		}
		if in.Version != nil && *in.Version != res.Version {
			return repository.ErrConcurrentUpdate
		}
		if ok, err := tx.ClientExists(ctx, in.ClientID); err != nil {
			return err
		} else if !ok {
			return notFoundf("client %d", in.ClientID)
		}

		if in.Status.Blocking() {
			for _, roomID := range res.RoomIDs {
				conflict, err := tx.HasConflict(ctx, roomID, rng, &res.ID)
				if err != nil {
					return err
				}
				if conflict {
					room, err := tx.GetRoom(ctx, roomID)
					if err != nil {
						return mapNotFound(err)
					}
					return &ConflictError{RoomID: roomID, RoomNumber: room.RoomNumber}
				}
			}
		}

		expected := res.Version
		now := s.now().UTC()
		res.Code = code
		res.CheckInDate = rng.CheckIn
		res.CheckOutDate = rng.CheckOut
		res.Status = in.Status
		res.ClientID = in.ClientID
		res.UpdateDate = &now
		if err := tx.UpdateReservation(ctx, res, expected); err != nil {
			return err
		}

		for _, roomID := range res.RoomIDs {
			target, err := roomStatusFor(ctx, tx, res.Status, roomID, res.ID, today)
			if err != nil {
				return err
			}
			room, err := tx.GetRoom(ctx, roomID)
			if err != nil {
				return mapNotFound(err)
			}
			note := fmt.Sprintf("reservation %s set to %s", res.Code, res.Status)
			if err := s.transition(ctx, tx, room, target, actor, note); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, s.resolveConcurrency(ctx, in.ID, err)
	}
	s.log.WithFields(logrus.Fields{"reservation_id": res.ID, "status": res.Status, "actor": actor}).Info("reservation updated")
	s.publish(ctx, queue.EventReservationUpdated, res, actor)
	return res, nil
}

// DeleteReservation removes a reservation and releases its rooms
// according to the configured DeletePolicy.
func (s *BookingService) DeleteReservation(ctx context.Context, id uint64, actor string) error {
	actor = actorOrSystem(actor)
	today := s.today()

	var res *model.Reservation
	err := s.store.WithinTx(ctx, func(tx BookingTx) error {
		var err error
		res, err = tx.LockReservation(ctx, id)
		if err != nil {
			return mapNotFound(err)
		}
		for _, roomID := range res.RoomIDs {
			target := model.RoomAvailable
			if s.deletePolicy == DeleteRecheck {
				target, err = roomStatusFor(ctx, tx, model.ReservationDisabled, roomID, res.ID, today)
				if err != nil {
					return err
				}
			}
			room, err := tx.GetRoom(ctx, roomID)
			if err != nil {
				return mapNotFound(err)
			}
			if err := s.transition(ctx, tx, room, target, actor, fmt.Sprintf("reservation %s deleted", res.Code)); err != nil {
				return err
			}
		}
		return tx.DeleteReservation(ctx, id)
	})
	if err != nil {
		return s.resolveConcurrency(ctx, id, err)
	}
	s.log.WithFields(logrus.Fields{"reservation_id": id, "actor": actor}).Info("reservation deleted")
	s.publish(ctx, queue.EventReservationDeleted, res, actor)
	return nil
}

// ReleaseStaleRooms frees rooms left RESERVED although no ACTIVE or
// PENDING reservation still holds them after today.  Each room is
// handled in its own transaction so one failure does not block the rest.
func (s *BookingService) ReleaseStaleRooms(ctx context.Context) (int, error) {
	today := s.today()
	var candidates []model.Room
	err := s.store.WithinTx(ctx, func(tx BookingTx) error {
		var err error
		candidates, err = tx.RoomsInStatus(ctx, model.RoomReserved)
		return err
	})
	if err != nil {
		return 0, err
	}

	released := 0
	var errs []error
	for _, c := range candidates {
		changed := false
		err := s.store.WithinTx(ctx, func(tx BookingTx) error {
			room, err := tx.LockRoom(ctx, c.RoomID)
			if err != nil {
				return err
			}
			if room.Status != model.RoomReserved {
				return nil
			}
			open, err := tx.HasOpenClaim(ctx, room.RoomID, today)
			if err != nil || open {
				return err
			}
			changed = true
			return s.transition(ctx, tx, room, model.RoomAvailable, SystemActor, "no open reservation")
		})
		switch {
		case errors.Is(err, repository.ErrRoomNotFound):
		case err != nil:
			errs = append(errs, fmt.Errorf("room %d: %w", c.RoomID, err))
		case changed:
			released++
		}
	}
	if released > 0 {
		s.log.WithField("released", released).Info("stale room reservations released")
	}
	return released, errors.Join(errs...)
}

// transition sets a room's status and audits the change.  It is a no-op
// when the room already has the target status.
func (s *BookingService) transition(ctx context.Context, tx BookingTx, room *model.Room, target model.RoomStatus, actor, note string) error {
	if room.Status == target {
		return nil
	}
	if err := tx.SetRoomStatus(ctx, room.RoomID, target, actor); err != nil {
		return mapNotFound(err)
	}
	field := "Status"
	oldV, newV := string(room.Status), string(target)
	entry := &model.RoomAuditLog{
		RoomID:            room.RoomID,
		ModifiedBy:        actor,
		ModifiedDate:      s.now().UTC(),
		Operation:         model.AuditStatus,
		FieldName:         &field,
		OldValue:          &oldV,
		NewValue:          &newV,
		ChangeDescription: &note,
	}
	if err := tx.RecordAudit(ctx, entry); err != nil {
		return err
	}
	room.Status = target
	return nil
}

// resolveConcurrency turns a lost race into ErrNotFound when the
// reservation has vanished and into ErrConcurrency otherwise.  Other
// errors pass through unchanged.
func (s *BookingService) resolveConcurrency(ctx context.Context, id uint64, err error) error {
	if !errors.Is(err, repository.ErrConcurrentUpdate) {
		return err
	}
	exists, exErr := s.store.ReservationExists(ctx, id)
	if exErr != nil {
		return fmt.Errorf("%w: %v", ErrConcurrency, err)
	}
	if !exists {
		return notFoundf("reservation %d", id)
	}
	s.log.WithField("reservation_id", id).Warn("concurrent modification detected")
	return fmt.Errorf("%w: reservation %d was modified by another request", ErrConcurrency, id)
}

// mapNotFound converts repository lookup misses into ErrNotFound.
func mapNotFound(err error) error {
	switch {
	case errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

func (s *BookingService) publish(ctx context.Context, kind string, res *model.Reservation, actor string) {
	if s.publisher == nil || res == nil {
		return
	}
	ev := queue.ReservationEvent{
		ID:            uuid.NewString(),
		Type:          kind,
		ReservationID: res.ID,
		Code:          res.Code,
		ClientID:      res.ClientID,
		RoomIDs:       res.RoomIDs,
		CheckInDate:   res.CheckInDate.Format("2006-01-02"),
		CheckOutDate:  res.CheckOutDate.Format("2006-01-02"),
		Status:        string(res.Status),
		Actor:         actor,
		OccurredAt:    s.now().UTC().Format(time.RFC3339),
	}
	pctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.publisher.Publish(pctx, ev); err != nil {
		s.log.WithError(err).WithFields(logrus.Fields{"event": kind, "reservation_id": res.ID}).Warn("publish event failed")
	}
}
