package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iliyamo/resort-reservation/internal/database"
	"github.com/iliyamo/resort-reservation/internal/model"
	"github.com/iliyamo/resort-reservation/internal/repository"
)

// Catalog manages the reference data of the resort: rooms, room types,
// hotel services and guests.  Room changes are audited in the same
// transaction that applies them.
type Catalog struct {
	db           *sql.DB
	rooms        *repository.RoomRepo
	roomTypes    *repository.RoomTypeRepo
	services     *repository.ServiceRepo
	users        *repository.UserRepo
	audit        *repository.AuditRepo
	reservations *repository.ReservationRepo
	log          logrus.FieldLogger
	bcryptCost   int
	now          func() time.Time
}

// NewCatalog wires the catalog repositories around db.
func NewCatalog(db *sql.DB, bcryptCost int, log logrus.FieldLogger) *Catalog {
	return &Catalog{
		db:           db,
		rooms:        repository.NewRoomRepo(db),
		roomTypes:    repository.NewRoomTypeRepo(db),
		services:     repository.NewServiceRepo(db),
		users:        repository.NewUserRepo(db),
		audit:        repository.NewAuditRepo(db),
		reservations: repository.NewReservationRepo(db),
		log:          log,
		bcryptCost:   bcryptCost,
		now:          time.Now,
	}
}

// translate maps repository sentinels onto the service errors.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrRoomNotFound),
		errors.Is(err, repository.ErrRoomTypeNotFound),
		errors.Is(err, repository.ErrServiceNotFound),
		errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrReservationNotFound),
		errors.Is(err, repository.ErrNotFound):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case errors.Is(err, repository.ErrDuplicate), errors.Is(err, repository.ErrEmailExists):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	case errors.Is(err, repository.ErrConflict):
		return fmt.Errorf("%w: still referenced", ErrConflict)
	case errors.Is(err, repository.ErrConcurrentUpdate):
		return fmt.Errorf("%w: %v", ErrConcurrency, err)
	}
	return err
}

// RoomInput carries the editable fields of a room.
type RoomInput struct {
	RoomNumber         string
	RoomTypeID         *uint64
	RoomType           string
	Description        *string
	Capacity           uint8
	Beds               uint8
	PricePerNightCents uint32
	IsAvailable        bool
}

// AuditContext identifies who made a change and from where.
type AuditContext struct {
	Actor string
	IP    string
}

func (a AuditContext) entry(roomID uint64, op string, at time.Time) *model.RoomAuditLog {
	e := &model.RoomAuditLog{
		RoomID:       roomID,
		ModifiedBy:   actorOrSystem(a.Actor),
		ModifiedDate: at,
		Operation:    op,
	}
	if a.IP != "" {
		ip := a.IP
		e.IPAddress = &ip
	}
	return e
}

func (in RoomInput) validate() error {
	n := strings.TrimSpace(in.RoomNumber)
	switch {
	case n == "" || len(n) > 10:
		return validationf("room number must be 1 to 10 characters")
	case in.Capacity < 1 || in.Capacity > 10:
		return validationf("capacity must be between 1 and 10")
	case in.Beds > 10:
		return validationf("beds must be between 0 and 10")
	case in.RoomTypeID == nil && strings.TrimSpace(in.RoomType) == "":
		return validationf("room type is required")
	}
	return nil
}

// resolveType fills in the room type name from room_types when an id is
// given.
func (c *Catalog) resolveType(ctx context.Context, tx *sql.Tx, in *RoomInput) error {
	if in.RoomTypeID == nil {
		return nil
	}
	rt, err := c.roomTypes.GetByIDTx(ctx, tx, *in.RoomTypeID)
	if err != nil {
		return translate(err)
	}
	in.RoomType = rt.Name
	return nil
}

// CreateRoom inserts a room in AVAILABLE status and audits it.
func (c *Catalog) CreateRoom(ctx context.Context, in RoomInput, ac AuditContext) (*model.Room, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var room *model.Room
	err := database.WithTx(ctx, c.db, nil, func(tx *sql.Tx) error {
		if err := c.resolveType(ctx, tx, &in); err != nil {
			return err
		}
		room = &model.Room{
			RoomNumber:         strings.TrimSpace(in.RoomNumber),
			RoomTypeID:         in.RoomTypeID,
			RoomType:           in.RoomType,
			Description:        in.Description,
			Capacity:           in.Capacity,
			Beds:               in.Beds,
			PricePerNightCents: in.PricePerNightCents,
			IsAvailable:        in.IsAvailable,
			CreatedBy:          actorOrSystem(ac.Actor),
		}
		if err := c.rooms.CreateTx(ctx, tx, room); err != nil {
			return translate(err)
		}
		e := ac.entry(room.RoomID, model.AuditCreate, c.now().UTC())
		desc := fmt.Sprintf("room %s created", room.RoomNumber)
		e.ChangeDescription = &desc
		return c.audit.InsertTx(ctx, tx, e)
	})
	if err != nil {
		return nil, err
	}
	c.log.WithFields(logrus.Fields{"room_id": room.RoomID, "actor": ac.Actor}).Info("room created")
	return room, nil
}

// GetRoom returns a room by id.
func (c *Catalog) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	rm, err := c.rooms.GetByID(ctx, id)
	return rm, translate(err)
}

// ListRooms returns every room ordered by room number.
func (c *Catalog) ListRooms(ctx context.Context) ([]model.Room, error) {
	rooms, err := c.rooms.List(ctx)
	return rooms, translate(err)
}

// UpdateRoom replaces the descriptive fields of a room and writes one
// audit row per changed field.  Status cannot be changed here.
func (c *Catalog) UpdateRoom(ctx context.Context, id uint64, in RoomInput, ac AuditContext) (*model.Room, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	var updated model.Room
	err := database.WithTx(ctx, c.db, nil, func(tx *sql.Tx) error {
		current, err := c.rooms.LockTx(ctx, tx, id)
		if err != nil {
			return translate(err)
		}
		if err := c.resolveType(ctx, tx, &in); err != nil {
			return err
		}
		updated = *current
		updated.RoomNumber = strings.TrimSpace(in.RoomNumber)
		updated.RoomTypeID = in.RoomTypeID
		updated.RoomType = in.RoomType
		updated.Description = in.Description
		updated.Capacity = in.Capacity
		updated.Beds = in.Beds
		updated.PricePerNightCents = in.PricePerNightCents
		updated.IsAvailable = in.IsAvailable
		actor := actorOrSystem(ac.Actor)
		updated.ModifiedBy = &actor

		changes := model.DiffRoom(*current, updated)
		if len(changes) == 0 {
			return nil
		}
		if err := c.rooms.UpdateTx(ctx, tx, &updated); err != nil {
			return translate(err)
		}
		at := c.now().UTC()
		for _, ch := range changes {
			e := ac.entry(id, model.AuditUpdate, at)
			field, oldV, newV := ch.Field, ch.Old, ch.New
			e.FieldName, e.OldValue, e.NewValue = &field, &oldV, &newV
			if err := c.audit.InsertTx(ctx, tx, e); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

// DeleteRoom removes a room that no open reservation references.  The
// audit history is kept.
func (c *Catalog) DeleteRoom(ctx context.Context, id uint64, ac AuditContext) error {
	err := database.WithTx(ctx, c.db, nil, func(tx *sql.Tx) error {
		room, err := c.rooms.LockTx(ctx, tx, id)
		if err != nil {
			return translate(err)
		}
		if err := c.rooms.DeleteTx(ctx, tx, id); err != nil {
			if errors.Is(err, repository.ErrConflict) {
				return fmt.Errorf("%w: room %s has open reservations", ErrConflict, room.RoomNumber)
			}
			return translate(err)
		}
		e := ac.entry(id, model.AuditDelete, c.now().UTC())
		desc := fmt.Sprintf("room %s deleted", room.RoomNumber)
		e.ChangeDescription = &desc
		return c.audit.InsertTx(ctx, tx, e)
	})
	if err == nil {
		c.log.WithFields(logrus.Fields{"room_id": id, "actor": ac.Actor}).Info("room deleted")
	}
	return err
}

// RoomAudit returns the audit history of a room, newest first.
func (c *Catalog) RoomAudit(ctx context.Context, id uint64) ([]model.RoomAuditLog, error) {
	logs, err := c.audit.ListByRoom(ctx, id)
	return logs, translate(err)
}

// ---- Room types ----

func validateRoomType(rt *model.RoomType) error {
	rt.Name = strings.TrimSpace(rt.Name)
	if n := len(rt.Name); n < 3 || n > 30 {
		return validationf("name must be between 3 and 30 characters")
	}
	for _, r := range rt.Name {
		if r != ' ' && !(r >= 'a' && r <= 'z') && !(r >= 'A' && r <= 'Z') {
			return validationf("name may only contain letters and spaces")
		}
	}
	if rt.DefaultCapacity < 1 || rt.DefaultCapacity > 10 {
		return validationf("default capacity must be between 1 and 10")
	}
	if rt.DefaultBeds < 1 || rt.DefaultBeds > 10 {
		return validationf("default beds must be between 1 and 10")
	}
	return nil
}

func (c *Catalog) CreateRoomType(ctx context.Context, rt *model.RoomType) error {
	if err := validateRoomType(rt); err != nil {
		return err
	}
	return translate(c.roomTypes.Create(ctx, rt))
}

func (c *Catalog) GetRoomType(ctx context.Context, id uint64) (*model.RoomType, error) {
	rt, err := c.roomTypes.GetByID(ctx, id)
	return rt, translate(err)
}

func (c *Catalog) ListRoomTypes(ctx context.Context) ([]model.RoomType, error) {
	list, err := c.roomTypes.List(ctx)
	return list, translate(err)
}

func (c *Catalog) UpdateRoomType(ctx context.Context, rt *model.RoomType) error {
	if err := validateRoomType(rt); err != nil {
		return err
	}
	if _, err := c.roomTypes.GetByID(ctx, rt.RoomTypeID); err != nil {
		return translate(err)
	}
	return translate(c.roomTypes.Update(ctx, rt))
}

func (c *Catalog) DeleteRoomType(ctx context.Context, id uint64) error {
	return translate(c.roomTypes.Delete(ctx, id))
}

// ---- Hotel services ----

const clockLayout = "15:04"

// validateService checks the name length and that the service opens
// before it closes on the same day.
func validateService(sv *model.Service) error {
	sv.Name = strings.TrimSpace(sv.Name)
	if n := len(sv.Name); n < 3 || n > 50 {
		return validationf("name must be between 3 and 50 characters")
	}
	if sv.Description != nil && len(*sv.Description) > 150 {
		return validationf("description must be at most 150 characters")
	}
	open, err := time.Parse(clockLayout, sv.OpeningTime)
	if err != nil {
		return validationf("opening time must be HH:MM")
	}
	closing, err := time.Parse(clockLayout, sv.ClosingTime)
	if err != nil {
		return validationf("closing time must be HH:MM")
	}
	if !open.Before(closing) {
		return validationf("opening time must be before closing time")
	}
	return nil
}

func (c *Catalog) CreateService(ctx context.Context, sv *model.Service) error {
	if err := validateService(sv); err != nil {
		return err
	}
	return translate(c.services.Create(ctx, sv))
}

func (c *Catalog) GetService(ctx context.Context, id uint64) (*model.Service, error) {
	sv, err := c.services.GetByID(ctx, id)
	return sv, translate(err)
}

func (c *Catalog) ListServices(ctx context.Context) ([]model.Service, error) {
	list, err := c.services.List(ctx)
	return list, translate(err)
}

func (c *Catalog) DeleteService(ctx context.Context, id uint64) error {
	return translate(c.services.Delete(ctx, id))
}

// ---- Guests ----

// CreateGuest registers a guest; only the bcrypt hash of password is
// stored.
func (c *Catalog) CreateGuest(ctx context.Context, u *model.User, password string) error {
	if len(password) < 8 {
		return validationf("password must be at least 8 characters")
	}
	return translate(c.users.Create(ctx, u, password, c.bcryptCost))
}

func (c *Catalog) GetGuest(ctx context.Context, id uint64) (*model.User, error) {
	u, err := c.users.GetByID(ctx, id)
	return u, translate(err)
}

func (c *Catalog) ListGuests(ctx context.Context) ([]model.User, error) {
	list, err := c.users.List(ctx)
	return list, translate(err)
}

func (c *Catalog) SetGuestStatus(ctx context.Context, id uint64, status model.UserStatus) error {
	if status != model.UserActive && status != model.UserDisabled {
		return validationf("invalid guest status %q", status)
	}
	return translate(c.users.UpdateStatus(ctx, id, status))
}

// ---- Reservation reads ----

func (c *Catalog) GetReservation(ctx context.Context, id uint64) (*repository.ReservationDetail, error) {
	d, err := c.reservations.GetByID(ctx, id)
	return d, translate(err)
}

func (c *Catalog) ListReservations(ctx context.Context) ([]repository.ReservationDetail, error) {
	list, err := c.reservations.List(ctx)
	return list, translate(err)
}
