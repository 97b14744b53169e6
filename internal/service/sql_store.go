package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/iliyamo/resort-reservation/internal/database"
	"github.com/iliyamo/resort-reservation/internal/model"
	"github.com/iliyamo/resort-reservation/internal/repository"
)

// SQLStore implements BookingStore on MySQL using the repositories.
// Every transaction runs at SERIALIZABLE isolation, under which InnoDB
// turns the overlap queries into locking reads so that two bookings of
// the same dates cannot both pass the conflict check.
type SQLStore struct {
	DB           *sql.DB
	Rooms        *repository.RoomRepo
	Reservations *repository.ReservationRepo
	Users        *repository.UserRepo
	Audit        *repository.AuditRepo
}

// NewSQLStore wires the repositories around a single database handle.
func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{
		DB:           db,
		Rooms:        repository.NewRoomRepo(db),
		Reservations: repository.NewReservationRepo(db),
		Users:        repository.NewUserRepo(db),
		Audit:        repository.NewAuditRepo(db),
	}
}

func (s *SQLStore) WithinTx(ctx context.Context, fn func(BookingTx) error) error {
	err := database.WithTx(ctx, s.DB, database.Serializable, func(tx *sql.Tx) error {
		return fn(&sqlTx{s: s, tx: tx})
	})
	// A deadlock can also surface on COMMIT.
	return repository.TranslateError(err)
}

func (s *SQLStore) ReservationExists(ctx context.Context, id uint64) (bool, error) {
	return s.Reservations.Exists(ctx, id)
}

type sqlTx struct {
	s  *SQLStore
	tx *sql.Tx
}

func (t *sqlTx) GetRoom(ctx context.Context, id uint64) (*model.Room, error) {
	return t.s.Rooms.GetByIDTx(ctx, t.tx, id)
}

func (t *sqlTx) LockRoom(ctx context.Context, id uint64) (*model.Room, error) {
	return t.s.Rooms.LockTx(ctx, t.tx, id)
}

func (t *sqlTx) ListRooms(ctx context.Context) ([]model.Room, error) {
	return t.s.Rooms.ListTx(ctx, t.tx)
}

func (t *sqlTx) RoomsInStatus(ctx context.Context, status model.RoomStatus) ([]model.Room, error) {
	return t.s.Rooms.ListByStatusTx(ctx, t.tx, status)
}

func (t *sqlTx) SetRoomStatus(ctx context.Context, id uint64, status model.RoomStatus, actor string) error {
	return t.s.Rooms.SetStatusTx(ctx, t.tx, id, status, actor)
}

func (t *sqlTx) ClientExists(ctx context.Context, id uint64) (bool, error) {
	return t.s.Users.ExistsTx(ctx, t.tx, id)
}

func (t *sqlTx) HasConflict(ctx context.Context, roomID uint64, rng model.DateRange, excludeID *uint64) (bool, error) {
	return t.s.Reservations.HasConflictTx(ctx, t.tx, roomID, rng, excludeID)
}

func (t *sqlTx) BlockedRoomIDs(ctx context.Context, rng model.DateRange) (map[uint64]struct{}, error) {
	return t.s.Reservations.BlockedRoomIDsTx(ctx, t.tx, rng)
}

func (t *sqlTx) HasUpcomingPending(ctx context.Context, roomID uint64, today time.Time, excludeID uint64) (bool, error) {
	return t.s.Reservations.HasUpcomingPendingTx(ctx, t.tx, roomID, today, excludeID)
}

func (t *sqlTx) HasOpenClaim(ctx context.Context, roomID uint64, today time.Time) (bool, error) {
	return t.s.Reservations.HasOpenClaimTx(ctx, t.tx, roomID, today)
}

func (t *sqlTx) InsertReservation(ctx context.Context, res *model.Reservation) error {
	return t.s.Reservations.CreateTx(ctx, t.tx, res)
}

func (t *sqlTx) LinkRoom(ctx context.Context, reservationID, roomID uint64) error {
	return t.s.Reservations.AddRoomTx(ctx, t.tx, reservationID, roomID)
}

func (t *sqlTx) UnlinkRoom(ctx context.Context, reservationID, roomID uint64) error {
	return t.s.Reservations.RemoveRoomTx(ctx, t.tx, reservationID, roomID)
}

func (t *sqlTx) LockReservation(ctx context.Context, id uint64) (*model.Reservation, error) {
	return t.s.Reservations.LockTx(ctx, t.tx, id)
}

func (t *sqlTx) UpdateReservation(ctx context.Context, res *model.Reservation, expectedVersion uint32) error {
	return t.s.Reservations.UpdateTx(ctx, t.tx, res, expectedVersion)
}

func (t *sqlTx) DeleteReservation(ctx context.Context, id uint64) error {
	return t.s.Reservations.DeleteTx(ctx, t.tx, id)
}

func (t *sqlTx) RecordAudit(ctx context.Context, entry *model.RoomAuditLog) error {
	return t.s.Audit.InsertTx(ctx, t.tx, entry)
}
