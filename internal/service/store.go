package service

import (
	"context"
	"time"

	"github.com/iliyamo/resort-reservation/internal/model"
)

// BookingStore is the persistence boundary of the booking service.  All
// reads and writes of one operation happen inside a single WithinTx call;
// the transaction is committed only when fn returns nil.
type BookingStore interface {
	WithinTx(ctx context.Context, fn func(tx BookingTx) error) error
	// ReservationExists is used after a rolled back concurrency failure
	// to tell a vanished reservation from a lost race.
	ReservationExists(ctx context.Context, id uint64) (bool, error)
}

// BookingTx is the unit of work handed to WithinTx.  Implementations
// return the repository sentinels (repository.ErrRoomNotFound,
// repository.ErrReservationNotFound, repository.ErrConcurrentUpdate).
type BookingTx interface {
	GetRoom(ctx context.Context, id uint64) (*model.Room, error)
	// LockRoom reads the room and holds a row lock until the end of the
	// transaction.
	LockRoom(ctx context.Context, id uint64) (*model.Room, error)
	ListRooms(ctx context.Context) ([]model.Room, error)
	RoomsInStatus(ctx context.Context, status model.RoomStatus) ([]model.Room, error)
	SetRoomStatus(ctx context.Context, id uint64, status model.RoomStatus, actor string) error

	ClientExists(ctx context.Context, id uint64) (bool, error)

	HasConflict(ctx context.Context, roomID uint64, rng model.DateRange, excludeID *uint64) (bool, error)
	BlockedRoomIDs(ctx context.Context, rng model.DateRange) (map[uint64]struct{}, error)
	HasUpcomingPending(ctx context.Context, roomID uint64, today time.Time, excludeID uint64) (bool, error)
	HasOpenClaim(ctx context.Context, roomID uint64, today time.Time) (bool, error)

	InsertReservation(ctx context.Context, res *model.Reservation) error
	LinkRoom(ctx context.Context, reservationID, roomID uint64) error
	// UnlinkRoom returns repository.ErrNotFound when the room is not
	// part of the reservation.
	UnlinkRoom(ctx context.Context, reservationID, roomID uint64) error
	LockReservation(ctx context.Context, id uint64) (*model.Reservation, error)
	UpdateReservation(ctx context.Context, res *model.Reservation, expectedVersion uint32) error
	DeleteReservation(ctx context.Context, id uint64) error

	RecordAudit(ctx context.Context, entry *model.RoomAuditLog) error
}
