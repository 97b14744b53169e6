package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/resort-reservation/internal/model"
)

// ErrRoomNotFound is returned when a room lookup fails.
var ErrRoomNotFound = errors.New("room not found")

// RoomRepo provides access to the rooms table.  Reads are available both
// on the pooled handle and inside a transaction; status changes only
// happen inside a transaction.
type RoomRepo struct {
	db *sql.DB
}

// NewRoomRepo constructs a RoomRepo with the given DB handle.
func NewRoomRepo(db *sql.DB) *RoomRepo { return &RoomRepo{db: db} }

const roomColumns = `id, room_number, room_type_id, room_type, description, capacity, beds,
                     price_per_night_cents, is_available, status, created_by, modified_by, created_at, updated_at`

func scanRoom(s rowScanner) (*model.Room, error) {
	var (
		rm         model.Room
		typeID     sql.NullInt64
		desc       sql.NullString
		modifiedBy sql.NullString
		updatedAt  sql.NullTime
	)
	err := s.Scan(&rm.RoomID, &rm.RoomNumber, &typeID, &rm.RoomType, &desc, &rm.Capacity, &rm.Beds,
		&rm.PricePerNightCents, &rm.IsAvailable, &rm.Status, &rm.CreatedBy, &modifiedBy, &rm.CreatedAt, &updatedAt)
	if err != nil {
		return nil, err
	}
	if typeID.Valid {
		id := uint64(typeID.Int64)
		rm.RoomTypeID = &id
	}
	rm.Description = nullString(desc)
	rm.ModifiedBy = nullString(modifiedBy)
	rm.UpdatedAt = nullTime(updatedAt)
	return &rm, nil
}

func getRoom(ctx context.Context, q querier, id uint64, lock bool) (*model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms WHERE id = ?`
	if lock {
		query += ` FOR UPDATE`
	}
	rm, err := scanRoom(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomNotFound
		}
		return nil, TranslateError(err)
	}
	return rm, nil
}

func listRooms(ctx context.Context, q querier, where string, args ...any) ([]model.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms ` + where + ` ORDER BY room_number, id`
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, TranslateError(err)
	}
	defer rows.Close()

	var out []model.Room
	for rows.Next() {
		rm, err := scanRoom(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rm)
	}
	if err := rows.Err(); err != nil {
		return nil, TranslateError(err)
	}
	return out, nil
}

// GetByID retrieves a room by its ID.  It returns ErrRoomNotFound when
// no row is found.
func (r *RoomRepo) GetByID(ctx context.Context, id uint64) (*model.Room, error) {
	return getRoom(ctx, r.db, id, false)
}

// GetByIDTx is GetByID inside the caller's transaction, without locking.
func (r *RoomRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	return getRoom(ctx, tx, id, false)
}

// LockTx reads the room with SELECT ... FOR UPDATE so that concurrent
// bookings of the same room serialize on its row.
func (r *RoomRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Room, error) {
	return getRoom(ctx, tx, id, true)
}

// List returns every room ordered by room number.
func (r *RoomRepo) List(ctx context.Context) ([]model.Room, error) {
	return listRooms(ctx, r.db, "")
}

// ListTx returns every room ordered by room number inside a transaction.
func (r *RoomRepo) ListTx(ctx context.Context, tx *sql.Tx) ([]model.Room, error) {
	return listRooms(ctx, tx, "")
}

// ListByStatusTx returns the rooms currently in the given status.
func (r *RoomRepo) ListByStatusTx(ctx context.Context, tx *sql.Tx, status model.RoomStatus) ([]model.Room, error) {
	return listRooms(ctx, tx, "WHERE status = ?", status)
}

// CreateTx inserts a room and fills in its generated ID and timestamps.
// A new room always starts AVAILABLE.
func (r *RoomRepo) CreateTx(ctx context.Context, tx *sql.Tx, rm *model.Room) error {
	const q = `INSERT INTO rooms (room_number, room_type_id, room_type, description, capacity, beds,
	                              price_per_night_cents, is_available, status, created_by)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	rm.Status = model.RoomAvailable
	res, err := tx.ExecContext(ctx, q, rm.RoomNumber, rm.RoomTypeID, rm.RoomType, rm.Description,
		rm.Capacity, rm.Beds, rm.PricePerNightCents, rm.IsAvailable, rm.Status, rm.CreatedBy)
	if err != nil {
		return TranslateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := getRoom(ctx, tx, uint64(id), false)
	if err != nil {
		return err
	}
	*rm = *created
	return nil
}

// UpdateTx writes the descriptive fields of a room.  Status is not
// touched here; it is owned by SetStatusTx.
func (r *RoomRepo) UpdateTx(ctx context.Context, tx *sql.Tx, rm *model.Room) error {
	const q = `UPDATE rooms
	           SET room_number = ?, room_type_id = ?, room_type = ?, description = ?, capacity = ?, beds = ?,
	               price_per_night_cents = ?, is_available = ?, modified_by = ?, updated_at = CURRENT_TIMESTAMP
	           WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, rm.RoomNumber, rm.RoomTypeID, rm.RoomType, rm.Description, rm.Capacity,
		rm.Beds, rm.PricePerNightCents, rm.IsAvailable, rm.ModifiedBy, rm.RoomID)
	if err != nil {
		return TranslateError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		// MySQL reports zero affected rows when nothing changed, so make
		// sure the row really is gone before claiming so.
		if _, err := getRoom(ctx, tx, rm.RoomID, false); err != nil {
			return err
		}
	}
	return nil
}

// SetStatusTx changes the status of a room.
func (r *RoomRepo) SetStatusTx(ctx context.Context, tx *sql.Tx, id uint64, status model.RoomStatus, modifiedBy string) error {
	const q = `UPDATE rooms SET status = ?, modified_by = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`
	res, err := tx.ExecContext(ctx, q, status, modifiedBy, id)
	if err != nil {
		return TranslateError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		if _, err := getRoom(ctx, tx, id, false); err != nil {
			return err
		}
	}
	return nil
}

// DeleteTx removes a room.  ErrConflict is returned while any ACTIVE or
// PENDING reservation still references it.
func (r *RoomRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
	const qOpen = `SELECT EXISTS(
	                   SELECT 1 FROM reservation_rooms rr
	                   JOIN reservations rs ON rs.id = rr.reservation_id
	                   WHERE rr.room_id = ? AND rs.status IN ('ACTIVE','PENDING'))`
	var open bool
	if err := tx.QueryRowContext(ctx, qOpen, id).Scan(&open); err != nil {
		return TranslateError(err)
	}
	if open {
		return ErrConflict
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return TranslateError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomNotFound
	}
	return nil
}
