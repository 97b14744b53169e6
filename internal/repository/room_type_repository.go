package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/iliyamo/resort-reservation/internal/model"
)

// ErrRoomTypeNotFound is returned when a room type lookup fails.
var ErrRoomTypeNotFound = errors.New("room type not found")

// RoomTypeRepo provides CRUD operations for the room_types table.
type RoomTypeRepo struct {
	db *sql.DB
}

// NewRoomTypeRepo constructs a RoomTypeRepo with the given DB handle.
func NewRoomTypeRepo(db *sql.DB) *RoomTypeRepo { return &RoomTypeRepo{db: db} }

const roomTypeColumns = `id, name, description, base_price_cents, default_capacity, default_beds, registration_date, update_date`

func scanRoomType(s rowScanner) (*model.RoomType, error) {
	var (
		rt      model.RoomType
		desc    sql.NullString
		updated sql.NullTime
	)
	if err := s.Scan(&rt.RoomTypeID, &rt.Name, &desc, &rt.BasePriceCents, &rt.DefaultCapacity,
		&rt.DefaultBeds, &rt.RegistrationDate, &updated); err != nil {
		return nil, err
	}
	rt.Description = nullString(desc)
	rt.UpdateDate = nullTime(updated)
	return &rt, nil
}

func getRoomType(ctx context.Context, q querier, id uint64) (*model.RoomType, error) {
	rt, err := scanRoomType(q.QueryRowContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types WHERE id = ?`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRoomTypeNotFound
		}
		return nil, TranslateError(err)
	}
	return rt, nil
}

// Create inserts a room type and reads it back to fill in defaults.
func (r *RoomTypeRepo) Create(ctx context.Context, rt *model.RoomType) error {
	const q = `INSERT INTO room_types (name, description, base_price_cents, default_capacity, default_beds)
	           VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, rt.Name, rt.Description, rt.BasePriceCents, rt.DefaultCapacity, rt.DefaultBeds)
	if err != nil {
		return TranslateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	created, err := getRoomType(ctx, r.db, uint64(id))
	if err != nil {
		return err
	}
	*rt = *created
	return nil
}

// GetByID returns ErrRoomTypeNotFound when no row matches.
func (r *RoomTypeRepo) GetByID(ctx context.Context, id uint64) (*model.RoomType, error) {
	return getRoomType(ctx, r.db, id)
}

// GetByIDTx is GetByID inside the caller's transaction.
func (r *RoomTypeRepo) GetByIDTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.RoomType, error) {
	return getRoomType(ctx, tx, id)
}

// List returns every room type ordered by name.
func (r *RoomTypeRepo) List(ctx context.Context) ([]model.RoomType, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+roomTypeColumns+` FROM room_types ORDER BY name`)
	if err != nil {
		return nil, TranslateError(err)
	}
	defer rows.Close()
	var out []model.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rt)
	}
	return out, TranslateError(rows.Err())
}

// Update overwrites the editable fields and stamps update_date.
func (r *RoomTypeRepo) Update(ctx context.Context, rt *model.RoomType) error {
	const q = `UPDATE room_types
	           SET name = ?, description = ?, base_price_cents = ?, default_capacity = ?, default_beds = ?,
	               update_date = CURRENT_TIMESTAMP
	           WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, q, rt.Name, rt.Description, rt.BasePriceCents,
		rt.DefaultCapacity, rt.DefaultBeds, rt.RoomTypeID); err != nil {
		return TranslateError(err)
	}
	updated, err := getRoomType(ctx, r.db, rt.RoomTypeID)
	if err != nil {
		return err
	}
	*rt = *updated
	return nil
}

// Delete removes a room type.  The rooms.room_type_id foreign key makes
// MySQL refuse while rooms still reference it, which surfaces as
// ErrConflict.
func (r *RoomTypeRepo) Delete(ctx context.Context, id uint64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM room_types WHERE id = ?`, id)
	if err != nil {
		return TranslateError(err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrRoomTypeNotFound
	}
	return nil
}
