package repository

import (
    "context"
    "database/sql"
    "errors"
    "strings"
    "time"

    "github.com/iliyamo/resort-reservation/internal/model"
)

// ErrReservationNotFound is returned when a reservation lookup fails.
var ErrReservationNotFound = errors.New("reservation not found")

// ReservationRepo provides access to reservations and their rooms.
// Reservations claim one or more rooms for a half-open date range; the
// claimed rooms are stored in the reservation_rooms table.  Stay dates
// are DATE columns and are handled as midnight UTC.
type ReservationRepo struct {
    db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const dateLayout = "2006-01-02"

// blockingStatuses is the SQL list of statuses that claim a room.
const blockingStatuses = `('ACTIVE','PENDING')`

// CreateTx inserts a new reservation within the scope of an existing
// transaction.  It populates the generated ID and starts the version
// counter at 1.  The caller must commit or rollback the transaction.
func (r *ReservationRepo) CreateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation) error {
    const q = `INSERT INTO reservations (code, check_in_date, check_out_date, status, client_id, registration_date, version)
               VALUES (?, ?, ?, ?, ?, ?, 1)`
    result, err := tx.ExecContext(ctx, q, res.Code, res.CheckInDate.Format(dateLayout), res.CheckOutDate.Format(dateLayout),
        res.Status, res.ClientID, res.RegistrationDate)
    if err != nil {
        return TranslateError(err)
    }
    id, err := result.LastInsertId()
    if err != nil {
        return err
    }
    res.ID = uint64(id)
    res.Version = 1
    return nil
}

// AddRoomTx links a room to a reservation.
func (r *ReservationRepo) AddRoomTx(ctx context.Context, tx *sql.Tx, reservationID, roomID uint64) error {
    const q = `INSERT INTO reservation_rooms (reservation_id, room_id) VALUES (?, ?)`
    _, err := tx.ExecContext(ctx, q, reservationID, roomID)
    return TranslateError(err)
}

// RemoveRoomTx unlinks a room from a reservation.  ErrNotFound is
// returned when the pair is not linked.
func (r *ReservationRepo) RemoveRoomTx(ctx context.Context, tx *sql.Tx, reservationID, roomID uint64) error {
    const q = `DELETE FROM reservation_rooms WHERE reservation_id = ? AND room_id = ?`
    result, err := tx.ExecContext(ctx, q, reservationID, roomID)
    if err != nil {
        return TranslateError(err)
    }
    if n, _ := result.RowsAffected(); n == 0 {
        return ErrNotFound
    }
    return nil
}

// LockTx loads a reservation with SELECT ... FOR UPDATE together with
// its room ids.  ErrReservationNotFound is returned when it is absent.
func (r *ReservationRepo) LockTx(ctx context.Context, tx *sql.Tx, id uint64) (*model.Reservation, error) {
    const q = `SELECT id, code, check_in_date, check_out_date, status, client_id, registration_date, update_date, version
               FROM reservations WHERE id = ? FOR UPDATE`
    var (
        res     model.Reservation
        updated sql.NullTime
    )
    err := tx.QueryRowContext(ctx, q, id).Scan(&res.ID, &res.Code, &res.CheckInDate, &res.CheckOutDate,
        &res.Status, &res.ClientID, &res.RegistrationDate, &updated, &res.Version)
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrReservationNotFound
        }
        return nil, TranslateError(err)
    }
    res.UpdateDate = nullTime(updated)
    res.RoomIDs, err = roomIDsFor(ctx, tx, res.ID)
    if err != nil {
        return nil, err
    }
    return &res, nil
}

func roomIDsFor(ctx context.Context, q querier, reservationID uint64) ([]uint64, error) {
    rows, err := q.QueryContext(ctx, `SELECT room_id FROM reservation_rooms WHERE reservation_id = ? ORDER BY room_id`, reservationID)
    if err != nil {
        return nil, TranslateError(err)
    }
    defer rows.Close()
    var ids []uint64
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        ids = append(ids, id)
    }
    return ids, TranslateError(rows.Err())
}

// UpdateTx writes the mutable fields of a reservation guarded by its
// version.  expectedVersion is the version the caller read; when another
// writer got there first no row matches and ErrConcurrentUpdate is
// returned.  On success res.Version holds the new version.
func (r *ReservationRepo) UpdateTx(ctx context.Context, tx *sql.Tx, res *model.Reservation, expectedVersion uint32) error {
    const q = `UPDATE reservations
               SET code = ?, check_in_date = ?, check_out_date = ?, status = ?, client_id = ?,
                   update_date = ?, version = version + 1
               WHERE id = ? AND version = ?`
    result, err := tx.ExecContext(ctx, q, res.Code, res.CheckInDate.Format(dateLayout), res.CheckOutDate.Format(dateLayout),
        res.Status, res.ClientID, res.UpdateDate, res.ID, expectedVersion)
    if err != nil {
        return TranslateError(err)
    }
    n, err := result.RowsAffected()
    if err != nil {
        return err
    }
    if n == 0 {
        return ErrConcurrentUpdate
    }
    res.Version = expectedVersion + 1
    return nil
}

// DeleteTx removes a reservation.  Its reservation_rooms rows are removed
// by the ON DELETE CASCADE foreign key.
func (r *ReservationRepo) DeleteTx(ctx context.Context, tx *sql.Tx, id uint64) error {
    result, err := tx.ExecContext(ctx, `DELETE FROM reservations WHERE id = ?`, id)
    if err != nil {
        return TranslateError(err)
    }
    if n, _ := result.RowsAffected(); n == 0 {
        return ErrReservationNotFound
    }
    return nil
}

// Exists reports whether a reservation with the given id is present.
func (r *ReservationRepo) Exists(ctx context.Context, id uint64) (bool, error) {
    var ok bool
    err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM reservations WHERE id = ?)`, id).Scan(&ok)
    return ok, TranslateError(err)
}

// HasConflictTx reports whether an ACTIVE or PENDING reservation on the
// room overlaps rng.  Ranges are half-open, so a stay ending on the day
// another begins is not a conflict.  excludeID, when non-nil, skips the
// reservation being edited.
func (r *ReservationRepo) HasConflictTx(ctx context.Context, tx *sql.Tx, roomID uint64, rng model.DateRange, excludeID *uint64) (bool, error) {
    q := `SELECT EXISTS(
              SELECT 1 FROM reservations rs
              JOIN reservation_rooms rr ON rr.reservation_id = rs.id
              WHERE rr.room_id = ?
                AND rs.status IN ` + blockingStatuses + `
                AND rs.check_in_date < ?
                AND ? < rs.check_out_date`
    args := []any{roomID, rng.CheckOut.Format(dateLayout), rng.CheckIn.Format(dateLayout)}
    if excludeID != nil {
        q += ` AND rs.id <> ?`
        args = append(args, *excludeID)
    }
    q += `)`
    var conflict bool
    if err := tx.QueryRowContext(ctx, q, args...).Scan(&conflict); err != nil {
        return false, TranslateError(err)
    }
    return conflict, nil
}

// BlockedRoomIDsTx returns the distinct rooms that have at least one
// ACTIVE or PENDING reservation overlapping rng.
func (r *ReservationRepo) BlockedRoomIDsTx(ctx context.Context, tx *sql.Tx, rng model.DateRange) (map[uint64]struct{}, error) {
    const q = `SELECT DISTINCT rr.room_id
               FROM reservation_rooms rr
               JOIN reservations rs ON rs.id = rr.reservation_id
               WHERE rs.status IN ` + blockingStatuses + `
                 AND rs.check_in_date < ?
                 AND ? < rs.check_out_date`
    rows, err := tx.QueryContext(ctx, q, rng.CheckOut.Format(dateLayout), rng.CheckIn.Format(dateLayout))
    if err != nil {
        return nil, TranslateError(err)
    }
    defer rows.Close()
    blocked := make(map[uint64]struct{})
    for rows.Next() {
        var id uint64
        if err := rows.Scan(&id); err != nil {
            return nil, err
        }
        blocked[id] = struct{}{}
    }
    return blocked, TranslateError(rows.Err())
}

// HasUpcomingPendingTx reports whether the room has another PENDING
// reservation whose check-in is on or after today.
func (r *ReservationRepo) HasUpcomingPendingTx(ctx context.Context, tx *sql.Tx, roomID uint64, today time.Time, excludeID uint64) (bool, error) {
    const q = `SELECT EXISTS(
                   SELECT 1 FROM reservations rs
                   JOIN reservation_rooms rr ON rr.reservation_id = rs.id
                   WHERE rr.room_id = ? AND rs.status = 'PENDING'
                     AND rs.check_in_date >= ? AND rs.id <> ?)`
    var ok bool
    err := tx.QueryRowContext(ctx, q, roomID, today.Format(dateLayout), excludeID).Scan(&ok)
    return ok, TranslateError(err)
}

// HasOpenClaimTx reports whether the room has an ACTIVE or PENDING
// reservation that has not yet checked out by today.
func (r *ReservationRepo) HasOpenClaimTx(ctx context.Context, tx *sql.Tx, roomID uint64, today time.Time) (bool, error) {
    const q = `SELECT EXISTS(
                   SELECT 1 FROM reservations rs
                   JOIN reservation_rooms rr ON rr.reservation_id = rs.id
                   WHERE rr.room_id = ? AND rs.status IN ` + blockingStatuses + `
                     AND rs.check_out_date > ?)`
    var ok bool
    err := tx.QueryRowContext(ctx, q, roomID, today.Format(dateLayout)).Scan(&ok)
    return ok, TranslateError(err)
}

// ReservationDetail is a reservation joined with its guest's email and
// the numbers of its rooms.  It is returned by the listing endpoints.
type ReservationDetail struct {
    ID               uint64     `json:"id"`
    Code             string     `json:"code"`
    CheckInDate      string     `json:"check_in_date"`
    CheckOutDate     string     `json:"check_out_date"`
    Status           string     `json:"status"`
    ClientID         uint64     `json:"client_id"`
    ClientEmail      string     `json:"client_email"`
    RegistrationDate time.Time  `json:"registration_date"`
    UpdateDate       *time.Time `json:"update_date,omitempty"`
    Version          uint32     `json:"version"`
    Rooms            []struct {
        RoomID     uint64 `json:"room_id"`
        RoomNumber string `json:"room_number"`
    } `json:"rooms"`
}

const detailQuery = `SELECT rs.id, rs.code, rs.check_in_date, rs.check_out_date, rs.status, rs.client_id,
                            COALESCE(u.email, ''), rs.registration_date, rs.update_date, rs.version
                     FROM reservations rs
                     LEFT JOIN users u ON u.id = rs.client_id`

func scanDetail(s rowScanner) (*ReservationDetail, error) {
    var (
        d       ReservationDetail
        in, out time.Time
        updated sql.NullTime
    )
    if err := s.Scan(&d.ID, &d.Code, &in, &out, &d.Status, &d.ClientID, &d.ClientEmail,
        &d.RegistrationDate, &updated, &d.Version); err != nil {
        return nil, err
    }
    d.CheckInDate = in.Format(dateLayout)
    d.CheckOutDate = out.Format(dateLayout)
    d.UpdateDate = nullTime(updated)
    return &d, nil
}

// GetByID returns a single reservation with its rooms.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (*ReservationDetail, error) {
    d, err := scanDetail(r.db.QueryRowContext(ctx, detailQuery+` WHERE rs.id = ?`, id))
    if err != nil {
        if errors.Is(err, sql.ErrNoRows) {
            return nil, ErrReservationNotFound
        }
        return nil, TranslateError(err)
    }
    if err := r.attachRooms(ctx, []*ReservationDetail{d}); err != nil {
        return nil, err
    }
    return d, nil
}

// List returns every reservation, newest check-in first, with rooms.
func (r *ReservationRepo) List(ctx context.Context) ([]ReservationDetail, error) {
    rows, err := r.db.QueryContext(ctx, detailQuery+` ORDER BY rs.check_in_date DESC, rs.id DESC`)
    if err != nil {
        return nil, TranslateError(err)
    }
    defer rows.Close()
    var list []*ReservationDetail
    for rows.Next() {
        d, err := scanDetail(rows)
        if err != nil {
            return nil, err
        }
        list = append(list, d)
    }
    if err := rows.Err(); err != nil {
        return nil, TranslateError(err)
    }
    if err := r.attachRooms(ctx, list); err != nil {
        return nil, err
    }
    out := make([]ReservationDetail, 0, len(list))
    for _, d := range list {
        out = append(out, *d)
    }
    return out, nil
}

// attachRooms loads the rooms of all given reservations in one query.
func (r *ReservationRepo) attachRooms(ctx context.Context, list []*ReservationDetail) error {
    if len(list) == 0 {
        return nil
    }
    byID := make(map[uint64]*ReservationDetail, len(list))
    placeholders := make([]string, 0, len(list))
    args := make([]any, 0, len(list))
    for _, d := range list {
        byID[d.ID] = d
        placeholders = append(placeholders, "?")
        args = append(args, d.ID)
    }
    q := `SELECT rr.reservation_id, rm.id, rm.room_number
          FROM reservation_rooms rr
          JOIN rooms rm ON rm.id = rr.room_id
          WHERE rr.reservation_id IN (` + strings.Join(placeholders, ",") + `)
          ORDER BY rm.room_number`
    rows, err := r.db.QueryContext(ctx, q, args...)
    if err != nil {
        return TranslateError(err)
    }
    defer rows.Close()
    for rows.Next() {
        var resID, roomID uint64
        var number string
        if err := rows.Scan(&resID, &roomID, &number); err != nil {
            return err
        }
        d := byID[resID]
        d.Rooms = append(d.Rooms, struct {
            RoomID     uint64 `json:"room_id"`
            RoomNumber string `json:"room_number"`
        }{roomID, number})
    }
    return TranslateError(rows.Err())
}
