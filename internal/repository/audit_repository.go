package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/resort-reservation/internal/model"
)

// AuditRepo appends to and reads the room_audit_logs table.  Entries are
// written in the same transaction as the change they describe.
type AuditRepo struct{ db *sql.DB }

func NewAuditRepo(db *sql.DB) *AuditRepo { return &AuditRepo{db: db} }

// InsertTx records one audit entry.
func (r *AuditRepo) InsertTx(ctx context.Context, tx *sql.Tx, e *model.RoomAuditLog) error {
	const q = `INSERT INTO room_audit_logs
	           (room_id, modified_by, modified_date, operation, field_name, old_value, new_value, change_description, ip_address)
	           VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, e.RoomID, e.ModifiedBy, e.ModifiedDate, e.Operation, e.FieldName,
		e.OldValue, e.NewValue, e.ChangeDescription, e.IPAddress)
	if err != nil {
		return TranslateError(err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.AuditLogID = uint64(id)
	return nil
}

// ListByRoom returns the history of a room, newest first.
func (r *AuditRepo) ListByRoom(ctx context.Context, roomID uint64) ([]model.RoomAuditLog, error) {
	const q = `SELECT id, room_id, modified_by, modified_date, operation, field_name, old_value, new_value,
	                  change_description, ip_address
	           FROM room_audit_logs WHERE room_id = ? ORDER BY modified_date DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, q, roomID)
	if err != nil {
		return nil, TranslateError(err)
	}
	defer rows.Close()
	var out []model.RoomAuditLog
	for rows.Next() {
		var (
			e                              model.RoomAuditLog
			field, oldV, newV, desc, ipStr sql.NullString
		)
		if err := rows.Scan(&e.AuditLogID, &e.RoomID, &e.ModifiedBy, &e.ModifiedDate, &e.Operation,
			&field, &oldV, &newV, &desc, &ipStr); err != nil {
			return nil, err
		}
		e.FieldName = nullString(field)
		e.OldValue = nullString(oldV)
		e.NewValue = nullString(newV)
		e.ChangeDescription = nullString(desc)
		e.IPAddress = nullString(ipStr)
		out = append(out, e)
	}
	return out, TranslateError(rows.Err())
}
