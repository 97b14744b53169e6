package model

import (
    "fmt"
    "time"
)

// Audit operations recorded against a room.
const (
    AuditCreate = "Create"
    AuditUpdate = "Update"
    AuditDelete = "Delete"
    AuditStatus = "Status"
)

// RoomAuditLog is one row of the `room_audit_logs` table.  Rows are kept
// after the room itself is deleted, so RoomID is not a foreign key.
type RoomAuditLog struct {
    AuditLogID        uint64    // room_audit_logs.id
    RoomID            uint64    // room_audit_logs.room_id
    ModifiedBy        string    // room_audit_logs.modified_by
    ModifiedDate      time.Time // room_audit_logs.modified_date
    Operation         string    // room_audit_logs.operation
    FieldName         *string   // room_audit_logs.field_name (nullable)
    OldValue          *string   // room_audit_logs.old_value (nullable)
    NewValue          *string   // room_audit_logs.new_value (nullable)
    ChangeDescription *string   // room_audit_logs.change_description (nullable)
    IPAddress         *string   // room_audit_logs.ip_address (nullable)
}

// RoomChange describes one field that differs between two versions of a
// room.
type RoomChange struct {
    Field string
    Old   string
    New   string
}

// DiffRoom lists the descriptive fields that changed from old to updated.
// Status is not compared; status transitions are audited separately.
func DiffRoom(old, updated Room) []RoomChange {
    var out []RoomChange
    add := func(field, a, b string) {
        if a != b {
            out = append(out, RoomChange{Field: field, Old: a, New: b})
        }
    }
    add("RoomNumber", old.RoomNumber, updated.RoomNumber)
    add("RoomType", old.RoomType, updated.RoomType)
    add("PricePerNight", formatCents(old.PricePerNightCents), formatCents(updated.PricePerNightCents))
    if old.Capacity != updated.Capacity || old.Beds != updated.Beds {
        out = append(out, RoomChange{
            Field: "CapacityAndBeds",
            Old:   fmt.Sprintf("capacity: %d, beds: %d", old.Capacity, old.Beds),
            New:   fmt.Sprintf("capacity: %d, beds: %d", updated.Capacity, updated.Beds),
        })
    }
    add("Description", deref(old.Description), deref(updated.Description))
    if old.IsAvailable != updated.IsAvailable {
        out = append(out, RoomChange{Field: "IsAvailable", Old: fmt.Sprint(old.IsAvailable), New: fmt.Sprint(updated.IsAvailable)})
    }
    return out
}

func formatCents(c uint32) string {
    return fmt.Sprintf("%d.%02d", c/100, c%100)
}

func deref(s *string) string {
    if s == nil {
        return ""
    }
    return *s
}
