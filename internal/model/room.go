package model

import (
    "fmt"
    "strings"
    "time"
)

// RoomStatus is the operational state of a room.  Reservation-driven
// values (AVAILABLE, RESERVED, OCCUPIED) are maintained by the booking
// service; CLEANING and MAINTENANCE are set by housekeeping.
type RoomStatus string

const (
    RoomAvailable   RoomStatus = "AVAILABLE"
    RoomOccupied    RoomStatus = "OCCUPIED"
    RoomCleaning    RoomStatus = "CLEANING"
    RoomMaintenance RoomStatus = "MAINTENANCE"
    RoomReserved    RoomStatus = "RESERVED"
)

// Valid reports whether s is one of the known room statuses.
func (s RoomStatus) Valid() bool {
    switch s {
    case RoomAvailable, RoomOccupied, RoomCleaning, RoomMaintenance, RoomReserved:
        return true
    }
    return false
}

// ParseRoomStatus converts a case-insensitive name into a RoomStatus.
func ParseRoomStatus(s string) (RoomStatus, error) {
    st := RoomStatus(strings.ToUpper(strings.TrimSpace(s)))
    if !st.Valid() {
        return "", fmt.Errorf("invalid room status: %q", s)
    }
    return st, nil
}

// Room represents a bookable unit as stored in the `rooms` table.
//
// Fields:
//  RoomID             – primary key identifier.
//  RoomNumber         – unique human readable number (e.g. "101A").
//  RoomTypeID         – optional reference to room_types.
//  RoomType           – room type name shown to staff.
//  Description        – optional free text.
//  Capacity           – maximum number of guests (1-10).
//  Beds               – number of beds (0-10).
//  PricePerNightCents – nightly rate in cents.
//  IsAvailable        – administrative flag; false hides the room from sale.
//  Status             – current operational status (projection of reservations).
//  CreatedBy          – who created the row.
//  ModifiedBy         – who last modified the row.
type Room struct {
    RoomID             uint64     // rooms.id
    RoomNumber         string     // rooms.room_number
    RoomTypeID         *uint64    // rooms.room_type_id (nullable)
    RoomType           string     // rooms.room_type
    Description        *string    // rooms.description (nullable)
    Capacity           uint8      // rooms.capacity
    Beds               uint8      // rooms.beds
    PricePerNightCents uint32     // rooms.price_per_night_cents
    IsAvailable        bool       // rooms.is_available
    Status             RoomStatus // rooms.status
    CreatedBy          string     // rooms.created_by
    ModifiedBy         *string    // rooms.modified_by (nullable)
    CreatedAt          time.Time  // rooms.created_at
    UpdatedAt          *time.Time // rooms.updated_at (nullable)
}
