package model

import (
    "fmt"
    "strings"
    "time"
)

// ReservationStatus is the lifecycle state of a reservation.
type ReservationStatus string

const (
    ReservationActive   ReservationStatus = "ACTIVE"
    ReservationPending  ReservationStatus = "PENDING"
    ReservationDisabled ReservationStatus = "DISABLED"
)

// Valid reports whether s is one of the known reservation statuses.
func (s ReservationStatus) Valid() bool {
    switch s {
    case ReservationActive, ReservationPending, ReservationDisabled:
        return true
    }
    return false
}

// Blocking reports whether a reservation in this status claims its rooms
// for its date range.  Disabled reservations never block a booking.
func (s ReservationStatus) Blocking() bool {
    return s == ReservationActive || s == ReservationPending
}

// ParseReservationStatus converts a case-insensitive name into a
// ReservationStatus.
func ParseReservationStatus(s string) (ReservationStatus, error) {
    st := ReservationStatus(strings.ToUpper(strings.TrimSpace(s)))
    if !st.Valid() {
        return "", fmt.Errorf("invalid reservation status: %q", s)
    }
    return st, nil
}

// Reservation records a guest's booking of one or more rooms for a
// half-open date range [CheckInDate, CheckOutDate).
//
// Fields:
//  ID               – primary key identifier.
//  Code             – short booking code quoted to the guest.
//  CheckInDate      – first night (inclusive).
//  CheckOutDate     – departure day (exclusive).
//  Status           – ACTIVE, PENDING or DISABLED.
//  ClientID         – guest (users.id) who holds the reservation.
//  RegistrationDate – creation timestamp; never changes.
//  UpdateDate       – set on every mutation.
//  Version          – optimistic concurrency token.
//  RoomIDs          – rooms linked through reservation_rooms.
type Reservation struct {
    ID               uint64            // reservations.id
    Code             string            // reservations.code
    CheckInDate      time.Time         // reservations.check_in_date
    CheckOutDate     time.Time         // reservations.check_out_date
    Status           ReservationStatus // reservations.status
    ClientID         uint64            // reservations.client_id
    RegistrationDate time.Time         // reservations.registration_date
    UpdateDate       *time.Time        // reservations.update_date (nullable)
    Version          uint32            // reservations.version
    RoomIDs          []uint64          // reservation_rooms.room_id
}

// Range returns the reservation's stay as a DateRange.
func (r Reservation) Range() DateRange {
    return DateRange{CheckIn: r.CheckInDate, CheckOut: r.CheckOutDate}
}

// ReservationRoom links a reservation to a room.  The pair is the
// primary key of the `reservation_rooms` table.
type ReservationRoom struct {
    ReservationID uint64 // reservation_rooms.reservation_id
    RoomID        uint64 // reservation_rooms.room_id
}
