// Package queue defines message payloads exchanged over the message broker
// and the consumer that records them.
package queue

// ReservationEventsQueue is the durable queue carrying reservation
// lifecycle events.
const ReservationEventsQueue = "reservation.events"

// Event types published on ReservationEventsQueue.
const (
    EventReservationCreated = "reservation.created"
    EventReservationUpdated = "reservation.updated"
    EventReservationDeleted = "reservation.deleted"
)

// ReservationEvent is published after a reservation transaction commits.
// It carries enough information for downstream consumers to log, notify
// or feed analytics without querying the primary database.
type ReservationEvent struct {
    ID            string   `json:"id"`
    Type          string   `json:"type"`
    ReservationID uint64   `json:"reservation_id"`
    Code          string   `json:"code"`
    ClientID      uint64   `json:"client_id"`
    RoomIDs       []uint64 `json:"room_ids"`
    CheckInDate   string   `json:"check_in_date"`
    CheckOutDate  string   `json:"check_out_date"`
    Status        string   `json:"status"`
    Actor         string   `json:"actor"`
    OccurredAt    string   `json:"occurred_at"`
}
