package service

import (
	"context"
	"fmt"
	"time"

	"github.com/iliyamo/resort-reservation/internal/model"
)

// roomStatusFor returns the room status implied by a reservation entering
// status.  A disabled reservation leaves the room RESERVED only while
// another PENDING reservation checks in today or later.
func roomStatusFor(ctx context.Context, tx BookingTx, status model.ReservationStatus, roomID, reservationID uint64, today time.Time) (model.RoomStatus, error) {
	switch status {
	case model.ReservationActive:
		return model.RoomOccupied, nil
	case model.ReservationPending:
		return model.RoomReserved, nil
	case model.ReservationDisabled:
		pending, err := tx.HasUpcomingPending(ctx, roomID, today, reservationID)
		if err != nil {
			return "", err
		}
		if pending {
			return model.RoomReserved, nil
		}
		return model.RoomAvailable, nil
	default:
		return "", fmt.Errorf("unhandled reservation status %q", status)
	}
}
