package services

import (
	"context"
	"time"

	"hostal-backend/store"
)

const msgRoomTaken = "El cuarto ya está reservado en ese rango de fechas"

// Window is a half-open stay interval [Start, End).
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps is true when a and b share any instant. Touching endpoints do not
// overlap, so a checkout and the next check-in may coincide.
func Overlaps(a, b Window) bool {
	return a.Start.Before(b.End) && a.End.After(b.Start)
}

type ConflictDetector struct {
	Reservations store.ReservationStore
}

func NewConflictDetector(reservations store.ReservationStore) *ConflictDetector {
	return &ConflictDetector{Reservations: reservations}
}

// HasConflict reports whether another non-cancelled reservation of roomID
// intersects [start, end). excludeID lets a reservation ignore itself.
func (d *ConflictDetector) HasConflict(ctx context.Context, roomID string, start, end time.Time, excludeID string) (bool, error) {
	found, err := d.Reservations.FindReservations(ctx, store.OverlapFilter(roomID, start, end, excludeID))
	if err != nil {
		return false, persistence("conflict check", err)
	}
	return len(found) > 0, nil
}
