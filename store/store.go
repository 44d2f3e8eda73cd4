// Package store defines the persistence port used by the services and the
// filter vocabulary every adapter (gorm, mongo, memory) has to understand.
package store

import (
	"context"
	"errors"
	"time"

	"hostal-backend/models"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate key")
	// ErrOverlap is returned when the adapter itself detects that a write
	// would overlap another non-cancelled reservation of the same room.
	ErrOverlap = errors.New("overlapping reservation")
)

// ReservationFilter selects reservations. Zero-valued fields do not constrain.
// All time bounds are compared against the stored instants.
type ReservationFilter struct {
	ID              string
	RoomID          string
	ExcludeID       string
	Statuses        []models.ReservationStatus
	ExcludeStatuses []models.ReservationStatus

	CheckInBefore     *time.Time // check_in_date < t
	CheckInNotAfter   *time.Time // check_in_date <= t
	CheckOutAfter     *time.Time // check_out_date > t
	CheckOutNotAfter  *time.Time // check_out_date <= t
	CheckOutNotBefore *time.Time // check_out_date >= t

	// Limit caps the number of results; 0 means no limit.
	Limit int
}

// Matches reports whether r satisfies every constraint of f.
func (f ReservationFilter) Matches(r *models.Reservation) bool {
	if f.ID != "" && r.ID != f.ID {
		return false
	}
	if f.RoomID != "" && r.RoomID != f.RoomID {
		return false
	}
	if f.ExcludeID != "" && r.ID == f.ExcludeID {
		return false
	}
	if len(f.Statuses) > 0 && !containsStatus(f.Statuses, r.Status) {
		return false
	}
	if containsStatus(f.ExcludeStatuses, r.Status) {
		return false
	}
	if f.CheckInBefore != nil && !r.CheckInDate.Before(*f.CheckInBefore) {
		return false
	}
	if f.CheckInNotAfter != nil && r.CheckInDate.After(*f.CheckInNotAfter) {
		return false
	}
	if f.CheckOutAfter != nil && !r.CheckOutDate.After(*f.CheckOutAfter) {
		return false
	}
	if f.CheckOutNotAfter != nil && r.CheckOutDate.After(*f.CheckOutNotAfter) {
		return false
	}
	if f.CheckOutNotBefore != nil && r.CheckOutDate.Before(*f.CheckOutNotBefore) {
		return false
	}
	return true
}

// OverlapFilter selects the non-cancelled reservations of roomID whose stay
// intersects [start, end), ignoring excludeID.
func OverlapFilter(roomID string, start, end time.Time, excludeID string) ReservationFilter {
	return ReservationFilter{
		RoomID:          roomID,
		ExcludeID:       excludeID,
		ExcludeStatuses: []models.ReservationStatus{models.StatusCancelled},
		CheckInBefore:   &end,
		CheckOutAfter:   &start,
		Limit:           1,
	}
}

func containsStatus(list []models.ReservationStatus, s models.ReservationStatus) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

type RoomStore interface {
	ListRooms(ctx context.Context) ([]models.Room, error)
	FindRoom(ctx context.Context, id string) (*models.Room, error)
	CreateRoom(ctx context.Context, room *models.Room) error
	SaveRoom(ctx context.Context, room *models.Room) error
	DeleteRoom(ctx context.Context, id string) error
	// SetRoomStatus moves a room from one status to another and reports
	// false when the room was no longer in the expected status.
	SetRoomStatus(ctx context.Context, id string, from, to models.RoomStatus) (bool, error)
}

type ReservationStore interface {
	FindReservations(ctx context.Context, f ReservationFilter) ([]models.Reservation, error)
	FindReservation(ctx context.Context, id string) (*models.Reservation, error)
	// CreateReservation and SaveReservation return ErrOverlap when the row
	// would overlap another non-cancelled reservation of the same room.
	CreateReservation(ctx context.Context, r *models.Reservation) error
	// SaveReservation writes every field except status, which only
	// SetReservationStatus changes. r.Status is still what the overlap
	// check sees.
	SaveReservation(ctx context.Context, r *models.Reservation) error
	DeleteReservation(ctx context.Context, id string) error
	// SetReservationStatus bulk-updates every match of f and returns how many changed.
	SetReservationStatus(ctx context.Context, f ReservationFilter, to models.ReservationStatus) (int64, error)
}

type Store interface {
	RoomStore
	ReservationStore
	Close(ctx context.Context) error
}
