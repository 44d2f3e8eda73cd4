// Package memory is a process-local Store used by tests and by
// STORAGE_DRIVER=memory for demos. Nothing survives a restart.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"hostal-backend/models"
	"hostal-backend/store"
)

type DB struct {
	mu           sync.RWMutex
	rooms        map[string]*models.Room
	reservations map[string]*models.Reservation
}

var _ store.Store = (*DB)(nil)

func New() *DB {
	return &DB{
		rooms:        make(map[string]*models.Room),
		reservations: make(map[string]*models.Reservation),
	}
}

func (db *DB) Close(context.Context) error { return nil }

func (db *DB) ListRooms(_ context.Context) ([]models.Room, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := make([]models.Room, 0, len(db.rooms))
	for _, r := range db.rooms {
		out = append(out, cloneRoom(r))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out, nil
}

func (db *DB) FindRoom(_ context.Context, id string) (*models.Room, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	r, ok := db.rooms[id]
	if !ok {
		return nil, fmt.Errorf("room %s: %w", id, store.ErrNotFound)
	}
	room := cloneRoom(r)
	return &room, nil
}

func (db *DB) CreateRoom(_ context.Context, room *models.Room) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.rooms[room.ID]; exists {
		return fmt.Errorf("room id %s: %w", room.ID, store.ErrDuplicate)
	}
	if db.numberTaken(room.Number, room.ID) {
		return fmt.Errorf("room number %d: %w", room.Number, store.ErrDuplicate)
	}
	now := time.Now()
	room.CreatedAt, room.UpdatedAt = now, now
	stored := cloneRoom(room)
	db.rooms[room.ID] = &stored
	return nil
}

func (db *DB) SaveRoom(_ context.Context, room *models.Room) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.rooms[room.ID]; !ok {
		return fmt.Errorf("room %s: %w", room.ID, store.ErrNotFound)
	}
	if db.numberTaken(room.Number, room.ID) {
		return fmt.Errorf("room number %d: %w", room.Number, store.ErrDuplicate)
	}
	room.UpdatedAt = time.Now()
	stored := cloneRoom(room)
	db.rooms[room.ID] = &stored
	return nil
}

func (db *DB) DeleteRoom(_ context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.rooms[id]; !ok {
		return fmt.Errorf("room %s: %w", id, store.ErrNotFound)
	}
	delete(db.rooms, id)
	return nil
}

func (db *DB) SetRoomStatus(_ context.Context, id string, from, to models.RoomStatus) (bool, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	r, ok := db.rooms[id]
	if !ok {
		return false, fmt.Errorf("room %s: %w", id, store.ErrNotFound)
	}
	if r.Status != from {
		return false, nil
	}
	r.Status = to
	r.UpdatedAt = time.Now()
	return true, nil
}

func (db *DB) FindReservations(_ context.Context, f store.ReservationFilter) ([]models.Reservation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	out := db.matching(f)
	sort.Slice(out, func(i, j int) bool {
		if out[i].CheckInDate.Equal(out[j].CheckInDate) {
			return out[i].ID < out[j].ID
		}
		return out[i].CheckInDate.Before(out[j].CheckInDate)
	})
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (db *DB) FindReservation(_ context.Context, id string) (*models.Reservation, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	r, ok := db.reservations[id]
	if !ok {
		return nil, fmt.Errorf("reservation %s: %w", id, store.ErrNotFound)
	}
	res := r.Clone()
	return &res, nil
}

func (db *DB) CreateReservation(_ context.Context, r *models.Reservation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.reservations[r.ID]; exists {
		return fmt.Errorf("reservation id %s: %w", r.ID, store.ErrDuplicate)
	}
	if err := db.checkOverlap(r); err != nil {
		return err
	}
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	stored := r.Clone()
	db.reservations[r.ID] = &stored
	return nil
}

func (db *DB) SaveReservation(_ context.Context, r *models.Reservation) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	prev, ok := db.reservations[r.ID]
	if !ok {
		return fmt.Errorf("reservation %s: %w", r.ID, store.ErrNotFound)
	}
	if err := db.checkOverlap(r); err != nil {
		return err
	}
	r.UpdatedAt = time.Now()
	stored := r.Clone()
	stored.Status = prev.Status
	db.reservations[r.ID] = &stored
	return nil
}

func (db *DB) DeleteReservation(_ context.Context, id string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.reservations[id]; !ok {
		return fmt.Errorf("reservation %s: %w", id, store.ErrNotFound)
	}
	delete(db.reservations, id)
	return nil
}

func (db *DB) SetReservationStatus(_ context.Context, f store.ReservationFilter, to models.ReservationStatus) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	var n int64
	now := time.Now()
	for _, r := range db.reservations {
		if !f.Matches(r) {
			continue
		}
		r.Status = to
		r.UpdatedAt = now
		n++
	}
	return n, nil
}

// checkOverlap must be called with db.mu held.
func (db *DB) checkOverlap(r *models.Reservation) error {
	if r.Status == models.StatusCancelled {
		return nil
	}
	if len(db.matchingLimit(store.OverlapFilter(r.RoomID, r.CheckInDate, r.CheckOutDate, r.ID))) > 0 {
		return fmt.Errorf("room %s: %w", r.RoomID, store.ErrOverlap)
	}
	return nil
}

func (db *DB) matching(f store.ReservationFilter) []models.Reservation {
	out := make([]models.Reservation, 0)
	for _, r := range db.reservations {
		if f.Matches(r) {
			out = append(out, r.Clone())
		}
	}
	return out
}

func (db *DB) matchingLimit(f store.ReservationFilter) []models.Reservation {
	out := db.matching(f)
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out
}

func (db *DB) numberTaken(number int, exceptID string) bool {
	for id, r := range db.rooms {
		if id != exceptID && r.Number == number {
			return true
		}
	}
	return false
}

func cloneRoom(r *models.Room) models.Room {
	out := *r
	if r.Capacity != nil {
		c := *r.Capacity
		out.Capacity = &c
	}
	return out
}
