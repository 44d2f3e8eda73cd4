package services

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"hostal-backend/models"
	"hostal-backend/store"
)

// MaintenancePolicy decides what the projector does with rooms an operator
// put in maintenance.
type MaintenancePolicy string

const (
	// MaintenanceSticky leaves maintenance rooms alone.
	MaintenanceSticky MaintenancePolicy = "sticky"
	// MaintenanceYieldsToOccupancy shows a maintenance room as occupied while
	// a checked-in guest is actually in it. Cleaning and available never
	// replace maintenance.
	MaintenanceYieldsToOccupancy MaintenancePolicy = "occupancy"
)

func ParseMaintenancePolicy(raw string) (MaintenancePolicy, error) {
	switch p := MaintenancePolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "", MaintenanceSticky:
		return MaintenanceSticky, nil
	case MaintenanceYieldsToOccupancy:
		return p, nil
	default:
		return "", fmt.Errorf("unknown maintenance policy %q", raw)
	}
}

// RoomStatusProjector derives each room's status from its reservations.
type RoomStatusProjector struct {
	Rooms        store.RoomStore
	Reservations store.ReservationStore
	Calendar     *StayCalendar
	Policy       MaintenancePolicy
}

func NewRoomStatusProjector(rooms store.RoomStore, reservations store.ReservationStore, calendar *StayCalendar, policy MaintenancePolicy) *RoomStatusProjector {
	if policy == "" {
		policy = MaintenanceSticky
	}
	return &RoomStatusProjector{Rooms: rooms, Reservations: reservations, Calendar: calendar, Policy: policy}
}

// Project recomputes every room and writes only the ones that changed. It
// returns how many rooms were updated.
func (p *RoomStatusProjector) Project(ctx context.Context) (int, error) {
	now := p.Calendar.Now()
	dayStart, dayEnd := p.Calendar.DayBounds(now)

	rooms, err := p.Rooms.ListRooms(ctx)
	if err != nil {
		return 0, persistence("list rooms", err)
	}
	// stays that ended before today cannot affect any rule
	active, err := p.Reservations.FindReservations(ctx, store.ReservationFilter{
		ExcludeStatuses:   []models.ReservationStatus{models.StatusCancelled},
		CheckOutNotBefore: &dayStart,
	})
	if err != nil {
		return 0, persistence("list active reservations", err)
	}
	byRoom := make(map[string][]models.Reservation, len(rooms))
	for _, r := range active {
		byRoom[r.RoomID] = append(byRoom[r.RoomID], r)
	}

	updated := 0
	for _, room := range rooms {
		want := projectRoom(byRoom[room.ID], now, dayStart, dayEnd)
		if room.Status == models.RoomMaintenance {
			if p.Policy != MaintenanceYieldsToOccupancy || want != models.RoomOccupied {
				continue
			}
		}
		if want == room.Status {
			continue
		}
		changed, err := p.Rooms.SetRoomStatus(ctx, room.ID, room.Status, want)
		if err != nil {
			return updated, persistence("set room status", err)
		}
		if changed {
			updated++
		}
	}

	if updated > 0 {
		log.Printf("🏨 room status projection: %d room(s) updated", updated)
	}
	return updated, nil
}

// projectRoom applies, in order: occupied by an active checked-in stay,
// cleaning when some stay checks out today, otherwise available.
func projectRoom(reservations []models.Reservation, now, dayStart, dayEnd time.Time) models.RoomStatus {
	for _, r := range reservations {
		if r.Status == models.StatusCheckedIn && !r.CheckInDate.After(now) && r.CheckOutDate.After(now) {
			return models.RoomOccupied
		}
	}
	for _, r := range reservations {
		if r.Status == models.StatusCancelled {
			continue
		}
		if !r.CheckOutDate.Before(dayStart) && r.CheckOutDate.Before(dayEnd) {
			return models.RoomCleaning
		}
	}
	return models.RoomAvailable
}
