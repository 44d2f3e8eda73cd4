package services

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"

	"hostal-backend/models"
	"hostal-backend/store"
)

const msgRoomNumberTaken = "Ya existe una habitación con ese número."

type CreateRoomInput struct {
	Number   int               `json:"number" binding:"required,min=1"`
	Type     models.RoomType   `json:"type" binding:"required,oneof=Simple Doble Matrimonial Suite"`
	Status   models.RoomStatus `json:"status" binding:"omitempty,oneof=available occupied cleaning maintenance"`
	Price    float64           `json:"price" binding:"gte=0"`
	Capacity *int              `json:"capacity" binding:"omitempty,min=1"`
}

// UpdateRoomInput is a partial patch; nil fields are left untouched.
type UpdateRoomInput struct {
	Number   *int               `json:"number" binding:"omitempty,min=1"`
	Type     *models.RoomType   `json:"type" binding:"omitempty,oneof=Simple Doble Matrimonial Suite"`
	Status   *models.RoomStatus `json:"status" binding:"omitempty,oneof=available occupied cleaning maintenance"`
	Price    *float64           `json:"price" binding:"omitempty,gte=0"`
	Capacity *int               `json:"capacity" binding:"omitempty,min=1"`
}

// RoomService is the room catalog. Status written here is an operator
// override; the projector corrects it on the next sweep unless the room is
// in maintenance.
type RoomService struct {
	Rooms        store.RoomStore
	Reservations store.ReservationStore
	Projector    *RoomStatusProjector
}

func NewRoomService(rooms store.RoomStore, reservations store.ReservationStore, projector *RoomStatusProjector) *RoomService {
	return &RoomService{Rooms: rooms, Reservations: reservations, Projector: projector}
}

func (s *RoomService) List(ctx context.Context) ([]models.Room, error) {
	rooms, err := s.Rooms.ListRooms(ctx)
	if err != nil {
		return nil, persistence("list rooms", err)
	}
	return rooms, nil
}

func (s *RoomService) Get(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.Rooms.FindRoom(ctx, id)
	if err != nil {
		return nil, roomError("find room", id, err)
	}
	return room, nil
}

func (s *RoomService) Create(ctx context.Context, in CreateRoomInput) (*models.Room, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	room := &models.Room{
		ID:       uuid.NewString(),
		Number:   in.Number,
		Type:     in.Type,
		Status:   in.Status,
		Price:    in.Price,
		Capacity: in.Capacity,
	}
	if room.Status == "" {
		room.Status = models.RoomAvailable
	}

	if err := s.Rooms.CreateRoom(ctx, room); err != nil {
		return nil, roomError("create room", room.ID, err)
	}
	log.Printf("✅ room %d created (%s)", room.Number, room.ID)
	return room, nil
}

func (s *RoomService) Update(ctx context.Context, id string, in UpdateRoomInput) (*models.Room, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	room, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Number != nil {
		room.Number = *in.Number
	}
	if in.Type != nil {
		room.Type = *in.Type
	}
	if in.Status != nil {
		room.Status = *in.Status
	}
	if in.Price != nil {
		room.Price = *in.Price
	}
	if in.Capacity != nil {
		c := *in.Capacity
		room.Capacity = &c
	}

	if err := s.Rooms.SaveRoom(ctx, room); err != nil {
		return nil, roomError("update room", id, err)
	}

	if s.Projector != nil {
		if _, err := s.Projector.Project(ctx); err != nil {
			log.Printf("⚠️ room projection after update failed: %v", err)
		}
	}
	return s.Get(ctx, id)
}

// Delete refuses while any reservation still points at the room.
func (s *RoomService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	refs, err := s.Reservations.FindReservations(ctx, store.ReservationFilter{RoomID: id, Limit: 1})
	if err != nil {
		return persistence("find room reservations", err)
	}
	if len(refs) > 0 {
		return &ConflictError{Message: "La habitación tiene reservas asociadas"}
	}
	if err := s.Rooms.DeleteRoom(ctx, id); err != nil {
		return roomError("delete room", id, err)
	}
	log.Printf("🗑️ room %s deleted", id)
	return nil
}

func roomError(op, id string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Resource: "Habitación", ID: id}
	case errors.Is(err, store.ErrDuplicate):
		return &ConflictError{Message: msgRoomNumberTaken}
	default:
		return persistence(op, err)
	}
}
