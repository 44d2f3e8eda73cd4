package config

import (
	"context"
	"log"

	"github.com/google/uuid"

	"hostal-backend/models"
	"hostal-backend/store"
)

// SeedRooms fills an empty room catalog with a small demo floor.
func SeedRooms(ctx context.Context, rooms store.RoomStore) error {
	existing, err := rooms.ListRooms(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		log.Println("Rooms already seeded")
		return nil
	}

	two, four := 2, 4
	seed := []models.Room{
		{Number: 101, Type: models.RoomTypeSimple, Price: 80},
		{Number: 102, Type: models.RoomTypeSimple, Price: 80},
		{Number: 201, Type: models.RoomTypeDoble, Price: 120, Capacity: &two},
		{Number: 202, Type: models.RoomTypeMatrimonial, Price: 140, Capacity: &two},
		{Number: 301, Type: models.RoomTypeSuite, Price: 250, Capacity: &four},
	}
	for i := range seed {
		room := seed[i]
		room.ID = uuid.NewString()
		room.Status = models.RoomAvailable
		if err := rooms.CreateRoom(ctx, &room); err != nil {
			log.Printf("warning: failed to seed room %d: %v", room.Number, err)
			continue
		}
	}
	log.Println("Rooms seeded")
	return nil
}
