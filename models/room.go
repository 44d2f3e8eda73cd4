package models

import (
	"time"
)

type RoomType string

const (
	RoomTypeSimple      RoomType = "Simple"
	RoomTypeDoble       RoomType = "Doble"
	RoomTypeMatrimonial RoomType = "Matrimonial"
	RoomTypeSuite       RoomType = "Suite"
)

// RoomStatus is the projected operational state of a room.
type RoomStatus string

const (
	RoomAvailable   RoomStatus = "available"
	RoomOccupied    RoomStatus = "occupied"
	RoomCleaning    RoomStatus = "cleaning"
	RoomMaintenance RoomStatus = "maintenance"
)

type Room struct {
	ID string `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`

	// Number is what the front desk calls the room (101, 102, ...).
	Number int        `json:"number" gorm:"column:number;uniqueIndex;not null" bson:"number"`
	Type   RoomType   `json:"type" gorm:"column:type;type:varchar(20);not null" bson:"type"`
	Status RoomStatus `json:"status" gorm:"column:status;type:varchar(20);index;not null" bson:"status"`
	Price  float64    `json:"price" gorm:"column:price;not null" bson:"price"`

	// Capacity is optional; nil means no guest limit is enforced.
	Capacity *int `json:"capacity,omitempty" gorm:"column:capacity" bson:"capacity,omitempty"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}
