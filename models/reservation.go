package models

import (
	"time"

	"gorm.io/datatypes"
)

type ReservationStatus string

const (
	StatusReserved   ReservationStatus = "reserved"
	StatusCheckedIn  ReservationStatus = "checked_in"
	StatusCheckedOut ReservationStatus = "checked_out"
	StatusCancelled  ReservationStatus = "cancelled"
)

type PaymentMethod string

const (
	PaymentPOS          PaymentMethod = "POS"
	PaymentPagoEfectivo PaymentMethod = "PagoEfectivo"
	PaymentYape         PaymentMethod = "Yape"
	PaymentCredito      PaymentMethod = "Credito"
)

// Payment carries a method plus a method-specific bag of fields
// (voucher, cip, phone, plazoDias).
type Payment struct {
	Method PaymentMethod     `json:"method" gorm:"type:varchar(20)" bson:"method"`
	Data   datatypes.JSONMap `json:"data" bson:"data"`
}

// Extension is one append-only record of a stay being pushed forward.
type Extension struct {
	From        time.Time `json:"from" bson:"from"`
	To          time.Time `json:"to" bson:"to"`
	NightsAdded int       `json:"nightsAdded" bson:"nightsAdded"`
	ExtraAmount float64   `json:"extraAmount" bson:"extraAmount"`
	Payment     *Payment  `json:"payment,omitempty" bson:"payment,omitempty"`
	CreatedAt   time.Time `json:"createdAt" bson:"createdAt"`
}

type Totals struct {
	BaseAmount  float64 `json:"baseAmount" bson:"baseAmount"`
	ExtraAmount float64 `json:"extraAmount" bson:"extraAmount"`
	PaidAmount  float64 `json:"paidAmount" bson:"paidAmount"`
}

type Reservation struct {
	ID string `json:"id" gorm:"primaryKey;type:varchar(36)" bson:"_id"`

	RoomID       string    `json:"room" gorm:"column:room_id;type:varchar(36);not null;index:idx_reservation_window,priority:1" bson:"room"`
	CheckInDate  time.Time `json:"checkInDate" gorm:"column:check_in_date;not null;index:idx_reservation_window,priority:2" bson:"checkInDate"`
	CheckOutDate time.Time `json:"checkOutDate" gorm:"column:check_out_date;not null;index:idx_reservation_window,priority:3" bson:"checkOutDate"`

	Guests      datatypes.JSONSlice[Guest] `json:"userData" gorm:"column:user_data" bson:"userData"`
	Nationality string                     `json:"nationality" gorm:"column:nationality;type:varchar(100)" bson:"nationality"`

	Payment Payment           `json:"payment" gorm:"embedded;embeddedPrefix:payment_" bson:"payment"`
	Status  ReservationStatus `json:"status" gorm:"column:status;type:varchar(20);index;not null" bson:"status"`

	Extensions datatypes.JSONSlice[Extension] `json:"extensions" gorm:"column:extensions" bson:"extensions"`
	Totals     Totals                         `json:"totals" gorm:"embedded;embeddedPrefix:total_" bson:"totals"`

	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// Clone returns a copy that shares no slices or maps with r.
func (r Reservation) Clone() Reservation {
	out := r
	out.Guests = append(datatypes.JSONSlice[Guest](nil), r.Guests...)
	out.Payment = r.Payment.Clone()
	out.Extensions = make(datatypes.JSONSlice[Extension], len(r.Extensions))
	for i, ext := range r.Extensions {
		out.Extensions[i] = ext
		if ext.Payment != nil {
			p := ext.Payment.Clone()
			out.Extensions[i].Payment = &p
		}
	}
	return out
}

func (p Payment) Clone() Payment {
	out := Payment{Method: p.Method}
	if p.Data != nil {
		out.Data = make(datatypes.JSONMap, len(p.Data))
		for k, v := range p.Data {
			out.Data[k] = v
		}
	}
	return out
}
