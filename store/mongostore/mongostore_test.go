package mongostore

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"hostal-backend/models"
	"hostal-backend/store"
)

func TestFilterDocOverlap(t *testing.T) {
	start := time.Date(2024, 1, 10, 11, 0, 0, 0, time.UTC)
	end := time.Date(2024, 1, 12, 17, 0, 0, 0, time.UTC)

	doc := filterDoc(store.OverlapFilter("room-1", start, end, "res-1"))

	assert.Equal(t, bson.M{
		"room":         "room-1",
		"_id":          bson.M{"$ne": "res-1"},
		"status":       bson.M{"$nin": []models.ReservationStatus{models.StatusCancelled}},
		"checkInDate":  bson.M{"$lt": end},
		"checkOutDate": bson.M{"$gt": start},
	}, doc)
}

func TestFilterDocAutoAdvance(t *testing.T) {
	now := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

	doc := filterDoc(store.ReservationFilter{
		Statuses:        []models.ReservationStatus{models.StatusReserved},
		CheckInNotAfter: &now,
		CheckOutAfter:   &now,
	})

	assert.Equal(t, bson.M{
		"status":       bson.M{"$in": []models.ReservationStatus{models.StatusReserved}},
		"checkInDate":  bson.M{"$lte": now},
		"checkOutDate": bson.M{"$gt": now},
	}, doc)
}

func TestFilterDocByID(t *testing.T) {
	doc := filterDoc(store.ReservationFilter{
		ID:              "res-1",
		ExcludeStatuses: []models.ReservationStatus{models.StatusCancelled},
	})

	assert.Equal(t, bson.M{
		"_id":    bson.M{"$eq": "res-1"},
		"status": bson.M{"$nin": []models.ReservationStatus{models.StatusCancelled}},
	}, doc)
}

func TestSaveDocLeavesStatusAlone(t *testing.T) {
	r := &models.Reservation{
		ID:          "res-1",
		RoomID:      "room-1",
		Status:      models.StatusReserved,
		Nationality: "Peru",
		Totals:      models.Totals{PaidAmount: 50},
	}

	doc, err := saveDoc(r)
	require.NoError(t, err)

	assert.NotContains(t, doc, "status")
	assert.NotContains(t, doc, "_id")
	assert.NotContains(t, doc, "createdAt")
	assert.Equal(t, "room-1", doc["room"])
	assert.Equal(t, "Peru", doc["nationality"])
	assert.Contains(t, doc, "totals")
}

func TestFilterDocEmpty(t *testing.T) {
	assert.Empty(t, filterDoc(store.ReservationFilter{}))
}

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(mongo.ErrNoDocuments), store.ErrNotFound)

	dup := mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translate(dup), store.ErrDuplicate)

	other := errors.New("boom")
	assert.Equal(t, other, translate(other))
}
