// Package mongostore keeps rooms and reservations in MongoDB collections,
// the same document shape the front desk application always used.
package mongostore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"hostal-backend/models"
	"hostal-backend/store"
)

const (
	roomsCollection        = "rooms"
	reservationsCollection = "reservations"
)

type Store struct {
	client       *mongo.Client
	rooms        *mongo.Collection
	reservations *mongo.Collection
}

var _ store.Store = (*Store)(nil)

// Connect dials uri, pings the server and makes sure the indexes exist.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("mongo ping: %w", err)
	}
	log.Println("✅ connected to MongoDB")

	db := client.Database(dbName)
	s := &Store{
		client:       client,
		rooms:        db.Collection(roomsCollection),
		reservations: db.Collection(reservationsCollection),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	if _, err := s.rooms.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "number", Value: 1}},
		Options: options.Index().SetUnique(true),
	}); err != nil {
		return fmt.Errorf("rooms index: %w", err)
	}
	if _, err := s.reservations.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room", Value: 1}, {Key: "checkInDate", Value: 1}, {Key: "checkOutDate", Value: 1}},
	}); err != nil {
		return fmt.Errorf("reservations index: %w", err)
	}
	return nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	cur, err := s.rooms.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "number", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find rooms: %w", err)
	}
	rooms := make([]models.Room, 0)
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode rooms: %w", err)
	}
	return rooms, nil
}

func (s *Store) FindRoom(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := s.rooms.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		return nil, fmt.Errorf("room %s: %w", id, translate(err))
	}
	return &room, nil
}

func (s *Store) CreateRoom(ctx context.Context, room *models.Room) error {
	now := time.Now()
	room.CreatedAt, room.UpdatedAt = now, now
	if _, err := s.rooms.InsertOne(ctx, room); err != nil {
		return fmt.Errorf("create room %d: %w", room.Number, translate(err))
	}
	return nil
}

func (s *Store) SaveRoom(ctx context.Context, room *models.Room) error {
	room.UpdatedAt = time.Now()
	res, err := s.rooms.ReplaceOne(ctx, bson.M{"_id": room.ID}, room)
	if err != nil {
		return fmt.Errorf("save room %s: %w", room.ID, translate(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("room %s: %w", room.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	res, err := s.rooms.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete room %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("room %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SetRoomStatus(ctx context.Context, id string, from, to models.RoomStatus) (bool, error) {
	res, err := s.rooms.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return false, fmt.Errorf("set room %s status: %w", id, err)
	}
	return res.ModifiedCount > 0, nil
}

func (s *Store) FindReservations(ctx context.Context, f store.ReservationFilter) ([]models.Reservation, error) {
	opts := options.Find().SetSort(bson.D{{Key: "checkInDate", Value: 1}, {Key: "_id", Value: 1}})
	if f.Limit > 0 {
		opts.SetLimit(int64(f.Limit))
	}
	cur, err := s.reservations.Find(ctx, filterDoc(f), opts)
	if err != nil {
		return nil, fmt.Errorf("find reservations: %w", err)
	}
	out := make([]models.Reservation, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode reservations: %w", err)
	}
	return out, nil
}

func (s *Store) FindReservation(ctx context.Context, id string) (*models.Reservation, error) {
	var r models.Reservation
	if err := s.reservations.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		return nil, fmt.Errorf("reservation %s: %w", id, translate(err))
	}
	return &r, nil
}

// CreateReservation re-checks overlap before inserting. Without a replica set
// there is no multi-document transaction, so this narrows the window but the
// service-level room lock is what serializes writers.
func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	if err := s.checkOverlap(ctx, r); err != nil {
		return err
	}
	now := time.Now()
	r.CreatedAt, r.UpdatedAt = now, now
	if _, err := s.reservations.InsertOne(ctx, r); err != nil {
		return fmt.Errorf("create reservation: %w", translate(err))
	}
	return nil
}

func (s *Store) SaveReservation(ctx context.Context, r *models.Reservation) error {
	if err := s.checkOverlap(ctx, r); err != nil {
		return err
	}
	r.UpdatedAt = time.Now()
	set, err := saveDoc(r)
	if err != nil {
		return fmt.Errorf("save reservation %s: %w", r.ID, err)
	}
	res, err := s.reservations.UpdateOne(ctx, bson.M{"_id": r.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("save reservation %s: %w", r.ID, translate(err))
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("reservation %s: %w", r.ID, store.ErrNotFound)
	}
	return nil
}

// saveDoc is the $set body of SaveReservation: every field except the id,
// the creation time and status.
func saveDoc(r *models.Reservation) (bson.M, error) {
	raw, err := bson.Marshal(r)
	if err != nil {
		return nil, err
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	delete(doc, "_id")
	delete(doc, "createdAt")
	delete(doc, "status")
	return doc, nil
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	res, err := s.reservations.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete reservation %s: %w", id, err)
	}
	if res.DeletedCount == 0 {
		return fmt.Errorf("reservation %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SetReservationStatus(ctx context.Context, f store.ReservationFilter, to models.ReservationStatus) (int64, error) {
	res, err := s.reservations.UpdateMany(ctx, filterDoc(f),
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
	if err != nil {
		return 0, fmt.Errorf("set reservation status %s: %w", to, err)
	}
	return res.ModifiedCount, nil
}

func (s *Store) checkOverlap(ctx context.Context, r *models.Reservation) error {
	if r.Status == models.StatusCancelled {
		return nil
	}
	n, err := s.reservations.CountDocuments(ctx, filterDoc(store.OverlapFilter(r.RoomID, r.CheckInDate, r.CheckOutDate, r.ID)))
	if err != nil {
		return fmt.Errorf("overlap check: %w", err)
	}
	if n > 0 {
		return fmt.Errorf("room %s: %w", r.RoomID, store.ErrOverlap)
	}
	return nil
}

// filterDoc renders f as a query document. Limit is applied by the caller.
func filterDoc(f store.ReservationFilter) bson.M {
	doc := bson.M{}
	if f.RoomID != "" {
		doc["room"] = f.RoomID
	}
	id := bson.M{}
	if f.ID != "" {
		id["$eq"] = f.ID
	}
	if f.ExcludeID != "" {
		id["$ne"] = f.ExcludeID
	}
	if len(id) > 0 {
		doc["_id"] = id
	}

	status := bson.M{}
	if len(f.Statuses) > 0 {
		status["$in"] = f.Statuses
	}
	if len(f.ExcludeStatuses) > 0 {
		status["$nin"] = f.ExcludeStatuses
	}
	if len(status) > 0 {
		doc["status"] = status
	}

	checkIn := bson.M{}
	if f.CheckInBefore != nil {
		checkIn["$lt"] = *f.CheckInBefore
	}
	if f.CheckInNotAfter != nil {
		checkIn["$lte"] = *f.CheckInNotAfter
	}
	if len(checkIn) > 0 {
		doc["checkInDate"] = checkIn
	}

	checkOut := bson.M{}
	if f.CheckOutAfter != nil {
		checkOut["$gt"] = *f.CheckOutAfter
	}
	if f.CheckOutNotAfter != nil {
		checkOut["$lte"] = *f.CheckOutNotAfter
	}
	if f.CheckOutNotBefore != nil {
		checkOut["$gte"] = *f.CheckOutNotBefore
	}
	if len(checkOut) > 0 {
		doc["checkOutDate"] = checkOut
	}
	return doc
}

func translate(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}
	return err
}
