// Package gormstore persists rooms and reservations in MySQL or PostgreSQL
// through gorm.
package gormstore

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	mysqldrv "github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hostal-backend/models"
	"hostal-backend/store"
)

type Store struct {
	DB *gorm.DB
}

var _ store.Store = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// Migrate creates or updates the schema. On PostgreSQL it also installs an
// exclusion constraint that forbids overlapping non-cancelled stays per room.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&models.Room{}, &models.Reservation{}); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}

	stmts := []string{
		`CREATE EXTENSION IF NOT EXISTS btree_gist`,
		`DO $$ BEGIN
			IF NOT EXISTS (SELECT 1 FROM pg_constraint WHERE conname = 'reservations_no_overlap') THEN
				ALTER TABLE reservations ADD CONSTRAINT reservations_no_overlap
				EXCLUDE USING gist (room_id WITH =, tstzrange(check_in_date, check_out_date, '[)') WITH &&)
				WHERE (status <> 'cancelled');
			END IF;
		END $$`,
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			// btree_gist needs superuser on some hosts; the row lock still guards writes.
			log.Printf("⚠️ overlap constraint not installed: %v", err)
			return nil
		}
	}
	log.Println("✅ reservations_no_overlap constraint ensured")
	return nil
}

func (s *Store) Close(_ context.Context) error {
	sqlDB, err := s.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// ----------------------------------------------------
// Rooms
// ----------------------------------------------------

func (s *Store) ListRooms(ctx context.Context) ([]models.Room, error) {
	var rooms []models.Room
	if err := s.DB.WithContext(ctx).Order("number ASC").Find(&rooms).Error; err != nil {
		return nil, translate(err)
	}
	return rooms, nil
}

func (s *Store) FindRoom(ctx context.Context, id string) (*models.Room, error) {
	var room models.Room
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&room).Error; err != nil {
		return nil, fmt.Errorf("room %s: %w", id, translate(err))
	}
	return &room, nil
}

func (s *Store) CreateRoom(ctx context.Context, room *models.Room) error {
	if err := s.DB.WithContext(ctx).Create(room).Error; err != nil {
		return fmt.Errorf("create room %d: %w", room.Number, translate(err))
	}
	return nil
}

func (s *Store) SaveRoom(ctx context.Context, room *models.Room) error {
	res := s.DB.WithContext(ctx).Model(&models.Room{}).Where("id = ?", room.ID).
		Select("number", "type", "status", "price", "capacity", "updated_at").
		Updates(room)
	if res.Error != nil {
		return fmt.Errorf("save room %s: %w", room.ID, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("room %s: %w", room.ID, store.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteRoom(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Room{})
	if res.Error != nil {
		return fmt.Errorf("delete room %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("room %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SetRoomStatus(ctx context.Context, id string, from, to models.RoomStatus) (bool, error) {
	res := s.DB.WithContext(ctx).Model(&models.Room{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return false, fmt.Errorf("set room %s status: %w", id, translate(res.Error))
	}
	return res.RowsAffected > 0, nil
}

// ----------------------------------------------------
// Reservations
// ----------------------------------------------------

func (s *Store) FindReservations(ctx context.Context, f store.ReservationFilter) ([]models.Reservation, error) {
	var out []models.Reservation
	q := applyFilter(s.DB.WithContext(ctx).Model(&models.Reservation{}), f).
		Order("check_in_date ASC").Order("id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}
	if err := q.Find(&out).Error; err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (s *Store) FindReservation(ctx context.Context, id string) (*models.Reservation, error) {
	var r models.Reservation
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&r).Error; err != nil {
		return nil, fmt.Errorf("reservation %s: %w", id, translate(err))
	}
	return &r, nil
}

func (s *Store) CreateReservation(ctx context.Context, r *models.Reservation) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRoomAndCheck(tx, r); err != nil {
			return err
		}
		if err := tx.Create(r).Error; err != nil {
			return fmt.Errorf("create reservation: %w", translate(err))
		}
		return nil
	})
}

func (s *Store) SaveReservation(ctx context.Context, r *models.Reservation) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockRoomAndCheck(tx, r); err != nil {
			return err
		}
		res := saveReservation(tx, r)
		if res.Error != nil {
			return fmt.Errorf("save reservation %s: %w", r.ID, translate(res.Error))
		}
		if res.RowsAffected == 0 {
			return fmt.Errorf("reservation %s: %w", r.ID, store.ErrNotFound)
		}
		return nil
	})
}

// saveReservation rewrites the row but leaves status to SetReservationStatus.
func saveReservation(tx *gorm.DB, r *models.Reservation) *gorm.DB {
	return tx.Model(&models.Reservation{}).Where("id = ?", r.ID).
		Select("*").Omit("id", "created_at", "status").
		Updates(r)
}

func (s *Store) DeleteReservation(ctx context.Context, id string) error {
	res := s.DB.WithContext(ctx).Where("id = ?", id).Delete(&models.Reservation{})
	if res.Error != nil {
		return fmt.Errorf("delete reservation %s: %w", id, translate(res.Error))
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("reservation %s: %w", id, store.ErrNotFound)
	}
	return nil
}

func (s *Store) SetReservationStatus(ctx context.Context, f store.ReservationFilter, to models.ReservationStatus) (int64, error) {
	f.Limit = 0
	res := applyFilter(s.DB.WithContext(ctx).Model(&models.Reservation{}), f).
		Updates(map[string]interface{}{"status": to, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, fmt.Errorf("set reservation status %s: %w", to, translate(res.Error))
	}
	return res.RowsAffected, nil
}

// lockRoomAndCheck takes the room row lock, so concurrent writers for the same
// room queue up here, then re-runs the overlap query inside the transaction.
func lockRoomAndCheck(tx *gorm.DB, r *models.Reservation) error {
	var room models.Room
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", r.RoomID).First(&room).Error; err != nil {
		return fmt.Errorf("lock room %s: %w", r.RoomID, translate(err))
	}
	if r.Status == models.StatusCancelled {
		return nil
	}

	var n int64
	f := store.OverlapFilter(r.RoomID, r.CheckInDate, r.CheckOutDate, r.ID)
	if err := applyFilter(tx.Model(&models.Reservation{}), f).Count(&n).Error; err != nil {
		return fmt.Errorf("overlap check: %w", translate(err))
	}
	if n > 0 {
		return fmt.Errorf("room %s: %w", r.RoomID, store.ErrOverlap)
	}
	return nil
}

func applyFilter(q *gorm.DB, f store.ReservationFilter) *gorm.DB {
	if f.ID != "" {
		q = q.Where("id = ?", f.ID)
	}
	if f.RoomID != "" {
		q = q.Where("room_id = ?", f.RoomID)
	}
	if f.ExcludeID != "" {
		q = q.Where("id <> ?", f.ExcludeID)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if len(f.ExcludeStatuses) > 0 {
		q = q.Where("status NOT IN ?", f.ExcludeStatuses)
	}
	if f.CheckInBefore != nil {
		q = q.Where("check_in_date < ?", *f.CheckInBefore)
	}
	if f.CheckInNotAfter != nil {
		q = q.Where("check_in_date <= ?", *f.CheckInNotAfter)
	}
	if f.CheckOutAfter != nil {
		q = q.Where("check_out_date > ?", *f.CheckOutAfter)
	}
	if f.CheckOutNotAfter != nil {
		q = q.Where("check_out_date <= ?", *f.CheckOutNotAfter)
	}
	if f.CheckOutNotBefore != nil {
		q = q.Where("check_out_date >= ?", *f.CheckOutNotBefore)
	}
	return q
}

// translate maps driver errors onto the store sentinels.
func translate(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return store.ErrNotFound
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}

	var myErr *mysqldrv.MySQLError
	if errors.As(err, &myErr) && myErr.Number == 1062 {
		return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "23505": // unique_violation
			return fmt.Errorf("%w: %v", store.ErrDuplicate, err)
		case "23P01": // exclusion_violation
			return fmt.Errorf("%w: %v", store.ErrOverlap, err)
		}
	}
	return err
}
