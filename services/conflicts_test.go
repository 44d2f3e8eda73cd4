package services

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hostal-backend/models"
	"hostal-backend/store/memory"
)

func TestOverlaps(t *testing.T) {
	w := func(a, b int) Window { return Window{Start: at(2024, 1, a, 0), End: at(2024, 1, b, 0)} }

	tests := []struct {
		name string
		a, b Window
		want bool
	}{
		{"disjoint", w(1, 3), w(5, 7), false},
		{"touching", w(1, 3), w(3, 5), false},
		{"partial", w(1, 4), w(3, 5), true},
		{"contained", w(1, 10), w(3, 5), true},
		{"identical", w(3, 5), w(3, 5), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Overlaps(tt.a, tt.b))
			assert.Equal(t, tt.want, Overlaps(tt.b, tt.a), "overlap must be symmetric")
		})
	}
}

func TestHasConflict(t *testing.T) {
	db := memory.New()
	ctx := context.Background()
	require.NoError(t, db.CreateReservation(ctx, &models.Reservation{
		ID: "a", RoomID: "r1", CheckInDate: at(2024, 1, 10, 6), CheckOutDate: at(2024, 1, 12, 12), Status: models.StatusReserved,
	}))
	require.NoError(t, db.CreateReservation(ctx, &models.Reservation{
		ID: "b", RoomID: "r1", CheckInDate: at(2024, 1, 20, 6), CheckOutDate: at(2024, 1, 22, 12), Status: models.StatusCancelled,
	}))
	d := NewConflictDetector(db)

	tests := []struct {
		name       string
		room       string
		start, end time.Time
		exclude    string
		want       bool
	}{
		{"overlapping", "r1", at(2024, 1, 11, 6), at(2024, 1, 13, 12), "", true},
		{"starts at checkout", "r1", at(2024, 1, 12, 12), at(2024, 1, 14, 12), "", false},
		{"other room", "r2", at(2024, 1, 11, 6), at(2024, 1, 13, 12), "", false},
		{"excluding itself", "r1", at(2024, 1, 11, 6), at(2024, 1, 13, 12), "a", false},
		{"cancelled ignored", "r1", at(2024, 1, 21, 6), at(2024, 1, 23, 12), "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := d.HasConflict(ctx, tt.room, tt.start, tt.end, tt.exclude)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoomLocksSerializeSameRoom(t *testing.T) {
	locks := newRoomLocks()
	var inside, maxInside int32
	var wg sync.WaitGroup

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.lock("r1", "r2")
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), maxInside)
	assert.Empty(t, locks.locks, "idle locks are released")
}
