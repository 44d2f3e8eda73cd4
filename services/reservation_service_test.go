package services

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"hostal-backend/models"
	"hostal-backend/store"
	"hostal-backend/store/memory"
)

type reservationFixture struct {
	db    *memory.DB
	clock *fixedClock
	svc   *ReservationService
}

func newReservationFixture(t *testing.T) *reservationFixture {
	t.Helper()
	db := memory.New()
	clock := newFixedClock(at(2024, 1, 1, 0))
	cal := NewStayCalendar(limaPolicy(), clock)
	projector := NewRoomStatusProjector(db, db, cal, MaintenanceSticky)
	f := &reservationFixture{db: db, clock: clock, svc: NewReservationService(db, db, cal, projector)}

	capacity := 2
	require.NoError(t, db.CreateRoom(context.Background(), &models.Room{
		ID: "r1", Number: 101, Type: models.RoomTypeDoble, Status: models.RoomAvailable, Price: 100, Capacity: &capacity,
	}))
	require.NoError(t, db.CreateRoom(context.Background(), &models.Room{
		ID: "r2", Number: 102, Type: models.RoomTypeSuite, Status: models.RoomAvailable, Price: 250,
	}))
	return f
}

func createInput(room, in, out string) CreateReservationInput {
	return CreateReservationInput{
		RoomID:       room,
		CheckInDate:  in,
		CheckOutDate: out,
		Guests:       []models.Guest{{Nombres: "Ana", ApellidoPaterno: "Quispe", DocType: "DNI", DocNumber: "12345678"}},
		Payment:      &models.Payment{Method: models.PaymentYape, Data: datatypes.JSONMap{"phone": "987654321"}},
	}
}

func (f *reservationFixture) create(t *testing.T, room, in, out string) *models.Reservation {
	t.Helper()
	r, err := f.svc.Create(context.Background(), createInput(room, in, out))
	require.NoError(t, err)
	return r
}

func TestCreateReservation(t *testing.T) {
	f := newReservationFixture(t)

	r := f.create(t, "r1", "2024-01-10", "2024-01-12")

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, models.StatusReserved, r.Status)
	assert.True(t, at(2024, 1, 10, 6).Equal(r.CheckInDate))
	assert.True(t, at(2024, 1, 12, 12).Equal(r.CheckOutDate))
	assert.Equal(t, 200.0, r.Totals.BaseAmount)
	assert.Zero(t, r.Totals.ExtraAmount)
	assert.Zero(t, r.Totals.PaidAmount)
	assert.Equal(t, "Peru", r.Nationality)
	require.Len(t, r.Guests, 1)
	assert.Equal(t, "Peru", r.Guests[0].Nationality)
}

func TestCreateReservationRateOverride(t *testing.T) {
	f := newReservationFixture(t)
	in := createInput("r2", "2024-01-10", "2024-01-13")
	rate := 80.0
	in.RateOverride = &rate

	r, err := f.svc.Create(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, 240.0, r.Totals.BaseAmount)
}

func TestCreateReservationRejects(t *testing.T) {
	f := newReservationFixture(t)
	f.create(t, "r1", "2024-01-10", "2024-01-12")

	tests := []struct {
		name   string
		mutate func(*CreateReservationInput)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "overlapping window",
			mutate: func(in *CreateReservationInput) { in.CheckInDate, in.CheckOutDate = "2024-01-11", "2024-01-13" },
			check: func(t *testing.T, err error) {
				c := IsConflictError(err)
				require.NotNil(t, c)
				assert.Equal(t, "El cuarto ya está reservado en ese rango de fechas", c.Message)
			},
		},
		{
			// check-in at 06:00 precedes the previous guest's 12:00 checkout
			name:   "same-day turnover",
			mutate: func(in *CreateReservationInput) { in.CheckInDate, in.CheckOutDate = "2024-01-12", "2024-01-14" },
			check:  func(t *testing.T, err error) { assert.NotNil(t, IsConflictError(err)) },
		},
		{
			name:   "invalid dni",
			mutate: func(in *CreateReservationInput) { in.Guests[0].DocNumber = "1234" },
			check: func(t *testing.T, err error) {
				require.NotNil(t, IsValidationError(err))
				assert.Contains(t, err.Error(), "DNI inválido")
			},
		},
		{
			name:   "no guests",
			mutate: func(in *CreateReservationInput) { in.Guests = nil },
			check:  func(t *testing.T, err error) { assert.NotNil(t, IsValidationError(err)) },
		},
		{
			name:   "missing payment",
			mutate: func(in *CreateReservationInput) { in.Payment = nil },
			check: func(t *testing.T, err error) {
				require.NotNil(t, IsValidationError(err))
				assert.Equal(t, "payment es requerido", err.Error())
			},
		},
		{
			name:   "blank check-in",
			mutate: func(in *CreateReservationInput) { in.CheckInDate = "" },
			check: func(t *testing.T, err error) {
				require.NotNil(t, IsValidationError(err))
				assert.Equal(t, "checkInDate es requerido", err.Error())
			},
		},
		{
			name: "negative rate",
			mutate: func(in *CreateReservationInput) {
				rate := -1.0
				in.RateOverride = &rate
			},
			check: func(t *testing.T, err error) {
				require.NotNil(t, IsValidationError(err))
				assert.Equal(t, "rateOverride debe ser al menos 0", err.Error())
			},
		},
		{
			name:   "checkout before checkin",
			mutate: func(in *CreateReservationInput) { in.CheckInDate, in.CheckOutDate = "2024-01-20", "2024-01-18" },
			check: func(t *testing.T, err error) {
				require.NotNil(t, IsValidationError(err))
				assert.Equal(t, "checkOutDate debe ser posterior a checkInDate", err.Error())
			},
		},
		{
			name:   "zero nights",
			mutate: func(in *CreateReservationInput) { in.CheckInDate, in.CheckOutDate = "2024-01-20", "2024-01-20" },
			check: func(t *testing.T, err error) {
				require.NotNil(t, IsValidationError(err))
				assert.Equal(t, "La estancia debe ser al menos 1 noche", err.Error())
			},
		},
		{
			name:   "unknown room",
			mutate: func(in *CreateReservationInput) { in.RoomID = "nope" },
			check:  func(t *testing.T, err error) { assert.NotNil(t, IsNotFoundError(err)) },
		},
		{
			name: "over capacity",
			mutate: func(in *CreateReservationInput) {
				in.CheckInDate, in.CheckOutDate = "2024-02-01", "2024-02-03"
				g := in.Guests[0]
				in.Guests = []models.Guest{g, g, g}
			},
			check: func(t *testing.T, err error) {
				require.NotNil(t, IsValidationError(err))
				assert.Equal(t, "Excede capacidad de la habitación (2).", err.Error())
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := createInput("r1", "2024-01-20", "2024-01-22")
			tt.mutate(&in)
			_, err := f.svc.Create(context.Background(), in)
			tt.check(t, err)
		})
	}
}

func TestCreateReservationRollsPastStay(t *testing.T) {
	f := newReservationFixture(t)
	f.clock.Set(at(2024, 1, 12, 13))

	r := f.create(t, "r2", "2024-01-10", "2024-01-12")
	assert.True(t, at(2024, 1, 11, 6).Equal(r.CheckInDate))
	assert.True(t, at(2024, 1, 13, 12).Equal(r.CheckOutDate))
	// the rolled window already contains now, so the post-write sweep checks it in
	assert.Equal(t, models.StatusCheckedIn, r.Status)

	room, err := f.db.FindRoom(context.Background(), "r2")
	require.NoError(t, err)
	assert.Equal(t, models.RoomOccupied, room.Status)
}

func TestConcurrentCreatesOnlyOneWins(t *testing.T) {
	f := newReservationFixture(t)
	const workers = 12

	var wg sync.WaitGroup
	errs := make([]error, workers)
	start := make(chan struct{})
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, errs[i] = f.svc.Create(context.Background(), createInput("r1", "2024-03-01", "2024-03-04"))
		}(i)
	}
	close(start)
	wg.Wait()

	ok, conflicts := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case IsConflictError(err) != nil:
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, workers-1, conflicts)

	stored, err := f.svc.List(context.Background(), "", "")
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestExtendReservation(t *testing.T) {
	f := newReservationFixture(t)
	r := f.create(t, "r1", "2024-01-10", "2024-01-12")

	ext, err := f.svc.Extend(context.Background(), r.ID, ExtendReservationInput{NewCheckOutDate: "2024-01-14"})
	require.NoError(t, err)

	assert.True(t, at(2024, 1, 14, 12).Equal(ext.CheckOutDate))
	require.Len(t, ext.Extensions, 1)
	e := ext.Extensions[0]
	assert.True(t, at(2024, 1, 12, 12).Equal(e.From))
	assert.True(t, at(2024, 1, 14, 12).Equal(e.To))
	assert.Equal(t, 2, e.NightsAdded)
	assert.Equal(t, 200.0, e.ExtraAmount)
	assert.Equal(t, 200.0, ext.Totals.ExtraAmount)
	assert.Equal(t, 200.0, ext.Totals.BaseAmount)

	// chained extension with its own rate and payment
	rate := 150.0
	ext, err = f.svc.Extend(context.Background(), r.ID, ExtendReservationInput{
		NewCheckOutDate: "2024-01-15",
		RateOverride:    &rate,
		Payment:         &models.Payment{Method: models.PaymentPOS, Data: datatypes.JSONMap{"voucher": "V-9"}},
	})
	require.NoError(t, err)
	require.Len(t, ext.Extensions, 2)
	assert.True(t, ext.Extensions[0].To.Equal(ext.Extensions[1].From))
	assert.True(t, ext.Extensions[1].To.Equal(ext.CheckOutDate))
	assert.Equal(t, 350.0, ext.Totals.ExtraAmount)
	require.NotNil(t, ext.Extensions[1].Payment)
	assert.Equal(t, models.PaymentPOS, ext.Extensions[1].Payment.Method)
}

func TestExtendReservationRejects(t *testing.T) {
	f := newReservationFixture(t)
	r := f.create(t, "r1", "2024-01-10", "2024-01-12")
	f.create(t, "r1", "2024-01-14", "2024-01-16")

	_, err := f.svc.Extend(context.Background(), r.ID, ExtendReservationInput{NewCheckOutDate: "2024-01-12"})
	require.NotNil(t, IsValidationError(err))
	assert.Equal(t, "La nueva fecha debe ser posterior al check-out actual", err.Error())

	_, err = f.svc.Extend(context.Background(), r.ID, ExtendReservationInput{NewCheckOutDate: "2024-01-15"})
	assert.NotNil(t, IsConflictError(err))

	_, err = f.svc.Extend(context.Background(), r.ID, ExtendReservationInput{
		NewCheckOutDate: "2024-01-13",
		Payment:         &models.Payment{Method: models.PaymentYape, Data: datatypes.JSONMap{"phone": "123"}},
	})
	assert.NotNil(t, IsValidationError(err))

	_, err = f.svc.Extend(context.Background(), "missing", ExtendReservationInput{NewCheckOutDate: "2024-01-13"})
	assert.NotNil(t, IsNotFoundError(err))

	// unchanged after the failures
	got, err := f.svc.Get(context.Background(), r.ID)
	require.NoError(t, err)
	assert.Empty(t, got.Extensions)
	assert.True(t, at(2024, 1, 12, 12).Equal(got.CheckOutDate))
}

func TestAutoAdvanceIsIdempotent(t *testing.T) {
	f := newReservationFixture(t)
	r := f.create(t, "r1", "2024-01-10", "2024-01-12")
	ctx := context.Background()

	f.clock.Set(at(2024, 1, 10, 8))
	res, err := f.svc.AutoAdvance(ctx)
	require.NoError(t, err)
	assert.Equal(t, AdvanceResult{CheckedIn: 1}, res)

	res, err = f.svc.AutoAdvance(ctx)
	require.NoError(t, err)
	assert.Equal(t, AdvanceResult{}, res)

	f.clock.Set(at(2024, 1, 12, 12))
	res, err = f.svc.AutoAdvance(ctx)
	require.NoError(t, err)
	assert.Equal(t, AdvanceResult{CheckedOut: 1}, res)

	got, err := f.svc.Get(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedOut, got.Status)

	res, err = f.svc.AutoAdvance(ctx)
	require.NoError(t, err)
	assert.Equal(t, AdvanceResult{}, res)
}

func TestSweepProjectsRooms(t *testing.T) {
	f := newReservationFixture(t)
	f.create(t, "r1", "2024-01-10", "2024-01-12")
	ctx := context.Background()

	f.clock.Set(at(2024, 1, 11, 9))
	res, err := f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.CheckedIn)
	assert.Equal(t, 1, res.RoomsUpdated)

	room, err := f.db.FindRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RoomOccupied, room.Status)

	f.clock.Set(at(2024, 1, 12, 14))
	res, err = f.svc.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.CheckedOut)

	room, err = f.db.FindRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, models.RoomCleaning, room.Status)
}

func TestUpdateReservation(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	r := f.create(t, "r1", "2024-01-10", "2024-01-12")
	other := f.create(t, "r1", "2024-01-20", "2024-01-22")

	out := "2024-01-13"
	got, err := f.svc.Update(ctx, r.ID, UpdateReservationInput{CheckOutDate: &out})
	require.NoError(t, err)
	assert.True(t, at(2024, 1, 10, 6).Equal(got.CheckInDate))
	assert.True(t, at(2024, 1, 13, 12).Equal(got.CheckOutDate))
	assert.Equal(t, 300.0, got.Totals.BaseAmount)

	// moving onto the other booking conflicts
	in, out2 := "2024-01-19", "2024-01-21"
	_, err = f.svc.Update(ctx, r.ID, UpdateReservationInput{CheckInDate: &in, CheckOutDate: &out2})
	require.NotNil(t, IsConflictError(err))

	// switching rooms re-prices at the new room's rate
	room := "r2"
	got, err = f.svc.Update(ctx, r.ID, UpdateReservationInput{RoomID: &room})
	require.NoError(t, err)
	assert.Equal(t, "r2", got.RoomID)
	assert.Equal(t, 750.0, got.Totals.BaseAmount)

	paid := 100.0
	nat := "Chile"
	guests := []models.Guest{{DocType: "cee", DocNumber: "X1234567"}}
	got, err = f.svc.Update(ctx, other.ID, UpdateReservationInput{PaidAmount: &paid, Nationality: &nat, Guests: &guests})
	require.NoError(t, err)
	assert.Equal(t, 100.0, got.Totals.PaidAmount)
	assert.Equal(t, "Chile", got.Nationality)
	require.Len(t, got.Guests, 1)
	assert.Equal(t, "CEE", got.Guests[0].DocType)
	assert.Equal(t, "Chile", got.Guests[0].Nationality)

	bad := []models.Guest{{DocType: "DNI", DocNumber: "1"}}
	_, err = f.svc.Update(ctx, other.ID, UpdateReservationInput{Guests: &bad})
	assert.NotNil(t, IsValidationError(err))

	_, err = f.svc.Update(ctx, "missing", UpdateReservationInput{PaidAmount: &paid})
	assert.NotNil(t, IsNotFoundError(err))
}

func TestCancelFreesTheWindow(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	r := f.create(t, "r1", "2024-01-10", "2024-01-12")

	checkedIn := models.StatusCheckedIn
	_, err := f.svc.Update(ctx, r.ID, UpdateReservationInput{Status: &checkedIn})
	require.NotNil(t, IsValidationError(err))
	assert.Equal(t, "status debe ser uno de: cancelled", err.Error())

	cancelled := models.StatusCancelled
	got, err := f.svc.Update(ctx, r.ID, UpdateReservationInput{Status: &cancelled})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, got.Status)

	f.create(t, "r1", "2024-01-10", "2024-01-12")

	paid := 10.0
	_, err = f.svc.Update(ctx, r.ID, UpdateReservationInput{PaidAmount: &paid})
	assert.NotNil(t, IsValidationError(err))
	_, err = f.svc.Extend(ctx, r.ID, ExtendReservationInput{NewCheckOutDate: "2024-01-13"})
	assert.NotNil(t, IsValidationError(err))
}

// advanceOnSave changes the stored status right before each save, the way a
// sweep landing between Update's read and its write would.
type advanceOnSave struct {
	*memory.DB
	to models.ReservationStatus
}

func (a advanceOnSave) SaveReservation(ctx context.Context, r *models.Reservation) error {
	if _, err := a.DB.SetReservationStatus(ctx, store.ReservationFilter{ID: r.ID}, a.to); err != nil {
		return err
	}
	return a.DB.SaveReservation(ctx, r)
}

func TestUpdateKeepsConcurrentStatusChange(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	r := f.create(t, "r1", "2024-01-10", "2024-01-12")
	require.Equal(t, models.StatusReserved, r.Status)

	svc := NewReservationService(f.db, advanceOnSave{DB: f.db, to: models.StatusCheckedIn}, f.svc.Calendar, f.svc.Projector)

	paid := 50.0
	got, err := svc.Update(ctx, r.ID, UpdateReservationInput{PaidAmount: &paid})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedIn, got.Status)
	assert.Equal(t, 50.0, got.Totals.PaidAmount)

	stored, err := f.db.FindReservation(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedIn, stored.Status)
}

func TestUpdateRejectsNegativePaidAmount(t *testing.T) {
	f := newReservationFixture(t)
	r := f.create(t, "r1", "2024-01-10", "2024-01-12")

	paid := -5.0
	_, err := f.svc.Update(context.Background(), r.ID, UpdateReservationInput{PaidAmount: &paid})
	require.NotNil(t, IsValidationError(err))
	assert.Equal(t, "paidAmount debe ser al menos 0", err.Error())
}

func TestUpdateRejectsRescheduleOfExtendedStay(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	r := f.create(t, "r1", "2024-01-10", "2024-01-12")
	_, err := f.svc.Extend(ctx, r.ID, ExtendReservationInput{NewCheckOutDate: "2024-01-13"})
	require.NoError(t, err)

	in := "2024-01-09"
	_, err = f.svc.Update(ctx, r.ID, UpdateReservationInput{CheckInDate: &in})
	assert.NotNil(t, IsValidationError(err))
}

func TestDeleteReservation(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	r := f.create(t, "r1", "2024-01-10", "2024-01-12")

	require.NoError(t, f.svc.Delete(ctx, r.ID))
	_, err := f.svc.Get(ctx, r.ID)
	assert.NotNil(t, IsNotFoundError(err))
	assert.NotNil(t, IsNotFoundError(f.svc.Delete(ctx, r.ID)))
}

func TestListReservationsByRange(t *testing.T) {
	f := newReservationFixture(t)
	ctx := context.Background()
	a := f.create(t, "r1", "2024-01-10", "2024-01-12")
	b := f.create(t, "r2", "2024-01-15", "2024-01-18")
	c := f.create(t, "r1", "2024-01-20", "2024-01-22")

	ids := func(rs []models.Reservation) []string {
		out := make([]string, 0, len(rs))
		for _, r := range rs {
			out = append(out, r.ID)
		}
		return out
	}

	tests := []struct {
		name     string
		from, to string
		want     []string
	}{
		{"no bounds", "", "", []string{a.ID, b.ID, c.ID}},
		{"both bounds", "2024-01-12", "2024-01-15", []string{a.ID, b.ID}},
		{"only from", "2024-01-16", "", []string{b.ID, c.ID}},
		{"only to", "", "2024-01-14", []string{a.ID}},
		{"gap", "2024-01-13", "2024-01-14", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.svc.List(ctx, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	_, err := f.svc.List(ctx, "not-a-date", "")
	assert.NotNil(t, IsValidationError(err))
}

func TestCalcAmount(t *testing.T) {
	room := &models.Room{Price: 120}
	zero := 0.0
	rate := 90.0

	assert.Equal(t, 360.0, calcAmount(room, 3, nil))
	assert.Equal(t, 360.0, calcAmount(room, 3, &zero))
	assert.Equal(t, 270.0, calcAmount(room, 3, &rate))
	assert.Equal(t, 0.0, calcAmount(nil, 3, nil))
}
