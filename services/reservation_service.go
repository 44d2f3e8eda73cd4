package services

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"hostal-backend/models"
	"hostal-backend/store"
)

type CreateReservationInput struct {
	RoomID       string          `json:"room" binding:"required"`
	CheckInDate  string          `json:"checkInDate" binding:"required"`
	CheckOutDate string          `json:"checkOutDate" binding:"required"`
	Guests       []models.Guest  `json:"userData" binding:"required,min=1"`
	Nationality  string          `json:"nationality"`
	Payment      *models.Payment `json:"payment" binding:"required"`
	RateOverride *float64        `json:"rateOverride" binding:"omitempty,gte=0"`
}

// UpdateReservationInput is a partial patch; nil fields are left untouched.
type UpdateReservationInput struct {
	RoomID       *string                   `json:"room"`
	CheckInDate  *string                   `json:"checkInDate"`
	CheckOutDate *string                   `json:"checkOutDate"`
	Guests       *[]models.Guest           `json:"userData" binding:"omitempty,min=1"`
	Nationality  *string                   `json:"nationality"`
	Payment      *models.Payment           `json:"payment"`
	PaidAmount   *float64                  `json:"paidAmount" binding:"omitempty,gte=0"`
	RateOverride *float64                  `json:"rateOverride" binding:"omitempty,gte=0"`
	Status       *models.ReservationStatus `json:"status" binding:"omitempty,oneof=cancelled"`
}

type ExtendReservationInput struct {
	NewCheckOutDate string          `json:"newCheckOutDate" binding:"required"`
	Payment         *models.Payment `json:"payment"`
	RateOverride    *float64        `json:"rateOverride" binding:"omitempty,gte=0"`
}

type AdvanceResult struct {
	CheckedIn  int64 `json:"checkedIn"`
	CheckedOut int64 `json:"checkedOut"`
}

type SweepResult struct {
	AdvanceResult
	RoomsUpdated int `json:"roomsUpdated"`
}

type ReservationService struct {
	Rooms        store.RoomStore
	Reservations store.ReservationStore
	Calendar     *StayCalendar
	Conflicts    *ConflictDetector
	Projector    *RoomStatusProjector

	locks *roomLocks
}

func NewReservationService(
	rooms store.RoomStore,
	reservations store.ReservationStore,
	calendar *StayCalendar,
	projector *RoomStatusProjector,
) *ReservationService {
	return &ReservationService{
		Rooms:        rooms,
		Reservations: reservations,
		Calendar:     calendar,
		Conflicts:    NewConflictDetector(reservations),
		Projector:    projector,
		locks:        newRoomLocks(),
	}
}

// ----------------------------------------------------
// Queries
// ----------------------------------------------------

func (s *ReservationService) Get(ctx context.Context, id string) (*models.Reservation, error) {
	return s.findReservation(ctx, id)
}

// List returns the reservations whose stay touches [from, to]. Either bound
// may be empty; from is taken from the start of its day and to through the
// end of its day.
func (s *ReservationService) List(ctx context.Context, from, to string) ([]models.Reservation, error) {
	var f store.ReservationFilter
	if strings.TrimSpace(from) != "" {
		d, err := s.Calendar.ParseDate(from)
		if err != nil {
			return nil, err
		}
		f.CheckOutAfter = &d
	}
	if strings.TrimSpace(to) != "" {
		d, err := s.Calendar.ParseDate(to)
		if err != nil {
			return nil, err
		}
		_, end := s.Calendar.DayBounds(d)
		f.CheckInBefore = &end
	}

	out, err := s.Reservations.FindReservations(ctx, f)
	if err != nil {
		return nil, persistence("list reservations", err)
	}
	return out, nil
}

// ----------------------------------------------------
// Create
// ----------------------------------------------------

func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*models.Reservation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	roomID := strings.TrimSpace(in.RoomID)
	if roomID == "" {
		return nil, newValidationError("Habitación requerida")
	}

	nationality := strings.TrimSpace(in.Nationality)
	if nationality == "" {
		nationality = DefaultNationality
	}
	guests, err := prepareGuests(in.Guests, nationality)
	if err != nil {
		return nil, err
	}
	if err := ValidatePayment(in.Payment, false); err != nil {
		return nil, err
	}

	start, end, nights, err := s.normalizeStay(in.CheckInDate, in.CheckOutDate)
	if err != nil {
		return nil, err
	}

	room, err := s.findRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}
	if err := checkCapacity(room, len(guests)); err != nil {
		return nil, err
	}

	unlock := s.locks.lock(roomID)
	defer unlock()

	conflict, err := s.Conflicts.HasConflict(ctx, roomID, start, end, "")
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, &ConflictError{Message: msgRoomTaken}
	}

	rsv := &models.Reservation{
		ID:           uuid.NewString(),
		RoomID:       roomID,
		CheckInDate:  start,
		CheckOutDate: end,
		Guests:       guests,
		Nationality:  nationality,
		Payment:      in.Payment.Clone(),
		Status:       models.StatusReserved,
		Extensions:   nil,
		Totals: models.Totals{
			BaseAmount: calcAmount(room, nights, in.RateOverride),
		},
	}
	if err := s.Reservations.CreateReservation(ctx, rsv); err != nil {
		return nil, s.writeError("create reservation", rsv.ID, err, msgRoomTaken)
	}
	log.Printf("✅ reservation %s created: room %d, %d night(s)", rsv.ID, room.Number, nights)

	s.settle(ctx)
	return s.reload(ctx, rsv), nil
}

// ----------------------------------------------------
// Update
// ----------------------------------------------------

func (s *ReservationService) Update(ctx context.Context, id string, in UpdateReservationInput) (*models.Reservation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if in.Payment != nil {
		if err := ValidatePayment(in.Payment, false); err != nil {
			return nil, err
		}
	}

	current, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	roomID := current.RoomID
	if in.RoomID != nil {
		roomID = strings.TrimSpace(*in.RoomID)
		if roomID == "" {
			return nil, newValidationError("Habitación requerida")
		}
	}

	unlock := s.locks.lock(current.RoomID, roomID)
	defer unlock()

	// re-read under the lock; another writer may have moved it meanwhile
	lockedRoom := current.RoomID
	current, err = s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.RoomID != lockedRoom {
		return nil, &ConflictError{Message: "La reserva fue modificada; intente nuevamente"}
	}
	if current.Status == models.StatusCancelled {
		return nil, newValidationError("La reserva está cancelada")
	}
	next := current.Clone()

	reschedule := in.CheckInDate != nil || in.CheckOutDate != nil || roomID != current.RoomID
	if reschedule && len(current.Extensions) > 0 {
		return nil, newValidationError("La reserva tiene extensiones; no se pueden cambiar fechas ni habitación")
	}

	var room *models.Room
	if reschedule || in.Guests != nil || in.RateOverride != nil {
		if room, err = s.findRoom(ctx, roomID); err != nil {
			return nil, err
		}
	}

	if reschedule {
		inRaw := s.dateOf(current.CheckInDate)
		if in.CheckInDate != nil {
			inRaw = *in.CheckInDate
		}
		outRaw := s.dateOf(current.CheckOutDate)
		if in.CheckOutDate != nil {
			outRaw = *in.CheckOutDate
		}
		start, end, nights, err := s.normalizeStay(inRaw, outRaw)
		if err != nil {
			return nil, err
		}
		conflict, err := s.Conflicts.HasConflict(ctx, roomID, start, end, current.ID)
		if err != nil {
			return nil, err
		}
		if conflict {
			return nil, &ConflictError{Message: "Rango de fechas en conflicto para ese cuarto"}
		}
		next.RoomID = roomID
		next.CheckInDate, next.CheckOutDate = start, end
		next.Totals.BaseAmount = calcAmount(room, nights, in.RateOverride)
	} else if in.RateOverride != nil {
		next.Totals.BaseAmount = calcAmount(room, s.Calendar.NightsBetween(next.CheckInDate, next.CheckOutDate), in.RateOverride)
	}

	if in.Nationality != nil {
		next.Nationality = strings.TrimSpace(*in.Nationality)
		if next.Nationality == "" {
			next.Nationality = DefaultNationality
		}
	}
	if in.Guests != nil {
		guests, err := prepareGuests(*in.Guests, next.Nationality)
		if err != nil {
			return nil, err
		}
		next.Guests = guests
	}
	if room != nil {
		if err := checkCapacity(room, len(next.Guests)); err != nil {
			return nil, err
		}
	}
	if in.Payment != nil {
		next.Payment = in.Payment.Clone()
	}
	if in.PaidAmount != nil {
		next.Totals.PaidAmount = *in.PaidAmount
	}
	// SaveReservation keeps the stored status, so a sweep that advanced the
	// stay after our read is not undone. Cancelling is a separate write.
	cancel := in.Status != nil
	if cancel {
		next.Status = models.StatusCancelled
	}

	if err := s.Reservations.SaveReservation(ctx, &next); err != nil {
		return nil, s.writeError("update reservation", id, err, "Rango de fechas en conflicto para ese cuarto")
	}
	if cancel {
		if _, err := s.Reservations.SetReservationStatus(ctx, store.ReservationFilter{
			ID:              id,
			ExcludeStatuses: []models.ReservationStatus{models.StatusCancelled},
		}, models.StatusCancelled); err != nil {
			return nil, persistence("cancel reservation", err)
		}
		log.Printf("🚫 reservation %s cancelled", id)
	}

	s.settle(ctx)
	return s.reload(ctx, &next), nil
}

// ----------------------------------------------------
// Delete
// ----------------------------------------------------

func (s *ReservationService) Delete(ctx context.Context, id string) error {
	current, err := s.findReservation(ctx, id)
	if err != nil {
		return err
	}

	unlock := s.locks.lock(current.RoomID)
	defer unlock()

	if err := s.Reservations.DeleteReservation(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return &NotFoundError{Resource: "Reservación", ID: id}
		}
		return persistence("delete reservation", err)
	}
	log.Printf("🗑️ reservation %s deleted", id)

	s.settle(ctx)
	return nil
}

// ----------------------------------------------------
// Extend
// ----------------------------------------------------

// Extend pushes the checkout to a later date, charging the added nights and
// appending an Extension record.
func (s *ReservationService) Extend(ctx context.Context, id string, in ExtendReservationInput) (*models.Reservation, error) {
	if err := validateInput(in); err != nil {
		return nil, err
	}
	if err := ValidatePayment(in.Payment, true); err != nil {
		return nil, err
	}
	newOut, err := s.Calendar.CheckOut(in.NewCheckOutDate)
	if err != nil {
		return nil, err
	}

	current, err := s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}

	lockedRoom := current.RoomID
	unlock := s.locks.lock(lockedRoom)
	defer unlock()

	current, err = s.findReservation(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.RoomID != lockedRoom {
		return nil, &ConflictError{Message: "La reserva fue modificada; intente nuevamente"}
	}
	if current.Status == models.StatusCancelled {
		return nil, newValidationError("La reserva está cancelada")
	}

	oldOut := current.CheckOutDate
	if !newOut.After(oldOut) {
		return nil, newValidationError("La nueva fecha debe ser posterior al check-out actual")
	}
	conflict, err := s.Conflicts.HasConflict(ctx, current.RoomID, oldOut, newOut, current.ID)
	if err != nil {
		return nil, err
	}
	if conflict {
		return nil, &ConflictError{Message: "El cuarto no está disponible para extender esas fechas"}
	}
	nightsAdded := s.Calendar.NightsBetween(oldOut, newOut)
	if nightsAdded < 1 {
		return nil, newValidationError("La extensión debe sumar al menos 1 noche")
	}

	room, err := s.findRoom(ctx, current.RoomID)
	if err != nil {
		return nil, err
	}
	extra := calcAmount(room, nightsAdded, in.RateOverride)

	ext := models.Extension{
		From:        oldOut,
		To:          newOut,
		NightsAdded: nightsAdded,
		ExtraAmount: extra,
		CreatedAt:   s.Calendar.Now(),
	}
	if in.Payment != nil {
		p := in.Payment.Clone()
		ext.Payment = &p
	}

	next := current.Clone()
	next.Extensions = append(next.Extensions, ext)
	next.CheckOutDate = newOut
	next.Totals.ExtraAmount += extra

	if err := s.Reservations.SaveReservation(ctx, &next); err != nil {
		return nil, s.writeError("extend reservation", id, err, "El cuarto no está disponible para extender esas fechas")
	}
	log.Printf("✅ reservation %s extended by %d night(s)", id, nightsAdded)

	s.settle(ctx)
	return s.reload(ctx, &next), nil
}

// ----------------------------------------------------
// Lifecycle sweep
// ----------------------------------------------------

// AutoAdvance moves reserved stays whose window contains now to checked_in
// and checked_in stays whose checkout has passed to checked_out. Running it
// twice with the same clock changes nothing the second time.
func (s *ReservationService) AutoAdvance(ctx context.Context) (AdvanceResult, error) {
	now := s.Calendar.Now()
	var res AdvanceResult

	n, err := s.Reservations.SetReservationStatus(ctx, store.ReservationFilter{
		Statuses:        []models.ReservationStatus{models.StatusReserved},
		CheckInNotAfter: &now,
		CheckOutAfter:   &now,
	}, models.StatusCheckedIn)
	if err != nil {
		return res, persistence("advance to checked_in", err)
	}
	res.CheckedIn = n

	n, err = s.Reservations.SetReservationStatus(ctx, store.ReservationFilter{
		Statuses:         []models.ReservationStatus{models.StatusCheckedIn},
		CheckOutNotAfter: &now,
	}, models.StatusCheckedOut)
	if err != nil {
		return res, persistence("advance to checked_out", err)
	}
	res.CheckedOut = n

	if res.CheckedIn > 0 || res.CheckedOut > 0 {
		log.Printf("🔄 auto-advance: %d checked in, %d checked out", res.CheckedIn, res.CheckedOut)
	}
	return res, nil
}

// Sweep runs AutoAdvance and then re-projects room status.
func (s *ReservationService) Sweep(ctx context.Context) (SweepResult, error) {
	var out SweepResult
	adv, err := s.AutoAdvance(ctx)
	out.AdvanceResult = adv
	if err != nil {
		return out, err
	}
	if s.Projector == nil {
		return out, nil
	}
	n, err := s.Projector.Project(ctx)
	out.RoomsUpdated = n
	return out, err
}

// settle is the post-commit step of every write. The write already
// succeeded, so failures here are only logged.
func (s *ReservationService) settle(ctx context.Context) {
	if _, err := s.Sweep(ctx); err != nil {
		log.Printf("⚠️ post-write sweep failed: %v", err)
	}
}

// ----------------------------------------------------
// helpers
// ----------------------------------------------------

func (s *ReservationService) normalizeStay(inRaw, outRaw string) (start, end time.Time, nights int, err error) {
	if start, err = s.Calendar.CheckIn(inRaw); err != nil {
		return
	}
	if end, err = s.Calendar.CheckOut(outRaw); err != nil {
		return
	}
	if !end.After(start) {
		err = newValidationError("checkOutDate debe ser posterior a checkInDate")
		return
	}
	start, end = s.Calendar.RollIfPast(start, end)
	if nights = s.Calendar.NightsBetween(start, end); nights < 1 {
		err = newValidationError("La estancia debe ser al menos 1 noche")
	}
	return
}

func (s *ReservationService) dateOf(t time.Time) string {
	return t.In(s.Calendar.Location()).Format("2006-01-02")
}

func (s *ReservationService) findReservation(ctx context.Context, id string) (*models.Reservation, error) {
	r, err := s.Reservations.FindReservation(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "Reservación", ID: id}
		}
		return nil, persistence("find reservation", err)
	}
	return r, nil
}

func (s *ReservationService) findRoom(ctx context.Context, id string) (*models.Room, error) {
	room, err := s.Rooms.FindRoom(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, &NotFoundError{Resource: "Habitación", ID: id}
		}
		return nil, persistence("find room", err)
	}
	return room, nil
}

// reload returns the stored copy after the post-commit sweep, falling back
// to what was written.
func (s *ReservationService) reload(ctx context.Context, written *models.Reservation) *models.Reservation {
	fresh, err := s.Reservations.FindReservation(ctx, written.ID)
	if err != nil {
		return written
	}
	return fresh
}

func (s *ReservationService) writeError(op, id string, err error, conflictMsg string) error {
	switch {
	case errors.Is(err, store.ErrOverlap):
		return &ConflictError{Message: conflictMsg}
	case errors.Is(err, store.ErrNotFound):
		return &NotFoundError{Resource: "Reservación", ID: id}
	default:
		return persistence(op, err)
	}
}

func checkCapacity(room *models.Room, guests int) error {
	if room.Capacity != nil && guests > *room.Capacity {
		return newValidationError("Excede capacidad de la habitación (%d).", *room.Capacity)
	}
	return nil
}

// calcAmount charges nights at the override rate when one is given, else
// at the room's price.
func calcAmount(room *models.Room, nights int, rateOverride *float64) float64 {
	rate := 0.0
	if room != nil {
		rate = room.Price
	}
	if rateOverride != nil && *rateOverride > 0 {
		rate = *rateOverride
	}
	return float64(nights) * rate
}
