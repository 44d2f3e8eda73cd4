package services

import (
	"context"
	"sort"
	"strings"

	"hostal-backend/store"
)

type CountryCount struct {
	ID    string `json:"id"`
	Value int    `json:"value"`
}

type GeoPoint struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// ReportService aggregates guest nationalities across every reservation.
type ReportService struct {
	Reservations store.ReservationStore
}

func NewReportService(reservations store.ReservationStore) *ReportService {
	return &ReportService{Reservations: reservations}
}

// GuestsByCountry counts guests per nationality, highest first, ties by name.
func (s *ReportService) GuestsByCountry(ctx context.Context) ([]CountryCount, error) {
	counts, err := s.countNationalities(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]CountryCount, 0, len(counts))
	for name, n := range counts {
		out = append(out, CountryCount{ID: name, Value: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// GuestsGeo is GuestsByCountry keyed by ISO3 code for map rendering.
// Spellings that resolve to the same code are summed under the most
// frequent one; names that cannot be resolved are dropped.
func (s *ReportService) GuestsGeo(ctx context.Context) ([]GeoPoint, error) {
	byCountry, err := s.GuestsByCountry(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]GeoPoint, 0, len(byCountry))
	index := make(map[string]int, len(byCountry))
	// byCountry is sorted by count, so the first spelling seen per code names it
	for _, c := range byCountry {
		code := CountryToISO3(c.ID)
		if code == "" {
			continue
		}
		if i, ok := index[code]; ok {
			out[i].Value += c.Value
			continue
		}
		index[code] = len(out)
		out = append(out, GeoPoint{ID: code, Name: c.ID, Value: c.Value})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *ReportService) countNationalities(ctx context.Context) (map[string]int, error) {
	all, err := s.Reservations.FindReservations(ctx, store.ReservationFilter{})
	if err != nil {
		return nil, persistence("list reservations", err)
	}
	counts := make(map[string]int)
	for _, r := range all {
		for _, g := range r.Guests {
			name := strings.TrimSpace(g.Nationality)
			if name == "" {
				continue
			}
			counts[name]++
		}
	}
	return counts, nil
}
