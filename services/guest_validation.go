package services

import (
	"regexp"
	"strings"

	"hostal-backend/models"
)

const DefaultNationality = "Peru"

var (
	dniPattern = regexp.MustCompile(`^\d{8}$`)
	rucPattern = regexp.MustCompile(`^\d{11}$`)
	ceePattern = regexp.MustCompile(`^[A-Za-z0-9\-]{8,}$`)
)

// SanitizeGuest trims every field, upper-cases the document type and fills
// the nationality from fallback (or Peru). Companies without nombres take
// their razón social there.
func SanitizeGuest(g models.Guest, fallbackNationality string) models.Guest {
	out := models.Guest{
		Nombres:         strings.TrimSpace(g.Nombres),
		ApellidoPaterno: strings.TrimSpace(g.ApellidoPaterno),
		ApellidoMaterno: strings.TrimSpace(g.ApellidoMaterno),
		RazonSocial:     strings.TrimSpace(g.RazonSocial),
		Direccion:       strings.TrimSpace(g.Direccion),
		DocType:         strings.ToUpper(strings.TrimSpace(g.DocType)),
		DocNumber:       strings.TrimSpace(g.DocNumber),
		Nationality:     strings.TrimSpace(g.Nationality),
	}
	if out.Nationality == "" {
		out.Nationality = strings.TrimSpace(fallbackNationality)
	}
	if out.Nationality == "" {
		out.Nationality = DefaultNationality
	}
	if out.DocType == models.DocRUC && out.Nombres == "" && out.RazonSocial != "" {
		out.Nombres = out.RazonSocial
	}
	return out
}

// ValidateGuest expects a sanitized guest.
func ValidateGuest(g models.Guest) error {
	if g.DocType == "" || g.DocNumber == "" {
		return newValidationError("Cada huésped requiere docType y docNumber")
	}

	switch g.DocType {
	case models.DocDNI:
		if !dniPattern.MatchString(g.DocNumber) {
			return newValidationError("DNI inválido (8 dígitos)")
		}
	case models.DocRUC:
		if !rucPattern.MatchString(g.DocNumber) {
			return newValidationError("RUC inválido (11 dígitos)")
		}
		if g.RazonSocial == "" {
			return newValidationError("Para RUC, razón social es obligatoria")
		}
		if g.Direccion == "" {
			return newValidationError("Para RUC, dirección es obligatoria")
		}
	case models.DocCEE:
		if !ceePattern.MatchString(g.DocNumber) {
			return newValidationError("CEE inválido")
		}
	default:
		return newValidationError("Tipo de documento inválido: %s", g.DocType)
	}
	return nil
}

// prepareGuests sanitizes and validates the whole list, failing on the first
// bad guest.
func prepareGuests(guests []models.Guest, fallbackNationality string) ([]models.Guest, error) {
	if len(guests) == 0 {
		return nil, newValidationError("Se requiere al menos un huésped")
	}
	out := make([]models.Guest, 0, len(guests))
	for i, g := range guests {
		clean := SanitizeGuest(g, fallbackNationality)
		if err := ValidateGuest(clean); err != nil {
			return nil, newValidationError("Huésped %d: %s", i+1, err.Error())
		}
		out = append(out, clean)
	}
	return out, nil
}
