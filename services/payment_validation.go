package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"hostal-backend/models"
)

var yapePhonePattern = regexp.MustCompile(`^9\d{8}$`)

// ValidatePayment checks the method and its method-specific fields. A nil
// payment passes only when allowEmpty is set.
func ValidatePayment(p *models.Payment, allowEmpty bool) error {
	if p == nil {
		if allowEmpty {
			return nil
		}
		return newValidationError("Falta pago")
	}
	method := models.PaymentMethod(strings.TrimSpace(string(p.Method)))
	if method == "" {
		return newValidationError("Método de pago requerido")
	}

	switch method {
	case models.PaymentPOS:
		if !truthy(p.Data["voucher"]) {
			return newValidationError("Falta voucher POS")
		}
	case models.PaymentPagoEfectivo:
		if !truthy(p.Data["cip"]) {
			return newValidationError("Falta CIP de PagoEfectivo")
		}
	case models.PaymentYape:
		phone, ok := p.Data["phone"]
		if !truthy(phone) {
			return newValidationError("Falta teléfono de Yape")
		}
		if ok && !yapePhonePattern.MatchString(scalarString(phone)) {
			return newValidationError("Teléfono Yape inválido (9 dígitos, inicia con 9)")
		}
	case models.PaymentCredito:
		if !truthy(p.Data["plazoDias"]) {
			return newValidationError("Falta plazo de crédito (días)")
		}
	default:
		return newValidationError("Método de pago inválido")
	}
	return nil
}

// truthy treats missing, empty, zero and false values as absent.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case string:
		return strings.TrimSpace(x) != ""
	case bool:
		return x
	case float64:
		return x != 0
	case float32:
		return x != 0
	case int:
		return x != 0
	case int32:
		return x != 0
	case int64:
		return x != 0
	default:
		return true
	}
}

// scalarString renders JSON numbers without an exponent so 987654321 stays
// "987654321".
func scalarString(v any) string {
	switch x := v.(type) {
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32)
	default:
		return fmt.Sprint(x)
	}
}
