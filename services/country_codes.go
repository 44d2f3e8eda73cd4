package services

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var iso3ByCountry = map[string]string{
	// América
	"Peru": "PER", "Argentina": "ARG", "Bolivia": "BOL", "Brazil": "BRA", "Chile": "CHL", "Colombia": "COL",
	"Ecuador": "ECU", "Paraguay": "PRY", "Uruguay": "URY", "Venezuela": "VEN", "Mexico": "MEX",
	"Guatemala": "GTM", "Honduras": "HND", "El Salvador": "SLV", "Nicaragua": "NIC", "Costa Rica": "CRI",
	"Panama": "PAN", "Cuba": "CUB", "Dominican Republic": "DOM", "Haiti": "HTI", "United States": "USA", "Canada": "CAN",
	// Europa
	"Spain": "ESP", "Portugal": "PRT", "France": "FRA", "Germany": "DEU", "Italy": "ITA", "United Kingdom": "GBR",
	"Ireland": "IRL", "Netherlands": "NLD", "Belgium": "BEL", "Switzerland": "CHE", "Austria": "AUT",
	"Poland": "POL", "Czech Republic": "CZE", "Romania": "ROU", "Hungary": "HUN", "Greece": "GRC",
	"Sweden": "SWE", "Norway": "NOR", "Finland": "FIN", "Denmark": "DNK", "Ukraine": "UKR",
	// África
	"South Africa": "ZAF", "Morocco": "MAR", "Egypt": "EGY", "Algeria": "DZA", "Tunisia": "TUN",
	"Senegal": "SEN", "Ghana": "GHA", "Kenya": "KEN", "Nigeria": "NGA", "Ethiopia": "ETH",
	// Asia
	"China": "CHN", "Japan": "JPN", "South Korea": "KOR", "Korea, South": "KOR", "India": "IND",
	"Indonesia": "IDN", "Malaysia": "MYS", "Singapore": "SGP", "Thailand": "THA", "Philippines": "PHL",
	"United Arab Emirates": "ARE", "Saudi Arabia": "SAU", "Qatar": "QAT", "Kuwait": "KWT", "Turkey": "TUR",
	// Oceanía
	"Australia": "AUS", "New Zealand": "NZL",
	// alias
	"Vatican City": "VAT", "Russia": "RUS", "Taiwan": "TWN", "Korea, North": "PRK",
	"Congo, Democratic Republic of the": "COD", "Congo, Republic of the": "COG",
	"Cote d'Ivoire": "CIV", "North Macedonia": "MKD", "Eswatini": "SWZ",
	// nombres en español que llegan desde recepción
	"Perú": "PER", "Brasil": "BRA", "México": "MEX", "Panamá": "PAN", "Haití": "HTI",
	"Estados Unidos": "USA", "Canadá": "CAN", "España": "ESP", "Francia": "FRA", "Alemania": "DEU",
	"Italia": "ITA", "Reino Unido": "GBR", "Irlanda": "IRL", "Países Bajos": "NLD", "Bélgica": "BEL",
	"Suiza": "CHE", "Polonia": "POL", "Grecia": "GRC", "Suecia": "SWE", "Noruega": "NOR",
	"Finlandia": "FIN", "Dinamarca": "DNK", "Ucrania": "UKR", "Sudáfrica": "ZAF", "Marruecos": "MAR",
	"Egipto": "EGY", "Japón": "JPN", "Corea del Sur": "KOR", "Tailandia": "THA", "Filipinas": "PHL",
	"Emiratos Árabes Unidos": "ARE", "Arabia Saudita": "SAU", "Turquía": "TUR", "Rusia": "RUS",
	"Nueva Zelanda": "NZL", "República Dominicana": "DOM",
}

// foldedISO3 is iso3ByCountry keyed by the folded spelling, built once.
var foldedISO3 = func() map[string]string {
	m := make(map[string]string, len(iso3ByCountry))
	for name, code := range iso3ByCountry {
		m[foldName(name)] = code
	}
	return m
}()

// foldName upper-cases and strips diacritics: "Perú " -> "PERU".
func foldName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		out = strings.TrimSpace(s)
	}
	return strings.ToUpper(out)
}

// CountryToISO3 resolves a free-text nationality to an ISO 3166-1 alpha-3
// code. Unknown names return "" and are never guessed.
func CountryToISO3(raw string) string {
	name := strings.TrimSpace(raw)
	if name == "" {
		return ""
	}
	if code, ok := iso3ByCountry[name]; ok {
		return code
	}
	up := foldName(name)
	if code, ok := foldedISO3[up]; ok {
		return code
	}

	words := strings.FieldsFunc(up, func(r rune) bool { return !unicode.IsLetter(r) })
	switch {
	case strings.Contains(up, "UNITED STATES"):
		return "USA"
	case up == "UAE" || strings.Contains(up, "EMIRATES"):
		return "ARE"
	case hasWord(words, "UK"):
		return "GBR"
	case strings.Contains(up, "REPUBLIC") && strings.Contains(up, "DOMINIC"):
		return "DOM"
	}
	return ""
}

func hasWord(words []string, w string) bool {
	for _, x := range words {
		if x == w {
			return true
		}
	}
	return false
}
