// File: internal/geo/countries.go
package geo

// countryNames maps ISO 3166-1 alpha-2 codes to display names for the
// countries that dominate exit-node datasets. Reports show these instead
// of raw codes.
var countryNames = map[string]string{
	"US": "United States",
	"GB": "United Kingdom",
	"DE": "Germany",
	"FR": "France",
	"NL": "Netherlands",
	"CA": "Canada",
	"AU": "Australia",
	"JP": "Japan",
	"CN": "China",
	"IN": "India",
	"BR": "Brazil",
	"RU": "Russia",
	"ES": "Spain",
	"IT": "Italy",
	"SE": "Sweden",
	"NO": "Norway",
	"FI": "Finland",
	"DK": "Denmark",
	"PL": "Poland",
	"CH": "Switzerland",
	"AT": "Austria",
	"BE": "Belgium",
	"IE": "Ireland",
	"SG": "Singapore",
	"HK": "Hong Kong",
	"KR": "South Korea",
	"TW": "Taiwan",
	"MX": "Mexico",
	"AR": "Argentina",
	"ZA": "South Africa",
}

// CountryName resolves a country code to its display name. Codes outside
// the table come back unchanged, so callers can render whatever the
// provider reported.
func CountryName(code string) string {
	if name, ok := countryNames[code]; ok {
		return name
	}
	return code
}
