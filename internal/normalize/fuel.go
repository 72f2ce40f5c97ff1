package normalize

import (
	"strings"

	"fuelfeed/internal/provider"
)

// fuelCodes maps short provider fuel codes to the canonical enum. Unknown
// codes resolve to FuelUnknown; the owning station record stays valid.
var fuelCodes = map[string]provider.FuelType{
	"U91":    provider.FuelUnleaded,
	"ULP":    provider.FuelUnleaded,
	"91":     provider.FuelUnleaded,
	"P95":    provider.FuelUnleaded95,
	"PULP95": provider.FuelUnleaded95,
	"95":     provider.FuelUnleaded95,
	"P98":    provider.FuelPremiumUnleaded,
	"PULP":   provider.FuelPremiumUnleaded,
	"98":     provider.FuelPremiumUnleaded,
	"DL":     provider.FuelDiesel,
	"DSL":    provider.FuelDiesel,
	"PDL":    provider.FuelDiesel,
	"DIESEL": provider.FuelDiesel,
	"E10":    provider.FuelE10,
	"E85":    provider.FuelE85,
	"LPG":    provider.FuelLPG,
}

// MapFuelType resolves a provider fuel code to the canonical fuel type.
func MapFuelType(code string) provider.FuelType {
	if ft, ok := fuelCodes[strings.ToUpper(strings.TrimSpace(code))]; ok {
		return ft
	}
	return provider.FuelUnknown
}
