package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fuelfeed/internal/normalize"
	"fuelfeed/internal/provider"
)

func TestMapFuelType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		code string
		want provider.FuelType
	}{
		{"U91", provider.FuelUnleaded},
		{"u91", provider.FuelUnleaded},
		{" ULP ", provider.FuelUnleaded},
		{"P95", provider.FuelUnleaded95},
		{"P98", provider.FuelPremiumUnleaded},
		{"PULP", provider.FuelPremiumUnleaded},
		{"DL", provider.FuelDiesel},
		{"DIESEL", provider.FuelDiesel},
		{"E10", provider.FuelE10},
		{"E85", provider.FuelE85},
		{"LPG", provider.FuelLPG},
		{"B20", provider.FuelUnknown},
		{"", provider.FuelUnknown},
	}

	for _, tt := range tests {
		require.Equal(t, tt.want, normalize.MapFuelType(tt.code), "code %q", tt.code)
	}
}
