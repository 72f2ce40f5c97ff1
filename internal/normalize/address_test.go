package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fuelfeed/internal/normalize"
)

func TestParseAddress(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
		want normalize.ParsedAddress
	}{
		{
			name: "state and postcode in tail",
			raw:  "12 High St, Preston VIC 3072",
			want: normalize.ParsedAddress{Street: "12 High St", Suburb: "Preston", Region: "VIC", Postcode: "3072"},
		},
		{
			name: "postcode only falls back to default region",
			raw:  "5 Low Rd, 3056",
			want: normalize.ParsedAddress{Street: "5 Low Rd", Region: "VIC", Postcode: "3056"},
		},
		{
			name: "suburb in its own segment",
			raw:  "1 Main St, Brunswick, VIC 3056",
			want: normalize.ParsedAddress{Street: "1 Main St", Suburb: "Brunswick", Region: "VIC", Postcode: "3056"},
		},
		{
			name: "lowercase state is recognized",
			raw:  "88 Bell St, coburg vic 3058",
			want: normalize.ParsedAddress{Street: "88 Bell St", Suburb: "Coburg", Region: "VIC", Postcode: "3058"},
		},
		{
			name: "interstate address keeps its own state",
			raw:  "2 George St, Sydney NSW 2000",
			want: normalize.ParsedAddress{Street: "2 George St", Suburb: "Sydney", Region: "NSW", Postcode: "2000"},
		},
		{
			name: "no tail at all",
			raw:  "7 Nowhere Lane",
			want: normalize.ParsedAddress{Street: "7 Nowhere Lane", Region: "VIC"},
		},
		{
			name: "messy whitespace",
			raw:  "  12  High   St ,  Preston   VIC  3072 ",
			want: normalize.ParsedAddress{Street: "12 High St", Suburb: "Preston", Region: "VIC", Postcode: "3072"},
		},
		{
			name: "saint abbreviation in suburb",
			raw:  "3 Beach Rd, St Kilda VIC 3182",
			want: normalize.ParsedAddress{Street: "3 Beach Rd", Suburb: "St Kilda", Region: "VIC", Postcode: "3182"},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := normalize.ParseAddress(tt.raw, "vic")
			require.Equal(t, tt.want, got)
		})
	}
}
