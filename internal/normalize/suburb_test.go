package normalize_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"fuelfeed/internal/normalize"
)

func TestCapitalizeSuburb(t *testing.T) {
	t.Parallel()

	tests := []struct {
		raw  string
		want string
	}{
		{"PRESTON", "Preston"},
		{"preston", "Preston"},
		{"pascoe vale south", "Pascoe Vale South"},
		{"ST KILDA", "St Kilda"},
		{"SAINT KILDA", "St Kilda"},
		{"MOUNT WAVERLEY", "Mt Waverley"},
		{"MT. ELIZA", "Mt Eliza"},
		{"MCKINNON", "McKinnon"},
		{"O'CONNOR", "O'Connor"},
		// A bare "Mount" is a name, not an abbreviation.
		{"MOUNT", "Mount"},
		{"", ""},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.raw, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, normalize.CapitalizeSuburb(tt.raw))
		})
	}
}
