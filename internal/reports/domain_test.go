// internal/reports/domain_test.go
package reports

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bibliocore/internal/fault"
)

func TestParseKind(t *testing.T) {
	testCases := []struct {
		input    string
		expected Kind
	}{
		{"prestamos", KindLoans},
		{"Préstamos", KindLoans},
		{"  PRESTAMOS  ", KindLoans},
		{"usuarios activos", KindActiveUsers},
		{"Usuarios   Activos", KindActiveUsers},
		{"USUARIOS ACTIVOS", KindActiveUsers},
		{"libros más prestados", KindTopBorrowed},
		{"Libros Mas Prestados", KindTopBorrowed},
		{"multas", KindPenalties},
		{"MULTAS", KindPenalties},
		{"devoluciones", KindReturns},
		{"Devoluciónes", KindReturns},
	}
	for _, tt := range testCases {
		kind, err := ParseKind(tt.input)
		require.NoError(t, err, "input %q", tt.input)
		assert.Equal(t, tt.expected, kind, "input %q", tt.input)
	}
}

func TestParseKindRejectsUnknown(t *testing.T) {
	for _, input := range []string{"", "inventario", "loans", "prestamos activos"} {
		_, err := ParseKind(input)
		require.Error(t, err, "input %q", input)
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	}
}

func TestReportValidate(t *testing.T) {
	t.Run("generated report may omit content", func(t *testing.T) {
		r := &Report{OwnerID: 1, Kind: KindPenalties}
		assert.NoError(t, r.Validate(false))
	})

	t.Run("manual report requires content", func(t *testing.T) {
		r := &Report{OwnerID: 1, Kind: KindPenalties, Content: "   "}
		err := r.Validate(true)
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	})

	t.Run("owner must be positive", func(t *testing.T) {
		r := &Report{OwnerID: 0, Kind: KindLoans, Content: "x"}
		err := r.Validate(true)
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	})

	t.Run("kind must be recognized", func(t *testing.T) {
		r := &Report{OwnerID: 1, Kind: Kind("inventario"), Content: "x"}
		err := r.Validate(false)
		assert.Equal(t, fault.KindValidation, fault.KindOf(err))
	})
}
