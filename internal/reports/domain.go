// internal/reports/domain.go
package reports

import (
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"bibliocore/internal/fault"
)

// Kind is a closed enumeration of report types. Canonical values are
// the accent-free, lowercase forms the back office has always used.
type Kind string

const (
	KindLoans       Kind = "prestamos"
	KindTopBorrowed Kind = "libros mas prestados"
	KindActiveUsers Kind = "usuarios activos"
	KindPenalties   Kind = "multas"
	KindReturns     Kind = "devoluciones"
)

var recognizedKinds = map[Kind]bool{
	KindLoans:       true,
	KindTopBorrowed: true,
	KindActiveUsers: true,
	KindPenalties:   true,
	KindReturns:     true,
}

// ParseKind normalizes free-text input (strip diacritics, lowercase,
// trim, collapse whitespace) and matches it against the enumeration.
// "Préstamos", "  USUARIOS ACTIVOS " and "devoluciones" all resolve.
func ParseKind(raw string) (Kind, error) {
	kind := Kind(normalizeKind(raw))
	if !recognizedKinds[kind] {
		return "", fault.Validation("unrecognized report kind %q", raw)
	}
	return kind, nil
}

var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func normalizeKind(raw string) string {
	stripped, _, err := transform.String(deaccent, raw)
	if err != nil {
		stripped = raw
	}
	return strings.Join(strings.Fields(strings.ToLower(stripped)), " ")
}

// Report is a persisted aggregation (or manually authored summary).
type Report struct {
	ID          int64     `json:"id"`
	OwnerID     int64     `json:"owner_id"`
	Kind        Kind      `json:"kind"`
	Content     string    `json:"content"`
	GeneratedAt time.Time `json:"generated_at"`
}

// Validate applies the shared rule set. Generated reports carry content
// produced by aggregation; only manually authored ones must bring it.
func (r *Report) Validate(manual bool) error {
	if !recognizedKinds[r.Kind] {
		return fault.Validation("unrecognized report kind %q", string(r.Kind))
	}
	if r.OwnerID <= 0 {
		return fault.Validation("report owner id must be positive")
	}
	if manual && strings.TrimSpace(r.Content) == "" {
		return fault.Validation("report content is required")
	}
	return nil
}
