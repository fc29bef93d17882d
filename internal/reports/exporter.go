// internal/reports/exporter.go
package reports

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"

	"bibliocore/internal/fault"
	"bibliocore/pkg/clock"
)

// Exporter renders a persisted report into a durable artifact under the
// export directory. The directory is threaded in at construction time
// instead of being read from global state.
type Exporter struct {
	repo Repository
	dir  string
	clk  clock.Clock
}

// NewExporter creates a report exporter writing into dir.
func NewExporter(repo Repository, dir string, clk clock.Clock) *Exporter {
	return &Exporter{repo: repo, dir: dir, clk: clk}
}

// Export renders report reportID as a txt or pdf file and returns the
// absolute path. Format checks run before the lookup: an empty format
// and an unsupported one are distinct validation failures, and both are
// reported without touching storage.
func (e *Exporter) Export(ctx context.Context, reportID int64, format string) (string, error) {
	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		return "", fault.Validation("must specify a format")
	}
	if format != "txt" && format != "pdf" {
		return "", fault.Validation("format not permitted")
	}

	report, err := e.repo.Get(ctx, reportID)
	if err != nil {
		if errors.Is(err, ErrReportNotFound) {
			return "", fault.NotFound("report not found")
		}
		return "", fault.Infrastructure("export failed, please retry", fmt.Errorf("load report %d: %w", reportID, err))
	}

	now := e.clk.Now()
	rendered := e.render(report, now)

	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return "", e.exportFault(reportID, fmt.Errorf("create export dir: %w", err))
	}

	name := fmt.Sprintf("report_%d_%s_%s.%s",
		report.ID, now.Format("20060102T150405"), uuid.NewString()[:8], format)
	path := filepath.Join(e.dir, name)

	switch format {
	case "txt":
		err = writeTextAtomically(path, rendered)
	case "pdf":
		err = writePDF(path, rendered)
	}
	if err != nil {
		return "", e.exportFault(reportID, err)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", e.exportFault(reportID, fmt.Errorf("resolve path: %w", err))
	}
	return abs, nil
}

// render produces the fixed artifact template.
func (e *Exporter) render(report *Report, exportedAt time.Time) string {
	var b strings.Builder
	b.WriteString("BIBLIOCORE - INFORME\n")
	fmt.Fprintf(&b, "Generado: %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "Usuario: %d\n", report.OwnerID)
	fmt.Fprintf(&b, "Tipo: %s\n", report.Kind)
	b.WriteString(strings.Repeat("-", 50) + "\n")
	b.WriteString(strings.TrimRight(report.Content, "\n") + "\n")
	b.WriteString(strings.Repeat("-", 50) + "\n")
	fmt.Fprintf(&b, "Exportado: %s\n", exportedAt.Format("2006-01-02 15:04:05"))
	return b.String()
}

func (e *Exporter) exportFault(reportID int64, err error) error {
	log.Printf("export of report %d failed: %v", reportID, err)
	return fault.Infrastructure("export failed, please retry", err)
}

// writeTextAtomically writes content to a sibling temp file and renames
// it into place so a crashed export never leaves a half-written artifact.
func writeTextAtomically(path, content string) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".export-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func writePDF(path, content string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()
	pdf.SetFont("Helvetica", "", 11)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	for _, line := range strings.Split(strings.TrimRight(content, "\n"), "\n") {
		pdf.CellFormat(0, 6, tr(line), "", 1, "L", false, 0, "")
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
