package interfaces

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// RunSummary captures what one reconciliation run produced, for the
// operator-facing PDF.
type RunSummary struct {
	Start       time.Time
	End         time.Time
	Entities    int
	Days        int
	Tasks       int
	FailedTasks int
	FromCache   bool
	Normalized  bool
	Outputs     []string
}

// WriteRunSummaryPDF renders a minimal PDF summary of the run into dir.
func WriteRunSummaryPDF(dir string, summary RunSummary) (string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Arial", "", 12)
	pdf.AddPage()

	pdf.Cell(0, 8, "Reconciliation Run Summary")
	pdf.Ln(10)
	pdf.SetFont("Arial", "", 10)
	pdf.Cell(0, 6, fmt.Sprintf("Period: %s to %s", summary.Start.Format("2006-01-02"), summary.End.Format("2006-01-02")))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Entities: %d", summary.Entities))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Days covered: %d", summary.Days))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Fetch tasks: %d (failed: %d)", summary.Tasks, summary.FailedTasks))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Data source: %s", sourceLabel(summary.FromCache)))
	pdf.Ln(5)
	pdf.Cell(0, 6, fmt.Sprintf("Capacity normalization: %v", summary.Normalized))
	pdf.Ln(5)
	if summary.FailedTasks > 0 {
		pdf.Cell(0, 6, "Warning: some fetch tasks failed, output may be partial")
		pdf.Ln(5)
	}

	pdf.Ln(4)
	pdf.SetFont("Arial", "B", 10)
	pdf.Cell(0, 6, "Output files")
	pdf.Ln(6)
	pdf.SetFont("Arial", "", 9)
	for _, out := range summary.Outputs {
		pdf.Cell(0, 5, filepath.Base(out))
		pdf.Ln(4)
	}

	dest := filepath.Join(dir, "run_summary.pdf")
	if err := pdf.OutputFileAndClose(dest); err != nil {
		return "", fmt.Errorf("report: save %s: %w", dest, err)
	}
	return dest, nil
}

func sourceLabel(fromCache bool) string {
	if fromCache {
		return "snapshot cache"
	}
	return "remote fetch"
}
