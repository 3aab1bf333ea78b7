// Package reportsvc renders progress reports as PDF documents.
package reportsvc

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/arnalearn/arna/core/progress"
)

var teamColumns = []struct {
	title string
	width float64
}{
	{"Learner", 50},
	{"Email", 60},
	{"Completed", 25},
	{"Active", 20},
	{"Average", 25},
}

type PDFRenderer struct {
	appName string
	nowFunc func() time.Time
}

func NewPDFRenderer(appName string) *PDFRenderer {
	return &PDFRenderer{appName: appName, nowFunc: time.Now}
}

// TeamReport writes a one-table PDF summarizing the reports of a manager's team.
func (r *PDFRenderer) TeamReport(w io.Writer, manager string, reports []progress.UserReport) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(r.appName+" team progress", true)
	pdf.SetAuthor(r.appName, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, "Team progress: "+manager, "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, "Generated "+r.nowFunc().UTC().Format("2006-01-02 15:04 MST"), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(230, 230, 230)
	for _, col := range teamColumns {
		pdf.CellFormat(col.width, 8, col.title, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 10)
	if len(reports) == 0 {
		pdf.CellFormat(0, 8, "No learners on this team yet.", "1", 1, "C", false, 0, "")
	}
	for _, rep := range reports {
		cells := []string{
			rep.User.Username,
			rep.User.Email,
			fmt.Sprintf("%d", rep.CompletedAssignments),
			fmt.Sprintf("%d", rep.TotalAssignments),
			fmt.Sprintf("%.1f", rep.AverageScore),
		}
		for i, col := range teamColumns {
			align := "L"
			if i > 1 {
				align = "R"
			}
			pdf.CellFormat(col.width, 7, cells[i], "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}
