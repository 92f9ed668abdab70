package pdf

import (
	"fmt"
	"io"
	"time"

	"github.com/jung-kurt/gofpdf"

	"pipeline/internal/models"
)

// Generator renders pipeline reports (handy to fake in tests).
type Generator interface {
	WritePipelineReport(w io.Writer, data PipelineReportData) error
}

// ReportGenerator draws reports with gofpdf. With an empty FontPath the core
// Helvetica font is used, which only covers Latin-1 text.
type ReportGenerator struct {
	FontPath string
	fontName string
}

type PipelineReportData struct {
	TenantID    int64
	GeneratedAt time.Time
	From        *time.Time
	To          *time.Time
	Stats       models.DealStats
	Revenue     models.RevenueSummary
	Stages      []models.StageLoad
}

func NewReportGenerator(fontPath string) *ReportGenerator {
	g := &ReportGenerator{FontPath: fontPath, fontName: "Helvetica"}
	if fontPath != "" {
		g.fontName = "DejaVu"
	}
	return g
}

func (g *ReportGenerator) WritePipelineReport(w io.Writer, data PipelineReportData) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(fmt.Sprintf("Pipeline report #%d", data.TenantID), false)
	pdf.SetAuthor("pipeline", false)
	pdf.SetMargins(20, 20, 20)
	pdf.SetAutoPageBreak(true, 20)
	g.addUTF8Font(pdf)
	pdf.AddPage()

	pdf.SetFont(g.fontName, "B", 18)
	pdf.CellFormat(0, 10, "PIPELINE REPORT", "", 1, "C", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 7, periodLabel(data.From, data.To), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Generated "+data.GeneratedAt.Format("02.01.2006 15:04 MST"), "", 1, "C", false, 0, "")
	g.hr(pdf)

	g.sectionTitle(pdf, "Deals")
	g.kvLine(pdf, "Total", fmt.Sprintf("%d", data.Stats.Total))
	g.kvLine(pdf, "Open", fmt.Sprintf("%d", data.Stats.Opportunities))
	g.kvLine(pdf, "Won", fmt.Sprintf("%d", data.Stats.Won))
	g.kvLine(pdf, "Lost", fmt.Sprintf("%d", data.Stats.Lost))
	g.kvLine(pdf, "Conversion", fmt.Sprintf("%.1f%%", data.Stats.ConversionRate))
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Revenue")
	g.kvLine(pdf, "Won", data.Revenue.Won.StringFixed(2))
	g.kvLine(pdf, "Open", data.Revenue.Open.StringFixed(2))
	g.kvLine(pdf, "Lost", data.Revenue.Lost.StringFixed(2))
	g.kvLine(pdf, "Average won", data.Revenue.AverageWon.StringFixed(2))
	pdf.Ln(2)
	g.hr(pdf)

	g.sectionTitle(pdf, "Open pipeline by stage")
	g.stageTable(pdf, data.Stages)

	pdf.AliasNbPages("")
	pdf.SetFooterFunc(func() {
		pdf.SetY(-15)
		pdf.SetFont(g.fontName, "", 9)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})

	if err := pdf.Output(w); err != nil {
		return fmt.Errorf("render pipeline report: %w", err)
	}
	return nil
}

func periodLabel(from, to *time.Time) string {
	const layout = "02.01.2006"
	switch {
	case from != nil && to != nil:
		return from.Format(layout) + " - " + to.Format(layout)
	case from != nil:
		return "since " + from.Format(layout)
	case to != nil:
		return "until " + to.Format(layout)
	}
	return "all time"
}

func (g *ReportGenerator) stageTable(pdf *gofpdf.Fpdf, stages []models.StageLoad) {
	widths := []float64{90, 30, 50}
	pdf.SetFont(g.fontName, "B", 11)
	for i, h := range []string{"Stage", "Deals", "Value"} {
		pdf.CellFormat(widths[i], 7, h, "B", 0, "L", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont(g.fontName, "", 11)
	for _, st := range stages {
		pdf.CellFormat(widths[0], 6, st.Name, "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[1], 6, fmt.Sprintf("%d", st.OpenDeals), "", 0, "L", false, 0, "")
		pdf.CellFormat(widths[2], 6, st.OpenValue.StringFixed(2), "", 1, "L", false, 0, "")
	}
}

func (g *ReportGenerator) sectionTitle(pdf *gofpdf.Fpdf, s string) {
	pdf.SetFont(g.fontName, "B", 12)
	pdf.CellFormat(0, 7, s, "", 1, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
}

func (g *ReportGenerator) kvLine(pdf *gofpdf.Fpdf, key, val string) {
	pdf.SetFont(g.fontName, "B", 11)
	pdf.CellFormat(45, 6, key+":", "", 0, "L", false, 0, "")
	pdf.SetFont(g.fontName, "", 11)
	pdf.CellFormat(0, 6, val, "", 1, "L", false, 0, "")
}

func (g *ReportGenerator) hr(pdf *gofpdf.Fpdf) {
	y := pdf.GetY() + 1.5
	pdf.SetLineWidth(0.2)
	pdf.Line(20, y, 190, y)
	pdf.SetY(y + 2)
}

func (g *ReportGenerator) addUTF8Font(pdf *gofpdf.Fpdf) {
	if g.FontPath == "" {
		return
	}
	pdf.AddUTF8Font(g.fontName, "", g.FontPath)
	pdf.AddUTF8Font(g.fontName, "B", g.FontPath)
}
