package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

// Format - формат выгрузки отчета
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat разбирает формат выгрузки; пустая строка означает PDF
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatPDF, nil
	case FormatPDF, FormatXLSX, FormatCSV, FormatJSON:
		return f, nil
	}
	return "", fmt.Errorf("%w: unsupported export format %q", apperrors.ErrValidation, s)
}

// ContentType возвращает MIME-тип формата
func (f Format) ContentType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatJSON:
		return "application/json; charset=utf-8"
	}
	return "application/octet-stream"
}

// Document - отчет вместе с данными записи для выгрузки
type Document struct {
	RecordID  uint
	Nickname  string
	TestType  entity.TestType
	CreatedAt time.Time
	Report    Report
}

// DocumentFromRecord собирает Document из сохраненной записи и пересчитанного отчета
func DocumentFromRecord(record *entity.TestRecord, rep Report) Document {
	return Document{
		RecordID:  record.ID,
		Nickname:  record.Nickname,
		TestType:  record.TestType,
		CreatedAt: record.CreatedAt,
		Report:    rep,
	}
}

// Filename возвращает имя файла без расширения
func (d Document) Filename() string {
	return fmt.Sprintf("selftest_%s_%d_%s", d.TestType, d.RecordID, d.CreatedAt.Format("2006-01-02"))
}

// Write выгружает документ в выбранном формате (кроме JSON, который отдает обработчик)
func Write(w io.Writer, format Format, doc Document) error {
	switch format {
	case FormatPDF:
		return WritePDF(w, doc)
	case FormatXLSX:
		return WriteXLSX(w, doc)
	case FormatCSV:
		return WriteCSV(w, doc)
	}
	return fmt.Errorf("%w: format %q is not a file export", apperrors.ErrValidation, format)
}

var levelColors = map[entity.RatingLevel][3]int{
	entity.RatingSSS: {214, 39, 40},
	entity.RatingSS:  {255, 127, 14},
	entity.RatingS:   {188, 189, 34},
	entity.RatingQ:   {44, 160, 44},
	entity.RatingN:   {31, 119, 180},
	entity.RatingW:   {127, 127, 127},
}

// WritePDF рисует отчет: заголовок, радар по категориям и столбцы по пунктам
func WritePDF(w io.Writer, doc Document) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.Filename(), true)
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, tr(fmt.Sprintf("Self-test: %s", doc.TestType)), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, tr(doc.Nickname), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 7, fmt.Sprintf("%s  |  %d/%d rated (%.0f%%)",
		doc.CreatedAt.Format("2006-01-02 15:04"), doc.Report.Rated, doc.Report.Total, doc.Report.Completion*100),
		"", 1, "C", false, 0, "")

	drawRadar(pdf, tr, doc.Report.Radar, 105, 95, 50)
	pdf.SetY(160)

	for _, series := range doc.Report.Bars {
		if pdf.GetY() > 265 {
			pdf.AddPage()
		}
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, tr(series.Category), "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, item := range series.Items {
			if pdf.GetY() > 280 {
				pdf.AddPage()
			}
			y := pdf.GetY()
			pdf.CellFormat(70, 6, tr(item.Item), "", 0, "L", false, 0, "")
			if item.Score > 0 {
				c := levelColors[item.Level]
				pdf.SetFillColor(c[0], c[1], c[2])
				pdf.Rect(pdf.GetX(), y+1, float64(item.Score)/entity.MaxRatingScore*90, 4, "F")
			}
			pdf.SetX(175)
			pdf.CellFormat(20, 6, string(item.Level), "", 1, "R", false, 0, "")
		}
		pdf.Ln(2)
	}

	if len(doc.Report.Highlights) > 0 {
		if pdf.GetY() > 250 {
			pdf.AddPage()
		}
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 8, "SSS", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 9)
		for _, h := range doc.Report.Highlights {
			pdf.CellFormat(0, 5, tr(h.Category+": "+h.Item), "", 1, "L", false, 0, "")
		}
	}

	if err := pdf.Error(); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return pdf.Output(w)
}

func drawRadar(pdf *fpdf.Fpdf, tr func(string) string, points []RadarPoint, cx, cy, radius float64) {
	n := len(points)
	if n < 3 {
		return
	}
	angle := func(i int) float64 {
		return -math.Pi/2 + 2*math.Pi*float64(i)/float64(n)
	}

	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.2)
	for ring := 1; ring <= entity.MaxRatingScore; ring++ {
		r := radius * float64(ring) / entity.MaxRatingScore
		grid := make([]fpdf.PointType, 0, n)
		for i := 0; i < n; i++ {
			grid = append(grid, fpdf.PointType{X: cx + r*math.Cos(angle(i)), Y: cy + r*math.Sin(angle(i))})
		}
		pdf.Polygon(grid, "D")
	}

	shape := make([]fpdf.PointType, 0, n)
	pdf.SetFont("Helvetica", "", 8)
	for i, p := range points {
		a := angle(i)
		pdf.Line(cx, cy, cx+radius*math.Cos(a), cy+radius*math.Sin(a))
		r := radius * p.Value / entity.MaxRatingScore
		shape = append(shape, fpdf.PointType{X: cx + r*math.Cos(a), Y: cy + r*math.Sin(a)})

		label := tr(fmt.Sprintf("%s %.1f", p.Category, p.Value))
		lx := cx + (radius+6)*math.Cos(a) - pdf.GetStringWidth(label)/2
		ly := cy + (radius+6)*math.Sin(a) + 1
		pdf.Text(lx, ly, label)
	}

	pdf.SetDrawColor(214, 39, 40)
	pdf.SetFillColor(214, 39, 40)
	pdf.SetLineWidth(0.6)
	pdf.SetAlpha(0.35, "Normal")
	pdf.Polygon(shape, "FD")
	pdf.SetAlpha(1, "Normal")
	pdf.SetLineWidth(0.2)
	pdf.SetDrawColor(0, 0, 0)
}

// WriteXLSX выгружает отчет в Excel: лист сводки с радарной диаграммой и лист пунктов
func WriteXLSX(w io.Writer, doc Document) error {
	f := excelize.NewFile()
	defer f.Close()

	const summary = "Summary"
	const items = "Items"
	if err := f.SetSheetName("Sheet1", summary); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(summary, "A1", &[]interface{}{"Category", "Average"}); err != nil {
		return err
	}
	for i, p := range doc.Report.Radar {
		cell := fmt.Sprintf("A%d", i+2)
		if err := f.SetSheetRow(summary, cell, &[]interface{}{SanitizeCell(p.Category), round2(p.Value)}); err != nil {
			return err
		}
	}
	meta := [][]interface{}{
		{"Nickname", SanitizeCell(doc.Nickname)},
		{"Test", string(doc.TestType)},
		{"Created", doc.CreatedAt.Format(time.RFC3339)},
		{"Completion", round2(doc.Report.Completion)},
	}
	for i, row := range meta {
		row := row
		if err := f.SetSheetRow(summary, fmt.Sprintf("D%d", i+1), &row); err != nil {
			return err
		}
	}

	if n := len(doc.Report.Radar); n >= 3 {
		last := n + 1
		err := f.AddChart(summary, "D7", &excelize.Chart{
			Type: excelize.Radar,
			Series: []excelize.ChartSeries{{
				Name:       summary + "!$B$1",
				Categories: fmt.Sprintf("%s!$A$2:$A$%d", summary, last),
				Values:     fmt.Sprintf("%s!$B$2:$B$%d", summary, last),
			}},
		})
		if err != nil {
			return fmt.Errorf("add radar chart: %w", err)
		}
	}

	if _, err := f.NewSheet(items); err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(items)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}
	if err := sw.SetRow("A1", []interface{}{"Category", "Item", "Rating", "Score"}); err != nil {
		return err
	}
	row := 2
	for _, series := range doc.Report.Bars {
		for _, item := range series.Items {
			values := []interface{}{SanitizeCell(series.Category), SanitizeCell(item.Item), string(item.Level), item.Score}
			if err := sw.SetRow(fmt.Sprintf("A%d", row), values); err != nil {
				return err
			}
			row++
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush stream writer: %w", err)
	}

	return f.Write(w)
}

// WriteCSV выгружает пункты отчета в CSV с BOM для Excel
func WriteCSV(w io.Writer, doc Document) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"category", "item", "rating", "score"}); err != nil {
		return err
	}
	for _, series := range doc.Report.Bars {
		for _, item := range series.Items {
			record := []string{
				SanitizeCell(series.Category),
				SanitizeCell(item.Item),
				string(item.Level),
				strconv.Itoa(item.Score),
			}
			if err := cw.Write(record); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

// SanitizeCell экранирует данные для защиты от formula injection в Excel/CSV
func SanitizeCell(s string) string {
	if len(s) == 0 {
		return s
	}
	// Символы, начинающие формулу в Excel/LibreOffice: = + - @ \t \r
	if s[0] == '=' || s[0] == '+' || s[0] == '-' || s[0] == '@' || s[0] == '\t' || s[0] == '\r' {
		return "'" + s
	}
	return s
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
