package service

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
	"github.com/yourusername/selftest-api/internal/report"
)

var submissionColumns = []string{
	"id", "created_at", "nickname", "user_id", "test_type", "rated",
	"country", "city", "device_type", "browser", "os", "ip_address", "scores",
}

// ExportSubmissions выгружает все записи, подходящие под фильтр, в CSV или XLSX
func (s *DashboardService) ExportSubmissions(ctx context.Context, w io.Writer, filter repository.RecordFilter, format report.Format) error {
	if format != report.FormatCSV && format != report.FormatXLSX {
		return fmt.Errorf("%w: submissions export supports csv and xlsx", apperrors.ErrValidation)
	}
	if filter.TestType != "" && !filter.TestType.IsValid() {
		return fmt.Errorf("%w: unknown test type %q", apperrors.ErrValidation, filter.TestType)
	}
	records, err := s.recordRepo.ListAll(ctx, filter)
	if err != nil {
		return fmt.Errorf("export submissions: %w", err)
	}
	subs, err := s.joinSubmissions(ctx, records)
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(subs))
	for _, sub := range subs {
		rows = append(rows, submissionRow(sub))
	}
	if format == report.FormatXLSX {
		return writeSubmissionsXLSX(w, rows)
	}
	return writeSubmissionsCSV(w, rows)
}

func submissionRow(sub Submission) []string {
	return []string{
		strconv.FormatUint(uint64(sub.ID), 10),
		sub.CreatedAt.Format(time.RFC3339),
		report.SanitizeCell(sub.Nickname),
		sub.UserID,
		string(sub.TestType),
		strconv.Itoa(len(sub.Ratings)),
		report.SanitizeCell(sub.Country),
		report.SanitizeCell(sub.City),
		sub.DeviceType,
		report.SanitizeCell(sub.Browser),
		report.SanitizeCell(sub.OS),
		sub.IPAddress,
		report.SanitizeCell(formatScores(sub.Scores)),
	}
}

// formatScores записывает средние по категориям строкой "категория: 4.5; ..."
func formatScores(scores map[string]float64) string {
	names := make([]string, 0, len(scores))
	for name := range scores {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s: %s", name, strconv.FormatFloat(math.Round(scores[name]*100)/100, 'f', -1, 64)))
	}
	return strings.Join(parts, "; ")
}

func writeSubmissionsCSV(w io.Writer, rows [][]string) error {
	if _, err := w.Write([]byte{0xEF, 0xBB, 0xBF}); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(submissionColumns); err != nil {
		return err
	}
	if err := cw.WriteAll(rows); err != nil {
		return err
	}
	return cw.Error()
}

func writeSubmissionsXLSX(w io.Writer, rows [][]string) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Submissions"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("create stream writer: %w", err)
	}
	header := make([]interface{}, len(submissionColumns))
	for i, c := range submissionColumns {
		header[i] = c
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}
	for i, row := range rows {
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := sw.SetRow(fmt.Sprintf("A%d", i+2), values); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush stream writer: %w", err)
	}
	return f.Write(w)
}
