package report

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/yourusername/selftest-api/internal/catalog"
	"github.com/yourusername/selftest-api/internal/domain/entity"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

const testCatalog = `
test_type: general
title: Test
categories:
  - name: Affection
    items: [Hugs, Kisses, Cuddling, Massage]
  - name: Talk
    items: [Praise, Teasing]
  - name: Dates
    items: [Dinner, Walks, Movies]
`

func newTestCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	c, err := catalog.Parse([]byte(testCatalog))
	require.NoError(t, err)
	return c
}

func TestBuild_RadarUsesCatalogItemCount(t *testing.T) {
	c := newTestCatalog(t)
	ratings := entity.Ratings{
		"Affection-Hugs":   entity.RatingSSS, // 6
		"Affection-Kisses": entity.RatingS,   // 4
		"Talk-Praise":      entity.RatingW,   // 1
		"Talk-Teasing":     entity.RatingQ,   // 3
	}

	rep := Build(c, ratings)

	require.Len(t, rep.Radar, 3)
	assert.Equal(t, "Affection", rep.Radar[0].Category)
	assert.InDelta(t, 10.0/4.0, rep.Radar[0].Value, 1e-9)
	assert.Equal(t, "Talk", rep.Radar[1].Category)
	assert.InDelta(t, 2.0, rep.Radar[1].Value, 1e-9)
	assert.Equal(t, "Dates", rep.Radar[2].Category)
	assert.Zero(t, rep.Radar[2].Value)
}

func TestBuild_BarsDistributionHighlights(t *testing.T) {
	c := newTestCatalog(t)
	ratings := entity.Ratings{
		"Affection-Hugs":    entity.RatingSSS,
		"Affection-Massage": entity.RatingSSS,
		"Dates-Walks":       entity.RatingN,
	}

	rep := Build(c, ratings)

	require.Len(t, rep.Bars, 3)
	assert.Equal(t, []BarItem{
		{Item: "Hugs", Level: entity.RatingSSS, Score: 6},
		{Item: "Kisses", Score: 0},
		{Item: "Cuddling", Score: 0},
		{Item: "Massage", Level: entity.RatingSSS, Score: 6},
	}, rep.Bars[0].Items)

	require.Len(t, rep.Distribution, len(entity.RatingLevels))
	assert.Equal(t, LevelCount{Level: entity.RatingSSS, Count: 2}, rep.Distribution[0])
	assert.Equal(t, LevelCount{Level: entity.RatingN, Count: 1}, rep.Distribution[4])

	assert.Equal(t, []Highlight{
		{Category: "Affection", Item: "Hugs"},
		{Category: "Affection", Item: "Massage"},
	}, rep.Highlights)

	assert.Equal(t, 3, rep.Rated)
	assert.Equal(t, 9, rep.Total)
	assert.InDelta(t, 3.0/9.0, rep.Completion, 1e-9)
}

func TestBuild_EmptyRatings(t *testing.T) {
	rep := Build(newTestCatalog(t), entity.Ratings{})

	for _, p := range rep.Radar {
		assert.Zero(t, p.Value)
	}
	assert.Empty(t, rep.Highlights)
	assert.Zero(t, rep.Completion)
	assert.Equal(t, map[string]float64{"Affection": 0, "Talk": 0, "Dates": 0}, rep.CategoryScores())
}

func TestBuild_Deterministic(t *testing.T) {
	c := newTestCatalog(t)
	ratings := entity.Ratings{"Affection-Hugs": entity.RatingSS, "Talk-Praise": entity.RatingS}
	assert.Equal(t, Build(c, ratings), Build(c, ratings))
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
		err  bool
	}{
		{"", FormatPDF, false},
		{"PDF", FormatPDF, false},
		{"xlsx", FormatXLSX, false},
		{" csv ", FormatCSV, false},
		{"json", FormatJSON, false},
		{"png", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, apperrors.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func testDocument(t *testing.T) Document {
	c := newTestCatalog(t)
	ratings := entity.Ratings{"Affection-Hugs": entity.RatingSSS, "Talk-Teasing": entity.RatingQ}
	return Document{
		RecordID:  42,
		Nickname:  "=cmd",
		TestType:  entity.TestTypeGeneral,
		CreatedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Report:    Build(c, ratings),
	}
}

func TestDocumentFilename(t *testing.T) {
	assert.Equal(t, "selftest_general_42_2024-05-01", testDocument(t).Filename())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testDocument(t)))

	data := buf.Bytes()
	require.True(t, bytes.HasPrefix(data, []byte{0xEF, 0xBB, 0xBF}))

	rows, err := csv.NewReader(bytes.NewReader(data[3:])).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 10)
	assert.Equal(t, []string{"category", "item", "rating", "score"}, rows[0])
	assert.Equal(t, []string{"Affection", "Hugs", "SSS", "6"}, rows[1])
	assert.Equal(t, []string{"Talk", "Teasing", "Q", "3"}, rows[6])
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, testDocument(t)))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	category, err := f.GetCellValue("Summary", "A2")
	require.NoError(t, err)
	assert.Equal(t, "Affection", category)

	nickname, err := f.GetCellValue("Summary", "E1")
	require.NoError(t, err)
	assert.Equal(t, "'=cmd", nickname)

	item, err := f.GetCellValue("Items", "B2")
	require.NoError(t, err)
	assert.Equal(t, "Hugs", item)
}

func TestWritePDF(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WritePDF(&buf, testDocument(t)))
	assert.True(t, strings.HasPrefix(buf.String(), "%PDF-"))
}

func TestWrite_RejectsJSON(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, Write(&buf, FormatJSON, testDocument(t)), apperrors.ErrValidation)
}

func TestSanitizeCell(t *testing.T) {
	assert.Equal(t, "'=SUM(A1)", SanitizeCell("=SUM(A1)"))
	assert.Equal(t, "'+1", SanitizeCell("+1"))
	assert.Equal(t, "'@x", SanitizeCell("@x"))
	assert.Equal(t, "plain", SanitizeCell("plain"))
	assert.Equal(t, "", SanitizeCell(""))
}

func TestDispositionFor(t *testing.T) {
	iphone := "Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15 Mobile/15E148 Safari/604.1"
	desktop := "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 Chrome/120.0.0.0 Safari/537.36"

	assert.Equal(t, DispositionInline, DispositionFor(iphone, ""))
	assert.Equal(t, DispositionAttachment, DispositionFor(desktop, ""))
	assert.Equal(t, DispositionAttachment, DispositionFor(iphone, "attachment"))
	assert.Equal(t, DispositionInline, DispositionFor(desktop, "INLINE"))
	assert.Equal(t, DispositionAttachment, DispositionFor("", "bogus"))
}
