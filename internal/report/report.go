// Package report строит данные диаграмм по карте оценок и выгружает отчет в PDF/XLSX/CSV.
package report

import (
	"github.com/yourusername/selftest-api/internal/catalog"
	"github.com/yourusername/selftest-api/internal/domain/entity"
)

// RadarPoint - средний балл категории (0..6)
type RadarPoint struct {
	Category string  `json:"category"`
	Value    float64 `json:"value"`
}

// BarItem - балл одного пункта категории
type BarItem struct {
	Item  string             `json:"item"`
	Level entity.RatingLevel `json:"level,omitempty"`
	Score int                `json:"score"`
}

// BarSeries - столбчатая диаграмма одной категории
type BarSeries struct {
	Category string    `json:"category"`
	Items    []BarItem `json:"items"`
}

// LevelCount - сколько раз встречается метка
type LevelCount struct {
	Level entity.RatingLevel `json:"level"`
	Count int                `json:"count"`
}

// Highlight - пункт с высшей оценкой
type Highlight struct {
	Category string `json:"category"`
	Item     string `json:"item"`
}

// Report - все данные, которые фронтенд рисует на странице результата
type Report struct {
	TestType     entity.TestType `json:"test_type"`
	Radar        []RadarPoint    `json:"radar"`
	Bars         []BarSeries     `json:"bars"`
	Distribution []LevelCount    `json:"distribution"`
	Highlights   []Highlight     `json:"highlights"`
	Rated        int             `json:"rated"`
	Total        int             `json:"total"`
	Completion   float64         `json:"completion"`
}

// Build переводит карту оценок в данные диаграмм.
// Значение радара - сумма баллов пунктов категории, деленная на число пунктов
// категории в каталоге; пункты без оценки дают 0.
func Build(c *catalog.Catalog, ratings entity.Ratings) Report {
	rep := Report{
		TestType:     c.TestType,
		Radar:        make([]RadarPoint, 0, len(c.Categories)),
		Bars:         make([]BarSeries, 0, len(c.Categories)),
		Distribution: make([]LevelCount, 0, len(entity.RatingLevels)),
		Highlights:   []Highlight{},
	}

	for _, cat := range c.Categories {
		series := BarSeries{Category: cat.Name, Items: make([]BarItem, 0, len(cat.Items))}
		sum := 0
		for _, item := range cat.Items {
			level := ratings.Get(cat.Name, item)
			score := level.Score()
			sum += score
			rep.Total++
			if level.IsValid() {
				rep.Rated++
			}
			if level == entity.RatingSSS {
				rep.Highlights = append(rep.Highlights, Highlight{Category: cat.Name, Item: item})
			}
			series.Items = append(series.Items, BarItem{Item: item, Level: level, Score: score})
		}

		value := 0.0
		if n := c.ItemCount(cat.Name); n > 0 {
			value = float64(sum) / float64(n)
		}
		rep.Radar = append(rep.Radar, RadarPoint{Category: cat.Name, Value: value})
		rep.Bars = append(rep.Bars, series)
	}

	counts := make(map[entity.RatingLevel]int, len(entity.RatingLevels))
	for _, level := range ratings {
		counts[level]++
	}
	for _, level := range entity.RatingLevels {
		rep.Distribution = append(rep.Distribution, LevelCount{Level: level, Count: counts[level]})
	}

	if rep.Total > 0 {
		rep.Completion = float64(rep.Rated) / float64(rep.Total)
	}
	return rep
}

// CategoryScores возвращает средний балл по каждой категории в порядке каталога
func (r Report) CategoryScores() map[string]float64 {
	scores := make(map[string]float64, len(r.Radar))
	for _, p := range r.Radar {
		scores[p.Category] = p.Value
	}
	return scores
}
