package helper

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/selftest-api/internal/domain/entity"
	"github.com/yourusername/selftest-api/internal/domain/repository"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

// ConvertRatings переводит карту оценок из JSON запроса в entity.Ratings.
// Метки принимаются без учета регистра и пробелов.
func ConvertRatings(raw map[string]string) (entity.Ratings, error) {
	ratings := make(entity.Ratings, len(raw))
	for key, value := range raw {
		level, err := entity.ParseRatingLevel(strings.ToUpper(strings.TrimSpace(value)))
		if err != nil {
			return nil, fmt.Errorf("%w: %q: %v", apperrors.ErrValidation, key, err)
		}
		ratings[key] = level
	}
	return ratings, nil
}

// ParseRecordFilter читает фильтры списка записей из query:
// test_type, nickname, country, from, to (RFC3339 или YYYY-MM-DD)
func ParseRecordFilter(c *gin.Context) (repository.RecordFilter, error) {
	filter := repository.RecordFilter{
		Nickname: strings.TrimSpace(c.Query("nickname")),
		Country:  strings.ToUpper(strings.TrimSpace(c.Query("country"))),
	}
	if v := c.Query("test_type"); v != "" {
		testType, err := entity.ParseTestType(v)
		if err != nil {
			return filter, fmt.Errorf("%w: %v", apperrors.ErrValidation, err)
		}
		filter.TestType = testType
	}

	from, err := parseDate(c.Query("from"), false)
	if err != nil {
		return filter, err
	}
	to, err := parseDate(c.Query("to"), true)
	if err != nil {
		return filter, err
	}
	if from != nil && to != nil && to.Before(*from) {
		return filter, fmt.Errorf("%w: 'to' is before 'from'", apperrors.ErrValidation)
	}
	filter.From, filter.To = from, to
	return filter, nil
}

// parseDate разбирает дату; для конца периода YYYY-MM-DD включает весь день
func parseDate(v string, endOfDay bool) (*time.Time, error) {
	if v == "" {
		return nil, nil
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return &t, nil
	}
	t, err := time.Parse("2006-01-02", v)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid date %q", apperrors.ErrValidation, v)
	}
	if endOfDay {
		t = t.Add(24*time.Hour - time.Nanosecond)
	}
	return &t, nil
}
