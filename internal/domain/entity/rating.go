package entity

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// RatingLevel - одна из шести порядковых оценок, которые пользователь ставит пункту теста
type RatingLevel string

const (
	RatingSSS RatingLevel = "SSS"
	RatingSS  RatingLevel = "SS"
	RatingS   RatingLevel = "S"
	RatingQ   RatingLevel = "Q"
	RatingN   RatingLevel = "N"
	RatingW   RatingLevel = "W"
)

// RatingLevels перечисляет оценки от самой высокой к самой низкой
var RatingLevels = []RatingLevel{RatingSSS, RatingSS, RatingS, RatingQ, RatingN, RatingW}

// MaxRatingScore - балл самой высокой оценки
const MaxRatingScore = 6

// ParseRatingLevel разбирает строковую метку оценки
func ParseRatingLevel(s string) (RatingLevel, error) {
	level := RatingLevel(strings.TrimSpace(s))
	if !level.IsValid() {
		return "", fmt.Errorf("unknown rating level %q", s)
	}
	return level, nil
}

// IsValid проверяет, что метка входит в фиксированный набор
func (r RatingLevel) IsValid() bool {
	switch r {
	case RatingSSS, RatingSS, RatingS, RatingQ, RatingN, RatingW:
		return true
	}
	return false
}

// Score переводит метку в число 1..6; неизвестная или пустая метка дает 0
func (r RatingLevel) Score() int {
	switch r {
	case RatingSSS:
		return 6
	case RatingSS:
		return 5
	case RatingS:
		return 4
	case RatingQ:
		return 3
	case RatingN:
		return 2
	case RatingW:
		return 1
	}
	return 0
}

// RatingKey формирует ключ плоской карты оценок "категория-пункт"
func RatingKey(category, item string) string {
	return category + "-" + item
}

// Ratings - плоская карта "категория-пункт" -> оценка. Хранится в JSONB.
type Ratings map[string]RatingLevel

// Scan реализует интерфейс sql.Scanner для Ratings
func (r *Ratings) Scan(value interface{}) error {
	if value == nil {
		*r = Ratings{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to unmarshal JSONB value: expected []byte")
	}

	if len(bytes) == 0 {
		*r = Ratings{}
		return nil
	}

	return json.Unmarshal(bytes, r)
}

// Value реализует интерфейс driver.Valuer для Ratings
func (r Ratings) Value() (driver.Value, error) {
	if len(r) == 0 {
		return []byte("{}"), nil
	}
	return json.Marshal(r)
}

// Set записывает оценку; повторная запись по тому же ключу перезаписывает прежнюю
func (r Ratings) Set(category, item string, level RatingLevel) {
	r[RatingKey(category, item)] = level
}

// Get возвращает оценку пункта (пустая строка, если оценки нет)
func (r Ratings) Get(category, item string) RatingLevel {
	return r[RatingKey(category, item)]
}

// Validate проверяет, что все значения являются допустимыми метками
func (r Ratings) Validate() error {
	for key, level := range r {
		if strings.TrimSpace(key) == "" {
			return errors.New("empty rating key")
		}
		if !level.IsValid() {
			return fmt.Errorf("invalid rating %q for %q", level, key)
		}
	}
	return nil
}
