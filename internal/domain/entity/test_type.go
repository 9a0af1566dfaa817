package entity

import (
	"fmt"
	"strings"
)

// TestType - вариант теста
type TestType string

const (
	TestTypeGeneral TestType = "general"
	TestTypeMale    TestType = "male"
	TestTypeFemale  TestType = "female"
	TestTypeS       TestType = "s"
	TestTypeLGBT    TestType = "lgbt"
)

// TestTypes перечисляет все варианты в порядке отображения
var TestTypes = []TestType{TestTypeGeneral, TestTypeMale, TestTypeFemale, TestTypeS, TestTypeLGBT}

// ParseTestType разбирает вариант теста без учета регистра
func ParseTestType(s string) (TestType, error) {
	t := TestType(strings.ToLower(strings.TrimSpace(s)))
	if !t.IsValid() {
		return "", fmt.Errorf("unknown test type %q", s)
	}
	return t, nil
}

// IsValid проверяет, что вариант известен
func (t TestType) IsValid() bool {
	for _, known := range TestTypes {
		if t == known {
			return true
		}
	}
	return false
}
