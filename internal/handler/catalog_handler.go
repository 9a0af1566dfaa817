package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/selftest-api/internal/catalog"
	"github.com/yourusername/selftest-api/internal/domain/entity"
	apperrors "github.com/yourusername/selftest-api/internal/pkg/errors"
)

// CatalogSummary - краткое описание варианта теста
type CatalogSummary struct {
	TestType   entity.TestType `json:"test_type"`
	Title      string          `json:"title"`
	Categories int             `json:"categories"`
	Items      int             `json:"items"`
}

// CatalogHandler отдает каталоги вариантов теста
type CatalogHandler struct{}

// NewCatalogHandler создает новый обработчик каталогов
func NewCatalogHandler() *CatalogHandler {
	return &CatalogHandler{}
}

// List возвращает все варианты теста в фиксированном порядке
func (h *CatalogHandler) List(c *gin.Context) {
	out := make([]CatalogSummary, 0, len(entity.TestTypes))
	for _, testType := range entity.TestTypes {
		cat, err := catalog.Get(testType)
		if err != nil {
			log.Printf("ERROR: catalog %s is not available: %v", testType, err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
		out = append(out, CatalogSummary{
			TestType:   cat.TestType,
			Title:      cat.Title,
			Categories: len(cat.Categories),
			Items:      cat.TotalItems(),
		})
	}
	c.JSON(http.StatusOK, gin.H{"catalogs": out, "levels": entity.RatingLevels})
}

// Get возвращает категории и пункты одного варианта теста
func (h *CatalogHandler) Get(c *gin.Context) {
	testType, err := entity.ParseTestType(c.Param("type"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	cat, err := catalog.Get(testType)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		log.Printf("ERROR: catalog %s is not available: %v", testType, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	c.Header("Cache-Control", "public, max-age=3600")
	c.JSON(http.StatusOK, cat)
}
