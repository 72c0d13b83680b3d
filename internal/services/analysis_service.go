package services

import (
	"context"
	"math/rand"
	"mime/multipart"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"warrantly/internal/models"
)

// ProductAnalysis is the field prefill suggested from a product photo
type ProductAnalysis struct {
	Name           string                 `json:"name"`
	Brand          string                 `json:"brand"`
	Category       models.ProductCategory `json:"category"`
	ModelNumber    string                 `json:"model_number"`
	WarrantyMonths int                    `json:"warranty_months"`
	Confidence     float64                `json:"confidence"`
}

// Analyzer suggests product fields from an uploaded photo. Implementations
// are pluggable; the application works the same with or without a real
// vision backend.
type Analyzer interface {
	Analyze(ctx context.Context, file multipart.File, filename string) (*ProductAnalysis, error)
}

var (
	analyzerMu sync.RWMutex
	analyzer   Analyzer = NewMockAnalyzer()
)

// SetAnalyzer swaps the analyzer implementation
func SetAnalyzer(a Analyzer) {
	analyzerMu.Lock()
	defer analyzerMu.Unlock()
	analyzer = a
}

// AnalyzeProductImage runs the configured analyzer on an uploaded photo
func AnalyzeProductImage(ctx context.Context, file multipart.File, filename string) (*ProductAnalysis, error) {
	analyzerMu.RLock()
	a := analyzer
	analyzerMu.RUnlock()
	return a.Analyze(ctx, file, filename)
}

// MockAnalyzer generates plausible fake prefill data. There is no real
// inference behind it.
type MockAnalyzer struct {
	rng *rand.Rand
	mu  sync.Mutex
}

func NewMockAnalyzer() *MockAnalyzer {
	return &MockAnalyzer{rng: rand.New(rand.NewSource(time.Now().UnixNano()))}
}

var mockBrands = []string{"Sony", "Samsung", "LG", "Panasonic", "ASUS", "Acer", "Apple", "Dyson"}

var mockCategories = []models.ProductCategory{
	models.PhoneCategory,
	models.ComputerCategory,
	models.ApplianceCategory,
	models.CameraCategory,
	models.AudioCategory,
}

var mockWarrantyMonths = []int{12, 24, 36}

func (m *MockAnalyzer) Analyze(ctx context.Context, file multipart.File, filename string) (*ProductAnalysis, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	brand := mockBrands[m.rng.Intn(len(mockBrands))]
	category := mockCategories[m.rng.Intn(len(mockCategories))]

	// Use the filename stem as a name hint when it looks meaningful
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))
	if len(name) < 3 {
		name = brand + " " + string(category)
	}

	return &ProductAnalysis{
		Name:           name,
		Brand:          brand,
		Category:       category,
		ModelNumber:    m.randomModelNumber(),
		WarrantyMonths: mockWarrantyMonths[m.rng.Intn(len(mockWarrantyMonths))],
		Confidence:     0.5 + m.rng.Float64()*0.4,
	}, nil
}

func (m *MockAnalyzer) randomModelNumber() string {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ"
	b := make([]byte, 2)
	for i := range b {
		b[i] = letters[m.rng.Intn(len(letters))]
	}
	return string(b) + "-" + string([]byte{
		byte('1' + m.rng.Intn(9)),
		byte('0' + m.rng.Intn(10)),
		byte('0' + m.rng.Intn(10)),
	})
}
