package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProductCategory represents the kind of electronic product
type ProductCategory string

const (
	PhoneCategory     ProductCategory = "phone"
	ComputerCategory  ProductCategory = "computer"
	ApplianceCategory ProductCategory = "appliance"
	CameraCategory    ProductCategory = "camera"
	AudioCategory     ProductCategory = "audio"
	OtherCategory     ProductCategory = "other"
)

// PurchaseLocation represents the store a product was bought at,
// standardized through Google Maps data
type PurchaseLocation struct {
	PlaceID          string  `json:"place_id"`
	Name             string  `json:"name"`
	FormattedAddress string  `json:"formatted_address"`
	Latitude         float64 `json:"latitude"`
	Longitude        float64 `json:"longitude"`
}

// Implement driver.Valuer and sql.Scanner
func (l PurchaseLocation) Value() (driver.Value, error) {
	return json.Marshal(l)
}

func (l *PurchaseLocation) Scan(value interface{}) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("failed to unmarshal PurchaseLocation: %v", value)
	}
}

// Document is an uploaded supporting file (receipt or product photo)
type Document struct {
	URL        string    `json:"url"`
	Kind       string    `json:"kind"` // "receipt" or "photo"
	UploadedAt time.Time `json:"uploaded_at"`
}

type DocumentList []Document

func (d DocumentList) Value() (driver.Value, error) {
	if d == nil {
		return "[]", nil
	}
	return json.Marshal(d)
}

func (d *DocumentList) Scan(value interface{}) error {
	if value == nil {
		*d = make([]Document, 0)
		return nil
	}

	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	default:
		return fmt.Errorf("unsupported type for DocumentList: %T", value)
	}
}

// Product represents an electronic product record owned by one user.
// WarrantyEndDate is stored explicitly (not recomputed from the warranty
// length) so listing and alert queries never re-derive it.
type Product struct {
	ID               uint             `gorm:"primaryKey;autoIncrement" json:"id"`
	Username         string           `gorm:"size:30;not null;index" json:"username"`
	Name             string           `gorm:"size:120;not null" json:"name"`
	Brand            string           `gorm:"size:60" json:"brand"`
	ModelNumber      string           `gorm:"size:60" json:"model_number"`
	SerialNumber     string           `gorm:"size:60" json:"serial_number"`
	Category         ProductCategory  `gorm:"size:20;not null;default:'other'" json:"category"`
	Price            float64          `gorm:"type:decimal(12,2)" json:"price"`
	PurchaseDate     time.Time        `gorm:"not null" json:"purchase_date"`
	WarrantyMonths   int              `json:"warranty_months"`
	WarrantyEndDate  time.Time        `gorm:"not null;index" json:"warranty_end_date"`
	PurchaseLocation PurchaseLocation `gorm:"type:json" json:"purchase_location"`
	Documents        DocumentList     `gorm:"type:json" json:"documents"`
	Analysis         datatypes.JSON   `gorm:"type:json" json:"analysis,omitempty"`
	Notes            string           `gorm:"type:text" json:"notes"`
	CreatedAt        time.Time        `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time        `gorm:"not null" json:"updated_at"`
	DeletedAt        gorm.DeletedAt   `gorm:"index" json:"-"`
}

// TableName specifies the table name for the Product model
func (Product) TableName() string {
	return "product"
}

// CreateProductRequest represents the data needed to register a product.
// Either warranty_end_date or warranty_months must be provided; when only
// the month count is given the end date is derived from the purchase date.
type CreateProductRequest struct {
	Name             string            `json:"name" binding:"required,max=120"`
	Brand            string            `json:"brand" binding:"omitempty,max=60"`
	ModelNumber      string            `json:"model_number" binding:"omitempty,max=60"`
	SerialNumber     string            `json:"serial_number" binding:"omitempty,max=60"`
	Category         ProductCategory   `json:"category" binding:"omitempty,oneof=phone computer appliance camera audio other"`
	Price            float64           `json:"price" binding:"omitempty,min=0"`
	PurchaseDate     time.Time         `json:"purchase_date" binding:"required"`
	WarrantyMonths   int               `json:"warranty_months" binding:"omitempty,min=1,max=120"`
	WarrantyEndDate  time.Time         `json:"warranty_end_date"`
	PurchaseLocation *PurchaseLocation `json:"purchase_location"`
	Notes            string            `json:"notes"`
}

// UpdateProductRequest carries the editable product fields; nil fields are
// left unchanged
type UpdateProductRequest struct {
	Name             *string           `json:"name" binding:"omitempty,max=120"`
	Brand            *string           `json:"brand" binding:"omitempty,max=60"`
	ModelNumber      *string           `json:"model_number" binding:"omitempty,max=60"`
	SerialNumber     *string           `json:"serial_number" binding:"omitempty,max=60"`
	Category         *ProductCategory  `json:"category" binding:"omitempty,oneof=phone computer appliance camera audio other"`
	Price            *float64          `json:"price" binding:"omitempty,min=0"`
	PurchaseDate     *time.Time        `json:"purchase_date"`
	WarrantyMonths   *int              `json:"warranty_months" binding:"omitempty,min=1,max=120"`
	WarrantyEndDate  *time.Time        `json:"warranty_end_date"`
	PurchaseLocation *PurchaseLocation `json:"purchase_location"`
	Notes            *string           `json:"notes"`
}
