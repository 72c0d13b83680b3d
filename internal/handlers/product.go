package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"time"

	"warrantly/internal/database"
	"warrantly/internal/models"
	"warrantly/internal/services"
	"warrantly/internal/warranty"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// ErrInvalidWarrantyRange marks a warranty end date before the purchase date
var ErrInvalidWarrantyRange = errors.New("warranty end date must not be before purchase date")

// maxDocumentSize limits uploaded receipts and photos to 10 MB
const maxDocumentSize = 10 << 20

// ProductView is a product together with its computed warranty state.
// Every endpoint that returns products goes through buildProductView, so
// the status rules live in exactly one place.
type ProductView struct {
	models.Product
	DaysLeft int             `json:"days_left"`
	Status   warranty.Status `json:"status"`
}

func buildProductView(p models.Product, now time.Time) ProductView {
	view := ProductView{Product: p}
	info, err := warranty.ComputeStatus(p.PurchaseDate, p.WarrantyEndDate, now)
	if err != nil {
		// Stored products always carry both dates; a zero date here means
		// a migration problem, surface it as expired rather than hiding the row
		view.Status = warranty.StatusExpired
		return view
	}
	view.DaysLeft = info.DaysLeft
	view.Status = info.Status
	return view
}

// resolveWarrantyEnd derives the stored warranty end date from the request.
// An explicit end date wins; otherwise it is computed from the warranty
// length in months applied to the purchase date.
func resolveWarrantyEnd(purchaseDate time.Time, months int, explicit time.Time) (time.Time, error) {
	end := explicit
	if end.IsZero() {
		if months <= 0 {
			return time.Time{}, fmt.Errorf("either warranty_end_date or warranty_months is required")
		}
		end = purchaseDate.AddDate(0, months, 0)
	}
	if warranty.StartOfDay(end).Before(warranty.StartOfDay(purchaseDate)) {
		return time.Time{}, ErrInvalidWarrantyRange
	}
	return end, nil
}

// userLeadDays returns the user's reminder lead-day preference
func userLeadDays(db *gorm.DB, username string) int {
	var settings models.NotificationSetting
	if err := db.Where("username = ?", username).First(&settings).Error; err != nil {
		return warranty.DefaultLeadDays
	}
	return settings.ReminderLeadDays
}

// CreateProduct handles the registration of a new product
func CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	username := c.GetString("username")
	if username == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated", fmt.Errorf("missing username in context"))
		return
	}

	endDate, err := resolveWarrantyEnd(req.PurchaseDate, req.WarrantyMonths, req.WarrantyEndDate)
	if err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	category := req.Category
	if category == "" {
		category = models.OtherCategory
	}

	product := models.Product{
		Username:        username,
		Name:            req.Name,
		Brand:           req.Brand,
		ModelNumber:     req.ModelNumber,
		SerialNumber:    req.SerialNumber,
		Category:        category,
		Price:           req.Price,
		PurchaseDate:    req.PurchaseDate,
		WarrantyMonths:  req.WarrantyMonths,
		WarrantyEndDate: endDate,
		Notes:           req.Notes,
		Documents:       models.DocumentList{},
	}
	if req.PurchaseLocation != nil {
		product.PurchaseLocation = *req.PurchaseLocation
	}

	db := database.GetDB()
	if err := db.Create(&product).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to create product", err)
		return
	}

	// Schedule the warranty reminder right away
	now := time.Now()
	services.EnsureProductReminder(db, product, userLeadDays(db, username), now)

	c.JSON(http.StatusCreated, buildProductView(product, now))
}

// GetProducts lists the authenticated user's products with filtering,
// sorting, and pagination
func GetProducts(c *gin.Context) {
	username := c.GetString("username")
	db := database.GetDB()

	query := db.Where("username = ?", username)

	// Filtering
	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if brand := c.Query("brand"); brand != "" {
		query = query.Where("brand = ?", brand)
	}
	if dateFrom := c.Query("purchased_from"); dateFrom != "" {
		query = query.Where("purchase_date >= ?", dateFrom)
	}
	if dateTo := c.Query("purchased_to"); dateTo != "" {
		query = query.Where("purchase_date <= ?", dateTo)
	}
	if name := c.Query("name"); name != "" {
		query = query.Where("name ILIKE ?", "%"+name+"%")
	}

	// Sorting, restricted to known columns
	sortColumns := map[string]string{
		"purchase_date":     "purchase_date",
		"warranty_end_date": "warranty_end_date",
		"name":              "name",
		"created_at":        "created_at",
	}
	sortBy, ok := sortColumns[c.DefaultQuery("sort_by", "warranty_end_date")]
	if !ok {
		sortBy = "warranty_end_date"
	}
	sortOrder := c.DefaultQuery("sort_order", "asc")
	if sortOrder != "asc" && sortOrder != "desc" {
		sortOrder = "asc"
	}
	query = query.Order(fmt.Sprintf("%s %s", sortBy, sortOrder))

	// Pagination with defaults
	limit, err1 := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err1 != nil || limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100 // max limit
	}
	offset, err2 := strconv.Atoi(c.DefaultQuery("offset", "0"))
	if err2 != nil || offset < 0 {
		offset = 0
	}

	// Status is computed per row, not stored, so a status query fetches all
	// matching rows and paginates after filtering; pushing LIMIT/OFFSET into
	// the SQL would return short, inconsistent pages
	statusFilter := c.Query("status")
	if statusFilter == "" {
		query = query.Limit(limit).Offset(offset)
	}

	var products []models.Product
	if err := query.Find(&products).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch products", err)
		return
	}

	now := time.Now()
	views := make([]ProductView, 0, len(products))
	for _, p := range products {
		view := buildProductView(p, now)
		if statusFilter != "" && string(view.Status) != statusFilter {
			continue
		}
		views = append(views, view)
	}

	if statusFilter != "" {
		if offset >= len(views) {
			views = views[:0]
		} else {
			views = views[offset:]
		}
		if len(views) > limit {
			views = views[:limit]
		}
	}

	c.JSON(http.StatusOK, views)
}

// GetProduct retrieves a single product owned by the authenticated user
func GetProduct(c *gin.Context) {
	product, ok := findOwnedProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, buildProductView(product, time.Now()))
}

// UpdateProduct edits a product's fields. A warranty date change re-runs
// the reminder scheduling decision.
func UpdateProduct(c *gin.Context) {
	product, ok := findOwnedProduct(c)
	if !ok {
		return
	}

	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleError(c, http.StatusBadRequest, fmt.Sprintf("Invalid input: %s", err.Error()), err)
		return
	}

	if req.Name != nil {
		product.Name = *req.Name
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.ModelNumber != nil {
		product.ModelNumber = *req.ModelNumber
	}
	if req.SerialNumber != nil {
		product.SerialNumber = *req.SerialNumber
	}
	if req.Category != nil {
		product.Category = *req.Category
	}
	if req.Price != nil {
		product.Price = *req.Price
	}
	if req.Notes != nil {
		product.Notes = *req.Notes
	}
	if req.PurchaseLocation != nil {
		product.PurchaseLocation = *req.PurchaseLocation
	}
	if req.PurchaseDate != nil {
		product.PurchaseDate = *req.PurchaseDate
	}

	warrantyChanged := false
	if req.WarrantyEndDate != nil || req.WarrantyMonths != nil || req.PurchaseDate != nil {
		months := product.WarrantyMonths
		if req.WarrantyMonths != nil {
			months = *req.WarrantyMonths
		}
		explicit := time.Time{}
		if req.WarrantyEndDate != nil {
			explicit = *req.WarrantyEndDate
		}

		endDate, err := resolveWarrantyEnd(product.PurchaseDate, months, explicit)
		if err != nil {
			handleError(c, http.StatusBadRequest, err.Error(), err)
			return
		}

		warrantyChanged = !warranty.SameCalendarDay(endDate, product.WarrantyEndDate)
		product.WarrantyMonths = months
		product.WarrantyEndDate = endDate
	}

	db := database.GetDB()
	if err := db.Save(&product).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to update product", err)
		return
	}

	now := time.Now()
	if warrantyChanged {
		services.EnsureProductReminder(db, product, userLeadDays(db, product.Username), now)
	}

	c.JSON(http.StatusOK, buildProductView(product, now))
}

// DeleteProduct removes a product and its reminders
func DeleteProduct(c *gin.Context) {
	product, ok := findOwnedProduct(c)
	if !ok {
		return
	}

	db := database.GetDB()

	// Cascade: reminders go with the product
	if err := db.Where("product_id = ?", product.ID).Delete(&models.Reminder{}).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete reminders", err)
		return
	}
	if err := db.Delete(&product).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to delete product", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "product deleted"})
}

// GetWarrantyAlerts lists the user's products whose warranties are expiring
// soon or already expired, soonest first
func GetWarrantyAlerts(c *gin.Context) {
	username := c.GetString("username")
	db := database.GetDB()

	var products []models.Product
	if err := db.Where("username = ?", username).Find(&products).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to fetch products", err)
		return
	}

	now := time.Now()
	alerts := make([]ProductView, 0)
	for _, p := range products {
		view := buildProductView(p, now)
		if view.Status == warranty.StatusActive {
			continue
		}
		alerts = append(alerts, view)
	}

	// Soonest expiry first; already-expired items sort ahead of expiring ones
	sort.Slice(alerts, func(i, j int) bool {
		return alerts[i].DaysLeft < alerts[j].DaysLeft
	})

	c.JSON(http.StatusOK, alerts)
}

// UploadProductDocument attaches a receipt or photo to a product
func UploadProductDocument(c *gin.Context) {
	product, ok := findOwnedProduct(c)
	if !ok {
		return
	}

	kind := c.DefaultPostForm("kind", "photo")
	if kind != "photo" && kind != "receipt" {
		handleError(c, http.StatusBadRequest, "kind must be photo or receipt", fmt.Errorf("invalid document kind %q", kind))
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		handleError(c, http.StatusBadRequest, "file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusBadRequest, "failed to read file", err)
		return
	}
	defer file.Close()

	imageService, err := services.NewImageService()
	if err != nil {
		handleError(c, http.StatusServiceUnavailable, "Document storage is not configured", err)
		return
	}

	if err := imageService.ValidateDocumentFile(file, maxDocumentSize); err != nil {
		handleError(c, http.StatusBadRequest, err.Error(), err)
		return
	}

	url, err := imageService.UploadDocument(file, fileHeader.Filename, product.Username, product.ID, kind)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to upload document", err)
		return
	}

	product.Documents = append(product.Documents, models.Document{
		URL:        url,
		Kind:       kind,
		UploadedAt: time.Now(),
	})

	db := database.GetDB()
	if err := db.Model(&product).Update("documents", product.Documents).Error; err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to save document", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"url": url, "kind": kind})
}

// AnalyzeProduct suggests product fields from an uploaded photo
func AnalyzeProduct(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		handleError(c, http.StatusBadRequest, "file is required", err)
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		handleError(c, http.StatusBadRequest, "failed to read file", err)
		return
	}
	defer file.Close()

	analysis, err := services.AnalyzeProductImage(c.Request.Context(), file, fileHeader.Filename)
	if err != nil {
		handleError(c, http.StatusInternalServerError, "Failed to analyze image", err)
		return
	}

	c.JSON(http.StatusOK, analysis)
}

// findOwnedProduct loads the product in the :id parameter, scoped to the
// authenticated user. Writes the error response itself when the lookup
// fails.
func findOwnedProduct(c *gin.Context) (models.Product, bool) {
	username := c.GetString("username")
	if username == "" {
		handleError(c, http.StatusUnauthorized, "Not authenticated", fmt.Errorf("missing username in context"))
		return models.Product{}, false
	}

	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		handleError(c, http.StatusBadRequest, "Invalid product id", err)
		return models.Product{}, false
	}

	db := database.GetDB()
	var product models.Product
	if err := db.Where("id = ? AND username = ?", id, username).First(&product).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			handleError(c, http.StatusNotFound, "Product not found", err)
			return models.Product{}, false
		}
		handleError(c, http.StatusInternalServerError, "Failed to retrieve product", err)
		return models.Product{}, false
	}

	return product, true
}
