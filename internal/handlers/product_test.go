package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"warrantly/internal/database"
	"warrantly/internal/models"
	"warrantly/internal/services"
	"warrantly/internal/warranty"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB swaps the package-level connection for an in-memory database
// so handlers under test hit isolated storage
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.Account{},
		&models.Product{},
		&models.Reminder{},
		&models.NotificationSetting{},
	); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	prev := database.DB
	database.DB = db
	t.Cleanup(func() { database.DB = prev })

	return db
}

// setupRouter returns a router whose routes run as the given user, the way
// the auth middleware would after validating a cookie
func setupRouter(username string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("username", username)
		c.Next()
	})

	router.POST("/api/products", CreateProduct)
	router.GET("/api/products", GetProducts)
	router.GET("/api/products/warranty-alerts", GetWarrantyAlerts)
	router.GET("/api/products/:id", GetProduct)
	router.PUT("/api/products/:id", UpdateProduct)
	router.DELETE("/api/products/:id", DeleteProduct)
	router.GET("/api/reminders", GetReminders)
	router.PUT("/api/reminders/:id/read", MarkReminderRead)
	router.GET("/api/settings/notifications", GetNotificationSettings)
	router.PUT("/api/settings/notifications", UpdateNotificationSettings)

	return router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func seedAccount(t *testing.T, db *gorm.DB, username string) {
	t.Helper()
	account := models.Account{
		Username: username,
		Email:    username + "@example.com",
	}
	if err := db.Create(&account).Error; err != nil {
		t.Fatalf("failed to seed account %s: %v", username, err)
	}
}

func seedProduct(t *testing.T, db *gorm.DB, username string, name string, end time.Time) models.Product {
	t.Helper()
	product := models.Product{
		Username:        username,
		Name:            name,
		Category:        models.OtherCategory,
		PurchaseDate:    end.AddDate(-1, 0, 0),
		WarrantyMonths:  12,
		WarrantyEndDate: end,
		Documents:       models.DocumentList{},
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("failed to seed product %s: %v", name, err)
	}
	return product
}

func TestCreateProductSchedulesReminder(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "alice")
	router := setupRouter("alice")

	end := time.Now().AddDate(0, 0, 60)
	w := doJSON(router, http.MethodPost, "/api/products", gin.H{
		"name":              "Galaxy S24",
		"brand":             "Samsung",
		"category":          "phone",
		"purchase_date":     end.AddDate(-1, 0, 0).Format(time.RFC3339),
		"warranty_end_date": end.Format(time.RFC3339),
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var view ProductView
	if err := json.Unmarshal(w.Body.Bytes(), &view); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if view.Status != warranty.StatusActive {
		t.Errorf("expected active status, got %s", view.Status)
	}

	var reminders []models.Reminder
	if err := db.Where("product_id = ?", view.ID).Find(&reminders).Error; err != nil {
		t.Fatalf("failed to load reminders: %v", err)
	}
	if len(reminders) != 1 {
		t.Fatalf("expected 1 scheduled reminder, got %d", len(reminders))
	}

	wantDate := warranty.StartOfDay(end).AddDate(0, 0, -warranty.DefaultLeadDays)
	if !warranty.SameCalendarDay(reminders[0].ReminderDate, wantDate) {
		t.Errorf("reminder date = %v, want %v", reminders[0].ReminderDate, wantDate)
	}
	if reminders[0].LeadDays != warranty.DefaultLeadDays {
		t.Errorf("lead days = %d, want %d", reminders[0].LeadDays, warranty.DefaultLeadDays)
	}
}

func TestCreateProductDerivesEndFromMonths(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "alice")
	router := setupRouter("alice")

	purchase := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	w := doJSON(router, http.MethodPost, "/api/products", gin.H{
		"name":            "Dishwasher",
		"category":        "appliance",
		"purchase_date":   purchase.Format(time.RFC3339),
		"warranty_months": 24,
	})

	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var view ProductView
	json.Unmarshal(w.Body.Bytes(), &view)
	want := purchase.AddDate(0, 24, 0)
	if !warranty.SameCalendarDay(view.WarrantyEndDate, want) {
		t.Errorf("warranty end = %v, want %v", view.WarrantyEndDate, want)
	}
}

func TestCreateProductRejectsBadRange(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "alice")
	router := setupRouter("alice")

	w := doJSON(router, http.MethodPost, "/api/products", gin.H{
		"name":              "Broken",
		"purchase_date":     "2026-05-01T00:00:00Z",
		"warranty_end_date": "2026-04-01T00:00:00Z",
	})

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for end before purchase, got %d", w.Code)
	}
}

func TestUpdateWarrantyReschedulesWithoutDuplicates(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "alice")
	router := setupRouter("alice")

	end := time.Now().AddDate(0, 0, 45)
	product := seedProduct(t, db, "alice", "Laptop", end)
	services.EnsureProductReminder(db, product, warranty.DefaultLeadDays, time.Now())

	newEnd := time.Now().AddDate(0, 0, 90)
	w := doJSON(router, http.MethodPut, fmt.Sprintf("/api/products/%d", product.ID), gin.H{
		"warranty_end_date": newEnd.Format(time.RFC3339),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var reminders []models.Reminder
	db.Where("product_id = ?", product.ID).Find(&reminders)
	if len(reminders) != 2 {
		t.Fatalf("expected reminder for old and new date, got %d rows", len(reminders))
	}

	// A second identical update reuses the same-day reminder
	w = doJSON(router, http.MethodPut, fmt.Sprintf("/api/products/%d", product.ID), gin.H{
		"warranty_end_date": newEnd.Format(time.RFC3339),
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on repeat update, got %d", w.Code)
	}
	db.Where("product_id = ?", product.ID).Find(&reminders)
	if len(reminders) != 2 {
		t.Errorf("repeat update should not add reminders, got %d rows", len(reminders))
	}
}

func TestDeleteProductCascadesReminders(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "alice")
	router := setupRouter("alice")

	product := seedProduct(t, db, "alice", "Camera", time.Now().AddDate(0, 0, 40))
	services.EnsureProductReminder(db, product, warranty.DefaultLeadDays, time.Now())

	w := doJSON(router, http.MethodDelete, fmt.Sprintf("/api/products/%d", product.ID), nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.Reminder{}).Where("product_id = ?", product.ID).Count(&count)
	if count != 0 {
		t.Errorf("expected reminders deleted with product, %d remain", count)
	}
}

func TestGetProductCrossUserIsNotFound(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "alice")
	seedAccount(t, db, "bob")
	product := seedProduct(t, db, "bob", "Bob's TV", time.Now().AddDate(1, 0, 0))

	router := setupRouter("alice")
	w := doJSON(router, http.MethodGet, fmt.Sprintf("/api/products/%d", product.ID), nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another user's product, got %d", w.Code)
	}
}

func TestWarrantyAlertsSortedSoonestFirst(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "alice")
	router := setupRouter("alice")

	now := time.Now()
	seedProduct(t, db, "alice", "Fine", now.AddDate(0, 0, 200))
	seedProduct(t, db, "alice", "Soon", now.AddDate(0, 0, 20))
	seedProduct(t, db, "alice", "Gone", now.AddDate(0, 0, -5))
	seedProduct(t, db, "alice", "Sooner", now.AddDate(0, 0, 3))

	w := doJSON(router, http.MethodGet, "/api/products/warranty-alerts", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	var alerts []ProductView
	if err := json.Unmarshal(w.Body.Bytes(), &alerts); err != nil {
		t.Fatalf("failed to decode alerts: %v", err)
	}

	wantOrder := []string{"Gone", "Sooner", "Soon"}
	if len(alerts) != len(wantOrder) {
		t.Fatalf("expected %d alerts, got %d", len(wantOrder), len(alerts))
	}
	for i, name := range wantOrder {
		if alerts[i].Name != name {
			t.Errorf("alert[%d] = %s, want %s", i, alerts[i].Name, name)
		}
	}
	if alerts[0].Status != warranty.StatusExpired {
		t.Errorf("expired product should report expired status, got %s", alerts[0].Status)
	}
}

func TestGetProductsStatusFilter(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "alice")
	router := setupRouter("alice")

	now := time.Now()
	seedProduct(t, db, "alice", "Fine", now.AddDate(0, 0, 200))
	seedProduct(t, db, "alice", "Soon", now.AddDate(0, 0, 10))

	w := doJSON(router, http.MethodGet, "/api/products?status=expiring-soon", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}

	var views []ProductView
	json.Unmarshal(w.Body.Bytes(), &views)
	if len(views) != 1 || views[0].Name != "Soon" {
		t.Errorf("status filter should return only the expiring product, got %+v", views)
	}
}

func TestGetProductsStatusFilterPaginates(t *testing.T) {
	db := setupTestDB(t)
	seedAccount(t, db, "alice")
	router := setupRouter("alice")

	now := time.Now()
	// Interleave active and expiring products so a SQL-level LIMIT would
	// produce short pages
	seedProduct(t, db, "alice", "Active A", now.AddDate(0, 0, 200))
	seedProduct(t, db, "alice", "Soon A", now.AddDate(0, 0, 5))
	seedProduct(t, db, "alice", "Active B", now.AddDate(0, 0, 300))
	seedProduct(t, db, "alice", "Soon B", now.AddDate(0, 0, 10))
	seedProduct(t, db, "alice", "Soon C", now.AddDate(0, 0, 15))

	w := doJSON(router, http.MethodGet, "/api/products?status=expiring-soon&limit=2&offset=0", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var page []ProductView
	if err := json.Unmarshal(w.Body.Bytes(), &page); err != nil {
		t.Fatalf("failed to decode page: %v", err)
	}
	if len(page) != 2 {
		t.Fatalf("expected a full page of 2, got %d", len(page))
	}
	if page[0].Name != "Soon A" || page[1].Name != "Soon B" {
		t.Errorf("page 1 = %s, %s; want Soon A, Soon B", page[0].Name, page[1].Name)
	}

	w = doJSON(router, http.MethodGet, "/api/products?status=expiring-soon&limit=2&offset=2", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	json.Unmarshal(w.Body.Bytes(), &page)
	if len(page) != 1 || page[0].Name != "Soon C" {
		t.Errorf("page 2 should hold only Soon C, got %+v", page)
	}

	w = doJSON(router, http.MethodGet, "/api/products?status=expiring-soon&limit=2&offset=10", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	json.Unmarshal(w.Body.Bytes(), &page)
	if len(page) != 0 {
		t.Errorf("offset past the end should return an empty page, got %d items", len(page))
	}
}
