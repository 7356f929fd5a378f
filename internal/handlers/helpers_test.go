package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bluemedix-system/internal/auth"
	"bluemedix-system/internal/database/models"
	"bluemedix-system/internal/middleware"
	"bluemedix-system/internal/pricing"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("sqlite open failed: %v", err)
	}

	err = db.AutoMigrate(
		&models.User{},
		&models.Franchise{},
		&models.Category{},
		&models.Product{},
		&models.FranchiseStock{},
		&models.StockMovement{},
		&models.CartItem{},
		&models.Address{},
		&models.Order{},
	)
	if err != nil {
		t.Fatalf("migrate failed: %v", err)
	}
	return db
}

func testCalculator(t *testing.T) *pricing.Calculator {
	t.Helper()
	calc, err := pricing.NewCalculator("40")
	if err != nil {
		t.Fatalf("NewCalculator failed: %v", err)
	}
	return calc
}

// newTestRouter wires the order, stock and cart routes the way cmd/api
// does, against a test database.
func newTestRouter(t *testing.T, db *gorm.DB, tokens *auth.TokenManager) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	calc := testCalculator(t)
	orderHandler := NewOrderHandler(db, calc)
	stockHandler := NewStockHandler(db)
	cartHandler := NewCartHandler(db, calc)

	r := gin.New()
	protected := r.Group("/api", middleware.JWTAuth(tokens))

	protected.POST("/orders", orderHandler.Create)
	protected.GET("/my-orders", orderHandler.MyOrders)
	protected.GET("/orders/:orderId", orderHandler.Get)

	cart := protected.Group("/cart")
	cart.POST("/items", cartHandler.Add)
	cart.GET("/items", cartHandler.List)
	cart.POST("/checkout", cartHandler.Checkout)

	managed := protected.Group("")
	managed.Use(middleware.RequireRoles(models.RoleAdmin, models.RoleOrderManager))
	managed.PATCH("/orders/:orderId/status", orderHandler.UpdateStatus)
	managed.GET("/franchises/:id/orders", orderHandler.FranchiseOrders)
	managed.PUT("/franchise-stock/franchise/:franchiseId/product/:productId", stockHandler.Mutate)
	managed.GET("/franchise-stock/franchise/:franchiseId", stockHandler.ByFranchise)

	admin := protected.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	admin.PATCH("/orders/:orderId/payment", orderHandler.UpdatePayment)

	return r
}

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager("test-secret", time.Hour)
}

func tokenFor(t *testing.T, tokens *auth.TokenManager, user models.User) string {
	t.Helper()
	token, _, err := tokens.GenerateToken(user.ID, user.Role, user.FranchiseID)
	if err != nil {
		t.Fatalf("GenerateToken failed: %v", err)
	}
	return token
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body failed: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

// --- seed helpers ---

func seedUser(t *testing.T, db *gorm.DB, role string, franchiseID *int64) models.User {
	t.Helper()
	user := models.User{
		Name:        "Test " + role,
		Email:       fmt.Sprintf("%s-%d@example.com", role, time.Now().UnixNano()),
		Password:    "x",
		Role:        role,
		Status:      models.StatusActive,
		FranchiseID: franchiseID,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("seed user failed: %v", err)
	}
	return user
}

func seedFranchise(t *testing.T, db *gorm.DB, pincode string) models.Franchise {
	t.Helper()
	franchise := models.Franchise{
		Name:     "Franchise " + pincode,
		Street:   "1 Main Rd",
		City:     "Bengaluru",
		State:    "Karnataka",
		Pincode:  pincode,
		Country:  "India",
		Email:    fmt.Sprintf("f-%s-%d@example.com", pincode, time.Now().UnixNano()),
		IsActive: true,
	}
	if err := db.Create(&franchise).Error; err != nil {
		t.Fatalf("seed franchise failed: %v", err)
	}
	return franchise
}

func seedProduct(t *testing.T, db *gorm.DB, price string, discount, stock int32) models.Product {
	t.Helper()
	category := models.Category{Name: fmt.Sprintf("cat-%d", time.Now().UnixNano())}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("seed category failed: %v", err)
	}
	product := models.Product{
		Name:              fmt.Sprintf("Product %s", price),
		CategoryID:        category.ID,
		Price:             price,
		DiscountPercent:   discount,
		WarehouseStock:    stock,
		LowStockThreshold: 10,
		IsPublished:       true,
	}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product failed: %v", err)
	}
	return product
}

func seedAddress(t *testing.T, db *gorm.DB, userID int64, pincode string) models.Address {
	t.Helper()
	address := models.Address{
		UserID:  userID,
		Street:  "22 Cross St",
		City:    "Bengaluru",
		State:   "Karnataka",
		Pincode: pincode,
		Country: "India",
		Status:  models.StatusActive,
	}
	if err := db.Create(&address).Error; err != nil {
		t.Fatalf("seed address failed: %v", err)
	}
	return address
}

func reloadProduct(t *testing.T, db *gorm.DB, id int64) models.Product {
	t.Helper()
	var product models.Product
	if err := db.First(&product, id).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	return product
}
