package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"bluemedix-system/internal/database/models"
	"bluemedix-system/internal/httperr"
)

const (
	categoriesCacheKey  = "catalog:categories"
	productsCachePrefix = "catalog:products:"
)

type CatalogHandler struct {
	db    *gorm.DB
	redis *redis.Client
}

func NewCatalogHandler(db *gorm.DB, rdb *redis.Client) *CatalogHandler {
	return &CatalogHandler{db: db, redis: rdb}
}

func (h *CatalogHandler) invalidateCache(ctx context.Context) {
	if h.redis == nil {
		return
	}
	h.redis.Del(ctx, categoriesCacheKey)
	iter := h.redis.Scan(ctx, 0, productsCachePrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		h.redis.Del(ctx, iter.Val())
	}
}

// --- Categories ---

type categoryRequest struct {
	Name  string `json:"name" binding:"required"`
	Image string `json:"image"`
}

func (h *CatalogHandler) CreateCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	name := strings.TrimSpace(req.Name)

	var count int64
	if err := h.db.Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", name).Count(&count).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "category lookup failed", err))
		return
	}
	if count > 0 {
		respondErr(c, httperr.New(httperr.KindConflict, "category already exists"))
		return
	}

	category := models.Category{Name: name, Image: req.Image}
	if err := h.db.Create(&category).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "category create failed", err))
		return
	}

	h.invalidateCache(c.Request.Context())
	created(c, category)
}

func (h *CatalogHandler) ListCategories(c *gin.Context) {
	ctx := c.Request.Context()

	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, categoriesCacheKey).Result(); err == nil {
			var categories []models.Category
			if json.Unmarshal([]byte(cached), &categories) == nil {
				success(c, gin.H{"categories": categories, "cached": true})
				return
			}
		}
	}

	var categories []models.Category
	if err := h.db.Order("name").Find(&categories).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "category list failed", err))
		return
	}

	if h.redis != nil {
		if data, err := json.Marshal(categories); err == nil {
			h.redis.Set(ctx, categoriesCacheKey, data, CacheTTLMedium)
		}
	}

	success(c, gin.H{"categories": categories, "cached": false})
}

func (h *CatalogHandler) UpdateCategory(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid category id")
		return
	}

	var category models.Category
	err = h.db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("category not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "category lookup failed", err))
		return
	}

	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name is required")
		return
	}

	updates := map[string]interface{}{"name": strings.TrimSpace(req.Name)}
	if req.Image != "" {
		updates["image"] = req.Image
	}
	if err := h.db.Model(&category).Updates(updates).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "category update failed", err))
		return
	}

	h.invalidateCache(c.Request.Context())
	success(c, category)
}

// DeleteCategory refuses while any product still references the category.
func (h *CatalogHandler) DeleteCategory(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid category id")
		return
	}

	var category models.Category
	err = h.db.First(&category, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("category not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "category lookup failed", err))
		return
	}

	var productCount int64
	if err := h.db.Model(&models.Product{}).Where("category_id = ?", id).Count(&productCount).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "product lookup failed", err))
		return
	}
	if productCount > 0 {
		respondErr(c, httperr.New(httperr.KindConflict, "category still has products"))
		return
	}

	if err := h.db.Delete(&category).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "category delete failed", err))
		return
	}

	h.invalidateCache(c.Request.Context())
	success(c, gin.H{"message": "category deleted"})
}

// --- Products ---

type productRequest struct {
	Name              string   `json:"name" binding:"required"`
	CategoryID        int64    `json:"category_id" binding:"required"`
	Price             string   `json:"price" binding:"required"`
	DiscountPercent   int32    `json:"discount_percent"`
	WarehouseStock    int32    `json:"warehouse_stock"`
	LowStockThreshold *int32   `json:"low_stock_threshold"`
	Images            []string `json:"images"`
	Manufacturer      string   `json:"manufacturer"`
	IsPublished       bool     `json:"is_published"`
}

func validateProductFields(price string, discount, stock int32) error {
	p, err := decimal.NewFromString(price)
	if err != nil || p.IsNegative() {
		return httperr.Validation("price must be a non-negative decimal string")
	}
	if discount < 0 || discount > 100 {
		return httperr.Validation("discount must be between 0 and 100")
	}
	if stock < 0 {
		return httperr.Validation("warehouse stock must not be negative")
	}
	return nil
}

func (h *CatalogHandler) CreateProduct(c *gin.Context) {
	var req productRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name, category_id and price are required")
		return
	}
	if err := validateProductFields(req.Price, req.DiscountPercent, req.WarehouseStock); err != nil {
		respondErr(c, err)
		return
	}

	var category models.Category
	err := h.db.First(&category, req.CategoryID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("category not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "category lookup failed", err))
		return
	}

	product := models.Product{
		Name:            req.Name,
		CategoryID:      req.CategoryID,
		Price:           req.Price,
		DiscountPercent: req.DiscountPercent,
		WarehouseStock:  req.WarehouseStock,
		Images:          req.Images,
		Manufacturer:    req.Manufacturer,
		IsPublished:     req.IsPublished,
	}
	if req.LowStockThreshold != nil {
		product.LowStockThreshold = *req.LowStockThreshold
	} else {
		product.LowStockThreshold = 10
	}

	if err := h.db.Create(&product).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "product create failed", err))
		return
	}

	h.invalidateCache(c.Request.Context())
	created(c, product)
}

// ListProducts serves the public catalog: published products only, with
// optional category/search filters. Results are cached per query shape.
func (h *CatalogHandler) ListProducts(c *gin.Context) {
	ctx := c.Request.Context()
	offset, limit := pagination(c)

	cacheKey := productsCachePrefix + c.Request.URL.RawQuery
	if h.redis != nil {
		if cached, err := h.redis.Get(ctx, cacheKey).Result(); err == nil {
			var payload gin.H
			if json.Unmarshal([]byte(cached), &payload) == nil {
				success(c, payload)
				return
			}
		}
	}

	query := h.db.Model(&models.Product{}).Where("is_published = ?", true)
	if categoryID := c.Query("category_id"); categoryID != "" {
		query = query.Where("category_id = ?", categoryID)
	}
	if search := c.Query("search"); search != "" {
		query = query.Where("LOWER(name) LIKE LOWER(?)", "%"+search+"%")
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "product count failed", err))
		return
	}

	var products []models.Product
	if err := query.Preload("Category").Order("id").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "product list failed", err))
		return
	}

	payload := gin.H{"products": products, "total": total}
	if h.redis != nil {
		if data, err := json.Marshal(payload); err == nil {
			h.redis.Set(ctx, cacheKey, data, CacheTTLShort)
		}
	}
	success(c, payload)
}

func (h *CatalogHandler) GetProduct(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}

	var product models.Product
	err = h.db.Preload("Category").First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("product not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "product lookup failed", err))
		return
	}
	success(c, product)
}

type productUpdateRequest struct {
	Name              *string  `json:"name"`
	CategoryID        *int64   `json:"category_id"`
	Price             *string  `json:"price"`
	DiscountPercent   *int32   `json:"discount_percent"`
	WarehouseStock    *int32   `json:"warehouse_stock"`
	LowStockThreshold *int32   `json:"low_stock_threshold"`
	Images            []string `json:"images"`
	Manufacturer      *string  `json:"manufacturer"`
	IsPublished       *bool    `json:"is_published"`
}

func (h *CatalogHandler) UpdateProduct(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}

	var product models.Product
	err = h.db.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("product not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "product lookup failed", err))
		return
	}

	var req productUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.CategoryID != nil {
		var category models.Category
		err := h.db.First(&category, *req.CategoryID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondErr(c, httperr.NotFound("category not found"))
			return
		}
		if err != nil {
			respondErr(c, httperr.Wrap(httperr.KindInternal, "category lookup failed", err))
			return
		}
		updates["category_id"] = *req.CategoryID
	}
	if req.Price != nil {
		if p, err := decimal.NewFromString(*req.Price); err != nil || p.IsNegative() {
			badRequest(c, "price must be a non-negative decimal string")
			return
		}
		updates["price"] = *req.Price
	}
	if req.DiscountPercent != nil {
		if *req.DiscountPercent < 0 || *req.DiscountPercent > 100 {
			badRequest(c, "discount must be between 0 and 100")
			return
		}
		updates["discount_percent"] = *req.DiscountPercent
	}
	if req.WarehouseStock != nil {
		if *req.WarehouseStock < 0 {
			badRequest(c, "warehouse stock must not be negative")
			return
		}
		updates["warehouse_stock"] = *req.WarehouseStock
	}
	if req.LowStockThreshold != nil {
		updates["low_stock_threshold"] = *req.LowStockThreshold
	}
	if req.Images != nil {
		updates["images"] = models.StringArray(req.Images)
	}
	if req.Manufacturer != nil {
		updates["manufacturer"] = *req.Manufacturer
	}
	if req.IsPublished != nil {
		updates["is_published"] = *req.IsPublished
	}
	if len(updates) == 0 {
		badRequest(c, "nothing to update")
		return
	}

	if err := h.db.Model(&product).Updates(updates).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "product update failed", err))
		return
	}

	h.invalidateCache(c.Request.Context())
	success(c, product)
}

func (h *CatalogHandler) DeleteProduct(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}

	var product models.Product
	err = h.db.First(&product, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("product not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "product lookup failed", err))
		return
	}

	var orderCount int64
	if err := h.db.Model(&models.Order{}).Where("product_id = ?", id).Count(&orderCount).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "order lookup failed", err))
		return
	}
	if orderCount > 0 {
		// Orders snapshot product details, but the row itself stays
		// referenced; unpublish instead.
		if err := h.db.Model(&product).UpdateColumn("is_published", false).Error; err != nil {
			respondErr(c, httperr.Wrap(httperr.KindInternal, "product unpublish failed", err))
			return
		}
		h.invalidateCache(c.Request.Context())
		success(c, gin.H{"message": "product has orders; unpublished instead of deleted"})
		return
	}

	if err := h.db.Delete(&product).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "product delete failed", err))
		return
	}

	h.invalidateCache(c.Request.Context())
	success(c, gin.H{"message": "product deleted"})
}

// LowWarehouseStock reports products at or below their low-stock
// threshold. Admin view.
func (h *CatalogHandler) LowWarehouseStock(c *gin.Context) {
	var products []models.Product
	if err := h.db.Where("warehouse_stock <= low_stock_threshold").
		Order("warehouse_stock").Find(&products).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "low stock query failed", err))
		return
	}
	success(c, gin.H{"products": products})
}
