package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bluemedix-system/internal/database/models"
	"bluemedix-system/internal/httperr"
	"bluemedix-system/internal/middleware"
)

type StockHandler struct {
	db *gorm.DB
}

func NewStockHandler(db *gorm.DB) *StockHandler {
	return &StockHandler{db: db}
}

// franchiseScope rejects callers that are neither admins nor the manager
// of the target franchise.
func franchiseScope(c *gin.Context, franchiseID int64) bool {
	p, ok := middleware.GetPrincipal(c)
	if !ok {
		respondErr(c, httperr.New(httperr.KindUnauthorized, "authentication required"))
		return false
	}
	if p.IsAdmin() || p.ManagesFranchise(franchiseID) {
		return true
	}
	respondErr(c, httperr.Forbidden("not authorized for this franchise"))
	return false
}

type mutateStockRequest struct {
	Quantity   int32 `json:"quantity" binding:"required"`
	IsAddition *bool `json:"isAddition"`
}

// Mutate adds to or subtracts from a (franchise, product) stock row. Both
// directions go through conditional single-statement updates so concurrent
// requests cannot drive the stored quantity negative.
func (h *StockHandler) Mutate(c *gin.Context) {
	franchiseID, err := parseIDParam(c, "franchiseId")
	if err != nil {
		badRequest(c, "invalid franchise id")
		return
	}
	productID, err := parseIDParam(c, "productId")
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}
	if !franchiseScope(c, franchiseID) {
		return
	}

	var req mutateStockRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity <= 0 {
		badRequest(c, "quantity must be a positive integer")
		return
	}
	isAddition := true
	if req.IsAddition != nil {
		isAddition = *req.IsAddition
	}

	p, _ := middleware.GetPrincipal(c)

	var stock models.FranchiseStock
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var franchise models.Franchise
		if err := tx.First(&franchise, franchiseID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("franchise not found")
			}
			return httperr.Wrap(httperr.KindInternal, "franchise lookup failed", err)
		}
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("product not found")
			}
			return httperr.Wrap(httperr.KindInternal, "product lookup failed", err)
		}

		now := time.Now()
		movement := models.MovementAddition

		if isAddition {
			res := tx.Model(&models.FranchiseStock{}).
				Where("franchise_id = ? AND product_id = ?", franchiseID, productID).
				Updates(map[string]interface{}{
					"quantity":     gorm.Expr("quantity + ?", req.Quantity),
					"last_updated": now,
				})
			if res.Error != nil {
				return httperr.Wrap(httperr.KindInternal, "stock update failed", res.Error)
			}
			if res.RowsAffected == 0 {
				row := models.FranchiseStock{
					FranchiseID: franchiseID,
					ProductID:   productID,
					Quantity:    req.Quantity,
					LastUpdated: now,
				}
				if err := tx.Create(&row).Error; err != nil {
					return httperr.Wrap(httperr.KindInternal, "stock create failed", err)
				}
			}
		} else {
			movement = models.MovementSubtraction
			res := tx.Model(&models.FranchiseStock{}).
				Where("franchise_id = ? AND product_id = ? AND quantity >= ?", franchiseID, productID, req.Quantity).
				Updates(map[string]interface{}{
					"quantity":     gorm.Expr("quantity - ?", req.Quantity),
					"last_updated": now,
				})
			if res.Error != nil {
				return httperr.Wrap(httperr.KindInternal, "stock update failed", res.Error)
			}
			if res.RowsAffected == 0 {
				var count int64
				if err := tx.Model(&models.FranchiseStock{}).
					Where("franchise_id = ? AND product_id = ?", franchiseID, productID).
					Count(&count).Error; err != nil {
					return httperr.Wrap(httperr.KindInternal, "stock lookup failed", err)
				}
				if count == 0 {
					return httperr.Validation("cannot subtract from nonexistent stock")
				}
				return httperr.New(httperr.KindInsufficientStock, "insufficient franchise stock")
			}
		}

		if err := tx.Create(&models.StockMovement{
			FranchiseID: &franchiseID,
			ProductID:   productID,
			Movement:    movement,
			Quantity:    req.Quantity,
			CreatedBy:   p.UserID,
			CreatedAt:   now,
		}).Error; err != nil {
			return httperr.Wrap(httperr.KindInternal, "stock movement write failed", err)
		}

		return tx.Where("franchise_id = ? AND product_id = ?", franchiseID, productID).
			First(&stock).Error
	})
	if txErr != nil {
		respondErr(c, txErr)
		return
	}

	success(c, gin.H{"franchiseStock": stock})
}

// ByFranchise lists a franchise's stock rows, optionally filtered to
// those at or below the product's low-stock threshold.
func (h *StockHandler) ByFranchise(c *gin.Context) {
	franchiseID, err := parseIDParam(c, "franchiseId")
	if err != nil {
		badRequest(c, "invalid franchise id")
		return
	}
	if !franchiseScope(c, franchiseID) {
		return
	}

	query := h.db.Model(&models.FranchiseStock{}).
		Where("franchise_stocks.franchise_id = ?", franchiseID).
		Preload("Product")

	if lowStock := parseBoolQuery(c, "lowStock"); lowStock != nil && *lowStock {
		query = query.Joins("JOIN products ON products.id = franchise_stocks.product_id").
			Where("franchise_stocks.quantity <= products.low_stock_threshold")
	}
	if search := c.Query("search"); search != "" {
		query = query.Joins("JOIN products ON products.id = franchise_stocks.product_id").
			Where("LOWER(products.name) LIKE LOWER(?)", "%"+search+"%")
	}

	var stocks []models.FranchiseStock
	if err := query.Find(&stocks).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "stock list failed", err))
		return
	}
	success(c, gin.H{"stocks": stocks})
}

// ByProduct shows a product's stock across all franchises. Admin view.
func (h *StockHandler) ByProduct(c *gin.Context) {
	productID, err := parseIDParam(c, "productId")
	if err != nil {
		badRequest(c, "invalid product id")
		return
	}

	var stocks []models.FranchiseStock
	if err := h.db.Where("product_id = ?", productID).
		Preload("Franchise").Find(&stocks).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "stock list failed", err))
		return
	}
	success(c, gin.H{"stocks": stocks})
}

// Movements returns the audit trail for a franchise's stock changes.
func (h *StockHandler) Movements(c *gin.Context) {
	franchiseID, err := parseIDParam(c, "franchiseId")
	if err != nil {
		badRequest(c, "invalid franchise id")
		return
	}
	if !franchiseScope(c, franchiseID) {
		return
	}

	offset, limit := pagination(c)

	var movements []models.StockMovement
	if err := h.db.Where("franchise_id = ?", franchiseID).
		Order("id DESC").Offset(offset).Limit(limit).
		Find(&movements).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "movement list failed", err))
		return
	}
	success(c, gin.H{"movements": movements})
}
