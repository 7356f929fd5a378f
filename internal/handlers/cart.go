package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bluemedix-system/internal/database/models"
	"bluemedix-system/internal/httperr"
	"bluemedix-system/internal/middleware"
	"bluemedix-system/internal/pricing"
)

type CartHandler struct {
	db   *gorm.DB
	calc *pricing.Calculator
}

func NewCartHandler(db *gorm.DB, calc *pricing.Calculator) *CartHandler {
	return &CartHandler{db: db, calc: calc}
}

type addCartRequest struct {
	ProductID   int64  `json:"product_id" binding:"required"`
	FranchiseID *int64 `json:"franchise_id"`
	Quantity    int32  `json:"quantity"`
}

// Add creates a cart row for (user, product, franchise) or accumulates
// quantity on an existing one.
func (h *CartHandler) Add(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var req addCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id is required")
		return
	}
	if req.Quantity < 0 {
		badRequest(c, "quantity must not be negative")
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	var product models.Product
	err := h.db.First(&product, req.ProductID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("product not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "product lookup failed", err))
		return
	}
	if !product.IsPublished {
		badRequest(c, "product is not available")
		return
	}

	if req.FranchiseID != nil {
		var franchise models.Franchise
		err := h.db.First(&franchise, *req.FranchiseID).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			respondErr(c, httperr.NotFound("franchise not found"))
			return
		}
		if err != nil {
			respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise lookup failed", err))
			return
		}
	}

	var item models.CartItem
	query := h.db.Where("user_id = ? AND product_id = ?", p.UserID, req.ProductID)
	if req.FranchiseID != nil {
		query = query.Where("franchise_id = ?", *req.FranchiseID)
	} else {
		query = query.Where("franchise_id IS NULL")
	}

	err = query.First(&item).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		item = models.CartItem{
			UserID:      p.UserID,
			ProductID:   req.ProductID,
			FranchiseID: req.FranchiseID,
			Quantity:    req.Quantity,
		}
		if err := h.db.Create(&item).Error; err != nil {
			respondErr(c, httperr.Wrap(httperr.KindInternal, "cart add failed", err))
			return
		}
	case err != nil:
		respondErr(c, httperr.Wrap(httperr.KindInternal, "cart lookup failed", err))
		return
	default:
		if err := h.db.Model(&item).
			UpdateColumn("quantity", gorm.Expr("quantity + ?", req.Quantity)).Error; err != nil {
			respondErr(c, httperr.Wrap(httperr.KindInternal, "cart update failed", err))
			return
		}
		item.Quantity += req.Quantity
	}

	created(c, gin.H{"item": item})
}

type updateCartRequest struct {
	Quantity int32 `json:"quantity" binding:"required"`
}

func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	itemID, err := parseIDParam(c, "itemId")
	if err != nil {
		badRequest(c, "invalid cart item id")
		return
	}

	var req updateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Quantity < 1 {
		badRequest(c, "quantity must be at least 1")
		return
	}

	var item models.CartItem
	err = h.db.Where("id = ? AND user_id = ?", itemID, p.UserID).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("cart item not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "cart lookup failed", err))
		return
	}

	if err := h.db.Model(&item).UpdateColumn("quantity", req.Quantity).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "cart update failed", err))
		return
	}
	item.Quantity = req.Quantity
	success(c, gin.H{"item": item})
}

func (h *CartHandler) Remove(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	itemID, err := parseIDParam(c, "itemId")
	if err != nil {
		badRequest(c, "invalid cart item id")
		return
	}

	res := h.db.Where("id = ? AND user_id = ?", itemID, p.UserID).Delete(&models.CartItem{})
	if res.Error != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "cart remove failed", res.Error))
		return
	}
	if res.RowsAffected == 0 {
		respondErr(c, httperr.NotFound("cart item not found"))
		return
	}
	success(c, gin.H{"message": "item removed"})
}

func (h *CartHandler) Clear(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	if err := h.db.Where("user_id = ?", p.UserID).Delete(&models.CartItem{}).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "cart clear failed", err))
		return
	}
	success(c, gin.H{"message": "cart cleared"})
}

func (h *CartHandler) List(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var items []models.CartItem
	if err := h.db.Where("user_id = ?", p.UserID).
		Preload("Product").Preload("Franchise").
		Order("id").Find(&items).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "cart list failed", err))
		return
	}
	success(c, gin.H{"items": items})
}

type checkoutRequest struct {
	Address int64 `json:"deliveryAddress" binding:"required"`
}

// Checkout converts every cart row into an order (one order per row) and
// clears the cart, all in a single transaction. If any line cannot be
// fulfilled the whole checkout rolls back.
func (h *CartHandler) Checkout(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "deliveryAddress is required")
		return
	}

	var placed []models.Order
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var items []models.CartItem
		if err := tx.Where("user_id = ?", p.UserID).Order("id").Find(&items).Error; err != nil {
			return httperr.Wrap(httperr.KindInternal, "cart list failed", err)
		}
		if len(items) == 0 {
			return httperr.Validation("cart is empty")
		}

		for _, item := range items {
			if item.FranchiseID == nil {
				return httperr.Validation("every cart item needs a fulfilling franchise before checkout")
			}
			order, err := createOrderInTx(tx, h.calc, p.UserID, item.ProductID, *item.FranchiseID, req.Address, item.Quantity)
			if err != nil {
				return err
			}
			placed = append(placed, *order)
		}

		if err := tx.Where("user_id = ?", p.UserID).Delete(&models.CartItem{}).Error; err != nil {
			return httperr.Wrap(httperr.KindInternal, "cart clear failed", err)
		}
		return nil
	})
	if txErr != nil {
		respondErr(c, txErr)
		return
	}

	created(c, gin.H{"orders": placed})
}
