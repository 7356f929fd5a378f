package handlers

import (
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bluemedix-system/internal/database/models"
	"bluemedix-system/internal/httperr"
	"bluemedix-system/internal/middleware"
	"bluemedix-system/internal/orders"
	"bluemedix-system/internal/pricing"
)

type OrderHandler struct {
	db   *gorm.DB
	calc *pricing.Calculator
}

func NewOrderHandler(db *gorm.DB, calc *pricing.Calculator) *OrderHandler {
	return &OrderHandler{db: db, calc: calc}
}

type createOrderRequest struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Franchise int64 `json:"franchise" binding:"required"`
	Address   int64 `json:"deliveryAddress" binding:"required"`
	Quantity  int32 `json:"quantity"`
}

// createOrderInTx validates the referenced entities, computes all amounts
// server-side, inserts the order and decrements warehouse stock by the
// ordered quantity in a single conditional update. Runs inside the
// caller's transaction so a failure anywhere leaves no partial writes.
func createOrderInTx(tx *gorm.DB, calc *pricing.Calculator, userID, productID, franchiseID, addressID int64, quantity int32) (*models.Order, error) {
	if quantity < 1 {
		quantity = 1
	}

	var product models.Product
	if err := tx.First(&product, productID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("product not found")
		}
		return nil, httperr.Wrap(httperr.KindInternal, "product lookup failed", err)
	}
	if !product.IsPublished {
		return nil, httperr.Validation("product is not available")
	}

	var franchise models.Franchise
	if err := tx.First(&franchise, franchiseID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("franchise not found")
		}
		return nil, httperr.Wrap(httperr.KindInternal, "franchise lookup failed", err)
	}
	if !franchise.IsActive {
		return nil, httperr.Validation("franchise is not active")
	}

	var address models.Address
	if err := tx.First(&address, addressID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, httperr.NotFound("address not found")
		}
		return nil, httperr.Wrap(httperr.KindInternal, "address lookup failed", err)
	}
	if address.UserID != userID {
		return nil, httperr.Forbidden("address does not belong to the caller")
	}

	amounts, err := calc.OrderAmounts(product.Price, product.DiscountPercent, quantity, franchise.Pincode, address.Pincode)
	if err != nil {
		return nil, httperr.Wrap(httperr.KindInternal, "amount computation failed", err)
	}

	order := models.Order{
		OrderID:         orders.NewOrderID(),
		UserID:          userID,
		ProductID:       product.ID,
		FranchiseID:     franchise.ID,
		AddressID:       address.ID,
		Quantity:        quantity,
		ProductName:     product.Name,
		UnitPrice:       product.Price,
		DiscountPercent: product.DiscountPercent,
		SubtotalAmount:  amounts.Subtotal.String(),
		DeliveryCharge:  amounts.DeliveryCharge.String(),
		TotalAmount:     amounts.Total.String(),
		PaymentStatus:   models.PaymentPending,
		DeliveryStatus:  models.DeliveryPending,
	}
	if err := tx.Create(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, httperr.New(httperr.KindConflict, "duplicate order id, retry the request")
		}
		return nil, httperr.Wrap(httperr.KindInternal, "order create failed", err)
	}

	// Conditional decrement: zero rows affected means the stock was
	// insufficient, and the enclosing transaction rolls the order back.
	res := tx.Model(&models.Product{}).
		Where("id = ? AND warehouse_stock >= ?", product.ID, quantity).
		UpdateColumn("warehouse_stock", gorm.Expr("warehouse_stock - ?", quantity))
	if res.Error != nil {
		return nil, httperr.Wrap(httperr.KindInternal, "stock decrement failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, httperr.New(httperr.KindInsufficientStock,
			fmt.Sprintf("insufficient warehouse stock for %s", product.Name))
	}

	ref := order.OrderID
	if err := tx.Create(&models.StockMovement{
		ProductID:   product.ID,
		Movement:    models.MovementOrder,
		Quantity:    quantity,
		ReferenceID: &ref,
		CreatedBy:   userID,
		CreatedAt:   time.Now(),
	}).Error; err != nil {
		return nil, httperr.Wrap(httperr.KindInternal, "stock movement write failed", err)
	}

	return &order, nil
}

func (h *OrderHandler) Create(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var req createOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "product_id, franchise and deliveryAddress are required")
		return
	}
	if req.Quantity < 0 {
		badRequest(c, "quantity must not be negative")
		return
	}

	var order *models.Order
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		var err error
		order, err = createOrderInTx(tx, h.calc, p.UserID, req.ProductID, req.Franchise, req.Address, req.Quantity)
		return err
	})
	if txErr != nil {
		respondErr(c, txErr)
		return
	}

	if err := h.db.Preload("Product").Preload("Franchise").Preload("Address").
		First(order, order.ID).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "order reload failed", err))
		return
	}
	created(c, gin.H{"order": order})
}

// applyStatusTransition writes the delivery status with a compare-and-swap
// against the status the caller validated, so a concurrent writer that moved
// the order in the meantime fails the swap instead of re-running side
// effects. The restock on a transition into cancelled therefore fires at
// most once per order even under concurrent cancel requests.
func applyStatusTransition(tx *gorm.DB, order *models.Order, next string, actorID int64) error {
	res := tx.Model(&models.Order{}).
		Where("id = ? AND delivery_status = ?", order.ID, order.DeliveryStatus).
		UpdateColumn("delivery_status", next)
	if res.Error != nil {
		return httperr.Wrap(httperr.KindInternal, "status update failed", res.Error)
	}
	if res.RowsAffected == 0 {
		return httperr.New(httperr.KindConflict, "order was updated concurrently")
	}
	order.DeliveryStatus = next

	if next == models.DeliveryCancelled {
		if err := tx.Model(&models.Product{}).
			Where("id = ?", order.ProductID).
			UpdateColumn("warehouse_stock", gorm.Expr("warehouse_stock + ?", order.Quantity)).Error; err != nil {
			return httperr.Wrap(httperr.KindInternal, "restock failed", err)
		}
		ref := order.OrderID
		if err := tx.Create(&models.StockMovement{
			ProductID:   order.ProductID,
			Movement:    models.MovementRestock,
			Quantity:    order.Quantity,
			ReferenceID: &ref,
			CreatedBy:   actorID,
			CreatedAt:   time.Now(),
		}).Error; err != nil {
			return httperr.Wrap(httperr.KindInternal, "stock movement write failed", err)
		}
	}
	return nil
}

type updateStatusRequest struct {
	DeliveryStatus string `json:"deliverystatus" binding:"required"`
}

// UpdateStatus advances an order along the delivery state machine.
// Admins may update any order; an order manager only its own franchise's.
// Setting the current status again is a no-op and in particular never
// re-triggers the cancellation restock.
func (h *OrderHandler) UpdateStatus(c *gin.Context) {
	orderID := c.Param("orderId")

	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "deliverystatus is required")
		return
	}
	if !orders.ValidStatus(req.DeliveryStatus) {
		badRequest(c, "unknown delivery status")
		return
	}

	p, _ := middleware.GetPrincipal(c)

	var order models.Order
	txErr := h.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", orderID).First(&order).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return httperr.NotFound("order not found")
			}
			return httperr.Wrap(httperr.KindInternal, "order lookup failed", err)
		}

		if !p.IsAdmin() && !p.ManagesFranchise(order.FranchiseID) {
			return httperr.Forbidden("not authorized for this order")
		}

		if order.DeliveryStatus == req.DeliveryStatus {
			return nil
		}
		if !orders.CanTransition(order.DeliveryStatus, req.DeliveryStatus) {
			return httperr.New(httperr.KindInvalidTransition,
				fmt.Sprintf("cannot move order from %s to %s", order.DeliveryStatus, req.DeliveryStatus))
		}

		return applyStatusTransition(tx, &order, req.DeliveryStatus, p.UserID)
	})
	if txErr != nil {
		respondErr(c, txErr)
		return
	}

	success(c, gin.H{"order": gin.H{
		"_id":            order.ID,
		"order_id":       order.OrderID,
		"deliverystatus": order.DeliveryStatus,
	}})
}

type updatePaymentRequest struct {
	PaymentStatus string  `json:"paymentStatus" binding:"required"`
	PaymentID     *string `json:"paymentid"`
}

func validPaymentStatus(s string) bool {
	switch s {
	case models.PaymentPending, models.PaymentPaid, models.PaymentFailed, models.PaymentRefunded:
		return true
	}
	return false
}

// UpdatePayment is admin-only; the route enforces the role.
func (h *OrderHandler) UpdatePayment(c *gin.Context) {
	orderID := c.Param("orderId")

	var req updatePaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "paymentStatus is required")
		return
	}
	if !validPaymentStatus(req.PaymentStatus) {
		badRequest(c, "unknown payment status")
		return
	}

	var order models.Order
	err := h.db.Where("order_id = ?", orderID).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("order not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "order lookup failed", err))
		return
	}

	updates := map[string]interface{}{"payment_status": req.PaymentStatus}
	if req.PaymentID != nil {
		updates["payment_id"] = *req.PaymentID
	}
	if err := h.db.Model(&order).Updates(updates).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "payment update failed", err))
		return
	}

	success(c, gin.H{"order": gin.H{
		"_id":           order.ID,
		"order_id":      order.OrderID,
		"paymentStatus": order.PaymentStatus,
	}})
}

// MyOrders lists the caller's own orders.
func (h *OrderHandler) MyOrders(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)
	offset, limit := pagination(c)

	var list []models.Order
	if err := h.db.Where("user_id = ?", p.UserID).
		Preload("Product").Preload("Franchise").
		Order("id DESC").Offset(offset).Limit(limit).
		Find(&list).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "order list failed", err))
		return
	}
	success(c, gin.H{"orders": list})
}

// Get returns a single order, visible to its owner, an admin, or the
// manager of the fulfilling franchise.
func (h *OrderHandler) Get(c *gin.Context) {
	orderID := c.Param("orderId")
	p, _ := middleware.GetPrincipal(c)

	var order models.Order
	err := h.db.Where("order_id = ?", orderID).
		Preload("Product").Preload("Franchise").Preload("Address").
		First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("order not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "order lookup failed", err))
		return
	}

	if order.UserID != p.UserID && !p.IsAdmin() && !p.ManagesFranchise(order.FranchiseID) {
		respondErr(c, httperr.Forbidden("not authorized for this order"))
		return
	}
	success(c, gin.H{"order": order})
}

// FranchiseOrders lists a franchise's orders for its manager or an admin.
// Registered under /franchises/:id, so the param name is "id" here.
func (h *OrderHandler) FranchiseOrders(c *gin.Context) {
	franchiseID, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid franchise id")
		return
	}
	if !franchiseScope(c, franchiseID) {
		return
	}

	offset, limit := pagination(c)

	query := h.db.Where("franchise_id = ?", franchiseID)
	if status := c.Query("status"); status != "" {
		query = query.Where("delivery_status = ?", status)
	}

	var list []models.Order
	if err := query.Preload("Product").Preload("Address").
		Order("id DESC").Offset(offset).Limit(limit).
		Find(&list).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "order list failed", err))
		return
	}
	success(c, gin.H{"orders": list})
}

// ListAll is the admin view over every order.
func (h *OrderHandler) ListAll(c *gin.Context) {
	offset, limit := pagination(c)

	query := h.db.Model(&models.Order{})
	if status := c.Query("status"); status != "" {
		query = query.Where("delivery_status = ?", status)
	}
	if payment := c.Query("payment"); payment != "" {
		query = query.Where("payment_status = ?", payment)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "order count failed", err))
		return
	}

	var list []models.Order
	if err := query.Preload("Product").Preload("Franchise").
		Order("id DESC").Offset(offset).Limit(limit).
		Find(&list).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "order list failed", err))
		return
	}
	success(c, gin.H{"orders": list, "total": total})
}
