package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bluemedix-system/internal/database/models"
	"bluemedix-system/internal/httperr"
	"bluemedix-system/internal/middleware"
)

type AddressHandler struct {
	db *gorm.DB
}

func NewAddressHandler(db *gorm.DB) *AddressHandler {
	return &AddressHandler{db: db}
}

type addressRequest struct {
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Pincode string `json:"pincode" binding:"required"`
	Country string `json:"country"`
	Phone   string `json:"phone"`
}

func (h *AddressHandler) Create(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "street, city, state and pincode are required")
		return
	}

	address := models.Address{
		UserID:  p.UserID,
		Street:  req.Street,
		City:    req.City,
		State:   req.State,
		Pincode: req.Pincode,
		Country: req.Country,
		Phone:   req.Phone,
		Status:  models.StatusActive,
	}
	if address.Country == "" {
		address.Country = "India"
	}

	if err := h.db.Create(&address).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "address create failed", err))
		return
	}
	created(c, address)
}

func (h *AddressHandler) List(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var addresses []models.Address
	if err := h.db.Where("user_id = ?", p.UserID).Order("id").Find(&addresses).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "address list failed", err))
		return
	}
	success(c, gin.H{"addresses": addresses})
}

func (h *AddressHandler) Update(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid address id")
		return
	}

	var address models.Address
	err = h.db.Where("id = ? AND user_id = ?", id, p.UserID).First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("address not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "address lookup failed", err))
		return
	}

	var req addressRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "street, city, state and pincode are required")
		return
	}

	updates := map[string]interface{}{
		"street":  req.Street,
		"city":    req.City,
		"state":   req.State,
		"pincode": req.Pincode,
	}
	if req.Country != "" {
		updates["country"] = req.Country
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}

	if err := h.db.Model(&address).Updates(updates).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "address update failed", err))
		return
	}
	success(c, address)
}

// Delete refuses while an order still references the address; the order
// ledger keeps its snapshot valid.
func (h *AddressHandler) Delete(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid address id")
		return
	}

	var address models.Address
	err = h.db.Where("id = ? AND user_id = ?", id, p.UserID).First(&address).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("address not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "address lookup failed", err))
		return
	}

	var orderCount int64
	if err := h.db.Model(&models.Order{}).Where("address_id = ?", id).Count(&orderCount).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "order lookup failed", err))
		return
	}
	if orderCount > 0 {
		respondErr(c, httperr.New(httperr.KindConflict, "address is referenced by orders"))
		return
	}

	if err := h.db.Delete(&address).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "address delete failed", err))
		return
	}
	success(c, gin.H{"message": "address deleted"})
}
