package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"bluemedix-system/internal/database/models"
	"bluemedix-system/internal/httperr"
)

type FranchiseHandler struct {
	db *gorm.DB
}

func NewFranchiseHandler(db *gorm.DB) *FranchiseHandler {
	return &FranchiseHandler{db: db}
}

type franchiseRequest struct {
	Name    string `json:"name" binding:"required"`
	Street  string `json:"street" binding:"required"`
	City    string `json:"city" binding:"required"`
	State   string `json:"state" binding:"required"`
	Pincode string `json:"pincode" binding:"required"`
	Country string `json:"country"`
	Contact string `json:"contact"`
	Email   string `json:"email" binding:"required,email"`
}

func (h *FranchiseHandler) Create(c *gin.Context) {
	var req franchiseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name, address fields and email are required")
		return
	}

	var count int64
	if err := h.db.Model(&models.Franchise{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise lookup failed", err))
		return
	}
	if count > 0 {
		respondErr(c, httperr.New(httperr.KindConflict, "franchise email already in use"))
		return
	}

	franchise := models.Franchise{
		Name:     req.Name,
		Street:   req.Street,
		City:     req.City,
		State:    req.State,
		Pincode:  req.Pincode,
		Country:  req.Country,
		Contact:  req.Contact,
		Email:    req.Email,
		IsActive: true,
	}
	if franchise.Country == "" {
		franchise.Country = "India"
	}

	if err := h.db.Create(&franchise).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise create failed", err))
		return
	}
	created(c, franchise)
}

func (h *FranchiseHandler) List(c *gin.Context) {
	offset, limit := pagination(c)

	query := h.db.Model(&models.Franchise{})
	if active := parseBoolQuery(c, "active"); active != nil {
		query = query.Where("is_active = ?", *active)
	}
	if city := c.Query("city"); city != "" {
		query = query.Where("city = ?", city)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise count failed", err))
		return
	}

	var franchises []models.Franchise
	if err := query.Order("id").Offset(offset).Limit(limit).Find(&franchises).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise list failed", err))
		return
	}
	success(c, gin.H{"franchises": franchises, "total": total})
}

func (h *FranchiseHandler) Get(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid franchise id")
		return
	}

	var franchise models.Franchise
	err = h.db.First(&franchise, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("franchise not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise lookup failed", err))
		return
	}
	success(c, franchise)
}

type franchiseUpdateRequest struct {
	Name    *string `json:"name"`
	Street  *string `json:"street"`
	City    *string `json:"city"`
	State   *string `json:"state"`
	Pincode *string `json:"pincode"`
	Country *string `json:"country"`
	Contact *string `json:"contact"`
	IsActive *bool  `json:"is_active"`
}

func (h *FranchiseHandler) Update(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid franchise id")
		return
	}

	var franchise models.Franchise
	err = h.db.First(&franchise, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("franchise not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise lookup failed", err))
		return
	}

	var req franchiseUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	updates := map[string]interface{}{}
	if req.Name != nil {
		updates["name"] = *req.Name
	}
	if req.Street != nil {
		updates["street"] = *req.Street
	}
	if req.City != nil {
		updates["city"] = *req.City
	}
	if req.State != nil {
		updates["state"] = *req.State
	}
	if req.Pincode != nil {
		updates["pincode"] = *req.Pincode
	}
	if req.Country != nil {
		updates["country"] = *req.Country
	}
	if req.Contact != nil {
		updates["contact"] = *req.Contact
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if len(updates) == 0 {
		badRequest(c, "nothing to update")
		return
	}

	if err := h.db.Model(&franchise).Updates(updates).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise update failed", err))
		return
	}
	success(c, franchise)
}

// Delete deactivates a franchise that has order history and hard-deletes
// one that does not.
func (h *FranchiseHandler) Delete(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid franchise id")
		return
	}

	var franchise models.Franchise
	err = h.db.First(&franchise, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("franchise not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise lookup failed", err))
		return
	}

	var orderCount int64
	if err := h.db.Model(&models.Order{}).Where("franchise_id = ?", id).Count(&orderCount).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "order lookup failed", err))
		return
	}

	if orderCount > 0 {
		if err := h.db.Model(&franchise).UpdateColumn("is_active", false).Error; err != nil {
			respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise deactivation failed", err))
			return
		}
		success(c, gin.H{"message": "franchise has orders; deactivated instead of deleted"})
		return
	}

	if err := h.db.Delete(&franchise).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise delete failed", err))
		return
	}
	success(c, gin.H{"message": "franchise deleted"})
}
