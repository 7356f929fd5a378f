package handlers

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"bluemedix-system/internal/auth"
	"bluemedix-system/internal/database/models"
	"bluemedix-system/internal/httperr"
	"bluemedix-system/internal/middleware"
)

const otpKeyPrefix = "otp:"

type UserHandler struct {
	db     *gorm.DB
	redis  *redis.Client
	tokens *auth.TokenManager
	otpTTL time.Duration
}

func NewUserHandler(db *gorm.DB, rdb *redis.Client, tokens *auth.TokenManager, otpTTL time.Duration) *UserHandler {
	return &UserHandler{db: db, redis: rdb, tokens: tokens, otpTTL: otpTTL}
}

type userResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	Phone       string `json:"phone,omitempty"`
	FranchiseID *int64 `json:"franchise_id,omitempty"`
}

func toUserResponse(u models.User) userResponse {
	return userResponse{
		ID:          u.ID,
		Name:        u.Name,
		Email:       u.Email,
		Role:        u.Role,
		Status:      u.Status,
		Phone:       u.Phone,
		FranchiseID: u.FranchiseID,
	}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
	Phone    string `json:"phone"`
}

func (h *UserHandler) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "name, email and a password of at least 8 characters are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var count int64
	if err := h.db.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user lookup failed", err))
		return
	}
	if count > 0 {
		respondErr(c, httperr.New(httperr.KindConflict, "email already registered"))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "password hashing failed", err))
		return
	}

	user := models.User{
		Name:     req.Name,
		Email:    email,
		Password: string(hash),
		Phone:    req.Phone,
		Role:     models.RoleUser,
		Status:   models.StatusActive,
	}
	if err := h.db.Create(&user).Error; err != nil {
		// A concurrent registration can slip past the count check; the
		// unique index turns it into a duplicate-key error here.
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			respondErr(c, httperr.New(httperr.KindConflict, "email already registered"))
			return
		}
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user create failed", err))
		return
	}

	created(c, toUserResponse(user))
}

type loginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func (h *UserHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email and password are required")
		return
	}

	var user models.User
	err := h.db.Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.New(httperr.KindUnauthorized, "invalid credentials"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user lookup failed", err))
		return
	}

	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)) != nil {
		respondErr(c, httperr.New(httperr.KindUnauthorized, "invalid credentials"))
		return
	}
	if user.Status != models.StatusActive {
		respondErr(c, httperr.New(httperr.KindForbidden, "account is not active"))
		return
	}

	token, exp, err := h.tokens.GenerateToken(user.ID, user.Role, user.FranchiseID)
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "token generation failed", err))
		return
	}

	now := time.Now()
	h.db.Model(&user).UpdateColumn("last_login", &now)

	success(c, gin.H{
		"token":      token,
		"expires_at": exp,
		"user":       toUserResponse(user),
	})
}

func (h *UserHandler) Me(c *gin.Context) {
	p, _ := middleware.GetPrincipal(c)

	var user models.User
	if err := h.db.First(&user, p.UserID).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user lookup failed", err))
		return
	}
	success(c, toUserResponse(user))
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ForgotPassword issues a 6-digit OTP stored in Redis. The OTP is returned
// in the response body; notification delivery is out of scope.
func (h *UserHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email is required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))

	var user models.User
	err := h.db.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("no account for that email"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user lookup failed", err))
		return
	}

	otp, err := generateOTP()
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "otp generation failed", err))
		return
	}

	if err := h.redis.Set(c.Request.Context(), otpKeyPrefix+email, otp, h.otpTTL).Err(); err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "otp store failed", err))
		return
	}

	success(c, gin.H{"otp": otp, "expires_in_minutes": int(h.otpTTL.Minutes())})
}

type resetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	OTP         string `json:"otp" binding:"required"`
	NewPassword string `json:"new_password" binding:"required,min=8"`
}

func (h *UserHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "email, otp and a new password of at least 8 characters are required")
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	ctx := c.Request.Context()

	stored, err := h.redis.Get(ctx, otpKeyPrefix+email).Result()
	if errors.Is(err, redis.Nil) || (err == nil && stored != req.OTP) {
		respondErr(c, httperr.New(httperr.KindUnauthorized, "invalid or expired otp"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "otp lookup failed", err))
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "password hashing failed", err))
		return
	}

	if err := h.db.Model(&models.User{}).Where("email = ?", email).
		UpdateColumn("password", string(hash)).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "password update failed", err))
		return
	}

	h.redis.Del(ctx, otpKeyPrefix+email)

	success(c, gin.H{"message": "password updated"})
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

// --- Admin user management ---

func (h *UserHandler) ListUsers(c *gin.Context) {
	offset, limit := pagination(c)

	query := h.db.Model(&models.User{})
	if role := c.Query("role"); role != "" {
		query = query.Where("role = ?", role)
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}
	if search := c.Query("search"); search != "" {
		like := "%" + search + "%"
		query = query.Where("name ILIKE ? OR email ILIKE ?", like, like)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user count failed", err))
		return
	}

	var users []models.User
	if err := query.Order("id").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user list failed", err))
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	success(c, gin.H{"users": out, "total": total})
}

func (h *UserHandler) GetUser(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid user id")
		return
	}

	var user models.User
	err = h.db.Preload("Franchise").First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("user not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user lookup failed", err))
		return
	}
	success(c, toUserResponse(user))
}

type updateUserRequest struct {
	Role   *string `json:"role"`
	Status *string `json:"status"`
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid user id")
		return
	}

	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}

	var user models.User
	err = h.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("user not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user lookup failed", err))
		return
	}

	updates := map[string]interface{}{}
	if req.Role != nil {
		if !models.ValidRole(*req.Role) {
			badRequest(c, "invalid role")
			return
		}
		updates["role"] = *req.Role
		// Leaving the manager role drops the franchise binding.
		if *req.Role != models.RoleOrderManager {
			updates["franchise_id"] = nil
		}
	}
	if req.Status != nil {
		if !models.ValidStatus(*req.Status) {
			badRequest(c, "invalid status")
			return
		}
		updates["status"] = *req.Status
	}
	if len(updates) == 0 {
		badRequest(c, "nothing to update")
		return
	}

	if err := h.db.Model(&user).Updates(updates).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user update failed", err))
		return
	}
	success(c, toUserResponse(user))
}

type assignManagerRequest struct {
	FranchiseID int64 `json:"franchise_id" binding:"required"`
}

// AssignManager binds an order manager to a franchise. One manager per
// franchise; the unique index on users.franchise_id backstops the check.
func (h *UserHandler) AssignManager(c *gin.Context) {
	id, err := parseIDParam(c, "id")
	if err != nil {
		badRequest(c, "invalid user id")
		return
	}

	var req assignManagerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "franchise_id is required")
		return
	}

	var user models.User
	err = h.db.First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("user not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "user lookup failed", err))
		return
	}
	if user.Role != models.RoleOrderManager {
		badRequest(c, "only order managers can be assigned to a franchise")
		return
	}

	var franchise models.Franchise
	err = h.db.First(&franchise, req.FranchiseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondErr(c, httperr.NotFound("franchise not found"))
		return
	}
	if err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "franchise lookup failed", err))
		return
	}

	var taken int64
	if err := h.db.Model(&models.User{}).
		Where("franchise_id = ? AND id <> ?", req.FranchiseID, user.ID).
		Count(&taken).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "manager lookup failed", err))
		return
	}
	if taken > 0 {
		respondErr(c, httperr.New(httperr.KindConflict, "franchise already has a manager"))
		return
	}

	if err := h.db.Model(&user).UpdateColumn("franchise_id", req.FranchiseID).Error; err != nil {
		respondErr(c, httperr.Wrap(httperr.KindInternal, "manager assignment failed", err))
		return
	}

	user.FranchiseID = &req.FranchiseID
	success(c, toUserResponse(user))
}
