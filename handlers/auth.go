package handlers

import (
	"errors"
	"net/http"

	"food-delivery-api/apperrors"
	"food-delivery-api/middleware"
	"food-delivery-api/models"

	"github.com/gin-gonic/gin"
	"golang.org/x/crypto/bcrypt"
)

type RegisterRequest struct {
	Name     string      `json:"name" binding:"required"`
	Email    string      `json:"email" binding:"required,email"`
	Password string      `json:"password" binding:"required,min=6"`
	Role     models.Role `json:"role" binding:"required,selfrole"`
	Phone    string      `json:"phone"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a customer, restaurant owner or driver account.
func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.createUser(c, req.Name, req.Email, req.Password, req.Phone, req.Role)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Account created successfully",
		"token":   token,
		"user":    user,
	})
}

func (h *Handler) createUser(c *gin.Context, name, email, password, phone string, role models.Role) (*models.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &models.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		Phone:        phone,
		// Only drivers wait for approval before they can claim orders.
		Approved: role != models.RoleDriver,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		return nil, err
	}
	return user, nil
}

// Login authenticates a user and returns a JWT.
func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if err := bindJSON(c, &req); err != nil {
		h.respondError(c, err)
		return
	}

	user, err := h.users.GetByEmail(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			err = apperrors.InvalidCredentials()
		}
		h.respondError(c, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		h.respondError(c, apperrors.InvalidCredentials())
		return
	}

	token, err := h.tokens.Generate(user)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":    true,
		"message":    "Login successful",
		"token":      token,
		"expires_in": int(h.tokens.Expiry().Seconds()),
		"user":       user,
	})
}

// GetProfile returns the authenticated user's profile.
func (h *Handler) GetProfile(c *gin.Context) {
	id := middleware.CurrentIdentity(c)
	user, err := h.users.GetByID(c.Request.Context(), id.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
