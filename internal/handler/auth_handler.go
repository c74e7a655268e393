package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "authgate/internal/errors"
	"authgate/internal/middleware"
	"authgate/internal/model"
	"authgate/internal/service"
	"authgate/internal/validation"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Name     string `json:"name" validate:"required,min=3,max=100,personname"`
	Password string `json:"password" validate:"required,min=8,max=128,strongpassword"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=128"`
}

// AuthResponse represents a successful authentication response.
type AuthResponse struct {
	User        model.PublicUser `json:"user"`
	AccessToken string           `json:"accessToken"`
}

// ValidationErrorResponse carries field-level violations for a 400.
type ValidationErrorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details []validation.Violation `json:"details,omitempty"`
}

// bindStrict decodes the request body rejecting unknown fields outright.
func bindStrict(c echo.Context, v interface{}) error {
	dec := json.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// Normalize folds the email and trims the name before validation, so casing
// or whitespace variants of a registered address resolve to the same record
// instead of failing the format rules.
func (r *RegisterRequest) Normalize() {
	r.Email = service.NormalizeEmail(r.Email)
	r.Name = strings.TrimSpace(r.Name)
}

// Normalize folds the email before validation.
func (r *LoginRequest) Normalize() {
	r.Email = service.NormalizeEmail(r.Email)
}

func validationFailed(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ValidationErrorResponse{
		Error:   "validation failed",
		Code:    "VALIDATION_FAILED",
		Details: validation.Violations(err),
	})
}

func domainError(c echo.Context, err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	if httpErr.StatusCode == http.StatusInternalServerError {
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Path(), err)
	}
	return c.JSON(httpErr.StatusCode, httpErr.ToErrorResponse())
}

// Register godoc
// @Summary Register a new user
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RegisterRequest true "Registration data"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid request body",
			Code:  "VALIDATION_FAILED",
		})
	}
	req.Normalize()
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	user, accessToken, err := h.authService.Register(c.Request().Context(), req.Email, req.Name, req.Password)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusCreated, AuthResponse{
		User:        user.Public(),
		AccessToken: accessToken,
	})
}

// Login godoc
// @Summary Authenticate with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body LoginRequest true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} ValidationErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /auth/signin [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := bindStrict(c, &req); err != nil {
		return c.JSON(http.StatusBadRequest, apperrors.ErrorResponse{
			Error: "invalid request body",
			Code:  "VALIDATION_FAILED",
		})
	}
	req.Normalize()
	if err := c.Validate(&req); err != nil {
		return validationFailed(c, err)
	}

	user, accessToken, err := h.authService.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return domainError(c, err)
	}

	return c.JSON(http.StatusOK, AuthResponse{
		User:        user.Public(),
		AccessToken: accessToken,
	})
}

// Profile godoc
// @Summary Identity of the authenticated caller
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.PublicUser
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/profile [get]
func (h *AuthHandler) Profile(c echo.Context) error {
	claims, ok := middleware.ClaimsFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, apperrors.ErrorResponse{
			Error: "unauthorized",
			Code:  "UNAUTHORIZED",
		})
	}

	return c.JSON(http.StatusOK, model.PublicUser{
		ID:    claims.UserID(),
		Email: claims.Email,
		Name:  claims.Name,
	})
}
