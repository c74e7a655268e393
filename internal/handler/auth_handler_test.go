package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	apperrors "authgate/internal/errors"
	"authgate/internal/model"
	"authgate/internal/validation"
)

// MockAuthService is a mock implementation of service.AuthService.
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Register(ctx context.Context, email, name, plaintext string) (*model.User, string, error) {
	args := m.Called(ctx, email, name, plaintext)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

func (m *MockAuthService) Login(ctx context.Context, email, plaintext string) (*model.User, string, error) {
	args := m.Called(ctx, email, plaintext)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).(*model.User), args.String(1), args.Error(2)
}

type testValidator struct {
	validator *validator.Validate
}

func (tv *testValidator) Validate(i interface{}) error {
	return tv.validator.Struct(i)
}

func newTestEcho(t *testing.T) *echo.Echo {
	t.Helper()
	e := echo.New()
	v := validator.New()
	require.NoError(t, validation.Register(v))
	e.Validator = &testValidator{validator: v}
	return e
}

func postJSON(e *echo.Echo, h echo.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	_ = h(c)
	return rec
}

func TestAuthHandler_Register(t *testing.T) {
	registeredUser := &model.User{ID: "user-1", Email: "alice@example.com", Name: "Alice Doe"}

	tests := []struct {
		name          string
		body          string
		setupMock     func(*MockAuthService)
		expectedCode  int
		expectedInMsg string
	}{
		{
			name: "successful registration",
			body: `{"email":"alice@example.com","name":"Alice Doe","password":"Secur3!Pass"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "alice@example.com", "Alice Doe", "Secur3!Pass").
					Return(registeredUser, "signed-token", nil)
			},
			expectedCode:  http.StatusCreated,
			expectedInMsg: "signed-token",
		},
		{
			name: "duplicate email",
			body: `{"email":"alice@example.com","name":"Alice Doe","password":"Secur3!Pass"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "alice@example.com", "Alice Doe", "Secur3!Pass").
					Return(nil, "", apperrors.ErrEmailAlreadyRegistered)
			},
			expectedCode:  http.StatusConflict,
			expectedInMsg: "DUPLICATE_EMAIL",
		},
		{
			name: "whitespace-padded email is normalized, not rejected",
			body: `{"email":" alice@example.com ","name":" Alice Doe ","password":"Secur3!Pass"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "alice@example.com", "Alice Doe", "Secur3!Pass").
					Return(registeredUser, "signed-token", nil)
			},
			expectedCode:  http.StatusCreated,
			expectedInMsg: "signed-token",
		},
		{
			name: "cased variant of a taken email reaches the duplicate check",
			body: `{"email":"Alice@Example.com","name":"Alice Doe","password":"Secur3!Pass"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Register", mock.Anything, "alice@example.com", "Alice Doe", "Secur3!Pass").
					Return(nil, "", apperrors.ErrEmailAlreadyRegistered)
			},
			expectedCode:  http.StatusConflict,
			expectedInMsg: "DUPLICATE_EMAIL",
		},
		{
			name:          "weak password rejected before the service runs",
			body:          `{"email":"alice@example.com","name":"Alice Doe","password":"weak"}`,
			setupMock:     func(m *MockAuthService) {},
			expectedCode:  http.StatusBadRequest,
			expectedInMsg: "VALIDATION_FAILED",
		},
		{
			name:          "bad name charset rejected",
			body:          `{"email":"alice@example.com","name":"Alice!!","password":"Secur3!Pass"}`,
			setupMock:     func(m *MockAuthService) {},
			expectedCode:  http.StatusBadRequest,
			expectedInMsg: "personname",
		},
		{
			name:          "unknown field rejected outright",
			body:          `{"email":"alice@example.com","name":"Alice Doe","password":"Secur3!Pass","admin":true}`,
			setupMock:     func(m *MockAuthService) {},
			expectedCode:  http.StatusBadRequest,
			expectedInMsg: "VALIDATION_FAILED",
		},
		{
			name:          "malformed body",
			body:          `{"email":`,
			setupMock:     func(m *MockAuthService) {},
			expectedCode:  http.StatusBadRequest,
			expectedInMsg: "invalid request body",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			tt.setupMock(mockService)
			h := NewAuthHandler(mockService)
			e := newTestEcho(t)

			rec := postJSON(e, h.Register, "/api/auth/signup", tt.body)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedInMsg)
			mockService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_RegisterResponseShape(t *testing.T) {
	mockService := new(MockAuthService)
	mockService.On("Register", mock.Anything, "alice@example.com", "Alice Doe", "Secur3!Pass").
		Return(&model.User{ID: "user-1", Email: "alice@example.com", Name: "Alice Doe", PasswordHash: "secret-digest"}, "signed-token", nil)
	h := NewAuthHandler(mockService)
	e := newTestEcho(t)

	rec := postJSON(e, h.Register, "/api/auth/signup",
		`{"email":"alice@example.com","name":"Alice Doe","password":"Secur3!Pass"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "user-1", resp.User.ID)
	assert.Equal(t, "alice@example.com", resp.User.Email)
	assert.Equal(t, "Alice Doe", resp.User.Name)
	assert.Equal(t, "signed-token", resp.AccessToken)

	// The hash must never appear in any external representation.
	assert.NotContains(t, rec.Body.String(), "secret-digest")
	assert.NotContains(t, rec.Body.String(), "passwordHash")
}

func TestAuthHandler_Login(t *testing.T) {
	user := &model.User{ID: "user-1", Email: "alice@example.com", Name: "Alice Doe"}

	tests := []struct {
		name          string
		body          string
		setupMock     func(*MockAuthService)
		expectedCode  int
		expectedInMsg string
	}{
		{
			name: "successful login",
			body: `{"email":"alice@example.com","password":"Secur3!Pass"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "alice@example.com", "Secur3!Pass").
					Return(user, "signed-token", nil)
			},
			expectedCode:  http.StatusOK,
			expectedInMsg: "signed-token",
		},
		{
			name: "padded email is folded before the lookup",
			body: `{"email":" Alice@Example.com ","password":"Secur3!Pass"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "alice@example.com", "Secur3!Pass").
					Return(user, "signed-token", nil)
			},
			expectedCode:  http.StatusOK,
			expectedInMsg: "signed-token",
		},
		{
			name: "invalid credentials",
			body: `{"email":"alice@example.com","password":"wrongpass"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "alice@example.com", "wrongpass").
					Return(nil, "", apperrors.ErrInvalidCredentials)
			},
			expectedCode:  http.StatusUnauthorized,
			expectedInMsg: "INVALID_CREDENTIALS",
		},
		{
			name: "storage failure stays generic",
			body: `{"email":"alice@example.com","password":"Secur3!Pass"}`,
			setupMock: func(m *MockAuthService) {
				m.On("Login", mock.Anything, "alice@example.com", "Secur3!Pass").
					Return(nil, "", assert.AnError)
			},
			expectedCode:  http.StatusInternalServerError,
			expectedInMsg: "internal server error",
		},
		{
			name:          "missing email rejected",
			body:          `{"password":"Secur3!Pass"}`,
			setupMock:     func(m *MockAuthService) {},
			expectedCode:  http.StatusBadRequest,
			expectedInMsg: "VALIDATION_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockAuthService)
			tt.setupMock(mockService)
			h := NewAuthHandler(mockService)
			e := newTestEcho(t)

			rec := postJSON(e, h.Login, "/api/auth/signin", tt.body)

			assert.Equal(t, tt.expectedCode, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.expectedInMsg)
			mockService.AssertExpectations(t)
		})
	}
}

func TestAuthHandler_Profile(t *testing.T) {
	h := NewAuthHandler(new(MockAuthService))
	e := newTestEcho(t)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/profile", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	// Without a guard-attached identity the handler refuses.
	require.NoError(t, h.Profile(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
