package router

import (
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	echoSwagger "github.com/swaggo/echo-swagger"

	"authgate/internal/config"
	"authgate/internal/handler"
	"authgate/internal/middleware"
	"authgate/internal/token"
	"authgate/internal/validation"
)

var startTime = time.Now()

// Register wires routes and middleware.
func Register(
	e *echo.Echo,
	cfg *config.Config,
	authHandler *handler.AuthHandler,
	tokens *token.Service,
	limiterStore middleware.WindowStore,
) error {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(echomw.CORS())
	e.Use(echomw.BodyLimit("1M"))

	v := validator.New()
	if err := validation.Register(v); err != nil {
		return err
	}
	e.Validator = &CustomValidator{validator: v}

	e.GET("/", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"message": "Welcome to the Authgate API",
			"version": "1.0.0",
			"docs":    "/swagger/index.html",
		})
	})

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{
			"status":      "ok",
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"uptime":      time.Since(startTime).Seconds(),
			"environment": cfg.Env,
		})
	})

	e.GET("/swagger/*", echoSwagger.WrapHandler)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	tiers := middleware.DefaultTiers(cfg.RateLimitWindow, cfg.RateLimitMax)
	api := e.Group("/api", middleware.RateLimit(limiterStore, tiers))

	api.POST("/auth/signup", authHandler.Register)
	api.POST("/auth/signin", authHandler.Login)
	api.GET("/auth/profile", authHandler.Profile, middleware.AccessGuard(tokens))

	return nil
}

// CustomValidator wraps validator for Echo.
type CustomValidator struct {
	validator *validator.Validate
}

// Validate implements echo.Validator interface.
func (cv *CustomValidator) Validate(i interface{}) error {
	return cv.validator.Struct(i)
}
