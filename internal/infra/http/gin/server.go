package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"gearshare/internal/infra/config"
	"gearshare/internal/infra/obs"
)

type RentalHTTP interface {
	Create(c *gin.Context)
	UpdateStatus(c *gin.Context)
	StartPayment(c *gin.Context)
	Delete(c *gin.Context)
}

type AvailabilityHTTP interface {
	Check(c *gin.Context)
}

type PaymentWebhookHTTP interface {
	Receive(c *gin.Context)
}

type ReturnHTTP interface {
	Initiate(c *gin.Context)
	AssessDamage(c *gin.Context)
}

type Handlers struct {
	Rental         RentalHTTP
	Availability   AvailabilityHTTP
	PaymentWebhook PaymentWebhookHTTP
	Return         ReturnHTTP
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization", "Idempotency-Key"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Rental != nil {
		api.POST("/rentals", h.Rental.Create)
		api.POST("/rentals/:id/status", h.Rental.UpdateStatus)
		api.POST("/rentals/:id/payment", h.Rental.StartPayment)
		api.DELETE("/rentals/:id", h.Rental.Delete)
	}
	if h.Availability != nil {
		api.GET("/products/:id/availability", h.Availability.Check)
	}
	if h.PaymentWebhook != nil {
		api.POST("/webhooks/payments", h.PaymentWebhook.Receive)
	}
	if h.Return != nil {
		api.POST("/returns", h.Return.Initiate)
		api.POST("/returns/:id/damage-assessment", h.Return.AssessDamage)
	}

	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug", "dev":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
