package http

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/SHIS22proxy/paygate/internal/config"
	"github.com/SHIS22proxy/paygate/internal/http/handlers"
	"github.com/SHIS22proxy/paygate/internal/http/middleware"
	"github.com/SHIS22proxy/paygate/internal/modules/alerts"
	"github.com/SHIS22proxy/paygate/internal/modules/gateways"
	"github.com/SHIS22proxy/paygate/internal/modules/orders"
	"github.com/SHIS22proxy/paygate/internal/modules/webhooks"
	"github.com/SHIS22proxy/paygate/internal/storage"
)

// Deps carries the process-level dependencies the router wires into handlers.
// Archive and Notifier may be nil; the matching feature is then disabled.
type Deps struct {
	Logger   *slog.Logger
	DB       *gorm.DB
	Config   config.Config
	Archive  storage.Archive
	Notifier alerts.Notifier
}

func NewRouter(d Deps) *gin.Engine {
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(d.Logger))
	r.Use(middleware.Recovery(d.Logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.ErrorHandler(d.Logger))

	gws := make([]gateways.Gateway, 0, len(d.Config.Gateways))
	for _, gc := range d.Config.Gateways {
		cfg := gateways.Config{Gateway: gc.Name, Secret: gc.Secret, MaxSkew: gc.MaxSkew}
		switch gc.Name {
		case "stripe":
			gws = append(gws, gateways.NewStripe(cfg))
		case "razorpay":
			gws = append(gws, gateways.NewRazorpay(cfg))
		}
	}
	registry := gateways.NewRegistry(gws...)

	ordersSvc := orders.NewService(orders.NewRepo(d.DB))
	ordersSvc.SetLogger(d.Logger)

	engine := webhooks.NewService(d.DB)
	engine.SetLogger(d.Logger)
	if d.Config.WebhookTimeout > 0 {
		engine.SetTimeout(d.Config.WebhookTimeout)
	}
	if d.Archive != nil {
		engine.SetArchive(d.Archive)
	}
	if d.Notifier != nil {
		engine.SetNotifier(d.Notifier)
	}

	wh := handlers.NewWebhookHandler(d.Logger, registry, engine)
	oh := handlers.NewOrdersHandler(d.Logger, ordersSvc)

	r.POST("/webhooks/:gateway", wh.Handle)

	api := r.Group("/api", middleware.RequireToken(d.Config.OpsAPIToken))
	{
		api.POST("/orders", oh.Register)
		api.GET("/orders", oh.List)
		api.GET("/orders/:id", oh.Get)
	}

	r.GET("/health", func(c *gin.Context) {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request.Context())
		}
		if err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "gateways": registry.Names()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}
