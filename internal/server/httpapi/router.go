// Package httpapi exposes the collection ledger and the recognition
// flow over HTTP. Error bodies carry a "detail" field the way clients
// already expect.
package httpapi

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/skydexapp/skydex/internal/logging"
)

// RouterConfig wires the handlers' dependencies into the router.
type RouterConfig struct {
	Users      UserService
	Ledger     LedgerService
	Recognizer RecognizeService
	JWTSecret  []byte
	Logger     logging.Logger
}

// NewRouter builds the gin engine with all API routes mounted.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestID())

	h := &Handler{
		users:      cfg.Users,
		ledger:     cfg.Ledger,
		recognizer: cfg.Recognizer,
		log:        cfg.Logger,
	}

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	api.GET("/health", h.Health)
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)

	protected := api.Group("/")
	protected.Use(RequireAuth(cfg.JWTSecret))
	protected.GET("/user/state", h.GetState)
	protected.POST("/user/lit", h.LitCard)
	protected.POST("/user/unlock", h.UnlockCard)
	protected.POST("/user/migrate", h.Migrate)
	protected.POST("/recognize", h.Recognize)

	return router
}
