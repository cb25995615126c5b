package api

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/cardledger/cardledger/internal/dbpool"
	"github.com/cardledger/cardledger/internal/middleware"
)

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Log         *logrus.Logger
	Pool        *dbpool.Pool
	Records     RecordProvider
	Edits       EditProvider
	Proposals   ProposalProvider
	Users       UserProvider
	ActorLookup middleware.ActorLookup
	CORSOrigins []string
	Version     string
}

// maxBodySize bounds edit submissions, the largest request bodies.
const maxBodySize = 64 << 20 // 64 MB

// setupMiddleware configures all middleware on the Gin engine.
func setupMiddleware(r *gin.Engine, deps *RouterDeps) {
	r.SetTrustedProxies(nil) //nolint:errcheck // nil always succeeds.
	r.Use(middleware.RequestID(deps.Log))
	r.Use(ginLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(middleware.MaxBodySize(maxBodySize))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     deps.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Authorization"},
		MaxAge:           1 * time.Hour,
		AllowCredentials: false,
	}))
	r.Use(middleware.PrometheusMiddleware())

	// Metrics endpoint (unauthenticated, like health).
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}

// registerRoutes sets up all API route handlers on the given router group.
func registerRoutes(api *gin.RouterGroup, deps *RouterDeps) {
	log := deps.Log

	health := NewHealthHandler(deps.Pool, log, deps.Version)
	records := NewRecordHandler(deps.Records, log)
	edits := NewEditHandler(deps.Edits, log)
	proposals := NewProposalHandler(deps.Proposals, deps.Records, log)
	users := NewUserHandler(deps.Users, log)

	// Health and readiness are unauthenticated.
	api.GET("/health", health.Liveness)
	api.GET("/ready", health.Readiness)

	// All other API routes require authentication.
	api.Use(middleware.AuthMiddleware(deps.ActorLookup, log))

	// Records.
	api.GET("/records", records.List)
	api.POST("/records", records.Create)
	api.GET("/records/:slug", records.Get)
	api.GET("/records/:slug/usage", records.Usage)
	api.GET("/records/:slug/proposals", proposals.ListForRecord)

	// Edits.
	api.POST("/records/:slug/edits", edits.Apply)

	// Labels.
	api.GET("/labels", records.Labels)

	// Review queue.
	api.GET("/proposals", proposals.ListPending)
	api.GET("/proposals/:id", proposals.Get)
	api.POST("/proposals/:id/review", proposals.Review)
	api.GET("/proposals/:id/events", proposals.Events)

	// Admin.
	api.POST("/admin/users", users.Create)
}

// NewRouter creates and configures the Gin engine with all middleware and routes.
func NewRouter(deps *RouterDeps) http.Handler {
	r := gin.New()
	setupMiddleware(r, deps)
	registerRoutes(r.Group("/api/v1"), deps)

	return r
}
