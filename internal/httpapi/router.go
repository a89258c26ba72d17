// Package httpapi exposes the salon screens as a JSON API.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"salon/internal/attendance"
	"salon/internal/auth"
	"salon/internal/cloudinary"
	"salon/internal/customer"
	"salon/internal/httpmiddleware"
	"salon/internal/insights"
	"salon/internal/metrics"
)

// PhotoUploader stores profile images and returns their public result.
type PhotoUploader interface {
	UploadBytes(ctx context.Context, publicID string, data []byte, filename string) (*cloudinary.UploadResult, error)
	UploadDataURL(ctx context.Context, publicID, data string) (*cloudinary.UploadResult, error)
}

// HealthCheck reports whether one dependency is reachable.
type HealthCheck func(ctx context.Context) bool

// Deps are the collaborators the API is built from.
type Deps struct {
	Customers  *customer.Service
	Attendance *attendance.Service
	Auth       *auth.Provider
	Cache      insights.Cache
	// Photos is nil when image storage is not configured.
	Photos     PhotoUploader
	Limiter    httpmiddleware.Limiter
	Health     map[string]HealthCheck
	SigningKey string
	Issuer     string
	Location   *time.Location
}

// Handler serves every /v1 route.
type Handler struct {
	customers  *customer.Service
	attendance *attendance.Service
	auth       *auth.Provider
	cache      insights.Cache
	photos     PhotoUploader
	health     map[string]HealthCheck
	loc        *time.Location
	now        func() time.Time
}

// New creates a handler.
func New(d Deps) *Handler {
	loc := d.Location
	if loc == nil {
		loc = time.UTC
	}
	cache := d.Cache
	if cache == nil {
		cache = insights.NoCache{}
	}
	return &Handler{
		customers:  d.Customers,
		attendance: d.Attendance,
		auth:       d.Auth,
		cache:      cache,
		photos:     d.Photos,
		health:     d.Health,
		loc:        loc,
		now:        time.Now,
	}
}

// NewRouter builds the gin engine with middleware and all routes.
func NewRouter(d Deps) *gin.Engine {
	h := New(d)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:    []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:   []string{"Content-Disposition"},
		MaxAge:          24 * time.Hour,
	}))
	r.Use(securityHeaders())
	r.Use(metrics.GinMiddleware())
	if d.Limiter != nil {
		r.Use(httpmiddleware.RateLimit(d.Limiter))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.GET("/healthz", h.Healthz)

	v1 := r.Group("/v1")
	h.RegisterAuth(v1.Group("/auth"))

	secured := v1.Group("", auth.Required(d.SigningKey, d.Issuer))
	h.RegisterCustomers(secured.Group("/customers"))
	h.RegisterAttendance(secured.Group("/attendance"))
	h.RegisterInsights(secured)
	return r
}

// Healthz reports each dependency; any failure is a 503.
func (h *Handler) Healthz(c *gin.Context) {
	out := gin.H{"status": "ok"}
	code := http.StatusOK
	for name, check := range h.health {
		ok := check(c.Request.Context())
		out[name] = ok
		if !ok {
			code = http.StatusServiceUnavailable
			out["status"] = "degraded"
		}
	}
	c.JSON(code, out)
}

func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")
		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}
		c.Next()
	}
}
