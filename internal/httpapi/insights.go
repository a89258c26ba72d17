package httpapi

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"salon/internal/insights"
)

// RegisterInsights mounts the insights, home and service catalog routes.
func (h *Handler) RegisterInsights(r *gin.RouterGroup) {
	r.GET("/insights", h.Insights)
	r.GET("/insights/home", h.Home)
	r.GET("/services", h.Services)
}

// Insights totals the requested days, or every record when no range is given.
func (h *Handler) Insights(c *gin.Context) {
	rng, err := h.queryRange(c)
	if err != nil {
		fail(c, err)
		return
	}
	records, err := h.attendance.Records(c.Request.Context())
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"summary":   insights.Aggregate(records, rng),
		"byService": insights.ByService(records, rng),
		"range":     rng,
	})
}

// Home serves month-to-date totals, from the cache when present. A miss is
// computed from the records but not stored; the worker owns cache writes.
func (h *Handler) Home(c *gin.Context) {
	ctx := c.Request.Context()
	now := h.now()
	month := insights.MonthKey(now, h.loc)

	sum, ok, err := h.cache.Get(ctx, month)
	if err != nil {
		log.Printf("summary cache read %s: %v", month, err)
	}
	if ok {
		c.JSON(http.StatusOK, gin.H{"month": month, "summary": sum, "cached": true})
		return
	}

	records, err := h.attendance.Records(ctx)
	if err != nil {
		fail(c, err)
		return
	}
	r := insights.MonthToDate(now, h.loc)
	sum = insights.Aggregate(records, &r)
	c.JSON(http.StatusOK, gin.H{"month": month, "summary": sum, "cached": false})
}

func (h *Handler) Services(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"services": h.attendance.Services()})
}
