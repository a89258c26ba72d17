package httpapi

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"salon/internal/apperr"
	"salon/internal/attendance"
	"salon/internal/insights"
	"salon/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// RegisterAttendance mounts mark, history and update screens.
func (h *Handler) RegisterAttendance(r *gin.RouterGroup) {
	r.POST("", h.MarkAttendance)
	r.GET("", h.History)
	r.GET("/export", h.ExportHistory)
	r.GET("/:id", h.GetAttendance)
	r.PATCH("/:id", h.UpdateAttendance)
	r.DELETE("/:id", h.DeleteAttendance)
}

func (h *Handler) MarkAttendance(c *gin.Context) {
	var in attendance.MarkInput
	if !bindJSON(c, &in) {
		return
	}
	rec, err := h.attendance.Mark(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, rec)
}

func (h *Handler) History(c *gin.Context) {
	records, r, ok := h.history(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"records": records,
		"summary": insights.Aggregate(records, &r),
		"range":   r,
	})
}

func (h *Handler) ExportHistory(c *gin.Context) {
	records, r, ok := h.history(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := insights.WriteWorkbook(&buf, records, insights.Aggregate(records, &r), insights.ByService(records, &r), h.loc); err != nil {
		fail(c, err)
		return
	}
	name := fmt.Sprintf("attendance-%s-%s.xlsx", r.Start.In(h.loc).Format(model.DateLayout), r.End.In(h.loc).Format(model.DateLayout))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

func (h *Handler) history(c *gin.Context) ([]model.AttendanceRecord, insights.Range, bool) {
	rng, err := h.queryRange(c)
	if err != nil {
		fail(c, err)
		return nil, insights.Range{}, false
	}
	records, r, err := h.attendance.History(c.Request.Context(), attendance.Query{Range: rng, Search: c.Query("search")})
	if err != nil {
		fail(c, err)
		return nil, insights.Range{}, false
	}
	return records, r, true
}

func (h *Handler) GetAttendance(c *gin.Context) {
	rec, err := h.attendance.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) UpdateAttendance(c *gin.Context) {
	var in attendance.UpdateInput
	if !bindJSON(c, &in) {
		return
	}
	rec, err := h.attendance.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

func (h *Handler) DeleteAttendance(c *gin.Context) {
	if err := h.attendance.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// queryRange reads ?from=&to= as whole days. Neither set yields nil; a
// missing from defaults to the first of this month and a missing to to today.
func (h *Handler) queryRange(c *gin.Context) (*insights.Range, error) {
	rawFrom, rawTo := c.Query("from"), c.Query("to")
	if rawFrom == "" && rawTo == "" {
		return nil, nil
	}
	to := model.Today(h.now(), h.loc)
	from := model.DateOnly{Time: to.AddDate(0, 0, 1-to.Day())}
	var err error
	if rawFrom != "" {
		if from, err = model.ParseDate(rawFrom); err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, err, "Field 'from' must be a date (YYYY-MM-DD)")
		}
	}
	if rawTo != "" {
		if to, err = model.ParseDate(rawTo); err != nil {
			return nil, apperr.Wrap(apperr.KindValidation, err, "Field 'to' must be a date (YYYY-MM-DD)")
		}
	}
	if from.After(to.Time) {
		return nil, apperr.New(apperr.KindValidation, "Field 'from' must not be after 'to'")
	}
	r := insights.DayRange(from, to, h.loc)
	return &r, nil
}
