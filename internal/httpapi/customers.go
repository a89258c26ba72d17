package httpapi

import (
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"salon/internal/apperr"
	"salon/internal/cloudinary"
	"salon/internal/customer"
)

const maxPhotoBytes = 10 << 20

// RegisterCustomers mounts the customer screens.
func (h *Handler) RegisterCustomers(r *gin.RouterGroup) {
	r.GET("", h.ListCustomers)
	r.POST("", h.AddCustomer)
	r.GET("/:id", h.GetCustomer)
	r.PATCH("/:id", h.EditCustomer)
	r.DELETE("/:id", h.DeleteCustomer)
	r.POST("/:id/photo", h.UploadPhoto)
}

func (h *Handler) ListCustomers(c *gin.Context) {
	q := customer.Query{Search: c.Query("search")}
	next := customer.Ascending
	if raw := c.Query("sort"); raw != "" {
		dir, ok := customer.ParseSortDirection(raw)
		if !ok {
			fail(c, apperr.New(apperr.KindValidation, "Field 'sort' must be one of [asc desc]"))
			return
		}
		q.Sort = &dir
		next = dir.Toggle()
	}
	list, err := h.customers.List(c.Request.Context(), q)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"customers": list, "total": len(list), "nextSort": next})
}

func (h *Handler) AddCustomer(c *gin.Context) {
	var in customer.Input
	if !bindJSON(c, &in) {
		return
	}
	created, err := h.customers.Create(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	cust, err := h.customers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *Handler) EditCustomer(c *gin.Context) {
	var p customer.Patch
	if !bindJSON(c, &p) {
		return
	}
	updated, err := h.customers.Edit(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

func (h *Handler) DeleteCustomer(c *gin.Context) {
	if err := h.customers.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UploadPhoto accepts a multipart "file" or a JSON {"data": "<data URL>"}.
func (h *Handler) UploadPhoto(c *gin.Context) {
	if h.photos == nil {
		fail(c, apperr.New(apperr.KindUnavailable, "image storage not configured"))
		return
	}
	ctx := c.Request.Context()
	id := c.Param("id")
	if _, err := h.customers.Get(ctx, id); err != nil {
		fail(c, err)
		return
	}

	var (
		result *cloudinary.UploadResult
		err    error
	)
	if strings.Contains(c.ContentType(), "multipart/form-data") {
		file, header, ferr := c.Request.FormFile("file")
		if ferr != nil {
			fail(c, apperr.New(apperr.KindValidation, "Field 'file' is required"))
			return
		}
		defer file.Close()
		data, ferr := io.ReadAll(io.LimitReader(file, maxPhotoBytes+1))
		if ferr != nil {
			fail(c, apperr.Wrap(apperr.KindValidation, ferr, "could not read file"))
			return
		}
		if len(data) > maxPhotoBytes {
			fail(c, apperr.New(apperr.KindValidation, "Field 'file' must be at most 10MB"))
			return
		}
		result, err = h.photos.UploadBytes(ctx, id, data, header.Filename)
	} else {
		var body struct {
			Data string `json:"data"`
		}
		if !bindJSON(c, &body) {
			return
		}
		if strings.TrimSpace(body.Data) == "" {
			fail(c, apperr.New(apperr.KindValidation, "Field 'data' is required"))
			return
		}
		result, err = h.photos.UploadDataURL(ctx, id, body.Data)
	}
	if err != nil {
		fail(c, apperr.Wrap(apperr.KindUnavailable, err, "image upload failed"))
		return
	}

	updated, err := h.customers.SetProfileImage(ctx, id, result.SecureURL)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}
