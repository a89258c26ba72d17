package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"salon/internal/auth"
)

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RegisterAuth mounts the login and signup routes.
func (h *Handler) RegisterAuth(r *gin.RouterGroup) {
	r.POST("/login", h.Login)
	r.POST("/signup", h.SignUp)
	r.POST("/logout", h.Logout)
	r.POST("/refresh", h.Refresh)
}

func (h *Handler) Login(c *gin.Context) {
	var in auth.SignInInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.auth.SignIn(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) SignUp(c *gin.Context) {
	var in auth.SignUpInput
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.auth.SignUp(c.Request.Context(), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) Logout(c *gin.Context) {
	var in refreshRequest
	if !bindJSON(c, &in) {
		return
	}
	if err := h.auth.SignOut(c.Request.Context(), in.RefreshToken); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) Refresh(c *gin.Context) {
	var in refreshRequest
	if !bindJSON(c, &in) {
		return
	}
	sess, err := h.auth.Refresh(c.Request.Context(), in.RefreshToken)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sess)
}
