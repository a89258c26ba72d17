package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"salon/internal/apperr"
)

// status maps an error kind to the HTTP status the client sees.
func status(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation, apperr.KindInvalidEmail, apperr.KindWeakPassword:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict, apperr.KindEmailInUse:
		return http.StatusConflict
	case apperr.KindUnauthenticated, apperr.KindInvalidCredentials:
		return http.StatusUnauthorized
	case apperr.KindUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// fail writes err as {"error": {"kind", "message"}}.
func fail(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	code := status(kind)
	if code >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", c.Request.Method, c.FullPath(), err)
	}
	c.AbortWithStatusJSON(code, gin.H{"error": gin.H{"kind": kind, "message": apperr.Message(err)}})
}

// bindJSON decodes the body into dst, writing a validation error on failure.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		fail(c, apperr.Wrap(apperr.KindValidation, err, formatBindingError(err)))
		return false
	}
	return true
}

func formatBindingError(err error) string {
	if errors.Is(err, io.EOF) {
		return "Request body is empty"
	}
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Sprintf("Invalid JSON at byte offset %d", syntaxErr.Offset)
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		if typeErr.Field == "amount" {
			return "Field 'amount' must be numeric"
		}
		return fmt.Sprintf("Field '%s' should be of type %s", typeErr.Field, typeErr.Type.String())
	}
	if strings.Contains(err.Error(), "invalid number literal") {
		return "Field 'amount' must be numeric"
	}
	return err.Error()
}
