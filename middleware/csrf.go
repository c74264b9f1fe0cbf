package middleware

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// CSRFCookie and CSRFField carry the same random token (double-submit).
	CSRFCookie = "csrf_token"
	CSRFField  = "csrf_token"

	contextCSRFKey = "csrf_token"
)

// CSRF issues a token cookie and rejects unsafe requests whose form field does not echo it.
func CSRF() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(CSRFCookie)
		if err != nil || token == "" {
			token = uuid.NewString()
			ctx.SetSameSite(http.SameSiteStrictMode)
			ctx.SetCookie(CSRFCookie, token, 0, "/", "", false, true)
			// a request without the cookie cannot carry a valid field
			if isUnsafe(ctx.Request.Method) {
				ctx.AbortWithStatus(http.StatusBadRequest)
				return
			}
		}

		if isUnsafe(ctx.Request.Method) {
			sent := ctx.PostForm(CSRFField)
			if subtle.ConstantTimeCompare([]byte(sent), []byte(token)) != 1 {
				ctx.AbortWithStatus(http.StatusBadRequest)
				return
			}
		}

		ctx.Set(contextCSRFKey, token)
		ctx.Next()
	}
}

// CSRFToken returns the token to embed in forms.
func CSRFToken(ctx *gin.Context) string {
	return ctx.GetString(contextCSRFKey)
}

func isUnsafe(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return false
	}
	return true
}
