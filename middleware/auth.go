package middleware

import (
	"context"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/utils"
)

const (
	// SessionCookie carries the signed session JWT.
	SessionCookie = "token"
	// ContextActorKey stores the signed-in *models.User inside Gin context.
	ContextActorKey = "actor"
	// ContextClaimsKey stores the parsed session claims.
	ContextClaimsKey = "claims"
)

// ActorLoader resolves session claims into a user and records activity.
type ActorLoader interface {
	UserByID(ctx context.Context, id uint) (*models.User, error)
	Ping(ctx context.Context, actor *models.User) error
}

// LoadActor resolves the session cookie, if any, into the current user. Invalid, expired or
// revoked tokens leave the request anonymous and clear the cookie.
func LoadActor(users ActorLoader) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		tokenString, err := ctx.Cookie(SessionCookie)
		if err != nil || tokenString == "" {
			ctx.Next()
			return
		}

		claims, err := utils.ParseToken(tokenString)
		if err != nil {
			ClearSessionCookie(ctx)
			ctx.Next()
			return
		}

		user, err := users.UserByID(ctx.Request.Context(), claims.UserID)
		if err != nil {
			utils.Sugar.Debugw("session user not loaded", "user_id", claims.UserID, "error", err)
			ClearSessionCookie(ctx)
			ctx.Next()
			return
		}
		if err := users.Ping(ctx.Request.Context(), user); err != nil {
			utils.Sugar.Warnw("update last seen failed", "user_id", user.ID, "error", err)
		}

		ctx.Set(ContextActorKey, user)
		ctx.Set(ContextClaimsKey, claims)
		ctx.Next()
	}
}

// CurrentUser returns the signed-in user, or nil for anonymous requests.
func CurrentUser(ctx *gin.Context) *models.User {
	if v, ok := ctx.Get(ContextActorKey); ok {
		if u, ok := v.(*models.User); ok {
			return u
		}
	}
	return nil
}

// CurrentClaims returns the parsed session claims, or nil.
func CurrentClaims(ctx *gin.Context) *utils.Claims {
	if v, ok := ctx.Get(ContextClaimsKey); ok {
		if c, ok := v.(*utils.Claims); ok {
			return c
		}
	}
	return nil
}

// LoginRequired sends anonymous visitors to the login page, remembering where they were going.
func LoginRequired() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if CurrentUser(ctx) != nil {
			ctx.Next()
			return
		}
		AddFlash(ctx, "info", "Please log in to access this page.")
		ctx.Redirect(http.StatusFound, "/auth/login?next="+url.QueryEscape(ctx.Request.URL.RequestURI()))
		ctx.Abort()
	}
}

// SetSessionCookie stores token. maxAge 0 makes it a browser-session cookie.
func SetSessionCookie(ctx *gin.Context, token string, maxAge int) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(SessionCookie, token, maxAge, "/", "", false, true)
}

func ClearSessionCookie(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteLaxMode)
	ctx.SetCookie(SessionCookie, "", -1, "/", "", false, true)
}
