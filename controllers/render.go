package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkwell/apperror"
	"github.com/cppla/inkwell/forms"
	"github.com/cppla/inkwell/middleware"
	"github.com/cppla/inkwell/services"
	"github.com/cppla/inkwell/utils"
)

// render executes page through the layout. The layout always gets the actor, pending flashes,
// the CSRF token and a non-nil Errors map.
func render(ctx *gin.Context, status int, page string, data gin.H) {
	if data == nil {
		data = gin.H{}
	}
	data["Actor"] = middleware.CurrentUser(ctx)
	data["Flashes"] = middleware.Flashes(ctx)
	data["CSRF"] = middleware.CSRFToken(ctx)
	if _, ok := data["Errors"]; !ok {
		data["Errors"] = forms.Errors{}
	}
	ctx.HTML(status, page, data)
}

func renderError(ctx *gin.Context, code int, title, message string) {
	render(ctx, code, "error.html", gin.H{"Code": code, "Title": title, "Message": message})
}

func notFound(ctx *gin.Context) {
	renderError(ctx, http.StatusNotFound, "Not Found", "The page you requested does not exist.")
}

// handleError renders the error page matching err; anything unexpected is logged as a 500.
func handleError(ctx *gin.Context, err error) {
	status := apperror.StatusOf(err)
	if status == http.StatusNotFound {
		notFound(ctx)
		return
	}
	utils.Sugar.Errorw("request failed", "path", ctx.Request.URL.Path, "status", status, "error", err)
	message := "An unexpected error has occurred."
	if status == http.StatusConflict {
		message = "The request conflicts with existing data."
	}
	renderError(ctx, status, http.StatusText(status), message)
}

// follow performs a redirect outcome: queue its flash, then send the browser on.
func follow(ctx *gin.Context, out *services.Outcome) {
	if out.Flash != nil {
		middleware.AddFlash(ctx, out.Flash.Category, out.Flash.Message)
	}
	ctx.Redirect(http.StatusFound, out.Target)
}

// pageParam reads ?page=, falling back to 1.
func pageParam(ctx *gin.Context) int {
	if v := strings.TrimSpace(ctx.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

// idParam parses a positive numeric path parameter.
func idParam(ctx *gin.Context, name string) (uint, bool) {
	n, err := strconv.ParseUint(ctx.Param(name), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}

// NotFound is the handler for unmatched routes.
func NotFound(ctx *gin.Context) {
	notFound(ctx)
}
