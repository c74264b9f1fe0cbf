package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkwell/forms"
	"github.com/cppla/inkwell/middleware"
	"github.com/cppla/inkwell/services"
)

// UserController serves member pages and profile editing.
type UserController struct {
	svc *services.Service
}

func NewUserController(svc *services.Service) *UserController {
	return &UserController{svc: svc}
}

func (u *UserController) Show(ctx *gin.Context) {
	profile, err := u.svc.UserByUsername(ctx.Request.Context(), ctx.Param("username"), pageParam(ctx))
	if err != nil {
		handleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "user.html", gin.H{
		"Title":   profile.User.Username,
		"Profile": profile,
		"Page":    profile.Posts,
		"PageURL": services.UserPath(profile.User.Username),
	})
}

// EditPage shows the profile form pre-filled from the stored profile.
func (u *UserController) EditPage(ctx *gin.Context) {
	form := u.svc.ProfileForm(middleware.CurrentUser(ctx))
	render(ctx, http.StatusOK, "edit_profile.html", gin.H{"Title": "Edit profile", "Form": form})
}

func (u *UserController) Edit(ctx *gin.Context) {
	var form forms.ProfileForm
	if err := ctx.ShouldBind(&form); err != nil {
		renderError(ctx, http.StatusBadRequest, "Bad Request", "The submitted form could not be read.")
		return
	}
	out, err := u.svc.UpdateProfile(ctx.Request.Context(), middleware.CurrentUser(ctx), form)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if out.Status == services.StatusInvalid {
		render(ctx, http.StatusOK, "edit_profile.html", gin.H{"Title": "Edit profile", "Form": form, "Errors": out.Errors})
		return
	}
	follow(ctx, out)
}
