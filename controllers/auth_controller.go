package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkwell/config"
	"github.com/cppla/inkwell/forms"
	"github.com/cppla/inkwell/middleware"
	"github.com/cppla/inkwell/services"
	"github.com/cppla/inkwell/utils"
)

// sessionTTL bounds a login without remember_me; the cookie itself ends with the browser session.
const sessionTTL = 24 * time.Hour

// AuthController handles registration, sign-in and sign-out.
type AuthController struct {
	svc *services.Service
}

func NewAuthController(svc *services.Service) *AuthController {
	return &AuthController{svc: svc}
}

func (a *AuthController) RegisterPage(ctx *gin.Context) {
	if middleware.CurrentUser(ctx) != nil {
		ctx.Redirect(http.StatusFound, services.IndexPath)
		return
	}
	a.renderRegister(ctx, forms.RegistrationForm{}, nil)
}

func (a *AuthController) renderRegister(ctx *gin.Context, form forms.RegistrationForm, errs forms.Errors) {
	form.Password, form.Password2 = "", ""
	data := gin.H{"Title": "Register", "Form": form, "Captcha": config.Get().RegisterCaptchaEnabled}
	if errs != nil {
		data["Errors"] = errs
	}
	render(ctx, http.StatusOK, "register.html", data)
}

func (a *AuthController) Register(ctx *gin.Context) {
	if middleware.CurrentUser(ctx) != nil {
		ctx.Redirect(http.StatusFound, services.IndexPath)
		return
	}
	var form forms.RegistrationForm
	if err := ctx.ShouldBind(&form); err != nil {
		renderError(ctx, http.StatusBadRequest, "Bad Request", "The submitted form could not be read.")
		return
	}

	cfg := config.Get()
	if cfg.RegisterCaptchaEnabled && !utils.VerifyCaptcha(ctx.PostForm("captcha_id"), ctx.PostForm("captcha_answer")) {
		errs := forms.Errors{}
		errs.Add("captcha", "Invalid captcha.", forms.KindRule)
		a.renderRegister(ctx, form, errs)
		return
	}

	ip := ctx.ClientIP()
	admit := func(context.Context) bool {
		return utils.RegistrationCooldownTry(ip) && utils.RegistrationDailyLimitCheck(ip)
	}
	out, err := a.svc.Register(ctx.Request.Context(), form, admit)
	if err != nil {
		handleError(ctx, err)
		return
	}
	switch out.Status {
	case services.StatusInvalid:
		a.renderRegister(ctx, form, out.Errors)
		return
	case services.StatusThrottled:
		renderError(ctx, http.StatusTooManyRequests, "Too Many Requests", services.MsgTooManyAttempts)
		return
	}
	utils.RegistrationDailyIncrement(ip)
	follow(ctx, out)
}

func (a *AuthController) LoginPage(ctx *gin.Context) {
	if middleware.CurrentUser(ctx) != nil {
		ctx.Redirect(http.StatusFound, services.IndexPath)
		return
	}
	render(ctx, http.StatusOK, "login.html", gin.H{
		"Title": "Sign In",
		"Form":  forms.LoginForm{},
		"Next":  services.SafeNext(ctx.Query("next")),
	})
}

func (a *AuthController) Login(ctx *gin.Context) {
	if middleware.CurrentUser(ctx) != nil {
		ctx.Redirect(http.StatusFound, services.IndexPath)
		return
	}
	var form forms.LoginForm
	if err := ctx.ShouldBind(&form); err != nil {
		renderError(ctx, http.StatusBadRequest, "Bad Request", "The submitted form could not be read.")
		return
	}

	next := ctx.Query("next")
	out, err := a.svc.Login(ctx.Request.Context(), form, next)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if out.Status == services.StatusInvalid {
		form.Password = ""
		render(ctx, http.StatusOK, "login.html", gin.H{
			"Title":  "Sign In",
			"Form":   form,
			"Errors": out.Errors,
			"Next":   services.SafeNext(next),
		})
		return
	}
	if out.User != nil {
		if err := a.startSession(ctx, out.User.ID, out.User.Username, form.RememberMe); err != nil {
			handleError(ctx, err)
			return
		}
	}
	follow(ctx, out)
}

func (a *AuthController) startSession(ctx *gin.Context, userID uint, username string, remember bool) error {
	ttl, maxAge := sessionTTL, 0
	if remember {
		days := config.Get().RememberDays
		ttl = time.Duration(days) * 24 * time.Hour
		maxAge = days * 24 * 60 * 60
	}
	token, err := utils.GenerateToken(userID, username, ttl)
	if err != nil {
		return err
	}
	middleware.SetSessionCookie(ctx, token, maxAge)
	return nil
}

// Logout revokes the current token so a copied cookie stops working too.
func (a *AuthController) Logout(ctx *gin.Context) {
	if claims := middleware.CurrentClaims(ctx); claims != nil && claims.ExpiresAt != nil {
		utils.RevokeToken(claims.ID, claims.ExpiresAt.Time)
	}
	middleware.ClearSessionCookie(ctx)
	ctx.Redirect(http.StatusFound, services.IndexPath)
}

// Captcha returns a fresh registration captcha as JSON.
func (a *AuthController) Captcha(ctx *gin.Context) {
	id, image, err := utils.GenerateCaptcha()
	if err != nil {
		utils.Sugar.Errorw("generate captcha failed", "error", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"message": "failed to generate captcha"})
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"id": id, "image": image})
}
