package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/cppla/inkwell/forms"
	"github.com/cppla/inkwell/middleware"
	"github.com/cppla/inkwell/services"
)

// PostController serves the listing, post pages and the authoring forms.
type PostController struct {
	svc *services.Service
}

func NewPostController(svc *services.Service) *PostController {
	return &PostController{svc: svc}
}

// Index lists posts newest first, one page at a time.
func (p *PostController) Index(ctx *gin.Context) {
	page, err := p.svc.Index(ctx.Request.Context(), pageParam(ctx))
	if err != nil {
		handleError(ctx, err)
		return
	}
	render(ctx, http.StatusOK, "index.html", gin.H{"Title": "Home", "Page": page, "PageURL": services.IndexPath})
}

func (p *PostController) CreatePage(ctx *gin.Context) {
	render(ctx, http.StatusOK, "create_post.html", gin.H{"Title": "New post", "Form": forms.PostForm{}})
}

func (p *PostController) Create(ctx *gin.Context) {
	var form forms.PostForm
	if err := ctx.ShouldBind(&form); err != nil {
		renderError(ctx, http.StatusBadRequest, "Bad Request", "The submitted form could not be read.")
		return
	}
	out, err := p.svc.SubmitPost(ctx.Request.Context(), middleware.CurrentUser(ctx), form)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if out.Status == services.StatusInvalid {
		render(ctx, http.StatusOK, "create_post.html", gin.H{"Title": "New post", "Form": form, "Errors": out.Errors})
		return
	}
	follow(ctx, out)
}

// Show renders a post with its comments and the comment form.
func (p *PostController) Show(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		notFound(ctx)
		return
	}
	p.renderPost(ctx, id, forms.CommentForm{}, nil)
}

func (p *PostController) renderPost(ctx *gin.Context, id uint, form forms.CommentForm, errs forms.Errors) {
	view, err := p.svc.Post(ctx.Request.Context(), id)
	if err != nil {
		handleError(ctx, err)
		return
	}
	data := gin.H{"Title": view.Post.Title, "View": view, "Form": form}
	if errs != nil {
		data["Errors"] = errs
	}
	render(ctx, http.StatusOK, "post.html", data)
}

// Comment handles the comment form posted back to the post page.
func (p *PostController) Comment(ctx *gin.Context) {
	id, ok := idParam(ctx, "id")
	if !ok {
		notFound(ctx)
		return
	}
	var form forms.CommentForm
	if err := ctx.ShouldBind(&form); err != nil {
		renderError(ctx, http.StatusBadRequest, "Bad Request", "The submitted form could not be read.")
		return
	}
	out, err := p.svc.SubmitComment(ctx.Request.Context(), middleware.CurrentUser(ctx), id, form)
	if err != nil {
		handleError(ctx, err)
		return
	}
	if out.Status == services.StatusInvalid {
		p.renderPost(ctx, id, form, out.Errors)
		return
	}
	follow(ctx, out)
}
