// Package services implements the blog workflows: each operation validates a submission, talks
// to the store at most a couple of times and answers with exactly one navigation Outcome.
package services

import (
	"context"
	"time"

	"github.com/cppla/inkwell/forms"
	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/store"
)

// Store is the persistence surface the workflows need. *store.Store satisfies it.
type Store interface {
	forms.UserLookup
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id uint) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UpdateProfile(ctx context.Context, u *models.User) error
	TouchLastSeen(ctx context.Context, userID uint, at time.Time) error
	CreatePost(ctx context.Context, p *models.Post) error
	PostByID(ctx context.Context, id uint) (*models.Post, error)
	CreateComment(ctx context.Context, c *models.Comment) error
	CommentsForPost(ctx context.Context, postID uint) ([]models.Comment, error)
	ListPosts(ctx context.Context, page, perPage int) (*store.Page, error)
	PostsByUser(ctx context.Context, userID uint, page, perPage int) (*store.Page, error)
	Stats(ctx context.Context, now time.Time) (store.Stats, error)
}

var _ Store = (*store.Store)(nil)

// Service runs the workflows against a Store.
type Service struct {
	store   Store
	perPage int
	now     func() time.Time
}

// New builds a Service listing perPage posts per page.
func New(s Store, perPage int) *Service {
	if perPage < 1 {
		perPage = 10
	}
	return &Service{store: s, perPage: perPage, now: time.Now}
}

// Status says how the caller should present an Outcome.
type Status int

const (
	// StatusRedirect sends the client to Target, usually with a Flash.
	StatusRedirect Status = iota
	// StatusInvalid re-renders the submitted form with Errors.
	StatusInvalid
	// StatusThrottled refuses a valid submission from a client over its allowance.
	StatusThrottled
)

const (
	FlashSuccess = "success"
	FlashInfo    = "info"
	FlashWarning = "warning"
	FlashDanger  = "danger"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Category string
	Message  string
}

// Outcome is the single navigation result of a workflow call.
type Outcome struct {
	Status Status
	Target string
	Flash  *Flash
	Errors forms.Errors
	// Form echoes the submission back for re-rendering.
	Form interface{}
	// User is the authenticated account after a successful login.
	User *models.User
}

func redirect(target, category, msg string) *Outcome {
	o := &Outcome{Status: StatusRedirect, Target: target}
	if msg != "" {
		o.Flash = &Flash{Category: category, Message: msg}
	}
	return o
}

func invalid(errs forms.Errors, form interface{}) *Outcome {
	return &Outcome{Status: StatusInvalid, Errors: errs, Form: form}
}

const (
	LoginPath        = "/auth/login"
	IndexPath        = "/index"
	MsgLoginRequired = "Please log in to access this page."
)

func loginRequired() *Outcome {
	return redirect(LoginPath, FlashWarning, MsgLoginRequired)
}
