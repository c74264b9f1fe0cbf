package forms

import (
	"context"
	"strings"
)

const (
	MsgUsernameTaken = "Please use a different username."
	MsgEmailTaken    = "Please use a different email address."
)

// UserLookup answers the registration uniqueness questions against current store state.
type UserLookup interface {
	UsernameTaken(ctx context.Context, username string) (bool, error)
	EmailTaken(ctx context.Context, email string) (bool, error)
}

// LoginForm is the sign-in form.
type LoginForm struct {
	Username   string `form:"username"`
	Password   string `form:"password"`
	RememberMe bool   `form:"remember_me"`
}

var loginFields = []Field{
	{Name: "username", Rules: []Rule{Required()}},
	{Name: "password", Rules: []Rule{Required()}},
}

// Normalize trims the username; passwords are taken verbatim.
func (f *LoginForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
}

func (f LoginForm) Values() Values {
	return Values{"username": f.Username, "password": f.Password}
}

func (f LoginForm) Validate() Errors {
	return Run(loginFields, f.Values())
}

// RegistrationForm is the sign-up form.
type RegistrationForm struct {
	Username  string `form:"username"`
	Email     string `form:"email"`
	Password  string `form:"password"`
	Password2 string `form:"password2"`
}

var registrationFields = []Field{
	{Name: "username", Rules: []Rule{Required(), Length(3, 64)}},
	{Name: "email", Rules: []Rule{Required(), Email()}},
	{Name: "password", Rules: []Rule{Required(), MinLength(6)}},
	{Name: "password2", Rules: []Rule{Required(), EqualTo("password")}},
}

// Normalize trims the identifiers so "alice " and "alice" are the same account.
func (f *RegistrationForm) Normalize() {
	f.Username = strings.TrimSpace(f.Username)
	f.Email = strings.TrimSpace(f.Email)
}

func (f RegistrationForm) Values() Values {
	return Values{
		"username":  f.Username,
		"email":     f.Email,
		"password":  f.Password,
		"password2": f.Password2,
	}
}

// Validate runs the static rules, then asks users whether the username and email are free.
// The returned error is a store failure, never a rejection.
func (f RegistrationForm) Validate(ctx context.Context, users UserLookup) (Errors, error) {
	values := f.Values()
	errs := Run(registrationFields, values)
	lookups := []Lookup{
		{Field: "username", Taken: users.UsernameTaken, Message: MsgUsernameTaken},
		{Field: "email", Taken: users.EmailTaken, Message: MsgEmailTaken},
	}
	if err := RunLookups(ctx, lookups, values, errs); err != nil {
		return nil, err
	}
	return errs, nil
}

// PostForm is the article authoring form.
type PostForm struct {
	Title   string `form:"title"`
	Content string `form:"content"`
}

var postFields = []Field{
	{Name: "title", Rules: []Rule{Required(), MaxLength(200)}},
	{Name: "content", Rules: []Rule{Required()}},
}

func (f PostForm) Values() Values {
	return Values{"title": f.Title, "content": f.Content}
}

func (f PostForm) Validate() Errors {
	return Run(postFields, f.Values())
}

// CommentForm is the reply form under a post.
type CommentForm struct {
	Content string `form:"content"`
}

var commentFields = []Field{
	{Name: "content", Rules: []Rule{Required()}},
}

func (f CommentForm) Values() Values {
	return Values{"content": f.Content}
}

func (f CommentForm) Validate() Errors {
	return Run(commentFields, f.Values())
}

// ProfileForm edits the optional profile attributes.
type ProfileForm struct {
	FullName string `form:"full_name"`
	Bio      string `form:"bio"`
	Location string `form:"location"`
	Website  string `form:"website"`
}

var profileFields = []Field{
	{Name: "full_name", Rules: []Rule{MaxLength(120)}},
	{Name: "location", Rules: []Rule{MaxLength(120)}},
	{Name: "website", Rules: []Rule{MaxLength(200)}},
}

func (f ProfileForm) Values() Values {
	return Values{
		"full_name": f.FullName,
		"bio":       f.Bio,
		"location":  f.Location,
		"website":   f.Website,
	}
}

func (f ProfileForm) Validate() Errors {
	return Run(profileFields, f.Values())
}
