package services

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"gorm.io/gorm"

	"github.com/cppla/inkwell/apperror"
	"github.com/cppla/inkwell/forms"
	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/utils"
)

const (
	MsgRegistered         = "Congratulations, you are now a registered user!"
	MsgInvalidCredentials = "Invalid username or password"
	MsgPasswordTooLong    = "Field cannot be longer than 72 bytes."
	MsgTooManyAttempts    = "Too many registrations from your address, please try again later."
)

// Admit decides whether a registration that passed every check may be written. A nil Admit
// admits everything.
type Admit func(ctx context.Context) bool

// Register creates an account once every registration rule and both uniqueness lookups pass.
// admit runs only then, so rejected submissions never count against the caller.
func (s *Service) Register(ctx context.Context, form forms.RegistrationForm, admit Admit) (*Outcome, error) {
	form.Normalize()
	errs, err := form.Validate(ctx, s.store)
	if err != nil {
		return nil, err
	}
	if !errs.Empty() {
		return invalid(errs, form), nil
	}

	hash, err := utils.HashPassword(form.Password)
	if errors.Is(err, utils.ErrPasswordTooLong) {
		errs.Add("password", MsgPasswordTooLong, forms.KindRule)
		return invalid(errs, form), nil
	}
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}
	if admit != nil && !admit(ctx) {
		return &Outcome{Status: StatusThrottled, Form: form}, nil
	}
	user := &models.User{Username: form.Username, Email: form.Email, PasswordHash: hash}
	if err := s.store.CreateUser(ctx, user); err != nil {
		if !apperror.IsConflictError(err) && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
		// lost a registration race; report it the way the lookup would have
		errs, verr := s.raceConflict(ctx, form)
		if verr != nil {
			return nil, verr
		}
		return invalid(errs, form), nil
	}

	utils.Sugar.Infow("user registered", "user_id", user.ID, "username", user.Username)
	return redirect(LoginPath, FlashSuccess, MsgRegistered), nil
}

func (s *Service) raceConflict(ctx context.Context, form forms.RegistrationForm) (forms.Errors, error) {
	errs := forms.Errors{}
	taken, err := s.store.UsernameTaken(ctx, form.Username)
	if err != nil {
		return nil, err
	}
	if taken {
		errs.Add("username", forms.MsgUsernameTaken, forms.KindUniqueness)
		return errs, nil
	}
	errs.Add("email", forms.MsgEmailTaken, forms.KindUniqueness)
	return errs, nil
}

// Login checks the credentials. On success Outcome.User is set and Target is next when it is a
// local path, otherwise the index. A rejected attempt goes back to the login page keeping next.
func (s *Service) Login(ctx context.Context, form forms.LoginForm, next string) (*Outcome, error) {
	form.Normalize()
	if errs := form.Validate(); !errs.Empty() {
		return invalid(errs, form), nil
	}

	target := SafeNext(next)
	retry := LoginPath
	if target != "" {
		retry += "?next=" + url.QueryEscape(target)
	}
	user, err := s.store.UserByUsername(ctx, form.Username)
	if err != nil {
		if apperror.IsNotFound(err) {
			return redirect(retry, FlashDanger, MsgInvalidCredentials), nil
		}
		return nil, err
	}
	if !utils.CheckPassword(user.PasswordHash, form.Password) {
		return redirect(retry, FlashDanger, MsgInvalidCredentials), nil
	}

	if target == "" {
		target = IndexPath
	}
	o := redirect(target, "", "")
	o.User = user
	return o, nil
}

// SafeNext returns next when it is a path on this site, otherwise "".
func SafeNext(next string) string {
	if next == "" || !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.Contains(next, `\`) {
		return ""
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" {
		return ""
	}
	return next
}
