package services

import (
	"context"
	"fmt"
	"net/url"

	"github.com/cppla/inkwell/forms"
	"github.com/cppla/inkwell/models"
)

const (
	MsgPostPublished  = "Your post has been published!"
	MsgCommentAdded   = "Your comment has been added!"
	MsgCommentLogin   = "Please log in to comment."
	MsgProfileUpdated = "Your profile has been updated!"
)

// SubmitPost publishes a post owned by author.
func (s *Service) SubmitPost(ctx context.Context, author *models.User, form forms.PostForm) (*Outcome, error) {
	if author == nil {
		return loginRequired(), nil
	}
	if errs := form.Validate(); !errs.Empty() {
		return invalid(errs, form), nil
	}

	post := &models.Post{UserID: author.ID, Title: form.Title, Content: form.Content}
	if err := s.store.CreatePost(ctx, post); err != nil {
		return nil, err
	}
	return redirect(IndexPath, FlashSuccess, MsgPostPublished), nil
}

// SubmitComment adds a comment under post postID. The post must exist. Content is validated
// before the actor is checked, so an anonymous empty submission gets the field error.
func (s *Service) SubmitComment(ctx context.Context, actor *models.User, postID uint, form forms.CommentForm) (*Outcome, error) {
	post, err := s.store.PostByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if errs := form.Validate(); !errs.Empty() {
		return invalid(errs, form), nil
	}
	if actor == nil {
		return redirect(LoginPath, FlashWarning, MsgCommentLogin), nil
	}

	comment := &models.Comment{PostID: post.ID, UserID: actor.ID, Content: form.Content}
	if err := s.store.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return redirect(PostPath(post.ID), FlashSuccess, MsgCommentAdded), nil
}

// UpdateProfile writes the four optional profile attributes onto actor.
func (s *Service) UpdateProfile(ctx context.Context, actor *models.User, form forms.ProfileForm) (*Outcome, error) {
	if actor == nil {
		return loginRequired(), nil
	}
	if errs := form.Validate(); !errs.Empty() {
		return invalid(errs, form), nil
	}

	updated := *actor
	updated.FullName = form.FullName
	updated.Bio = form.Bio
	updated.Location = form.Location
	updated.Website = form.Website
	if err := s.store.UpdateProfile(ctx, &updated); err != nil {
		return nil, err
	}
	*actor = updated
	return redirect(UserPath(actor.Username), FlashSuccess, MsgProfileUpdated), nil
}

// ProfileForm pre-fills the edit form from the stored attributes.
func (s *Service) ProfileForm(actor *models.User) forms.ProfileForm {
	if actor == nil {
		return forms.ProfileForm{}
	}
	return forms.ProfileForm{
		FullName: actor.FullName,
		Bio:      actor.Bio,
		Location: actor.Location,
		Website:  actor.Website,
	}
}

func PostPath(id uint) string {
	return fmt.Sprintf("/post/%d", id)
}

func UserPath(username string) string {
	return "/user/" + url.PathEscape(username)
}
