package services

import (
	"context"

	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/store"
)

// PostView is a post with its comments, oldest first.
type PostView struct {
	Post     *models.Post
	Comments []models.Comment
}

// Post loads post id and its discussion.
func (s *Service) Post(ctx context.Context, id uint) (*PostView, error) {
	post, err := s.store.PostByID(ctx, id)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.CommentsForPost(ctx, id)
	if err != nil {
		return nil, err
	}
	return &PostView{Post: post, Comments: comments}, nil
}

// ProfileView is a member page: the user and one page of their posts.
type ProfileView struct {
	User  *models.User
	Posts *store.Page
}

// UserByUsername loads a member page.
func (s *Service) UserByUsername(ctx context.Context, username string, page int) (*ProfileView, error) {
	user, err := s.store.UserByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	posts, err := s.store.PostsByUser(ctx, user.ID, page, s.perPage)
	if err != nil {
		return nil, err
	}
	return &ProfileView{User: user, Posts: posts}, nil
}

// UserByID resolves the actor behind a session token.
func (s *Service) UserByID(ctx context.Context, id uint) (*models.User, error) {
	return s.store.UserByID(ctx, id)
}

// Index returns one page of the post listing, newest first.
func (s *Service) Index(ctx context.Context, page int) (*store.Page, error) {
	return s.store.ListPosts(ctx, page, s.perPage)
}

// About returns the site totals.
func (s *Service) About(ctx context.Context) (store.Stats, error) {
	return s.store.Stats(ctx, s.now())
}

// Ping records activity of an authenticated actor.
func (s *Service) Ping(ctx context.Context, actor *models.User) error {
	if actor == nil {
		return nil
	}
	now := s.now()
	if err := s.store.TouchLastSeen(ctx, actor.ID, now); err != nil {
		return err
	}
	actor.LastSeen = now
	return nil
}
