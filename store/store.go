// Package store persists users, posts, comments and page views through gorm.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cppla/inkwell/apperror"
	"github.com/cppla/inkwell/models"
)

// Models lists every table the application owns, in migration order.
var Models = []interface{}{&models.User{}, &models.Post{}, &models.Comment{}, &models.PageView{}}

// Store is the gorm-backed entity store.
type Store struct {
	db *gorm.DB
}

// New wraps an open gorm connection.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// DB exposes the underlying connection for middleware that writes directly.
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Migrate creates or extends the tables in Models.
func (s *Store) Migrate() error {
	return s.db.AutoMigrate(Models...)
}

func notFoundOr(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NewNotFoundError(what+" not found", err)
	}
	return apperror.NewDatabaseError("failed to load "+what, err)
}

// UsernameTaken reports whether a user already owns username.
func (s *Store) UsernameTaken(ctx context.Context, username string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("username = ?", username).Count(&n).Error; err != nil {
		return false, apperror.NewDatabaseError("failed to check username", err)
	}
	return n > 0, nil
}

// EmailTaken reports whether a user already owns email.
func (s *Store) EmailTaken(ctx context.Context, email string) (bool, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&models.User{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return false, apperror.NewDatabaseError("failed to check email", err)
	}
	return n > 0, nil
}

// CreateUser inserts u. A unique index violation is returned as a ConflictError wrapping
// gorm.ErrDuplicatedKey.
func (s *Store) CreateUser(ctx context.Context, u *models.User) error {
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return apperror.NewConflictError("user already exists", err)
		}
		return apperror.NewDatabaseError("failed to create user", err)
	}
	return nil
}

// UserByID loads a user by primary key.
func (s *Store) UserByID(ctx context.Context, id uint) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).First(&u, id).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &u, nil
}

// UserByUsername loads a user by exact username.
func (s *Store) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	var u models.User
	if err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error; err != nil {
		return nil, notFoundOr(err, "user")
	}
	return &u, nil
}

// UpdateProfile writes the four profile attributes of u, including empty values.
func (s *Store) UpdateProfile(ctx context.Context, u *models.User) error {
	err := s.db.WithContext(ctx).Model(u).Select("FullName", "Bio", "Location", "Website", "UpdatedAt").Updates(u).Error
	if err != nil {
		return apperror.NewDatabaseError("failed to update profile", err)
	}
	return nil
}

// TouchLastSeen records activity for the user without changing UpdatedAt.
func (s *Store) TouchLastSeen(ctx context.Context, userID uint, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).UpdateColumn("last_seen", at).Error
	if err != nil {
		return apperror.NewDatabaseError("failed to update last seen", err)
	}
	return nil
}

// CreatePost inserts p.
func (s *Store) CreatePost(ctx context.Context, p *models.Post) error {
	if err := s.db.WithContext(ctx).Omit("Author").Create(p).Error; err != nil {
		return apperror.NewDatabaseError("failed to create post", err)
	}
	return nil
}

// PostByID loads a post with its author.
func (s *Store) PostByID(ctx context.Context, id uint) (*models.Post, error) {
	var p models.Post
	if err := s.db.WithContext(ctx).Preload("Author").First(&p, id).Error; err != nil {
		return nil, notFoundOr(err, fmt.Sprintf("post %d", id))
	}
	return &p, nil
}

// CreateComment inserts c.
func (s *Store) CreateComment(ctx context.Context, c *models.Comment) error {
	if err := s.db.WithContext(ctx).Omit("Author").Create(c).Error; err != nil {
		return apperror.NewDatabaseError("failed to create comment", err)
	}
	return nil
}

// CommentsForPost returns the comments of a post oldest first, with authors.
func (s *Store) CommentsForPost(ctx context.Context, postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := s.db.WithContext(ctx).Preload("Author").Where("post_id = ?", postID).Order("created_at ASC, id ASC").Find(&comments).Error
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to load comments", err)
	}
	return comments, nil
}

// ListPosts returns one page of all posts, newest first.
func (s *Store) ListPosts(ctx context.Context, page, perPage int) (*Page, error) {
	return s.paginate(ctx, func(db *gorm.DB) *gorm.DB { return db }, page, perPage)
}

// PostsByUser returns one page of the posts written by userID, newest first.
func (s *Store) PostsByUser(ctx context.Context, userID uint, page, perPage int) (*Page, error) {
	return s.paginate(ctx, func(db *gorm.DB) *gorm.DB { return db.Where("user_id = ?", userID) }, page, perPage)
}

// paginate counts and loads with fresh statements; a gorm chain is not reusable after Count.
func (s *Store) paginate(ctx context.Context, scope func(*gorm.DB) *gorm.DB, page, perPage int) (*Page, error) {
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 10
	}
	p := &Page{Page: page, PerPage: perPage, Items: []models.Post{}}
	if err := s.db.WithContext(ctx).Model(&models.Post{}).Scopes(scope).Count(&p.Total).Error; err != nil {
		return nil, apperror.NewDatabaseError("failed to count posts", err)
	}
	// past the last page; also keeps (page-1)*perPage from overflowing
	if int64(page-1) > p.Total/int64(perPage) {
		return p, nil
	}
	err := s.db.WithContext(ctx).Scopes(scope).Preload("Author").
		Order("created_at DESC, id DESC").
		Offset((page - 1) * perPage).Limit(perPage).
		Find(&p.Items).Error
	if err != nil {
		return nil, apperror.NewDatabaseError("failed to list posts", err)
	}
	return p, nil
}

// RecordPageView increments today's counter for path.
func (s *Store) RecordPageView(ctx context.Context, path string, at time.Time) error {
	day := time.Date(at.Year(), at.Month(), at.Day(), 0, 0, 0, 0, at.Location())
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "day"}, {Name: "path"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"hits": gorm.Expr("page_views.hits + 1"), "updated_at": at}),
	}).Create(&models.PageView{Day: day, Path: path, Hits: 1, UpdatedAt: at}).Error
}

// Stats are the site totals shown on the About page.
type Stats struct {
	Users      int64
	Posts      int64
	Comments   int64
	ViewsToday int64
}

// Stats counts users, posts, comments and today's page views.
func (s *Store) Stats(ctx context.Context, now time.Time) (Stats, error) {
	var st Stats
	db := s.db.WithContext(ctx)
	if err := db.Model(&models.User{}).Count(&st.Users).Error; err != nil {
		return st, apperror.NewDatabaseError("failed to count users", err)
	}
	if err := db.Model(&models.Post{}).Count(&st.Posts).Error; err != nil {
		return st, apperror.NewDatabaseError("failed to count posts", err)
	}
	if err := db.Model(&models.Comment{}).Count(&st.Comments).Error; err != nil {
		return st, apperror.NewDatabaseError("failed to count comments", err)
	}
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	if err := db.Model(&models.PageView{}).Where("day = ?", day).Select("COALESCE(SUM(hits),0)").Scan(&st.ViewsToday).Error; err != nil {
		return st, apperror.NewDatabaseError("failed to sum page views", err)
	}
	return st, nil
}
