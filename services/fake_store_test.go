package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"gorm.io/gorm"

	"github.com/cppla/inkwell/apperror"
	"github.com/cppla/inkwell/models"
	"github.com/cppla/inkwell/store"
)

// fakeStore is an in-memory Store that records writes.
type fakeStore struct {
	users    map[uint]*models.User
	posts    map[uint]*models.Post
	comments []models.Comment
	nextID   uint

	lookups      int
	writes       int
	failLookup   error
	failWrite    error
	raceOnCreate bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[uint]*models.User{}, posts: map[uint]*models.Post{}}
}

func (f *fakeStore) id() uint {
	f.nextID++
	return f.nextID
}

func (f *fakeStore) addUser(name string) *models.User {
	u := &models.User{ID: f.id(), Username: name, Email: name + "@example.com"}
	f.users[u.ID] = u
	return u
}

func (f *fakeStore) addPost(author *models.User, title string) *models.Post {
	p := &models.Post{ID: f.id(), UserID: author.ID, Title: title, Content: "body", Author: *author}
	f.posts[p.ID] = p
	return p
}

func (f *fakeStore) UsernameTaken(_ context.Context, username string) (bool, error) {
	f.lookups++
	if f.failLookup != nil {
		return false, f.failLookup
	}
	for _, u := range f.users {
		if u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) EmailTaken(_ context.Context, email string) (bool, error) {
	f.lookups++
	if f.failLookup != nil {
		return false, f.failLookup
	}
	for _, u := range f.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) CreateUser(_ context.Context, u *models.User) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	if f.raceOnCreate {
		// another request registered the same username between lookup and insert
		f.users[f.id()] = &models.User{Username: u.Username, Email: "racer@example.com"}
		return apperror.NewConflictError("user already exists", gorm.ErrDuplicatedKey)
	}
	f.writes++
	u.ID = f.id()
	cp := *u
	f.users[u.ID] = &cp
	return nil
}

func (f *fakeStore) UserByID(_ context.Context, id uint) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperror.NewNotFoundError("user not found", nil)
}

func (f *fakeStore) UserByUsername(_ context.Context, username string) (*models.User, error) {
	for _, u := range f.users {
		if u.Username == username {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFoundError("user not found", nil)
}

func (f *fakeStore) UpdateProfile(_ context.Context, u *models.User) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	f.writes++
	stored := f.users[u.ID]
	stored.FullName, stored.Bio, stored.Location, stored.Website = u.FullName, u.Bio, u.Location, u.Website
	return nil
}

func (f *fakeStore) TouchLastSeen(_ context.Context, userID uint, at time.Time) error {
	if u, ok := f.users[userID]; ok {
		u.LastSeen = at
	}
	return nil
}

func (f *fakeStore) CreatePost(_ context.Context, p *models.Post) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	f.writes++
	p.ID = f.id()
	cp := *p
	f.posts[p.ID] = &cp
	return nil
}

func (f *fakeStore) PostByID(_ context.Context, id uint) (*models.Post, error) {
	if p, ok := f.posts[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperror.NewNotFoundError(fmt.Sprintf("post %d not found", id), nil)
}

func (f *fakeStore) CreateComment(_ context.Context, c *models.Comment) error {
	if f.failWrite != nil {
		return f.failWrite
	}
	f.writes++
	c.ID = f.id()
	f.comments = append(f.comments, *c)
	return nil
}

func (f *fakeStore) CommentsForPost(_ context.Context, postID uint) ([]models.Comment, error) {
	var out []models.Comment
	for _, c := range f.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeStore) commentCount(postID uint) int {
	n := 0
	for _, c := range f.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n
}

func (f *fakeStore) sortedPosts(filter func(*models.Post) bool) []models.Post {
	var all []models.Post
	for _, p := range f.posts {
		if filter(p) {
			all = append(all, *p)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID > all[j].ID })
	return all
}

func pageOf(all []models.Post, page, perPage int) *store.Page {
	p := &store.Page{Page: page, PerPage: perPage, Total: int64(len(all)), Items: []models.Post{}}
	start := (page - 1) * perPage
	if start < len(all) {
		end := start + perPage
		if end > len(all) {
			end = len(all)
		}
		p.Items = all[start:end]
	}
	return p
}

func (f *fakeStore) ListPosts(_ context.Context, page, perPage int) (*store.Page, error) {
	return pageOf(f.sortedPosts(func(*models.Post) bool { return true }), page, perPage), nil
}

func (f *fakeStore) PostsByUser(_ context.Context, userID uint, page, perPage int) (*store.Page, error) {
	return pageOf(f.sortedPosts(func(p *models.Post) bool { return p.UserID == userID }), page, perPage), nil
}

func (f *fakeStore) Stats(context.Context, time.Time) (store.Stats, error) {
	return store.Stats{Users: int64(len(f.users)), Posts: int64(len(f.posts)), Comments: int64(len(f.comments))}, nil
}
