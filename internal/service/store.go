package service

import (
	"context"

	"github.com/xxxsen/postboard/internal/model"
)

// UserStore persists credentials and the ordered list of a user's posts.
// Implementations return appErr.ErrNotFound and appErr.ErrConflict.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, userID string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	AppendPost(ctx context.Context, userID, postID string) error
	RemovePost(ctx context.Context, userID, postID string) error
	UpdateStatus(ctx context.Context, userID, status string, mtime int64) error
}

type PostStore interface {
	Create(ctx context.Context, post *model.Post) error
	GetByID(ctx context.Context, postID string) (*model.Post, error)
	List(ctx context.Context, limit, offset uint) ([]model.Post, error)
	ListByIDs(ctx context.Context, postIDs []string) ([]model.Post, error)
	Count(ctx context.Context) (int64, error)
	Update(ctx context.Context, post *model.Post) error
	Delete(ctx context.Context, postID string) error
}
