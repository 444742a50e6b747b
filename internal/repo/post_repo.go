package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/postboard/internal/model"
	"github.com/xxxsen/postboard/internal/pkg/dbutil"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
)

var postFields = []string{"id", "title", "image_url", "content", "creator_id", "ctime", "mtime"}

type PostRepo struct {
	db      *sql.DB
	dialect string
}

func NewPostRepo(db *sql.DB, dialect string) *PostRepo {
	return &PostRepo{db: db, dialect: dialect}
}

func (r *PostRepo) Create(ctx context.Context, post *model.Post) error {
	data := map[string]interface{}{
		"id":         post.ID,
		"title":      post.Title,
		"image_url":  post.ImageURL,
		"content":    post.Content,
		"creator_id": post.CreatorID,
		"ctime":      post.Ctime,
		"mtime":      post.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("posts", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

// Update rewrites the mutable fields. The creator is never touched.
func (r *PostRepo) Update(ctx context.Context, post *model.Post) error {
	where := map[string]interface{}{"id": post.ID}
	update := map[string]interface{}{
		"title":     post.Title,
		"image_url": post.ImageURL,
		"content":   post.Content,
		"mtime":     post.Mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("posts", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, postID string) error {
	sqlStr, args, err := builder.BuildDelete("posts", map[string]interface{}{"id": postID})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	result, err := r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	posts, err := r.query(ctx, map[string]interface{}{"id": postID})
	if err != nil {
		return nil, err
	}
	if len(posts) == 0 {
		return nil, appErr.ErrNotFound
	}
	return &posts[0], nil
}

// List returns one page of posts, newest first.
func (r *PostRepo) List(ctx context.Context, limit, offset uint) ([]model.Post, error) {
	where := map[string]interface{}{
		"_orderby": "ctime desc, id desc",
	}
	if limit > 0 {
		where["_limit"] = []uint{offset, limit}
	}
	return r.query(ctx, where)
}

func (r *PostRepo) ListByIDs(ctx context.Context, postIDs []string) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}
	ids := make([]interface{}, 0, len(postIDs))
	for _, id := range postIDs {
		ids = append(ids, id)
	}
	return r.query(ctx, map[string]interface{}{"id in": ids})
}

func (r *PostRepo) Count(ctx context.Context) (int64, error) {
	var total int64
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(1) FROM posts").Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

func (r *PostRepo) query(ctx context.Context, where map[string]interface{}) ([]model.Post, error) {
	sqlStr, args, err := builder.BuildSelect("posts", where, postFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	posts := make([]model.Post, 0)
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(&post.ID, &post.Title, &post.ImageURL, &post.Content, &post.CreatorID, &post.Ctime, &post.Mtime); err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}
