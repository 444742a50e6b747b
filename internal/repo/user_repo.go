package repo

import (
	"context"
	"database/sql"
	"time"

	"github.com/didi/gendry/builder"

	"github.com/xxxsen/postboard/internal/model"
	"github.com/xxxsen/postboard/internal/pkg/dbutil"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
)

var userFields = []string{"id", "email", "name", "password_hash", "status", "ctime", "mtime"}

type UserRepo struct {
	db      *sql.DB
	dialect string
}

func NewUserRepo(db *sql.DB, dialect string) *UserRepo {
	return &UserRepo{db: db, dialect: dialect}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	data := map[string]interface{}{
		"id":            user.ID,
		"email":         user.Email,
		"name":          user.Name,
		"password_hash": user.PasswordHash,
		"status":        user.Status,
		"ctime":         user.Ctime,
		"mtime":         user.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("users", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		if dbutil.IsConflict(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"email": email})
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getOne(ctx, map[string]interface{}{"id": userID})
}

func (r *UserRepo) getOne(ctx context.Context, where map[string]interface{}) (*model.User, error) {
	sqlStr, args, err := builder.BuildSelect("users", where, userFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, appErr.ErrNotFound
	}
	var user model.User
	if err := rows.Scan(&user.ID, &user.Email, &user.Name, &user.PasswordHash, &user.Status, &user.Ctime, &user.Mtime); err != nil {
		return nil, err
	}
	_ = rows.Close()
	postIDs, err := r.listPostIDs(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	user.PostIDs = postIDs
	return &user, nil
}

func (r *UserRepo) listPostIDs(ctx context.Context, userID string) ([]string, error) {
	where := map[string]interface{}{
		"user_id":  userID,
		"_orderby": "seq asc",
	}
	sqlStr, args, err := builder.BuildSelect("user_posts", where, []string{"post_id"})
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppendPost adds postID to the end of the user's post list.
func (r *UserRepo) AppendPost(ctx context.Context, userID, postID string) error {
	data := map[string]interface{}{
		"user_id": userID,
		"post_id": postID,
		"seq":     time.Now().UnixNano(),
	}
	sqlStr, args, err := builder.BuildInsert("user_posts", []map[string]interface{}{data})
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

func (r *UserRepo) RemovePost(ctx context.Context, userID, postID string) error {
	where := map[string]interface{}{
		"user_id": userID,
		"post_id": postID,
	}
	sqlStr, args, err := builder.BuildDelete("user_posts", where)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(r.dialect, sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *UserRepo) UpdateStatus(ctx context.Context, userID, status string, mtime int64) error {
	where := map[string]interface{}{"id": userID}
	update := map[string]interface{}{
		"status": status,
		"mtime":  mtime,
	}
	sqlStr, args, err := builder.BuildUpdate("users", where, update)
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
