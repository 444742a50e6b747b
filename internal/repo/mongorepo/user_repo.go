package mongorepo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/xxxsen/postboard/internal/model"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
)

type UserRepo struct {
	coll *mongo.Collection
}

func NewUserRepo(db *mongo.Database) *UserRepo {
	return &UserRepo{coll: db.Collection(usersCollection)}
}

func (r *UserRepo) Create(ctx context.Context, user *model.User) error {
	doc := *user
	if doc.PostIDs == nil {
		doc.PostIDs = []string{}
	}
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"_id": userID})
}

func (r *UserRepo) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	var user model.User
	if err := r.coll.FindOne(ctx, filter).Decode(&user); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	if user.PostIDs == nil {
		user.PostIDs = []string{}
	}
	return &user, nil
}

func (r *UserRepo) AppendPost(ctx context.Context, userID, postID string) error {
	return r.updateOne(ctx, userID, bson.M{"$push": bson.M{"posts": postID}})
}

func (r *UserRepo) RemovePost(ctx context.Context, userID, postID string) error {
	err := r.updateOne(ctx, userID, bson.M{"$pull": bson.M{"posts": postID}})
	if errors.Is(err, appErr.ErrNotFound) {
		return nil
	}
	return err
}

func (r *UserRepo) UpdateStatus(ctx context.Context, userID, status string, mtime int64) error {
	return r.updateOne(ctx, userID, bson.M{"$set": bson.M{"status": status, "updated_at": mtime}})
}

func (r *UserRepo) updateOne(ctx context.Context, userID string, update bson.M) error {
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return appErr.ErrNotFound
	}
	return nil
}
