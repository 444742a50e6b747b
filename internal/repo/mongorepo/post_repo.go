package mongorepo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/xxxsen/postboard/internal/model"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
)

type PostRepo struct {
	coll *mongo.Collection
}

func NewPostRepo(db *mongo.Database) *PostRepo {
	return &PostRepo{coll: db.Collection(postsCollection)}
}

func (r *PostRepo) Create(ctx context.Context, post *model.Post) error {
	if _, err := r.coll.InsertOne(ctx, post); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return appErr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *PostRepo) Update(ctx context.Context, post *model.Post) error {
	update := bson.M{"$set": bson.M{
		"title":      post.Title,
		"image_url":  post.ImageURL,
		"content":    post.Content,
		"updated_at": post.Mtime,
	}}
	result, err := r.coll.UpdateOne(ctx, bson.M{"_id": post.ID}, update)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, postID string) error {
	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": postID})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return appErr.ErrNotFound
	}
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, postID string) (*model.Post, error) {
	var post model.Post
	if err := r.coll.FindOne(ctx, bson.M{"_id": postID}).Decode(&post); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, appErr.ErrNotFound
		}
		return nil, err
	}
	return &post, nil
}

func (r *PostRepo) List(ctx context.Context, limit, offset uint) ([]model.Post, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetSkip(int64(offset))
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	return r.find(ctx, bson.M{}, opts)
}

func (r *PostRepo) ListByIDs(ctx context.Context, postIDs []string) ([]model.Post, error) {
	if len(postIDs) == 0 {
		return []model.Post{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": postIDs}}, options.Find())
}

func (r *PostRepo) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}

func (r *PostRepo) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]model.Post, error) {
	cur, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()
	posts := make([]model.Post, 0)
	if err := cur.All(ctx, &posts); err != nil {
		return nil, err
	}
	return posts, nil
}
