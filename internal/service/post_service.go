package service

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/postboard/internal/auth"
	"github.com/xxxsen/postboard/internal/model"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
	"github.com/xxxsen/postboard/internal/pkg/timeutil"
)

// undefinedImage is what form based clients send for an untouched image field.
const undefinedImage = "undefined"

type PostInput struct {
	Title    string
	Content  string
	ImageURL *string
}

type PostPage struct {
	Posts      []model.Post
	TotalPosts int64
}

type PostService struct {
	posts   PostStore
	users   UserStore
	perPage int
	now     func() int64
}

func NewPostService(posts PostStore, users UserStore, perPage int) *PostService {
	if perPage <= 0 {
		perPage = 2
	}
	return &PostService{posts: posts, users: users, perPage: perPage, now: timeutil.NowUnixMilli}
}

// Create stores the post and then links it to its creator. The two writes are
// not atomic: if linking fails the post stays persisted but unlisted on the user.
func (s *PostService) Create(ctx context.Context, id *auth.Identity, in PostInput) (*model.Post, error) {
	if id == nil {
		return nil, errNotAuthenticated()
	}
	user, err := s.users.GetByID(ctx, id.UserID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.Unauthorized("could not create post for this account")
		}
		return nil, err
	}
	imageURL := model.DefaultImageURL
	if in.ImageURL != nil && *in.ImageURL != "" {
		imageURL = *in.ImageURL
	}
	now := s.now()
	post := &model.Post{
		ID:        newID(),
		Title:     in.Title,
		ImageURL:  imageURL,
		Content:   in.Content,
		CreatorID: user.ID,
		Ctime:     now,
		Mtime:     now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	if err := s.users.AppendPost(ctx, user.ID, post.ID); err != nil {
		logutil.GetLogger(ctx).Error("link post to creator failed, post left unlinked",
			zap.String("post_id", post.ID),
			zap.String("user_id", user.ID),
			zap.Error(err),
		)
		return nil, err
	}
	user.PostIDs = append(user.PostIDs, post.ID)
	post.Creator = user
	return post, nil
}

// List returns one page of all posts, newest first, and the overall post count.
func (s *PostService) List(ctx context.Context, id *auth.Identity, page int) (*PostPage, error) {
	if id == nil {
		return nil, errNotAuthenticated()
	}
	if page < 1 {
		page = 1
	}
	total, err := s.posts.Count(ctx)
	if err != nil {
		return nil, err
	}
	offset := uint(page-1) * uint(s.perPage)
	posts, err := s.posts.List(ctx, uint(s.perPage), offset)
	if err != nil {
		return nil, err
	}
	if err := s.attachCreators(ctx, posts); err != nil {
		return nil, err
	}
	return &PostPage{Posts: posts, TotalPosts: total}, nil
}

func (s *PostService) Get(ctx context.Context, id *auth.Identity, postID string) (*model.Post, error) {
	if id == nil {
		return nil, errNotAuthenticated()
	}
	return s.load(ctx, postID)
}

func (s *PostService) Update(ctx context.Context, id *auth.Identity, postID string, in PostInput) (*model.Post, error) {
	if id == nil {
		return nil, errNotAuthenticated()
	}
	post, err := s.loadOwned(ctx, id, postID, "you are not allowed to edit this post")
	if err != nil {
		return nil, err
	}
	post.Title = in.Title
	post.Content = in.Content
	if in.ImageURL != nil && *in.ImageURL != "" && *in.ImageURL != undefinedImage {
		post.ImageURL = *in.ImageURL
	}
	post.Mtime = s.now()
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *PostService) Delete(ctx context.Context, id *auth.Identity, postID string) (bool, error) {
	if id == nil {
		return false, errNotAuthenticated()
	}
	post, err := s.loadOwned(ctx, id, postID, "you are not allowed to delete this post")
	if err != nil {
		return false, err
	}
	if err := s.posts.Delete(ctx, post.ID); err != nil {
		return false, err
	}
	if err := s.users.RemovePost(ctx, post.CreatorID, post.ID); err != nil {
		logutil.GetLogger(ctx).Error("unlink deleted post from creator failed",
			zap.String("post_id", post.ID),
			zap.String("user_id", post.CreatorID),
			zap.Error(err),
		)
		return false, err
	}
	return true, nil
}

// PostsOf resolves a user's post references in list order.
func (s *PostService) PostsOf(ctx context.Context, user *model.User) ([]model.Post, error) {
	if len(user.PostIDs) == 0 {
		return []model.Post{}, nil
	}
	found, err := s.posts.ListByIDs(ctx, user.PostIDs)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Post, len(found))
	for _, post := range found {
		byID[post.ID] = post
	}
	ordered := make([]model.Post, 0, len(found))
	for _, postID := range user.PostIDs {
		if post, ok := byID[postID]; ok {
			post.Creator = user
			ordered = append(ordered, post)
		}
	}
	return ordered, nil
}

func (s *PostService) loadOwned(ctx context.Context, id *auth.Identity, postID, denied string) (*model.Post, error) {
	post, err := s.load(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post.CreatorID != id.UserID {
		return nil, appErr.Forbidden(denied)
	}
	return post, nil
}

func (s *PostService) load(ctx context.Context, postID string) (*model.Post, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		if appErr.IsNotFound(err) {
			return nil, appErr.NotFound("post not found")
		}
		return nil, err
	}
	posts := []model.Post{*post}
	if err := s.attachCreators(ctx, posts); err != nil {
		return nil, err
	}
	return &posts[0], nil
}

// attachCreators fills Creator on every post. A creator record that has gone
// missing leaves Creator nil rather than failing the whole read.
func (s *PostService) attachCreators(ctx context.Context, posts []model.Post) error {
	creators := make(map[string]*model.User)
	for i := range posts {
		creatorID := posts[i].CreatorID
		user, ok := creators[creatorID]
		if !ok {
			loaded, err := s.users.GetByID(ctx, creatorID)
			if err != nil && !appErr.IsNotFound(err) {
				return err
			}
			user = loaded
			creators[creatorID] = user
		}
		posts[i].Creator = user
	}
	return nil
}
