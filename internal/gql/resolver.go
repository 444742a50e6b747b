package gql

import (
	"fmt"

	"github.com/graphql-go/graphql"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/xxxsen/postboard/internal/auth"
	"github.com/xxxsen/postboard/internal/model"
	appErr "github.com/xxxsen/postboard/internal/pkg/errors"
	"github.com/xxxsen/postboard/internal/pkg/markdown"
	"github.com/xxxsen/postboard/internal/service"
)

type Resolver struct {
	accounts *service.AuthService
	postSvc  *service.PostService
}

func NewResolver(accounts *service.AuthService, posts *service.PostService) *Resolver {
	return &Resolver{accounts: accounts, postSvc: posts}
}

// wrap hides unexpected failures behind a generic message and logs them.
func (r *Resolver) wrap(fn graphql.FieldResolveFn) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		out, err := fn(p)
		if err == nil {
			return out, nil
		}
		if appErr.IsClientError(err) {
			return nil, err
		}
		logutil.GetLogger(p.Context).Error("graphql resolver failed",
			zap.String("field", p.Info.FieldName),
			zap.Error(err),
		)
		return nil, appErr.New(appErr.ErrInternal, "internal error")
	}
}

func identity(p graphql.ResolveParams) *auth.Identity {
	id, _ := auth.FromContext(p.Context)
	return id
}

func (r *Resolver) createUser(p graphql.ResolveParams) (interface{}, error) {
	in := inputArg(p, "signupInput")
	return r.accounts.Signup(p.Context, service.SignupInput{
		Email:    stringField(in, "email"),
		Name:     stringField(in, "name"),
		Password: stringField(in, "password"),
	})
}

func (r *Resolver) login(p graphql.ResolveParams) (interface{}, error) {
	in := inputArg(p, "loginInput")
	data, err := r.accounts.Login(p.Context, service.LoginInput{
		Email:    stringField(in, "email"),
		Password: stringField(in, "password"),
	})
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{"token": data.Token, "userId": data.UserID}, nil
}

func (r *Resolver) user(p graphql.ResolveParams) (interface{}, error) {
	return r.accounts.Me(p.Context, identity(p))
}

func (r *Resolver) updateStatus(p graphql.ResolveParams) (interface{}, error) {
	status, _ := p.Args["status"].(string)
	return r.accounts.UpdateStatus(p.Context, identity(p), status)
}

func (r *Resolver) createPost(p graphql.ResolveParams) (interface{}, error) {
	return r.postSvc.Create(p.Context, identity(p), postInput(inputArg(p, "postInput")))
}

func (r *Resolver) posts(p graphql.ResolveParams) (interface{}, error) {
	page, _ := p.Args["page"].(int)
	result, err := r.postSvc.List(p.Context, identity(p), page)
	if err != nil {
		return nil, err
	}
	return map[string]interface{}{
		"posts":      postPointers(result.Posts),
		"totalPosts": int(result.TotalPosts),
	}, nil
}

func (r *Resolver) post(p graphql.ResolveParams) (interface{}, error) {
	postID, _ := p.Args["postId"].(string)
	return r.postSvc.Get(p.Context, identity(p), postID)
}

func (r *Resolver) updatePost(p graphql.ResolveParams) (interface{}, error) {
	postID, _ := p.Args["postId"].(string)
	return r.postSvc.Update(p.Context, identity(p), postID, postInput(inputArg(p, "postInput")))
}

func (r *Resolver) deletePost(p graphql.ResolveParams) (interface{}, error) {
	postID, _ := p.Args["postId"].(string)
	return r.postSvc.Delete(p.Context, identity(p), postID)
}

func (r *Resolver) userPosts(p graphql.ResolveParams) (interface{}, error) {
	user, ok := p.Source.(*model.User)
	if !ok {
		return nil, fmt.Errorf("unexpected user source %T", p.Source)
	}
	posts, err := r.postSvc.PostsOf(p.Context, user)
	if err != nil {
		return nil, err
	}
	return postPointers(posts), nil
}

func (r *Resolver) postCreator(p graphql.ResolveParams) (interface{}, error) {
	post, ok := p.Source.(*model.Post)
	if !ok {
		return nil, fmt.Errorf("unexpected post source %T", p.Source)
	}
	if post.Creator == nil {
		return nil, appErr.NotFound("post creator not found")
	}
	return post.Creator, nil
}

func (r *Resolver) contentHTML(p graphql.ResolveParams) (interface{}, error) {
	post, ok := p.Source.(*model.Post)
	if !ok {
		return nil, fmt.Errorf("unexpected post source %T", p.Source)
	}
	return markdown.Render(post.Content)
}

func userField(get func(u *model.User) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		user, ok := p.Source.(*model.User)
		if !ok {
			return nil, fmt.Errorf("unexpected user source %T", p.Source)
		}
		return get(user), nil
	}
}

func postField(get func(p *model.Post) interface{}) graphql.FieldResolveFn {
	return func(p graphql.ResolveParams) (interface{}, error) {
		post, ok := p.Source.(*model.Post)
		if !ok {
			return nil, fmt.Errorf("unexpected post source %T", p.Source)
		}
		return get(post), nil
	}
}

func postPointers(posts []model.Post) []*model.Post {
	out := make([]*model.Post, 0, len(posts))
	for i := range posts {
		out = append(out, &posts[i])
	}
	return out
}

func inputArg(p graphql.ResolveParams, name string) map[string]interface{} {
	in, _ := p.Args[name].(map[string]interface{})
	return in
}

func stringField(in map[string]interface{}, key string) string {
	v, _ := in[key].(string)
	return v
}

func postInput(in map[string]interface{}) service.PostInput {
	out := service.PostInput{
		Title:   stringField(in, "title"),
		Content: stringField(in, "content"),
	}
	if v, ok := in["imageUrl"].(string); ok {
		out.ImageURL = &v
	}
	return out
}
