// Package gql exposes the account and post operations as a GraphQL schema.
package gql

import (
	"github.com/graphql-go/graphql"

	"github.com/xxxsen/postboard/internal/model"
	"github.com/xxxsen/postboard/internal/pkg/timeutil"
)

// NewSchema builds the executable schema around r.
func NewSchema(r *Resolver) (graphql.Schema, error) {
	userType := graphql.NewObject(graphql.ObjectConfig{
		Name: "User",
		Fields: graphql.Fields{
			"_id":    &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: userField(func(u *model.User) interface{} { return u.ID })},
			"name":   &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: userField(func(u *model.User) interface{} { return u.Name })},
			"email":  &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: userField(func(u *model.User) interface{} { return u.Email })},
			"status": &graphql.Field{Type: graphql.String, Resolve: userField(func(u *model.User) interface{} { return u.Status })},
		},
	})

	postType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Post",
		Fields: graphql.Fields{
			"_id":         &graphql.Field{Type: graphql.NewNonNull(graphql.ID), Resolve: postField(func(p *model.Post) interface{} { return p.ID })},
			"title":       &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: postField(func(p *model.Post) interface{} { return p.Title })},
			"imageUrl":    &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: postField(func(p *model.Post) interface{} { return p.ImageURL })},
			"content":     &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: postField(func(p *model.Post) interface{} { return p.Content })},
			"contentHtml": &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: r.wrap(r.contentHTML)},
			"creator":     &graphql.Field{Type: graphql.NewNonNull(userType), Resolve: r.wrap(r.postCreator)},
			"createdAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: postField(func(p *model.Post) interface{} { return timeutil.FormatMilli(p.Ctime) })},
			"updatedAt":   &graphql.Field{Type: graphql.NewNonNull(graphql.String), Resolve: postField(func(p *model.Post) interface{} { return timeutil.FormatMilli(p.Mtime) })},
		},
	})

	userType.AddFieldConfig("posts", &graphql.Field{
		Type:    graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType))),
		Resolve: r.wrap(r.userPosts),
	})

	authDataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "AuthData",
		Fields: graphql.Fields{
			"token":  &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
			"userId": &graphql.Field{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	postDataType := graphql.NewObject(graphql.ObjectConfig{
		Name: "PostData",
		Fields: graphql.Fields{
			"posts":      &graphql.Field{Type: graphql.NewNonNull(graphql.NewList(graphql.NewNonNull(postType)))},
			"totalPosts": &graphql.Field{Type: graphql.NewNonNull(graphql.Int)},
		},
	})

	signupInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "SignupInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"name":     &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	loginInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "LoginInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"email":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"password": &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
		},
	})

	postInput := graphql.NewInputObject(graphql.InputObjectConfig{
		Name: "PostInput",
		Fields: graphql.InputObjectConfigFieldMap{
			"title":    &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"content":  &graphql.InputObjectFieldConfig{Type: graphql.NewNonNull(graphql.String)},
			"imageUrl": &graphql.InputObjectFieldConfig{Type: graphql.String},
		},
	})

	query := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"posts": &graphql.Field{
				Type:    graphql.NewNonNull(postDataType),
				Args:    graphql.FieldConfigArgument{"page": &graphql.ArgumentConfig{Type: graphql.Int}},
				Resolve: r.wrap(r.posts),
			},
			"post": &graphql.Field{
				Type:    graphql.NewNonNull(postType),
				Args:    graphql.FieldConfigArgument{"postId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}},
				Resolve: r.wrap(r.post),
			},
			"user": &graphql.Field{
				Type:    graphql.NewNonNull(userType),
				Resolve: r.wrap(r.user),
			},
		},
	})

	mutation := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"createUser": &graphql.Field{
				Type:    graphql.NewNonNull(userType),
				Args:    graphql.FieldConfigArgument{"signupInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(signupInput)}},
				Resolve: r.wrap(r.createUser),
			},
			"login": &graphql.Field{
				Type:    graphql.NewNonNull(authDataType),
				Args:    graphql.FieldConfigArgument{"loginInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(loginInput)}},
				Resolve: r.wrap(r.login),
			},
			"createPost": &graphql.Field{
				Type:    graphql.NewNonNull(postType),
				Args:    graphql.FieldConfigArgument{"postInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(postInput)}},
				Resolve: r.wrap(r.createPost),
			},
			"updatePost": &graphql.Field{
				Type: graphql.NewNonNull(postType),
				Args: graphql.FieldConfigArgument{
					"postId":    &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)},
					"postInput": &graphql.ArgumentConfig{Type: graphql.NewNonNull(postInput)},
				},
				Resolve: r.wrap(r.updatePost),
			},
			"deletePost": &graphql.Field{
				Type:    graphql.NewNonNull(graphql.Boolean),
				Args:    graphql.FieldConfigArgument{"postId": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.ID)}},
				Resolve: r.wrap(r.deletePost),
			},
			"updateStatus": &graphql.Field{
				Type:    graphql.NewNonNull(userType),
				Args:    graphql.FieldConfigArgument{"status": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)}},
				Resolve: r.wrap(r.updateStatus),
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    query,
		Mutation: mutation,
	})
}
