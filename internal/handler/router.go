package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/xxxsen/postboard/internal/gql"
	"github.com/xxxsen/postboard/internal/middleware"
)

type RouterDeps struct {
	GraphQL         *gql.Handler
	Images          *ImageHandler
	Tokens          middleware.TokenVerifier
	UploadRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.Use(middleware.Authenticate(deps.Tokens))

	api.POST("/graphql", deps.GraphQL.Serve)
	api.GET("/graphql", deps.GraphQL.Serve)
	api.GET("/images/:key", deps.Images.Get)

	authGroup := api.Group("")
	authGroup.Use(middleware.RequireAuth())
	authGroup.PUT("/post-image", middleware.RateLimit(deps.UploadRateLimit), deps.Images.Upload)
}
