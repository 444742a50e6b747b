package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/postboard/internal/auth"
)

func getUserID(c *gin.Context) string {
	id, ok := auth.FromContext(c.Request.Context())
	if !ok {
		return ""
	}
	return id.UserID
}
