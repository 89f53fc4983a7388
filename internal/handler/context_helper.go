package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/devscout-auth/internal/middleware"
	"github.com/noah-isme/devscout-auth/internal/models"
)

func currentUser(c *gin.Context) *models.User {
	return middleware.CurrentUser(c)
}
