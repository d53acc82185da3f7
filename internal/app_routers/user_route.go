package approuters

import (
	"ChatSync/internal/configuration"
	"ChatSync/internal/middleware"

	"github.com/gin-gonic/gin"
)

func UserRouters(router *gin.Engine, container *configuration.Container) {
	userRoute := router.Group("/api/users")
	{
		userRoute.POST("/create-user", container.UserHandler.CreateUser)
		userRoute.GET("/picture/:email", container.UserHandler.GetProfilePicture)
	}

	authed := router.Group("/api/users")
	authed.Use(middleware.Session(container.Config.Session.JWTSecret))
	{
		authed.GET("/search", container.UserHandler.SearchUsers)
		authed.POST("/picture", container.UserHandler.UploadProfilePicture)
	}
}
