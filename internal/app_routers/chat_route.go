package approuters

import (
	"ChatSync/internal/configuration"
	"ChatSync/internal/middleware"

	"github.com/gin-gonic/gin"
)

func ChatRouters(router *gin.Engine, container *configuration.Container) {
	chatRoute := router.Group("/api/conversations")
	chatRoute.Use(middleware.Session(container.Config.Session.JWTSecret))
	{
		chatRoute.POST("", container.ChatHandler.CreateConversation)
		chatRoute.GET("", container.ChatHandler.ListConversations)
		chatRoute.GET("/:conversationId/messages", container.ChatHandler.ListMessages)
		chatRoute.POST("/:conversationId/messages", container.ChatHandler.SendMessage)
		chatRoute.POST("/:conversationId/photos", container.ChatHandler.SendPhotoMessage)
	}
}
