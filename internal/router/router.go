package router

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/madio-cloud/signalement-service/api"
	"github.com/madio-cloud/signalement-service/internal/handler"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

const (
	pathHealth  = "/health"
	pathReady   = "/ready"
	pathSwagger = "/swagger"
)

// requestID assigns an X-Request-ID when the caller did not send one.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

type Handlers struct {
	Signalement  *handler.SignalementHandler
	Sync         *handler.SyncHandler
	Notification *handler.NotificationHandler
	Entreprise   *handler.EntrepriseHandler
}

func New(h Handlers) http.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), requestID())
	r.GET(pathHealth, gin.WrapF(handler.Health))
	r.GET(pathReady, gin.WrapF(handler.Ready))
	r.GET(pathSwagger, func(c *gin.Context) { c.Redirect(http.StatusFound, pathSwagger+"/") })
	r.GET(pathSwagger+"/*any", func(c *gin.Context) {
		if strings.TrimPrefix(c.Param("any"), "/") == "openapi.json" {
			c.Data(http.StatusOK, "application/json", api.OpenAPISpec)
			return
		}
		if strings.TrimPrefix(c.Param("any"), "/") == "" {
			c.Request.URL.Path = pathSwagger + "/index.html"
			c.Request.RequestURI = pathSwagger + "/index.html"
		}
		ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/openapi.json"))(c)
	})

	v1 := r.Group("/api/v1")
	{
		v1.POST("/signalements", h.Signalement.Create)
		v1.GET("/signalements", h.Signalement.List)
		v1.GET("/signalements/:id", h.Signalement.Get)
		v1.PUT("/signalements/:id", h.Signalement.Update)
		v1.PATCH("/signalements/:id/status", h.Signalement.UpdateStatus)
		v1.GET("/signalements/status/:status", h.Signalement.ListByStatus)
		v1.GET("/signalements/user/:userId", h.Signalement.ListByUser)

		v1.POST("/sync/signalements", h.Sync.IngestSignalements)
		v1.POST("/sync/users", h.Sync.MirrorUsers)

		v1.GET("/notifications/user/:userId", h.Notification.ListByUser)
		v1.GET("/notifications/user/:userId/unread", h.Notification.ListUnreadByUser)
		v1.GET("/notifications/user/:userId/count", h.Notification.CountUnread)
		v1.PUT("/notifications/:id/read", h.Notification.MarkRead)
		v1.PUT("/notifications/user/:userId/read-all", h.Notification.MarkAllRead)

		v1.POST("/entreprises", h.Entreprise.Create)
		v1.GET("/entreprises", h.Entreprise.List)
		v1.GET("/entreprises/:id", h.Entreprise.Get)
	}

	return r
}
