package v1

import "github.com/gin-gonic/gin"

// RegisterRoutes mounts the Card API, the Upload Gateway and file serving.
// The same routes are also served under /api for browser clients using that prefix.
func RegisterRoutes(r gin.IRouter, cards *CardHandler, uploads *UploadHandler) {
	for _, group := range []gin.IRouter{r, r.Group("/api")} {
		group.GET("/cards", cards.ListCards)
		group.POST("/cards", cards.CreateCard)
		group.PUT("/cards/:id", cards.UpdateCard)
		group.POST("/upload", uploads.Upload)
	}
	r.GET("/files/:key", uploads.ServeFile)
}
