package http

import (
	"github.com/gin-gonic/gin"

	"docchat/internal/bootstrap"
	"docchat/internal/transport/http/handler"
	"docchat/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery(), middleware.RequestID())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	qaHandler := handler.NewQAHandler(app.Service, app.Publisher, app.Config.MaxPDFSizeBytes())

	v1 := router.Group("/api/v1")
	v1.POST("/documents", qaHandler.UploadDocument)
	v1.POST("/documents/async", qaHandler.UploadDocumentAsync)
	v1.GET("/documents", qaHandler.ListDocuments)
	v1.GET("/documents/chunks", qaHandler.ListChunks)
	v1.DELETE("/documents", qaHandler.ClearAll)
	v1.POST("/ask", qaHandler.Ask)

	return router
}
