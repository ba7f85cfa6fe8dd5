package routes

import (
	"go-silversense/handlers"
	"go-silversense/processor"

	"github.com/gin-gonic/gin"
)

func SetupRouter(p *processor.Pipeline) *gin.Engine {
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "Hello, welcome to SilverSense!",
		})
	})

	// api routes
	api := r.Group("/api/emergency")
	{
		api.POST("/analyze", func(c *gin.Context) {
			handlers.AnalyzeHandler(c, p)
		})
		api.POST("/analyze-audio", func(c *gin.Context) {
			handlers.AnalyzeAudioHandler(c, p)
		})
		api.POST("/ask", func(c *gin.Context) {
			handlers.AskHandler(c, p)
		})
		api.POST("/batch", func(c *gin.Context) {
			handlers.BatchHandler(c, p)
		})
		api.GET("/guidance/:id", handlers.GuidanceHandler)
		api.GET("/situations", func(c *gin.Context) {
			handlers.ListSituationsHandler(c, p)
		})
		api.GET("/situations/:id", func(c *gin.Context) {
			handlers.GetSituationHandler(c, p)
		})
	}

	return r
}
