package echo

import e "github.com/labstack/echo/v4"

func RegisterRoutes(server *e.Echo, importHandler *ImportHandler) {
	imports := server.Group("/api/v1/imports")
	imports.GET("", importHandler.ListSessions)
	imports.POST("/resumes", importHandler.UploadResumes)
	imports.POST("/resumes/paths", importHandler.ImportFromPaths)
	imports.GET("/:id/progress", importHandler.GetProgress)
	imports.GET("/:id/results", importHandler.GetResults)
	imports.POST("/:id/cancel", importHandler.CancelImport)
}
