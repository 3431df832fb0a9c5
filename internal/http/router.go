package api

import (
	stdhttp "net/http"

	intconfig "tableadmin/internal/config"
	h "tableadmin/internal/http/handlers"
	"tableadmin/internal/http/middleware"
	"tableadmin/internal/render"
	"tableadmin/internal/session"
	"tableadmin/internal/utils"

	"github.com/gin-gonic/gin"
)

// NewRouter wires the console page and its JSON API onto one session
// registry.
func NewRouter(env intconfig.Env, reg *session.Registry) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), gin.Recovery(), middleware.CORS(env.CORSOrigins))

	if err := r.SetTrustedProxies(nil); err != nil {
		utils.LogEvent("", "http", "trusted_proxies", "failed to set trusted proxies: "+err.Error())
	}
	r.SetHTMLTemplate(render.Templates())

	r.NoRoute(func(c *gin.Context) {
		c.JSON(stdhttp.StatusNotFound, gin.H{
			"error":  "route not found",
			"path":   c.Request.URL.Path,
			"method": c.Request.Method,
		})
	})

	r.GET("/api/health", h.Health)
	r.GET("/api/routes", h.Routes)

	console := r.Group("", middleware.Sessions(reg))
	console.GET("/", h.ConsolePage)

	api := console.Group("/api")
	{
		view := api.Group("/view")
		view.GET("", h.GetView)
		view.GET("/rows", h.ConsoleRows)
		view.POST("/filter", h.ApplyFilter)
		view.POST("/filter/reset", h.ResetFilter)
		view.POST("/sort", h.SetSort)
		view.POST("/page", h.GoToPage)
		view.POST("/page/next", h.NextPage)
		view.POST("/page/prev", h.PrevPage)
		view.POST("/refresh", h.RefreshView)
		view.POST("/select", h.ToggleSelect)
		view.POST("/select-all", h.SelectAll)
		view.POST("/select/clear", h.ClearSelection)
		view.GET("/selection", h.GetSelection)

		bulk := api.Group("/bulk")
		bulk.POST("/status/prepare", h.PrepareBulkStatus)
		bulk.POST("/delete/prepare", h.PrepareBulkDelete)
		bulk.POST("/confirm", h.ConfirmBulk)
		bulk.POST("/cancel", h.CancelBulk)
		bulk.GET("/progress", h.BulkProgress)

		records := api.Group("/records")
		records.GET("/new", h.NewRecordForm)
		records.GET("/:id", h.GetRecordForm)
		records.POST("", h.CreateRecord)
		records.PUT("/:id", h.UpdateRecord)
		records.DELETE("/:id", h.DeleteRecord)

		api.GET("/summary", h.GetSummary)
		api.GET("/export/pdf", h.ExportPDF)
		api.GET("/export/xlsx", h.ExportXLSX)
	}

	h.SetRouter(r)
	return r
}
