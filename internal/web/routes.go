package web

import (
	"github.com/gin-gonic/gin"
)

// registerRoutes sets up all routes on the gin router.
func (s *Server) registerRoutes(router *gin.Engine) {
	router.GET("/healthz", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("/vehicles/years", s.handleYears)
		api.GET("/vehicles/makes", s.handleMakes)
		api.GET("/vehicles/models", s.handleModels)
		api.GET("/vehicles/trims", s.handleTrims)

		api.GET("/finder", s.handleFinderGet)
		api.PUT("/finder", s.handleFinderSet)
		api.POST("/finder/next", s.handleFinderNext)
		api.POST("/finder/back", s.handleFinderBack)
		api.DELETE("/finder", s.handleFinderReset)

		api.GET("/tires", s.handleTires)

		api.POST("/quotes", s.handleQuoteSubmit)
		api.GET("/quotes/last", s.handleLastQuote)

		api.GET("/appointments/options", s.handleAppointmentOptions)
		api.POST("/appointments", s.handleAppointmentSubmit)
	}

	functions := router.Group("/functions", functionsCORS(s.CORSOrigins))
	{
		functions.POST("/:name", s.handleFunction)
		// Preflight requests are answered by the CORS middleware.
		functions.OPTIONS("/:name", func(c *gin.Context) {})
	}

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/login", s.handleLogin)
		authGroup.POST("/logout", s.handleLogout)
		authGroup.GET("/me", s.handleMe)
	}

	// The gate runs before any handler, so nothing is fetched for a
	// visitor without the admin role.
	admin := router.Group("/admin/api", s.Auth.RequireAdmin())
	{
		admin.GET("/summary", s.handleSummary)
		admin.GET("/events", s.handleEvents)

		admin.GET("/quotes", s.handleQuoteList)
		admin.GET("/quotes/export.csv", s.handleQuoteExport)
		admin.GET("/quotes/:id", s.handleQuoteGet)
		admin.PUT("/quotes/:id", s.handleQuoteUpdate)
		admin.POST("/quotes/:id/send", s.handleQuoteSend)

		admin.GET("/appointments", s.handleAppointmentList)
		admin.POST("/appointments/:id/decision", s.handleAppointmentDecision)
	}
}
