package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	handler "haul-bidding/services/bidding/handler"
	"haul-bidding/services/bidding/helpers"
	"haul-bidding/utils"
)

// SetupRouter configures all Gin routes for the application
func SetupRouter(service handler.BiddingServiceInterface, feed handler.JobFeedInterface) *gin.Engine {
	router := gin.New() // New router without default middleware for full control over middleware and logging

	router.Use(gin.Recovery())          // recover from panics
	router.Use(RequestLoggerMiddleware) // custom request logging

	h := handler.NewBiddingHandler(service, feed)

	router.GET("/health", func(c *gin.Context) {
		utils.JSONResponse(c, http.StatusOK, gin.H{"status": "ok"}, "healthy")
	})
	router.GET("/pricing/estimate", h.EstimateHandler)

	anyone := RequireIdentity(helpers.RoleCustomer, helpers.RoleDriver)
	customers := RequireIdentity(helpers.RoleCustomer)
	drivers := RequireIdentity(helpers.RoleDriver)

	bookings := router.Group("/bookings")
	{
		bookings.POST("", customers, h.CreateBookingHandler)
		bookings.GET("/:booking_id", anyone, h.GetBookingHandler)
		bookings.GET("/:booking_id/bids", anyone, h.GetBidsHandler)
		bookings.POST("/:booking_id/bids", drivers, h.PlaceBidHandler)
		bookings.POST("/:booking_id/award", customers, h.AwardHandler)
		bookings.POST("/:booking_id/advance", drivers, h.AdvanceHandler)
		bookings.POST("/:booking_id/cancel", customers, h.CancelHandler)
		bookings.GET("/:booking_id/events", anyone, h.BookingEventsHandler)
	}

	jobs := router.Group("/jobs", drivers)
	{
		jobs.GET("", h.GetJobsHandler)
		jobs.GET("/events", h.JobEventsHandler)
	}

	router.GET("/drivers/:driver_id/bids", drivers, h.GetDriverBidsHandler)
	router.GET("/customers/:customer_id/bookings", customers, h.GetCustomerBookingsHandler)

	return router
}
