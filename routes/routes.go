package routes

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"hostal-backend/controllers"
	"hostal-backend/middleware"
	"hostal-backend/services"
)

// SetupRouter wires the controllers onto a gin engine.
func SetupRouter(
	rc *controllers.ReservationController,
	rmc *controllers.RoomController,
	origins []string,
) *gin.Engine {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		services.UseJSONFieldNames(v)
	}

	r := gin.New()
	r.Use(middleware.Logger(), gin.Recovery())

	if len(origins) == 0 {
		origins = []string{"*"}
	}
	allowCredentials := true
	for _, origin := range origins {
		if origin == "*" {
			allowCredentials = false
			break
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     append([]string{"Origin", "Content-Type", "Accept", "Authorization", "X-Requested-With", middleware.RequestIDHeader}, middleware.TraceHeaders...),
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: allowCredentials,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		rooms := api.Group("/rooms")
		{
			rooms.GET("", rmc.GetRooms)
			rooms.POST("", rmc.CreateRoom)
			rooms.GET("/:id", rmc.GetRoom)
			rooms.PATCH("/:id", rmc.UpdateRoom)
			rooms.PUT("/:id", rmc.UpdateRoom)
			rooms.DELETE("/:id", rmc.DeleteRoom)
		}

		reservations := api.Group("/reservations")
		{
			reservations.GET("", rc.GetReservations)
			reservations.POST("", rc.CreateReservation)

			// static paths take priority over /:id
			reservations.GET("/report/guests-by-country", rc.GuestsByCountry)
			reservations.GET("/report/guests-geo", rc.GuestsGeo)
			reservations.POST("/sweep", rc.Sweep)

			reservations.GET("/:id", rc.GetReservation)
			reservations.PUT("/:id", rc.UpdateReservation)
			reservations.DELETE("/:id", rc.DeleteReservation)
			reservations.PATCH("/:id/extend", rc.ExtendReservation)
		}
	}

	return r
}
