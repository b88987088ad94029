package ginserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	gin "github.com/gin-gonic/gin"

	"weekstay/internal/infra/config"
	"weekstay/internal/infra/obs"
)

type AuthHTTP interface {
	Login(c *gin.Context)
	Me(c *gin.Context)
}

type HouseHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	AddPhoto(c *gin.Context)
}

type BookingHTTP interface {
	Create(c *gin.Context)
	ListForHouse(c *gin.Context)
	ListMine(c *gin.Context)
	Cancel(c *gin.Context)
	ListAll(c *gin.Context)
	Delete(c *gin.Context)
}

type UserHTTP interface {
	List(c *gin.Context)
	Get(c *gin.Context)
	Create(c *gin.Context)
	Update(c *gin.Context)
	Delete(c *gin.Context)
	AssignHouses(c *gin.Context)
	AssignHouse(c *gin.Context)
	RemoveHouse(c *gin.Context)
	GrantCredits(c *gin.Context)
	Credits(c *gin.Context)
}

type Handlers struct {
	Auth           AuthHTTP
	House          HouseHTTP
	Booking        BookingHTTP
	User           UserHTTP
	AuthMiddleware gin.HandlerFunc
}

func NewServer(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *http.Server {
	mode := configureGinMode(cfg.Env)
	if obsMW.Logger != nil {
		obsMW.Logger.Info("gin initialized", "mode", mode)
	}

	router := NewRouter(cfg, obsMW, health, h)
	return &http.Server{Addr: cfg.HTTPAddr, Handler: router}
}

// NewRouter builds the engine without binding it to a listener; tests drive
// it through httptest.
func NewRouter(cfg config.Config, obsMW obs.Middleware, health obs.HealthHandlers, h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(obsMW.RequestID())
	router.Use(obsMW.LoggerMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders: []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{
			"Content-Length",
			"Content-Type",
			"X-Request-ID",
		},
		MaxAge: 12 * time.Hour,
	}))
	if h.AuthMiddleware != nil {
		router.Use(h.AuthMiddleware)
	}

	registerSwaggerRoutes(router)

	router.GET("/livez", health.Livez)
	router.GET("/readyz", health.Readyz)

	api := router.Group("/api/v1")
	if h.Auth != nil {
		api.POST("/auth/login", h.Auth.Login)
		api.GET("/auth/me", h.Auth.Me)
	}
	if h.House != nil {
		houses := api.Group("/houses")
		houses.GET("", h.House.List)
		houses.GET("/:id", h.House.Get)
		houses.POST("", h.House.Create)
		houses.PUT("/:id", h.House.Update)
		houses.DELETE("/:id", h.House.Delete)
		houses.POST("/:id/photos", h.House.AddPhoto)
	}
	if h.Booking != nil {
		bookings := api.Group("/bookings")
		bookings.POST("", h.Booking.Create)
		bookings.GET("/house/:houseID", h.Booking.ListForHouse)
		bookings.GET("/me", h.Booking.ListMine)
		bookings.PATCH("/:id/cancel", h.Booking.Cancel)
		bookings.GET("", h.Booking.ListAll)
		bookings.DELETE("/:id", h.Booking.Delete)
	}
	if h.User != nil {
		users := api.Group("/users")
		users.GET("", h.User.List)
		users.POST("", h.User.Create)
		users.GET("/:id", h.User.Get)
		users.PUT("/:id", h.User.Update)
		users.DELETE("/:id", h.User.Delete)
		users.POST("/:id/assign-houses", h.User.AssignHouses)
		users.POST("/:id/assign-house", h.User.AssignHouse)
		users.POST("/:id/remove-house", h.User.RemoveHouse)
		users.POST("/:id/credits", h.User.GrantCredits)
		users.GET("/:id/credits", h.User.Credits)
	}

	return router
}

func configureGinMode(env string) string {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "debug":
		gin.SetMode(gin.DebugMode)
		return gin.DebugMode
	case "test", "testing":
		gin.SetMode(gin.TestMode)
		return gin.TestMode
	default:
		gin.SetMode(gin.ReleaseMode)
		return gin.ReleaseMode
	}
}
