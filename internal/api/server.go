package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"storefront/internal/advisor"
	"storefront/internal/api/handlers"
	"storefront/internal/api/middleware"
	"storefront/internal/auth"
	"storefront/internal/catalog"
	"storefront/internal/checkout"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/orders"
	"storefront/internal/session"

	"github.com/gin-gonic/gin"
)

// Dependencies are the collaborators the HTTP layer is wired to.
type Dependencies struct {
	Catalog  *catalog.Index
	Auth     auth.Provider
	Tokens   session.TokenStore
	Sessions *session.Registry
	Gateway  checkout.Gateway
	Orders   *orders.Service
	Advisor  advisor.Advisor
}

type Server struct {
	config *config.Config
	logger *logger.Logger
	router *gin.Engine
	server *http.Server
}

func New(cfg *config.Config, logger *logger.Logger, deps Dependencies) *Server {
	// Set Gin mode
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Middleware
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Recovery(logger))
	router.Use(middleware.CORS(cfg.CORSOrigins))
	router.Use(middleware.Authenticate(deps.Tokens, deps.Sessions, logger))

	// Initialize handlers
	catalogHandler := handlers.NewCatalogHandler(deps.Catalog, logger)
	authHandler := handlers.NewAuthHandler(deps.Auth, deps.Tokens, deps.Sessions, logger)
	cartHandler := handlers.NewCartHandler(deps.Catalog, logger)
	wishlistHandler := handlers.NewWishlistHandler(deps.Catalog, logger)
	checkoutHandler := handlers.NewCheckoutHandler(deps.Gateway, deps.Orders, cfg.PaymentTimeout, logger)
	profileHandler := handlers.NewProfileHandler(deps.Orders, logger)
	assistantHandler := handlers.NewAssistantHandler(deps.Advisor, deps.Catalog, logger)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":   "healthy",
			"products": deps.Catalog.Len(),
			"sessions": deps.Sessions.Len(),
		})
	})

	requireAuth := middleware.RequireAuth()

	// Routes
	v1 := router.Group("/api/v1")
	{
		// Catalog
		products := v1.Group("/catalog")
		{
			products.GET("", catalogHandler.List)
			products.GET("/categories", catalogHandler.Categories)
			products.GET("/:id", catalogHandler.Get)
		}

		// Auth
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/signup", authHandler.SignUp)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/logout", requireAuth, authHandler.Logout)
		}

		// Cart mutations go through the shopper gate rather than requireAuth
		cart := v1.Group("/cart")
		{
			cart.GET("", requireAuth, cartHandler.Get)
			cart.POST("/items", cartHandler.AddItem)
			cart.DELETE("/items/:id", cartHandler.RemoveItem)
		}

		wishlist := v1.Group("/wishlist")
		{
			wishlist.GET("", requireAuth, wishlistHandler.List)
			wishlist.POST("/:id/toggle", wishlistHandler.Toggle)
		}

		// Checkout
		co := v1.Group("/checkout", requireAuth)
		{
			co.POST("", checkoutHandler.Start)
			co.GET("", checkoutHandler.Get)
			co.PUT("/method", checkoutHandler.SelectMethod)
			co.POST("/submit", checkoutHandler.Submit)
			co.POST("/retry", checkoutHandler.Retry)
			co.POST("/finish", checkoutHandler.Finish)
			co.DELETE("", checkoutHandler.Cancel)
		}

		// Profile
		profile := v1.Group("/profile", requireAuth)
		{
			profile.GET("", profileHandler.Get)
			profile.PUT("", profileHandler.Update)
			profile.GET("/orders", profileHandler.Orders)
		}

		v1.POST("/assistant", assistantHandler.Ask)
	}

	return &Server{
		config: cfg,
		logger: logger,
		router: router,
	}
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%s", s.config.APIHost, s.config.APIPort)

	s.server = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: s.config.PaymentTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server on " + addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server...")
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// GetRouter returns the Gin router for Vercel
func (s *Server) GetRouter() *gin.Engine {
	return s.router
}
