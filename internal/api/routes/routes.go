// internal/api/routes/routes.go
package routes

import (
	"fmt"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"logiledger-api-server/config"
	"logiledger-api-server/internal/api/handlers"
	"logiledger-api-server/internal/api/middleware"
	"logiledger-api-server/internal/models"
	"logiledger-api-server/internal/service"
	"logiledger-api-server/internal/socket"
)

// Dependencies are the collaborators the router wires into its handlers.
// Limiter may be nil, in which case no rate limit is applied.
type Dependencies struct {
	Config   config.Config
	Services *service.Services
	Hub      *socket.Hub
	Limiter  middleware.Limiter
}

// SetupRouter builds the gin engine with every API route.
func SetupRouter(deps Dependencies) (*gin.Engine, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}

	router := gin.New()
	// ClientIP feeds the rate limiter and request logs, so forwarding headers
	// only count when they come from a configured proxy.
	if err := router.SetTrustedProxies(trustedProxies(deps.Config.Server.TrustedProxies)); err != nil {
		return nil, fmt.Errorf("routes: trusted proxies: %w", err)
	}
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger())
	router.Use(cors.New(corsConfig(deps.Config.Server.AllowedOrigins)))

	accounts := deps.Services.Accounts
	userHandler := &handlers.UserHandler{Accounts: accounts}
	consignmentHandler := &handlers.ConsignmentHandler{Consignments: deps.Services.Consignments}
	bidHandler := &handlers.BidHandler{Bids: deps.Services.Bids}
	jobHandler := &handlers.JobHandler{Jobs: deps.Services.Jobs}
	webSocketHandler := &handlers.WebSocketHandler{Hub: deps.Hub, Authn: accounts}

	authenticated := middleware.Authenticate(accounts)
	companyOnly := middleware.Authorize(models.RoleCompany)
	msmeOnly := middleware.Authorize(models.RoleMSME)

	api := router.Group("/api")
	if deps.Limiter != nil {
		api.Use(middleware.RateLimit(deps.Limiter))
	}
	{
		api.GET("/ping", handlers.Ping)
		api.GET("/ws", webSocketHandler.ServeWs)

		auth := api.Group("/auth")
		{
			auth.POST("/register", userHandler.Register)
			auth.POST("/login", userHandler.Login)
			auth.GET("/verify", authenticated, userHandler.Verify)
			auth.PUT("/profile", authenticated, userHandler.UpdateProfile)
		}

		consignments := api.Group("/consignments")
		{
			consignments.GET("/public", consignmentHandler.ListPublic)
			consignments.POST("/create", authenticated, companyOnly, consignmentHandler.Create)
			consignments.GET("/my-consignments", authenticated, companyOnly, consignmentHandler.ListMine)
			consignments.GET("/available", authenticated, msmeOnly, consignmentHandler.ListAvailable)
			consignments.GET("/location-recommendations", authenticated, msmeOnly, consignmentHandler.Recommendations)
			consignments.GET("/:id", authenticated, consignmentHandler.Get)
			consignments.PUT("/:id/status", authenticated, companyOnly, consignmentHandler.UpdateStatus)
		}

		bids := api.Group("/bids")
		bids.Use(authenticated)
		{
			bids.POST("/create", msmeOnly, bidHandler.Create)
			bids.GET("/my-bids", msmeOnly, bidHandler.ListMine)
			bids.GET("/consignment/:id", companyOnly, bidHandler.ListForConsignment)
			bids.POST("/:id/award", companyOnly, bidHandler.Award)
			bids.PUT("/:id/status", bidHandler.UpdateStatus)
		}

		jobs := api.Group("/jobs")
		jobs.Use(authenticated)
		{
			jobs.GET("/awarded", msmeOnly, jobHandler.ListAwarded)
			jobs.GET("/company", companyOnly, jobHandler.ListForCompany)
			jobs.PUT("/:id/status", msmeOnly, jobHandler.UpdateStatus)
			jobs.POST("/:id/invoice", msmeOnly, jobHandler.UploadInvoice)
			jobs.POST("/:id/invoice/file", msmeOnly, jobHandler.UploadInvoiceFile)
		}
	}

	return router, nil
}

func trustedProxies(cidrs []string) []string {
	out := make([]string, 0, len(cidrs))
	for _, c := range cidrs {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

// corsConfig allows every origin when none are configured.
func corsConfig(origins []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(origins) == 0 {
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
		return cfg
	}
	cfg.AllowOrigins = origins
	return cfg
}
