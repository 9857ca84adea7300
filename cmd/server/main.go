package main

import (
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	swagger "github.com/gofiber/swagger"

	"github.com/basicblog/gateway/data"
	"github.com/basicblog/gateway/internal/config"
	"github.com/basicblog/gateway/internal/database"
	"github.com/basicblog/gateway/internal/handlers"
	"github.com/basicblog/gateway/internal/middleware"
	"github.com/basicblog/gateway/internal/proxy"
	"github.com/basicblog/gateway/internal/routing"
	"github.com/basicblog/gateway/internal/services"
	"github.com/basicblog/gateway/internal/types"
	"github.com/basicblog/gateway/internal/utils"

	_ "github.com/basicblog/gateway/docs/api" // Swagger docs
)

// @title BasicBlog Gateway API
// @version 1.0.0
// @description Go Fiber gateway in front of the BasicBlog backend

// @license.name AGPL-3.0
// @license.url https://www.gnu.org/licenses/agpl-3.0.html

// @host localhost:3000
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey CookieAuth
// @in cookie
// @name blog_session

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Connect to database
	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.Close(db)

	// Run auto-migrations
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Bootstrap admin account
	if cfg.AdminUsername != "" {
		if err := services.EnsureAdminUser(db, cfg.AdminUsername, cfg.AdminPassword); err != nil {
			log.Fatalf("Failed to ensure admin user: %v", err)
		}
	}

	// Load the route table
	var table *routing.Table
	if cfg.RoutesFile != "" {
		table, err = routing.LoadFile(cfg.RoutesFile)
	} else {
		table, err = data.DefaultRoutes(cfg.UpstreamBase)
	}
	if err != nil {
		log.Fatalf("Failed to load route table: %v", err)
	}
	log.Printf("Loaded route table with %d rules", table.Len())

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: false,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New())
	app.Use(compress.New())

	// Prometheus metrics
	prometheus := fiberprometheus.New("basicblog_gateway")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Swagger documentation
	app.Get("/swagger/*", swagger.HandlerDefault)

	// Health endpoint, outside the authorization chain
	app.Get("/health", func(c *fiber.Ctx) error {
		result := services.HealthCheck(cfg, db)
		status := fiber.StatusOK
		if result.Status != "healthy" {
			status = fiber.StatusServiceUnavailable
		}
		return c.Status(status).JSON(result)
	})

	// Identity resolution and table-driven authorization run for
	// everything registered below this point
	app.Use(middleware.Principal(db, cfg.CookieSecure()))
	app.Use(middleware.Authorize(table))

	// Create handlers
	homeHandler := &handlers.HomeHandler{}
	authHandler := &handlers.AuthHandler{DB: db, Cfg: cfg}
	blogHandler := &handlers.BlogHandler{DB: db}
	userHandler := &handlers.UserHandler{DB: db, Cfg: cfg}
	gatewayHandler := &handlers.GatewayHandler{
		Forwarder: proxy.NewForwarder(cfg.UpstreamTimeout, cfg.GatewaySecret),
	}

	// Home routes, with legacy /Home aliases
	app.Get("/", homeHandler.Index)
	app.Get("/About", homeHandler.About)
	app.Get("/Contact", homeHandler.Contact)
	app.Get("/Home/About", homeHandler.About)
	app.Get("/Home/Contact", homeHandler.Contact)

	// Auth routes
	auth := app.Group("/auth")
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/logout", authHandler.Logout)

	// Blog routes (public reads, authenticated writes)
	blog := app.Group("/Blog")
	blog.Get("/", blogHandler.List)
	blog.Get("/:id", blogHandler.Get)
	blog.Get("/:id/comments", blogHandler.ListComments)
	blog.Post("/:id/comments", blogHandler.AddComment)
	blog.Post("/", middleware.RequireAuthenticated(), blogHandler.Create)
	blog.Delete("/:id", middleware.RequireAuthenticated(), blogHandler.Delete)
	blog.Delete("/:id/comments/:commentId", middleware.RequireAuthenticated(), blogHandler.DeleteComment)

	// Legacy comment form-post route
	app.Post("/comments", blogHandler.AddCommentByBody)

	// User routes
	users := app.Group("/Users")
	users.Get("/me", middleware.RequireAuthenticated(), userHandler.Me)
	users.Post("/", middleware.RequireRole("admin"), userHandler.Create)
	users.Delete("/:id", middleware.RequireAuthenticated(), userHandler.Delete)

	// Everything else goes through the gateway dispatch
	app.Use(gatewayHandler.Dispatch)

	// Graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("Gracefully shutting down...")
		_ = app.Shutdown()
	}()

	// Start server
	port := cfg.Port
	log.Printf("Starting gateway on port %s", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}

	log.Println("Server stopped")
}

// customErrorHandler handles errors globally
func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := err.Error()
	errorType := "unknown"

	var customErr *types.CustomError
	if errors.As(err, &customErr) {
		code = customErr.Code
		message = customErr.Message
		errorType = customErr.Type
	} else if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	return utils.ErrorResponse(c, message, code, errorType)
}
