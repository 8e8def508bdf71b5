// internal/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/javajoker/bookswap-backend/internal/cache"
	"github.com/javajoker/bookswap-backend/internal/config"
	"github.com/javajoker/bookswap-backend/internal/events"
	"github.com/javajoker/bookswap-backend/internal/handlers"
	"github.com/javajoker/bookswap-backend/internal/mailer"
	"github.com/javajoker/bookswap-backend/internal/middleware"
	"github.com/javajoker/bookswap-backend/internal/repository"
	"github.com/javajoker/bookswap-backend/internal/services"
	"github.com/javajoker/bookswap-backend/internal/utils"
)

// Dependencies are the collaborators built by the caller. Nil Publisher,
// Views and Mailer fall back to no-op or logging implementations.
type Dependencies struct {
	DB        *gorm.DB
	Config    *config.Config
	Log       logrus.FieldLogger
	Store     services.BlobStore
	Mailer    mailer.Mailer
	Publisher events.Publisher
	Views     cache.ViewCache
}

type Server struct {
	Engine   *gin.Engine
	Notifier *services.NotificationService
}

// Initialize wires services and handlers and registers every route. The
// rate limiters' janitors stop when ctx is cancelled.
func Initialize(ctx context.Context, deps Dependencies) *Server {
	cfg := deps.Config
	log := deps.Log

	if deps.Mailer == nil {
		deps.Mailer = mailer.New(cfg.Email, log)
	}

	// Initialize services
	repos := repository.NewRepositories(deps.DB)
	notificationService := services.NewNotificationService(deps.Mailer, cfg, log)
	bookService := services.NewBookService(repos, deps.Store, notificationService, deps.Publisher, deps.Views, log)
	viewService := services.NewViewService(repos, deps.Store, deps.Views, log)
	petitionService := services.NewPetitionService(repos, log)

	// Initialize handlers
	limits := handlers.UploadLimits{
		MaxRequestSize: cfg.Server.MaxUploadSize,
		MaxImageSize:   cfg.Storage.MaxImageSize,
	}
	bookHandler := handlers.NewBookHandler(bookService, viewService, limits, log)
	petitionHandler := handlers.NewPetitionHandler(petitionService, log)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Initialize Gin router
	r := gin.New()
	r.MaxMultipartMemory = cfg.Server.MaxUploadSize

	// Global middleware
	r.Use(middleware.Recovery(log))
	r.Use(middleware.RequestLogger(log))
	r.Use(middleware.CORS(cfg.Domains.FrontendURL()))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.RateLimit(ctx, cfg.RateLimit.GeneralRPS, cfg.RateLimit.GeneralBurst))

	uploadLimit := middleware.RateLimit(ctx, cfg.RateLimit.UploadPerMin/60, cfg.RateLimit.UploadBurst)
	auth := middleware.AuthRequired()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status, code := "healthy", http.StatusOK
		if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status, code = "degraded", http.StatusServiceUnavailable
		}
		c.JSON(code, gin.H{
			"status":    status,
			"timestamp": time.Now().UTC(),
		})
	})

	// Upload and activation
	upload := r.Group("/upload")
	{
		upload.POST("/book", auth, uploadLimit, bookHandler.CreateBook)
		upload.GET("/activate/:code", bookHandler.ActivateBook)
	}

	// Listing edits
	edit := r.Group("/update-book")
	edit.Use(auth)
	{
		edit.PUT("/:id", uploadLimit, bookHandler.UpdateBook)
		edit.POST("/images/add/:id", uploadLimit, bookHandler.AddImage)
		edit.DELETE("/images/delete/:id", bookHandler.DeleteImage)
	}

	// Public reads
	r.GET("/books", bookHandler.SearchBooks)
	r.GET("/books/info/:id", bookHandler.GetBook)
	r.GET("/search/:level", bookHandler.SearchByLevel)

	// Caller's own data
	user := r.Group("/user")
	user.Use(auth)
	{
		user.GET("/books", bookHandler.GetMyBooks)
		user.PUT("/books/delete/:id", bookHandler.DeleteBook)
		user.PUT("/books/availability/:id", bookHandler.SetAvailability)
		user.GET("/requests", petitionHandler.GetMyPetitions)
		user.GET("/requests/isbn/:isbn", petitionHandler.GetDemandByISBN)
		user.POST("/requests/new", petitionHandler.CreatePetition)
	}

	// Committed blobs are public and read-only
	if cfg.Storage.Backend == "local" {
		r.Static(cfg.Storage.PublicPath, cfg.Storage.TargetFolder)
	}

	return &Server{Engine: r, Notifier: notificationService}
}
