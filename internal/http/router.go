package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/geocoder89/reviewhub/internal/config"
	"github.com/geocoder89/reviewhub/internal/http/handlers"
	"github.com/geocoder89/reviewhub/internal/http/middlewares"
	"github.com/geocoder89/reviewhub/internal/observability"
	"github.com/geocoder89/reviewhub/internal/policy"
)

// UserStore is satisfied by both the postgres and the memory users repo.
type UserStore interface {
	handlers.UserStore
	handlers.ConfirmationStore
}

type Stores struct {
	Users      UserStore
	Categories handlers.CategoryStore
	Genres     handlers.GenreStore
	Titles     handlers.TitleStore
	Reviews    handlers.ReviewStore
	Comments   handlers.CommentStore
}

type Deps struct {
	Config   config.Config
	Log      *slog.Logger
	Prom     *observability.Prom
	Gatherer prometheus.Gatherer
	Stores   Stores
	Tokens   middlewares.TokenVerifier
	Issuer   handlers.TokenIssuer

	// Redis backs the /auth rate limit when set; otherwise the limit is
	// kept per process.
	Redis *redis.Client

	Checks map[string]handlers.Pinger
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.Env != "dev" && d.Config.Env != "test" {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}

	r := gin.New()

	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("reviewhub-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger(d.Log))
	if d.Prom != nil {
		r.Use(d.Prom.GinHandleMiddleware())
	}
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Config.CORSAllowedOrigins))
	r.Use(middlewares.MaxBodyBytes(d.Config.MaxBodyBytes))
	r.Use(middlewares.RequireJSON())

	health := handlers.NewHealthHandler(d.Checks)
	r.GET("/healthz", health.Healthz)
	r.GET("/readyz", health.Readyz)

	if d.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{})))
	}

	authn := middlewares.NewAuthMiddleware(d.Tokens, d.Stores.Users)

	api := r.Group("/api/v1")
	api.Use(authn.Authenticate())

	authHandler := handlers.NewAuthHandler(d.Stores.Users, d.Issuer)
	authGroup := api.Group("/auth", authRateLimit(d))
	authGroup.POST("/email", authHandler.RequestCode)
	authGroup.POST("/token", authHandler.Token)

	adminOrReadOnly := middlewares.Authorize(policy.AdminOrReadOnly, d.Prom)
	selfOrModeration := middlewares.Authorize(policy.SelfOrModeration, d.Prom)

	categories := handlers.NewCategoriesHandler(d.Stores.Categories)
	cg := api.Group("/categories", adminOrReadOnly)
	cg.GET("", categories.List)
	cg.POST("", categories.Create)
	cg.DELETE("/:slug", categories.Delete)

	genres := handlers.NewGenresHandler(d.Stores.Genres)
	gg := api.Group("/genres", adminOrReadOnly)
	gg.GET("", genres.List)
	gg.POST("", genres.Create)
	gg.DELETE("/:slug", genres.Delete)

	titles := handlers.NewTitlesHandler(d.Stores.Titles)
	tg := api.Group("/titles", adminOrReadOnly)
	tg.GET("", titles.List)
	tg.POST("", titles.Create)
	tg.GET("/:title_id", titles.Get)
	tg.PATCH("/:title_id", titles.Update)
	tg.DELETE("/:title_id", titles.Delete)

	reviews := handlers.NewReviewsHandler(d.Stores.Reviews)
	rg := api.Group("/titles/:title_id/reviews", selfOrModeration)
	rg.GET("", reviews.List)
	rg.POST("", reviews.Create)
	rg.GET("/:review_id", reviews.Get)
	rg.PATCH("/:review_id", reviews.Update)
	rg.DELETE("/:review_id", reviews.Delete)

	comments := handlers.NewCommentsHandler(d.Stores.Comments)
	og := api.Group("/titles/:title_id/reviews/:review_id/comments", selfOrModeration)
	og.GET("", comments.List)
	og.POST("", comments.Create)
	og.GET("/:comment_id", comments.Get)
	og.PATCH("/:comment_id", comments.Update)
	og.DELETE("/:comment_id", comments.Delete)

	users := handlers.NewUsersHandler(d.Stores.Users)

	me := api.Group("/users/me", middlewares.Authorize(policy.SelfService, d.Prom))
	me.GET("", users.GetMe)
	me.PATCH("", users.UpdateMe)

	ug := api.Group("/users", middlewares.Authorize(policy.UserManagement, d.Prom))
	ug.GET("", users.List)
	ug.POST("", users.Create)
	ug.GET("/:username", users.Get)
	ug.PATCH("/:username", users.Update)
	ug.DELETE("/:username", users.Delete)

	return r
}

func authRateLimit(d Deps) gin.HandlerFunc {
	window := d.Config.AuthRateWindow()

	if d.Redis != nil {
		return middlewares.NewRedisRateLimiter(d.Redis, "auth", d.Config.AuthRateLimit, window, d.Log).
			Middleware(middlewares.KeyByIP)
	}

	return middlewares.NewRateLimiter(d.Config.AuthRateLimit, window).
		RateLimiterMiddleware(middlewares.KeyByIP)
}
