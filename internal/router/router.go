package router

import (
	"net/http"

	"luontovahdit/internal/handlers"
	"luontovahdit/internal/middleware"
	"luontovahdit/internal/services"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Deps are the services the routes are wired to.
type Deps struct {
	Hotspots    *services.HotspotService
	Comments    *services.CommentService
	Users       *services.UserService
	Sessions    middleware.SessionProvider
	AuthLimiter *middleware.RateLimiter
}

type SessionOptions struct {
	Name   string
	Secret string
	MaxAge int
	Secure bool
}

// New builds the engine with the middleware chain and all routes.
func New(deps Deps, opts SessionOptions) *gin.Engine {
	r := gin.New()
	r.Use(middleware.RequestID(), middleware.Logger(), middleware.Recovery(), middleware.Prometheus())

	store := cookie.NewStore([]byte(opts.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   opts.MaxAge,
		HttpOnly: true,
		Secure:   opts.Secure,
		SameSite: http.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(opts.Name, store))
	r.Use(middleware.LoadUser(deps.Sessions, deps.Users))

	RegisterRoutes(r, deps)
	return r
}

func RegisterRoutes(r *gin.Engine, deps Deps) {
	// Handlers
	authHandler := handlers.NewAuthHandler(deps.Users, deps.Sessions)
	hotspotHandler := handlers.NewHotspotHandler(deps.Hotspots)
	commentHandler := handlers.NewCommentHandler(deps.Comments)
	userHandler := handlers.NewUserHandler(deps.Users)

	limit := func(c *gin.Context) { c.Next() }
	if deps.AuthLimiter != nil {
		limit = deps.AuthLimiter.Middleware()
	}

	// 公共路由 (Public Routes)
	r.GET("/", handlers.Home)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.POST("/register", limit, authHandler.Register) // 注册
	r.POST("/login", limit, authHandler.Login)       // 登录
	r.POST("/logout", authHandler.Logout)            // 退出登录

	api := r.Group("/api")
	{
		api.GET("/hotspots", hotspotHandler.List)    // ?sort=new|hot
		api.GET("/hotspots/:id", hotspotHandler.Get) // 详情，或 @lon,lat[,radiusKm] 附近搜索
		api.GET("/comments", commentHandler.List)
		api.GET("/comments/:id", commentHandler.Get) // 详情，或 user=<userId>
		api.GET("/users", userHandler.List)
		api.GET("/users/:id", userHandler.Get)
	}

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/profile", authHandler.Profile)

		authorized.POST("/api/hotspots", hotspotHandler.Create)
		authorized.POST("/api/hotspots/:id/edit", hotspotHandler.Edit)
		authorized.PATCH("/api/hotspots/:id", hotspotHandler.Edit)
		authorized.POST("/api/hotspots/:id/vote", hotspotHandler.Vote)
		authorized.POST("/api/hotspots/:id/flag", hotspotHandler.Flag)
		authorized.DELETE("/api/hotspots/:id", hotspotHandler.Delete)

		authorized.POST("/api/comments", commentHandler.Create)
		authorized.POST("/api/comments/:id/edit", commentHandler.Edit)
		authorized.PATCH("/api/comments/:id", commentHandler.Edit)
		authorized.POST("/api/comments/:id/vote", commentHandler.Vote)
		authorized.POST("/api/comments/:id/flag", commentHandler.Flag)
		authorized.DELETE("/api/comments/:id", commentHandler.Delete)
	}
}
