package router

import (
	"Memeologia/internal/handler"
	"Memeologia/internal/middleware"
	"Memeologia/internal/pkg"
	"Memeologia/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Deps 由 main 组装后注入
type Deps struct {
	Accounts     *service.AccountService
	Memes        *service.MemeService
	Comments     *service.CommentService
	Feed         *service.FeedService
	Issuer       *pkg.TokenIssuer
	Sessions     middleware.SessionChecker
	LoginLimiter *middleware.RateLimiter
	Metrics      *middleware.Metrics
	Health       []handler.Check
	Log          *zap.Logger
}

func New(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger(d.Log), d.Metrics.Middleware())

	account := handler.NewAccountHandler(d.Accounts, d.Log)
	meme := handler.NewMemeHandler(d.Memes, d.Log)
	comment := handler.NewCommentHandler(d.Comments, d.Feed, d.Log)
	feed := handler.NewFeedHandler(d.Feed, d.Log)
	health := handler.NewHealthHandler(d.Log, d.Health...)
	auth := middleware.AuthMiddleware(d.Issuer, d.Sessions)

	r.GET("/healthz", health.Healthz)
	r.GET("/metrics", d.Metrics.Handler())

	// 基础增删改查接口
	insertGroup := r.Group("/insert")
	{
		insertGroup.POST("/usuarios_insert/", account.Register)
		insertGroup.POST("/memes_insert/", meme.CreateStub)
		insertGroup.POST("/comentarios_insert/", comment.Create)
	}
	selectGroup := r.Group("/select")
	{
		selectGroup.GET("/usuarios_select/", account.List)
		selectGroup.GET("/memesselect/", meme.List)
		selectGroup.GET("/comentarios_select/", comment.List)
	}
	joinGroup := r.Group("/select_join")
	{
		joinGroup.GET("/memes_user_join/", feed.MemesByAuthor)
		joinGroup.GET("/comentarios_join/", feed.CommentsByAuthor)
	}
	updateGroup := r.Group("/update")
	{
		updateGroup.PUT("/usuarios_update/:id", account.Rename)
		updateGroup.PUT("/memes_update/:id", meme.SetState)
	}
	deleteGroup := r.Group("/delete")
	{
		deleteGroup.DELETE("/usuarios_delete/:id", account.Delete)
		deleteGroup.DELETE("/meme_delete/:id", meme.Delete)
	}

	// 登录和 token
	r.POST("/login", d.LoginLimiter.Middleware(), account.Login)
	r.POST("/logout", auth, account.Logout)
	r.POST("/token/refresh", account.TokenRefresh)

	// 用户资料
	userGroup := r.Group("/api/usuario")
	{
		userGroup.GET("/:id", feed.Profile)
		userGroup.POST("/:id/photo", auth, account.UploadPhoto)
	}

	// meme 相关接口
	r.POST("/upload", auth, meme.Upload)
	r.POST("/like-meme/:id", auth, meme.ToggleLike)
	memeGroup := r.Group("/memes")
	{
		memeGroup.GET("", feed.Memes)
		memeGroup.GET("/:id/comments", comment.ListForMeme)
		memeGroup.POST("/:id/comments", auth, comment.AddToMeme)
		memeGroup.POST("/:id/report", auth, meme.Report)
	}

	return r
}
