package router

import (
	"regexp"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	swaggerfiles "github.com/swaggo/files"
	ginswagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/feedgraph/config"
	_ "github.com/d60-Lab/feedgraph/docs"
	"github.com/d60-Lab/feedgraph/internal/api/handler"
	"github.com/d60-Lab/feedgraph/internal/api/middleware"
)

var hashtagRe = regexp.MustCompile(`^[\p{L}\p{N}_]{1,100}$`)

// New 组装全部路由与中间件
func New(cfg *config.Config, h *handler.Handler) *gin.Engine {
	gin.SetMode(cfg.Server.Mode)

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hashtag", func(fl validator.FieldLevel) bool {
			return hashtagRe.MatchString(fl.Field().String())
		})
	}

	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	r.Use(otelgin.Middleware("feedgraph"))
	r.Use(gzip.Gzip(gzip.DefaultCompression))
	r.Use(middleware.RateLimit(100, 200))

	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })
	r.GET("/swagger/*any", ginswagger.WrapHandler(swaggerfiles.Handler))

	v1 := r.Group("/api/v1")

	// 公开读接口
	v1.GET("/relations/:user_id/following", h.ListFollowing)
	v1.GET("/relations/:user_id/fans", h.ListFans)
	v1.GET("/content/:content_id/stats", h.GetContentStats)
	v1.GET("/users/:user_id/posts", h.ListUserPosts)

	auth := v1.Group("", middleware.Auth(cfg.Auth.JWTSecret))
	{
		auth.GET("/feed", h.GetFeed)
		auth.GET("/feed/reels", h.GetReelsFeed)

		auth.POST("/posts", h.CreatePost)
		auth.POST("/posts/:post_id/archive", h.ArchivePost)
		auth.POST("/posts/:post_id/like", h.LikePost)
		auth.DELETE("/posts/:post_id/like", h.UnlikePost)

		auth.POST("/reels", h.CreateReel)
		auth.DELETE("/reels/:reel_id", h.DeleteReel)
		auth.POST("/reels/:reel_id/like", h.ToggleLikeReel)
		auth.POST("/reels/:reel_id/save", h.SaveReel)
		auth.POST("/reels/:reel_id/share", h.ShareReel)
		auth.POST("/reels/:reel_id/view", h.AddReelView)

		auth.POST("/content/:content_id/comments", h.AddComment)

		auth.POST("/relations/follow", h.Follow)
		auth.POST("/relations/unfollow", h.Unfollow)
		auth.POST("/relations/requests/:follower_id/accept", h.AcceptFollow)

		auth.POST("/hooks/publish", h.PublishHook)
		auth.POST("/hooks/counter-change", h.CounterChangeHook)
		auth.POST("/hooks/invalidate", h.InvalidateHook)
	}

	return r
}
