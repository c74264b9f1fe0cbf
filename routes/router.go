package routes

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/cppla/inkwell/config"
	"github.com/cppla/inkwell/controllers"
	"github.com/cppla/inkwell/middleware"
	"github.com/cppla/inkwell/services"
	"github.com/cppla/inkwell/store"
	"github.com/cppla/inkwell/templates"
	"github.com/cppla/inkwell/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(db *gorm.DB) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	// match on the escaped path so a username containing "/" or "?" still reaches /user/:username
	r.UseRawPath = true
	r.UnescapePathValues = true
	// Request log goes to its own rolling file when GinPath is set
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, cfg.LogMaxSizeMB, cfg.LogMaxBackups, cfg.LogMaxAgeDays, cfg.LogCompress)
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, true))
	} else {
		utils.Sugar.Warnw("gin access log unavailable", "path", cfg.GinPath, "error", err)
		r.Use(gin.Recovery())
	}
	r.HTMLRender = templates.MustNew()

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
		corsCfg.AllowCredentials = false
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	st := store.New(db)
	svc := services.New(st, cfg.PostsPerPage)

	r.Use(middleware.PageViewRecorder(st))
	r.Use(middleware.LoadActor(svc))
	r.Use(middleware.CSRF())

	authController := controllers.NewAuthController(svc)
	postController := controllers.NewPostController(svc)
	userController := controllers.NewUserController(svc)
	statsController := controllers.NewStatsController(svc)

	r.GET("/health", statsController.Health)
	r.GET("/", postController.Index)
	r.GET("/index", postController.Index)
	r.GET("/about", statsController.About)
	r.GET("/post/:id", postController.Show)
	r.POST("/post/:id", postController.Comment)
	r.GET("/user/:username", userController.Show)

	members := r.Group("", middleware.LoginRequired())
	members.GET("/create", postController.CreatePage)
	members.POST("/create", postController.Create)
	members.GET("/profile", userController.EditPage)
	members.POST("/profile", userController.Edit)

	authGroup := r.Group("/auth", middleware.RateLimitMiddleware())
	authGroup.GET("/register", authController.RegisterPage)
	authGroup.POST("/register", authController.Register)
	authGroup.GET("/login", authController.LoginPage)
	authGroup.POST("/login", authController.Login)
	authGroup.GET("/logout", authController.Logout)
	authGroup.GET("/captcha", authController.Captcha)

	r.NoRoute(controllers.NotFound)

	return r
}
