package http

import (
	"time"

	"github.com/gin-gonic/gin"

	appsvc "dailydiet/internal/app"
	"dailydiet/internal/bootstrap"
	"dailydiet/internal/cache"
	"dailydiet/internal/platform/rabbitmq"
	"dailydiet/internal/repository"
	"dailydiet/internal/session"
	"dailydiet/internal/transport/http/handler"
	"dailydiet/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	healthHandler := handler.NewHealthHandler(app)
	router.GET("/healthz", healthHandler.Check)

	userRepo := repository.NewUserRepository(app.MySQL)
	dietRepo := repository.NewDietRepository(app.MySQL)
	sessionStore := session.NewStore(
		app.Redis,
		time.Duration(app.Config.Auth.SessionTTLMinute)*time.Minute,
	)
	dietCache := cache.NewDietListCache(
		app.Redis,
		time.Duration(app.Config.Redis.DietListTTLSeconds)*time.Second,
	)
	auditPublisher := rabbitmq.NewAuditPublisher(app.MQConn, app.Config.RabbitMQ.AuditEventQueue)

	authService := appsvc.NewAuthService(
		userRepo,
		sessionStore,
		auditPublisher,
		app.Config.Auth.JWTSecret,
		time.Duration(app.Config.Auth.JWTExpireMinute)*time.Minute,
	)
	dietService := appsvc.NewDietService(dietRepo, dietCache, auditPublisher)

	cookieName := app.Config.Auth.SessionCookie
	cookieMaxAge := app.Config.Auth.SessionTTLMinute * 60
	authHandler := handler.NewAuthHandler(authService, cookieName, cookieMaxAge)
	userHandler := handler.NewUserHandler(authService)
	dietHandler := handler.NewDietHandler(dietService)

	authRequired := middleware.Auth(authService, cookieName)

	router.POST("/user", authHandler.Register)
	router.POST("/login", authHandler.Login)
	router.POST("/logout", authRequired, authHandler.Logout)
	router.GET("/logout", authRequired, authHandler.Logout)

	router.GET("/user/:id", authRequired, userHandler.Read)
	router.PUT("/user/:id", authRequired, userHandler.UpdatePassword)
	router.DELETE("/user/:id", authRequired, userHandler.Delete)

	router.POST("/diet", authRequired, dietHandler.Create)
	router.GET("/diet/:id", authRequired, dietHandler.Read)
	router.PUT("/diet/:id", authRequired, dietHandler.Update)
	router.DELETE("/diet/:id", authRequired, dietHandler.Delete)
	router.GET("/diets/:userId", authRequired, dietHandler.ListByUser)

	return router
}
