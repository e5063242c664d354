// Package main 是应用程序的入口点。
package main

import (
	"cms-go/internal/config"
	"cms-go/internal/handler"
	"cms-go/internal/middleware"
	"cms-go/internal/model"
	"cms-go/internal/pipeline"
	"cms-go/internal/repository"
	"cms-go/internal/service"
	"cms-go/pkg/database"
	"cms-go/pkg/es"
	"cms-go/pkg/kafka"
	"cms-go/pkg/log"
	"cms-go/pkg/storage"
	"cms-go/pkg/token"
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	// 1. 初始化配置
	config.Init("./configs/config.yaml")
	cfg := config.Conf

	// 2. 初始化日志记录器
	log.Init(cfg.Log.Level, cfg.Log.Format, cfg.Log.OutputPath)
	defer log.Sync() // 确保在程序退出时刷新所有缓冲的日志条目
	log.Info("日志记录器初始化成功")

	// 3. 初始化数据库和 Redis
	database.InitDB(cfg.Database,
		&model.User{},
		&model.Menu{},
		&model.Board{},
		&model.Post{},
		&model.Content{},
		&model.Template{},
		&model.TemplateVersion{},
		&model.Media{},
	)
	database.InitRedis(cfg.Database.Redis)

	// 4. 初始化 Repository
	userRepo := repository.NewUserRepository(database.DB)
	menuRepo := repository.NewMenuRepository(database.DB)
	boardRepo := repository.NewBoardRepository(database.DB)
	contentRepo := repository.NewContentRepository(database.DB)
	templateRepo := repository.NewTemplateRepository(database.DB)
	mediaRepo := repository.NewMediaRepository(database.DB)
	menuCache := repository.NewMenuCache(database.RDB, time.Duration(cfg.Cache.MenuTTLSeconds)*time.Second)
	blacklist := repository.NewTokenBlacklist(database.RDB)

	// 5. 可选的外部组件：未配置地址时对应功能不启用
	// ES 先于 Kafka 生产者初始化，失败时还没有需要关闭的连接
	searchEnabled := cfg.Elasticsearch.Addresses != ""
	if searchEnabled {
		if err := es.InitES(cfg.Elasticsearch); err != nil {
			log.Fatal("es 初始化失败", err)
		}
	}

	var publisher service.IndexPublisher
	if cfg.Kafka.Brokers != "" {
		kafka.InitProducer(cfg.Kafka)
		publisher = kafka.Publisher{}
	} else {
		log.Warnf("未配置 kafka.brokers，搜索索引不会被更新")
	}

	mediaEnabled := cfg.MinIO.Endpoint != ""
	if mediaEnabled {
		storage.InitMinIO(cfg.MinIO)
	}

	// 6. 初始化 Service (依赖注入)
	jwtManager := token.NewJWTManager(cfg.JWT.Secret, cfg.JWT.AccessTokenExpireHours, cfg.JWT.RefreshTokenExpireDays)
	userService := service.NewUserService(userRepo, blacklist, jwtManager)
	adminService := service.NewAdminService(userRepo)
	menuService := service.NewMenuService(menuRepo, boardRepo, contentRepo, menuCache)
	boardService := service.NewBoardService(boardRepo, menuRepo, publisher)
	contentService := service.NewContentService(contentRepo, menuRepo, publisher)
	templateService := service.NewTemplateService(templateRepo)
	previewService := service.NewPreviewService(templateService, contentRepo, boardRepo, menuService)

	if err := userService.EnsureAdmin(cfg.Bootstrap.AdminUsername, cfg.Bootstrap.AdminPassword); err != nil {
		log.Fatal("初始化管理员账号失败", err)
	}

	// 7. 启动后台 Kafka 消费者，ctx 取消时退出
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumerDone := make(chan struct{})
	if publisher != nil && searchEnabled {
		indexer := pipeline.NewIndexer(boardRepo, contentRepo, es.NewDocumentIndex(es.ESClient, cfg.Elasticsearch.IndexName))
		go func() {
			defer close(consumerDone)
			kafka.StartConsumer(consumerCtx, cfg.Kafka, indexer, database.RDB)
		}()
	} else {
		close(consumerDone)
	}

	// 8. 设置 Gin 模式并创建路由引擎
	gin.SetMode(cfg.Server.Mode)
	r := gin.New() // 使用 New() 创建一个不带默认中间件的引擎
	r.Use(middleware.RequestLogger(), gin.Recovery())
	if len(cfg.Server.CORSOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.Server.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	authHandler := handler.NewAuthHandler(userService)
	userHandler := handler.NewUserHandler(adminService)
	menuHandler := handler.NewMenuHandler(menuService)
	templateHandler := handler.NewTemplateHandler(templateService, previewService)
	boardHandler := handler.NewBoardHandler(boardService)
	contentHandler := handler.NewContentHandler(contentService)
	authRequired := middleware.AuthMiddleware(userService)

	// 9. 注册路由
	apiV1 := r.Group("/api/v1")
	{
		// 公开路由
		apiV1.GET("/menu", menuHandler.PublicTree)
		apiV1.GET("/templates/:id", templateHandler.Published)
		apiV1.GET("/boards/:id/posts", boardHandler.ListPosts)
		apiV1.GET("/posts/:id", boardHandler.ViewPost)
		apiV1.GET("/contents/:idOrSlug", contentHandler.Public)
		if searchEnabled {
			apiV1.GET("/search", handler.NewSearchHandler(service.NewSearchService(es.ESClient, cfg.Elasticsearch.IndexName)).Search)
		}

		// Auth 路由组
		auth := apiV1.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.RefreshToken)
			auth.GET("/verify", authRequired, authHandler.Verify)
			auth.POST("/logout", authRequired, authHandler.Logout)
		}

		// 管理后台路由组，需要同时通过认证和管理员授权两个中间件
		cms := apiV1.Group("/cms")
		cms.Use(authRequired, middleware.AdminAuthMiddleware())
		{
			cms.GET("/menu", menuHandler.AdminTree)
			cms.POST("/menu", menuHandler.Create)
			// 静态路径 /menu/order 优先于 /menu/:id 匹配
			cms.PUT("/menu/order", menuHandler.Reorder)
			cms.GET("/menu/:id", menuHandler.Get)
			cms.PUT("/menu/:id", menuHandler.Update)
			cms.DELETE("/menu/:id", menuHandler.Delete)

			cms.GET("/users", userHandler.ListUsers)
			cms.POST("/users", userHandler.CreateUser)
			cms.PUT("/users/:id", userHandler.UpdateUser)
			cms.DELETE("/users/:id", userHandler.DeleteUser)

			cms.GET("/templates", templateHandler.List)
			cms.POST("/templates", templateHandler.Create)
			cms.GET("/templates/:id", templateHandler.Get)
			cms.PUT("/templates/:id", templateHandler.Update)
			cms.DELETE("/templates/:id", templateHandler.Delete)
			cms.GET("/templates/:id/versions", templateHandler.ListVersions)
			cms.GET("/templates/:id/versions/:version", templateHandler.GetVersion)
			cms.POST("/templates/:id/rollback", templateHandler.Rollback)
			cms.PUT("/templates/:id/publish", templateHandler.Publish)
			cms.GET("/templates/:id/preview", templateHandler.Preview)

			cms.GET("/boards", boardHandler.ListBoards)
			cms.POST("/boards", boardHandler.CreateBoard)
			cms.GET("/boards/:id", boardHandler.GetBoard)
			cms.PUT("/boards/:id", boardHandler.UpdateBoard)
			cms.DELETE("/boards/:id", boardHandler.DeleteBoard)
			cms.GET("/boards/:id/posts", boardHandler.ListPosts)
			cms.POST("/boards/:id/posts", boardHandler.CreatePost)
			cms.GET("/posts/:id", boardHandler.GetPost)
			cms.PUT("/posts/:id", boardHandler.UpdatePost)
			cms.DELETE("/posts/:id", boardHandler.DeletePost)

			cms.GET("/contents", contentHandler.List)
			cms.POST("/contents", contentHandler.Create)
			cms.GET("/contents/:id", contentHandler.Get)
			cms.PUT("/contents/:id", contentHandler.Update)
			cms.DELETE("/contents/:id", contentHandler.Delete)

			if mediaEnabled {
				bucket := storage.NewBucket(storage.MinioClient, cfg.MinIO.BucketName)
				urlExpiry := time.Duration(cfg.MinIO.URLExpireMinute) * time.Minute
				mediaHandler := handler.NewMediaHandler(service.NewMediaService(mediaRepo, bucket, urlExpiry))
				cms.GET("/media", mediaHandler.List)
				cms.POST("/media", mediaHandler.Upload)
				cms.DELETE("/media/:id", mediaHandler.Delete)
				cms.GET("/media/:id/url", mediaHandler.URL)
			}
		}
	}

	// 启动 HTTP 服务器并实现优雅停机
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: r,
	}

	go func() {
		log.Infof("服务启动于 %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("HTTP 服务监听失败: %s\n", err)
		}
	}()

	// 等待中断信号以实现优雅停机
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("接收到停机信号，正在关闭服务...")

	// 设置一个5秒的超时上下文
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Errorf("HTTP 服务器关闭失败: %v", err)
	}

	// 停止 Kafka 消费者并等待当前事件处理完成
	stopConsumer()
	select {
	case <-consumerDone:
	case <-ctx.Done():
		log.Warnf("等待 Kafka 消费者退出超时")
	}
	if err := kafka.CloseProducer(); err != nil {
		log.Errorf("关闭 Kafka 生产者失败: %v", err)
	}
	log.Info("服务已优雅关闭")
}
