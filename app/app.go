package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc"

	healthGrpc "video-ingest-service/ddd/adapter/grpc"
	app "video-ingest-service/ddd/application/app"
	"video-ingest-service/internal/resource"
	"video-ingest-service/pkg/config"
	"video-ingest-service/pkg/logger"
	"video-ingest-service/pkg/manager"
	"video-ingest-service/pkg/metrics"
	"video-ingest-service/pkg/middleware"
	"video-ingest-service/pkg/registry"

	_ "video-ingest-service/ddd/adapter/component"
	_ "video-ingest-service/ddd/adapter/http"
	_ "video-ingest-service/ddd/infrastructure/worker"
)

const serviceName = "video-ingest-service"

func Run() {
	cfg, logService := bootstrap()

	// 资源管理器初始化
	logger.Infof("Initializing resource manager...")
	manager.MustInitResources()
	defer manager.CloseResources()
	logger.Infof("Resource manager initialized")

	deps := newDependencies(cfg)

	logger.Infof("Initializing components...")
	manager.MustInitComponents(deps)
	logger.Infof("All components initialized")

	// gRPC 只暴露健康检查，供注册中心与负载均衡探活
	grpcAddr := fmt.Sprintf("%s:%d", cfg.GRPCServer.Host, cfg.GRPCServer.Port)
	grpcListener, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logger.Fatal(fmt.Sprintf("Failed to listen on gRPC port address=%s error=%v", grpcAddr, err))
	}
	health := healthGrpc.NewHealthServer(serviceName)
	go func() {
		logger.Infof("gRPC server started address=%s service=%s", grpcAddr, serviceName)
		if err := health.Server().Serve(grpcListener); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
			logger.Errorf("gRPC server encountered an error error=%v", err)
		}
	}()

	logger.Infof("Creating HTTP routes...")
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.MaxMultipartMemory = cfg.Server.MaxMultipartMemory
	router.Use(middleware.RequestContextMiddleware(), middleware.AuthMiddleware(cfg.JWT))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "ok",
			"service":   serviceName,
			"timestamp": time.Now().Unix(),
		})
	})
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	logger.Infof("Registering routes...")
	manager.RegisterAllRoutes(router)
	logger.Infof("Routes registered")

	port := getEnv("PORT", fmt.Sprintf("%d", cfg.Server.Port))
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(fmt.Sprintf("Failed to start HTTP server error=%v", err))
		}
	}()
	health.MarkServing()
	logger.Infof("HTTP server started port=%s service=%s health_url=%s api_url=%s", port, serviceName,
		fmt.Sprintf("http://localhost:%s/health", port), fmt.Sprintf("http://localhost:%s/api/v1", port))

	reg := registerService(cfg, grpcAddr)

	waitForSignal()
	logger.Infof("Received shutdown signal, shutting down server...")

	if reg != nil {
		if err := reg.Deregister(); err != nil {
			logger.Warnf("Service deregister failed error=%v", err)
		}
	}

	logger.Infof("Stopping gRPC server... address=%s", grpcAddr)
	health.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Errorf("Server forced to close error=%v", err)
	}

	// 组件在 HTTP 停止后关闭，清理队列需要接收进行中请求的补偿任务
	logger.Infof("Shutting down components...")
	manager.Shutdown()
	logger.Infof("Components closed")

	logger.Infof("Server exited safely")
	closeLogger(logService)
	fmt.Println("[SHUTDOWN] Video ingest service exited safely")
}

// RunReconciler 只运行后台组件（SQS 状态回调、计数事件消费、对象清理），不暴露 HTTP
func RunReconciler() {
	cfg, logService := bootstrap()

	manager.MustInitResources()
	defer manager.CloseResources()

	manager.MustInitComponents(newDependencies(cfg))
	logger.Infof("Reconciler started sqs_enabled=%t queue=%s", cfg.AWS.SQS.Enabled, cfg.AWS.SQS.QueueURL)

	waitForSignal()
	logger.Infof("Received shutdown signal, stopping reconciler...")
	manager.Shutdown()
	closeLogger(logService)
}

// bootstrap 加载配置并初始化全局日志
func bootstrap() (*config.Config, *logger.Logger) {
	fmt.Println("[STARTUP] Starting video ingest service...")

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Printf("[ERROR] Failed to load config (%s): %v\n", cfgPath, err)
		os.Exit(1)
	}
	// 设置全局配置（必须在资源管理器初始化之前）
	config.SetGlobalConfig(cfg)
	fmt.Printf("[STARTUP] Config file loaded: %s\n", cfgPath)

	logService := logger.NewLogger(cfg)
	logger.SetGlobalLogger(logService)
	logger.Debug("Logger initialized", map[string]interface{}{
		"level":  cfg.Log.Level,
		"format": cfg.Log.Format,
		"output": cfg.Log.Output,
	})
	logger.Infof("Video ingest service starting storage=%s sqs=%t kafka=%t", cfg.Storage.Driver, cfg.AWS.SQS.Enabled, cfg.Kafka.Enabled)
	return cfg, logService
}

func newDependencies(cfg *config.Config) *manager.Dependencies {
	return &manager.Dependencies{
		DB:           resource.DefaultMysqlResource().MainDB(),
		Config:       cfg,
		VideoApp:     app.DefaultVideoApp(),
		ReconcileApp: app.DefaultReconcileApp(),
	}
}

func registerService(cfg *config.Config, grpcAddr string) *registry.ServiceRegistry {
	if !cfg.ServiceRegistry.Enabled {
		return nil
	}
	addr := grpcAddr
	if host := strings.TrimSpace(cfg.ServiceRegistry.RegisterHost); host != "" {
		addr = fmt.Sprintf("%s:%d", host, cfg.GRPCServer.Port)
	}
	svcCfg := cfg.ServiceRegistry
	if svcCfg.ServiceName == "" {
		svcCfg.ServiceName = serviceName
	}
	reg, err := registry.NewServiceRegistry(cfg.Etcd, svcCfg, addr)
	if err != nil {
		logger.Errorf("Service registry unavailable error=%v", err)
		return nil
	}
	if err := reg.Register(); err != nil {
		logger.Errorf("Service register failed error=%v", err)
		_ = reg.Deregister()
		return nil
	}
	return reg
}

func waitForSignal() {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
}

func closeLogger(l *logger.Logger) {
	if l != nil {
		l.Close()
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// resolveConfigPath 根据环境选择配置文件，支持CONFIG_PATH覆盖、CONFIG_ENV区分环境
func resolveConfigPath() string {
	if path := os.Getenv("CONFIG_PATH"); path != "" {
		return path
	}

	env := strings.ToLower(strings.TrimSpace(os.Getenv("CONFIG_ENV")))
	if env == "" {
		env = "dev"
	}

	switch env {
	case "prod", "production":
		return "configs/config_prod.yaml"
	case "dev", "development":
		return "configs/config.dev.yaml"
	default:
		return fmt.Sprintf("configs/config.%s.yaml", env)
	}
}
