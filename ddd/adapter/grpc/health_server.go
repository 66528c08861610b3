package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"video-ingest-service/pkg/logger"
)

// HealthServer 对外 gRPC 面只暴露标准健康检查，服务名下的状态随资源就绪切换
type HealthServer struct {
	server  *grpc.Server
	health  *health.Server
	service string
}

// NewHealthServer 创建 gRPC 服务并注册健康检查
func NewHealthServer(service string) *HealthServer {
	srv := grpc.NewServer(grpc.UnaryInterceptor(loggingInterceptor))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(srv, hs)
	hs.SetServingStatus(service, healthpb.HealthCheckResponse_NOT_SERVING)
	return &HealthServer{server: srv, health: hs, service: service}
}

func (h *HealthServer) Server() *grpc.Server { return h.server }

// MarkServing 资源与组件就绪后调用
func (h *HealthServer) MarkServing() {
	h.health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.health.SetServingStatus(h.service, healthpb.HealthCheckResponse_SERVING)
}

// Shutdown 先切换为 NOT_SERVING，再优雅停止
func (h *HealthServer) Shutdown() {
	h.health.Shutdown()
	h.server.GracefulStop()
}

func loggingInterceptor(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	if err != nil {
		logger.Warn("gRPC call failed", map[string]interface{}{
			"method":   info.FullMethod,
			"duration": time.Since(start).String(),
			"error":    err.Error(),
		})
	}
	return resp, err
}
