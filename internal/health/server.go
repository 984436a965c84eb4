// Package health предоставляет стандартный gRPC сервис проверки здоровья.
package health

import (
	"errors"
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	grpchealth "google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// BackendService имя сервиса, отражающего доступность нативного бэкенда
const BackendService = "navigation.backend"

// Server gRPC сервер проверки здоровья
type Server struct {
	grpcServer *grpc.Server
	health     *grpchealth.Server
	logger     *logrus.Logger
}

// NewServer создает сервер. backendAvailable определяет статус BackendService
func NewServer(backendAvailable bool, logger *logrus.Logger) *Server {
	hs := grpchealth.NewServer()
	hs.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)

	backendStatus := healthpb.HealthCheckResponse_NOT_SERVING
	if backendAvailable {
		backendStatus = healthpb.HealthCheckResponse_SERVING
	}
	hs.SetServingStatus(BackendService, backendStatus)

	gs := grpc.NewServer()
	healthpb.RegisterHealthServer(gs, hs)

	return &Server{
		grpcServer: gs,
		health:     hs,
		logger:     logger,
	}
}

// Serve обслуживает соединения lis до вызова Stop
func (s *Server) Serve(lis net.Listener) error {
	s.logger.Infof("gRPC health сервер запущен на %s", lis.Addr())
	if err := s.grpcServer.Serve(lis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return fmt.Errorf("failed to serve gRPC health: %w", err)
	}
	return nil
}

// Stop переводит все сервисы в NOT_SERVING и останавливает сервер
func (s *Server) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	s.logger.Info("gRPC health сервер остановлен")
}
