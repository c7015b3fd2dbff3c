package server

import (
	"log/slog"

	grpc3 "github.com/mama165/sdk-go/grpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

// UploadService is the health service name reported next to the overall status.
const UploadService = "upload.ChunkReceiver"

// HealthServer reports whether the node accepts chunks.
// It starts SERVING and the capacity monitor flips it while storage is low.
type HealthServer struct {
	*health.Server
}

func NewHealthServer() *HealthServer {
	h := &HealthServer{Server: health.NewServer()}
	h.Server.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	h.Server.SetServingStatus(UploadService, healthpb.HealthCheckResponse_SERVING)
	return h
}

// SetServingStatus applies status to the overall service and to UploadService.
func (h *HealthServer) SetServingStatus(_ string, status healthpb.HealthCheckResponse_ServingStatus) {
	h.Server.SetServingStatus("", status)
	h.Server.SetServingStatus(UploadService, status)
}

// NewGRPCServer builds the gRPC server exposing the health service.
func NewGRPCServer(log *slog.Logger, h *HealthServer) *grpc.Server {
	s := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			grpc3.UnaryLoggingInterceptor(log),
		))
	healthpb.RegisterHealthServer(s, h.Server)
	return s
}
