package e2e

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gookit/color"
	"github.com/stretchr/testify/suite"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"upload-lab/client"
)

type BaseSuite struct {
	suite.Suite
	Config Config
}

// SetupSuite loads the environment configuration before running tests
func (s *BaseSuite) SetupSuite() {
	var err error
	s.Config, err = LoadConfig()
	s.Require().NoError(err)
	if s.Config.ServerURL == "" {
		s.T().Skip("UPLOAD_SERVER_URL not set, skipping end-to-end suite")
	}
}

func (s *BaseSuite) step(name string) {
	header := fmt.Sprintf("  ====== %s ======", name)
	if s.Config.Colours {
		header = color.New(color.BgBlack, color.FgGreen).Render(header)
	}
	s.T().Log(header)
}

// WithUploader provides a client bound to the server under test within a contextual step
func (s *BaseSuite) WithUploader(name string, cfg client.UploaderConfig, fn func(ctx context.Context, uploader *client.Uploader, transport *client.HTTPTransport)) {
	s.step(name)
	transport := client.NewHTTPTransport(s.Config.ServerURL, &http.Client{Timeout: time.Minute})
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	fn(ctx, client.NewUploader(transport, logger, cfg), transport)
}

// WithHealth provides the gRPC health client, the step is skipped without UPLOAD_GRPC_ADDR
func (s *BaseSuite) WithHealth(name string, fn func(ctx context.Context, client healthpb.HealthClient)) {
	if s.Config.GRPCAddr == "" {
		s.T().Skip("UPLOAD_GRPC_ADDR not set")
	}
	s.step(name)
	conn, err := grpc.NewClient(s.Config.GRPCAddr, grpc.WithTransportCredentials(insecure.NewCredentials()))
	s.Require().NoError(err, "Failed to connect to gRPC server at "+s.Config.GRPCAddr)
	defer conn.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	fn(ctx, healthpb.NewHealthClient(conn))
}
