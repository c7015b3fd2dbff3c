package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// UPLOAD_SERVER_URL is the HTTP base URL of a running server, the suite is skipped when empty
	ServerURL string `envconfig:"UPLOAD_SERVER_URL"`
	GRPCAddr  string `envconfig:"UPLOAD_GRPC_ADDR"`
	// UPLOAD_ROOT_DIR lets the suite check merged artifacts on disk when the server is local
	RootDir   string `envconfig:"UPLOAD_ROOT_DIR"`
	ChunkSize int64  `envconfig:"E2E_CHUNK_SIZE" default:"262144"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}
