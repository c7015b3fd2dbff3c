package internal

import (
	"fmt"
	"strings"
	"time"

	"upload-lab/client"
)

// ServerConfig is read from the environment of cmd/server.
type ServerConfig struct {
	RootDir          string        `env:"ROOT_DIR,required=true"`
	StagingDirName   string        `env:"STAGING_DIR_NAME,default=temp"`
	Host             string        `env:"HOST,default=0.0.0.0"`
	Port             int           `env:"PORT,default=3000"`
	GRPCPort         int           `env:"GRPC_PORT,default=3001"`
	DebugPort        int           `env:"DEBUG_PORT,default=8081"`
	LogLevel         string        `env:"LOG_LEVEL,default=INFO"`
	BadgerFilepath   string        `env:"BADGER_FILEPATH,required=true"`
	SessionTTL       time.Duration `env:"SESSION_TTL,default=24h"`
	JanitorInterval  time.Duration `env:"JANITOR_INTERVAL,default=10m"`
	CapacityInterval time.Duration `env:"CAPACITY_INTERVAL,default=30s"`
	MinFreeBytes     uint64        `env:"MIN_FREE_BYTES,default=1073741824"`
	MaxChunkBytes    int64         `env:"MAX_CHUNK_BYTES,default=67108864"`
	ReadTimeout      time.Duration `env:"READ_TIMEOUT,default=5m"`
	WriteTimeout     time.Duration `env:"WRITE_TIMEOUT,default=5m"`
	ShutdownTimeout  time.Duration `env:"SHUTDOWN_TIMEOUT,default=15s"`
}

func (c ServerConfig) Validate() error {
	switch {
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("PORT must be a valid port, got %d", c.Port)
	case c.GRPCPort <= 0 || c.GRPCPort > 65535 || c.GRPCPort == c.Port:
		return fmt.Errorf("GRPC_PORT must be a valid port distinct from PORT, got %d", c.GRPCPort)
	case c.SessionTTL <= 0:
		return fmt.Errorf("SESSION_TTL must be positive, got %s", c.SessionTTL)
	case c.JanitorInterval <= 0:
		return fmt.Errorf("JANITOR_INTERVAL must be positive, got %s", c.JanitorInterval)
	case c.CapacityInterval <= 0:
		return fmt.Errorf("CAPACITY_INTERVAL must be positive, got %s", c.CapacityInterval)
	case c.MaxChunkBytes < 0:
		return fmt.Errorf("MAX_CHUNK_BYTES must not be negative, got %d", c.MaxChunkBytes)
	}
	return nil
}

func (c ServerConfig) HTTPAddress() string { return fmt.Sprintf("%s:%d", c.Host, c.Port) }
func (c ServerConfig) GRPCAddress() string { return fmt.Sprintf("%s:%d", c.Host, c.GRPCPort) }

// ClientConfig is read from the environment of cmd/uploader, flags override it.
type ClientConfig struct {
	ServerURL       string        `env:"UPLOAD_SERVER_URL,default=http://localhost:3000"`
	ChunkSize       int64         `env:"CHUNK_SIZE,default=1048576"`
	MaxInFlight     int           `env:"MAX_IN_FLIGHT,default=4"`
	MaxRetries      int           `env:"MAX_RETRIES,default=3"`
	RetryBackoff    time.Duration `env:"RETRY_BACKOFF,default=200ms"`
	ChunkTimeout    time.Duration `env:"CHUNK_TIMEOUT,default=2m"`
	FingerprintAlgo string        `env:"FINGERPRINT_ALGO,default=md5"`
	LogLevel        string        `env:"LOG_LEVEL,default=WARN"`
}

func (c ClientConfig) Validate() error {
	switch {
	case c.ServerURL == "":
		return fmt.Errorf("UPLOAD_SERVER_URL is required")
	case c.ChunkSize <= 0:
		return fmt.Errorf("CHUNK_SIZE must be positive, got %d", c.ChunkSize)
	case c.MaxInFlight <= 0:
		return fmt.Errorf("MAX_IN_FLIGHT must be positive, got %d", c.MaxInFlight)
	case c.MaxRetries < 0:
		return fmt.Errorf("MAX_RETRIES must not be negative, got %d", c.MaxRetries)
	}
	_, err := c.Algorithm()
	return err
}

func (c ClientConfig) Algorithm() (client.HashAlgorithm, error) {
	switch algo := client.HashAlgorithm(strings.ToLower(c.FingerprintAlgo)); algo {
	case client.HashMD5, client.HashBLAKE3:
		return algo, nil
	default:
		return "", fmt.Errorf("FINGERPRINT_ALGO must be md5 or blake3, got %q", c.FingerprintAlgo)
	}
}

func (c ClientConfig) UploaderConfig() client.UploaderConfig {
	algo, _ := c.Algorithm()
	return client.UploaderConfig{
		ChunkSize: c.ChunkSize,
		Algorithm: algo,
		Dispatcher: client.DispatcherConfig{
			MaxInFlight:  c.MaxInFlight,
			MaxRetries:   c.MaxRetries,
			RetryBackoff: c.RetryBackoff,
			ChunkTimeout: c.ChunkTimeout,
		},
	}
}
