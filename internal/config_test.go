package internal

import (
	"testing"
	"time"

	"github.com/Netflix/go-env"
	"github.com/stretchr/testify/require"

	"upload-lab/client"
)

func TestServerConfig_FromEnviron(t *testing.T) {
	req := require.New(t)
	es := env.EnvSet{
		"ROOT_DIR":        "/srv/uploads",
		"BADGER_FILEPATH": "/srv/ledger",
		"PORT":            "8080",
		"SESSION_TTL":     "2h",
	}

	var cfg ServerConfig
	err := env.Unmarshal(es, &cfg)

	req.NoError(err)
	req.NoError(cfg.Validate())
	req.Equal("/srv/uploads", cfg.RootDir)
	req.Equal("temp", cfg.StagingDirName)
	req.Equal(2*time.Hour, cfg.SessionTTL)
	req.Equal("0.0.0.0:8080", cfg.HTTPAddress())
	req.Equal("0.0.0.0:3001", cfg.GRPCAddress())
	req.EqualValues(64<<20, cfg.MaxChunkBytes)
}

func TestServerConfig_RequiresRootDir(t *testing.T) {
	var cfg ServerConfig
	err := env.Unmarshal(env.EnvSet{"BADGER_FILEPATH": "/srv/ledger"}, &cfg)
	require.Error(t, err)
}

func TestServerConfig_Validate(t *testing.T) {
	valid := ServerConfig{Port: 3000, GRPCPort: 3001, SessionTTL: time.Hour, JanitorInterval: time.Minute, CapacityInterval: time.Second}
	require.NoError(t, valid.Validate())

	samePorts := valid
	samePorts.GRPCPort = 3000
	require.Error(t, samePorts.Validate())

	noTTL := valid
	noTTL.SessionTTL = 0
	require.Error(t, noTTL.Validate())
}

func TestClientConfig(t *testing.T) {
	req := require.New(t)
	var cfg ClientConfig
	err := env.Unmarshal(env.EnvSet{"FINGERPRINT_ALGO": "BLAKE3", "MAX_IN_FLIGHT": "8"}, &cfg)
	req.NoError(err)
	req.NoError(cfg.Validate())

	up := cfg.UploaderConfig()
	req.Equal(client.HashBLAKE3, up.Algorithm)
	req.Equal(8, up.Dispatcher.MaxInFlight)
	req.EqualValues(1<<20, up.ChunkSize)
	req.Equal(200*time.Millisecond, up.Dispatcher.RetryBackoff)

	cfg.FingerprintAlgo = "sha1"
	req.Error(cfg.Validate())
}
