// Package config loads the server/client configuration tree, following
// the teacher's pattern: a YAML file read with gopkg.in/yaml.v2, then
// environment-variable overrides applied on top, then defaults for any
// field still at its zero value.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v2"
)

type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Server    ServerConfig    `yaml:"server"`
	Client    ClientConfig    `yaml:"client"`
	Blobstore BlobstoreConfig `yaml:"blobstore"`
	Admin     AdminConfig     `yaml:"admin"`
}

// TransportConfig governs the frame codec's safety ceilings.
type TransportConfig struct {
	// MaxFrameBytes bounds the payload_size a Recv will allocate for
	// before returning ErrFrameTooLarge. See SPEC_FULL.md's resolution
	// of the "max payload size" open question: 64 MiB by default.
	MaxFrameBytes int `yaml:"max_frame_bytes"`
}

// ServerConfig governs the accept loop and per-connection behavior.
type ServerConfig struct {
	ListenAddr     string `yaml:"listen_addr"`
	IdleTimeoutSec int    `yaml:"idle_timeout_sec"`
	WelcomeMessage string `yaml:"welcome_message"`
}

// ClientConfig governs outbound connection behavior.
type ClientConfig struct {
	// HandshakeStabilizationMS is the delay before sending CONNECT:,
	// to tolerate servers not yet reading. Default 500ms.
	HandshakeStabilizationMS int `yaml:"handshake_stabilization_ms"`
	SendTimeoutSec           int `yaml:"send_timeout_sec"`
}

// BlobstoreConfig governs the temp-file staging external collaborator
// (grounded on BinaryFileProcessor.py), wired only from the admin HTTP
// upload surface, never from the routing core.
type BlobstoreConfig struct {
	TempDir       string `yaml:"temp_dir"`
	MaxUploadSize int64  `yaml:"max_upload_size"`
}

// AdminConfig governs the gorilla/mux HTTP surface exposing health,
// metrics, session inspection and blob upload.
type AdminConfig struct {
	ListenAddr string `yaml:"listen_addr"`
}

// Load reads path as YAML, applies environment overrides, then fills in
// defaults. A missing .env at envPath is not an error — godotenv.Load
// is best-effort, matching how the teacher treats local dev overrides.
func Load(path, envPath string) (*Config, error) {
	_ = godotenv.Load(envPath)

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return nil, err
	}

	cfg.applyEnvOverrides()
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyEnvOverrides() {
	c.Server.ListenAddr = getEnv("HAG_LISTEN_ADDR", c.Server.ListenAddr)
	c.Admin.ListenAddr = getEnv("HAG_ADMIN_LISTEN_ADDR", c.Admin.ListenAddr)
	c.Blobstore.TempDir = getEnv("HAG_BLOB_TEMP_DIR", c.Blobstore.TempDir)

	if v := getEnvInt("HAG_MAX_FRAME_BYTES", 0); v > 0 {
		c.Transport.MaxFrameBytes = v
	}
	if v := getEnvInt("HAG_IDLE_TIMEOUT_SEC", 0); v > 0 {
		c.Server.IdleTimeoutSec = v
	}
	if v := getEnvInt("HAG_HANDSHAKE_STABILIZATION_MS", 0); v > 0 {
		c.Client.HandshakeStabilizationMS = v
	}
}

func (c *Config) applyDefaults() {
	if c.Transport.MaxFrameBytes == 0 {
		c.Transport.MaxFrameBytes = 64 * 1024 * 1024
	}
	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = ":9100"
	}
	if c.Server.IdleTimeoutSec == 0 {
		c.Server.IdleTimeoutSec = 300
	}
	if c.Server.WelcomeMessage == "" {
		c.Server.WelcomeMessage = "ようこそ！サーバーに接続しました。"
	}
	if c.Client.HandshakeStabilizationMS == 0 {
		c.Client.HandshakeStabilizationMS = 500
	}
	if c.Client.SendTimeoutSec == 0 {
		c.Client.SendTimeoutSec = 30
	}
	if c.Blobstore.TempDir == "" {
		c.Blobstore.TempDir = os.TempDir()
	}
	if c.Blobstore.MaxUploadSize == 0 {
		c.Blobstore.MaxUploadSize = 32 * 1024 * 1024
	}
	if c.Admin.ListenAddr == "" {
		c.Admin.ListenAddr = ":9101"
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}
