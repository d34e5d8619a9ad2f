package config

import "time"

// Backends for the per-identity patient store.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds runtime settings for the patientkeeper CLI.
//
// Fields:
//   - DataDir: directory holding per-identity stores.
//   - Backend: "file" (JSON flat file) or "sqlite".
//   - ExportDir: where CSV/PDF reports are written.
//   - LogLevel / LogFormat: see logging.New.
//   - Credentials: identity -> secret table consulted by the credential gate.
//   - CredentialsHashed: Credentials values are bcrypt hashes, not plain secrets.
//   - S3*: optional object storage for exported reports. Export uploads only
//     when S3Bucket is set.
type Config struct {
	DataDir           string
	Backend           string
	ExportDir         string
	LogLevel          string
	LogFormat         string
	Credentials       map[string]string
	CredentialsHashed bool

	S3Bucket        string
	S3Region        string
	S3BaseEndpoint  string
	S3AccessKey     string
	S3SecretKey     string
	S3PresignExpiry time.Duration
}

// LoadDefaults populates c with development defaults.
// NOTE: the default credential table is for local use only.
func (c *Config) LoadDefaults() {
	c.DataDir = "data"
	c.Backend = BackendFile
	c.ExportDir = "export"
	c.LogLevel = "info"
	c.LogFormat = "text"
	c.Credentials = map[string]string{"admin": "password123"}
	c.CredentialsHashed = false
	c.S3Region = "us-east-1"
	c.S3PresignExpiry = 15 * time.Minute
}

// S3Enabled reports whether exported reports should go to object storage.
func (c *Config) S3Enabled() bool {
	return c.S3Bucket != ""
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
