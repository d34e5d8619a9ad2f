package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/patientkeeper/internal/flagx"
	"github.com/dmitrijs2005/patientkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer and
// zero-valued fields mean "not set" and leave the runtime Config untouched.
type JsonConfig struct {
	DataDir           string            `json:"data_dir"`
	Backend           string            `json:"backend"`
	ExportDir         string            `json:"export_dir"`
	LogLevel          string            `json:"log_level"`
	LogFormat         string            `json:"log_format"`
	Credentials       map[string]string `json:"credentials"`
	CredentialsHashed *bool             `json:"credentials_hashed"`

	S3Bucket        string          `json:"s3_bucket"`
	S3Region        string          `json:"s3_region"`
	S3BaseEndpoint  string          `json:"s3_base_endpoint"`
	S3AccessKey     string          `json:"s3_access_key"`
	S3SecretKey     string          `json:"s3_secret_key"`
	S3PresignExpiry *timex.Duration `json:"s3_presign_expiry"`
}

// parseJson overlays Config with values loaded from the file named by -c or
// -config. Without either flag it does nothing. Read or decode errors panic.
func parseJson(cfg *Config) {
	path := flagx.ConfigFile()
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	setString(&cfg.DataDir, jc.DataDir)
	setString(&cfg.Backend, jc.Backend)
	setString(&cfg.ExportDir, jc.ExportDir)
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3BaseEndpoint, jc.S3BaseEndpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)

	if jc.Credentials != nil {
		cfg.Credentials = jc.Credentials
	}
	if jc.CredentialsHashed != nil {
		cfg.CredentialsHashed = *jc.CredentialsHashed
	}
	if jc.S3PresignExpiry != nil {
		cfg.S3PresignExpiry = jc.S3PresignExpiry.Duration
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
