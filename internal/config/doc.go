// Package config loads runtime configuration for the patientkeeper CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-d string   data directory
//	-b string   store backend (file|sqlite)
//	-o string   export directory
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "data_dir": "/var/lib/patientkeeper",
//	  "backend": "sqlite",
//	  "export_dir": "/tmp/reports",
//	  "log_level": "debug",
//	  "log_format": "console",
//	  "credentials": {"admin": "$2a$10$..."},
//	  "credentials_hashed": true,
//	  "s3_bucket": "reports",
//	  "s3_region": "us-east-1",
//	  "s3_base_endpoint": "http://127.0.0.1:9000/",
//	  "s3_access_key": "admin",
//	  "s3_secret_key": "secretpassword",
//	  "s3_presign_expiry": "15m"
//	}
//
// Note: This package does not read environment variables directly.
package config
