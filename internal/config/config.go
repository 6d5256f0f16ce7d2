// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"path/filepath"
	"strings"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/nadrama-com/dbsession/internal/session"
	"github.com/spf13/viper"
)

// Config provides getters/setters for working with the config
type Config struct {
	logger log.Logger
}

// Init initializes the Config struct
func Init(logger log.Logger) (*Config, error) {
	c := &Config{logger: logger}
	if dotenvErr != nil {
		level.Warn(logger).Log("msg", "failed to load .env file", "err", dotenvErr)
	}
	return c, nil
}

// runtimeConfig defines the config variables, validation, and viper config
type runtimeConfig struct {
	Environment string `viper:"environment" envkey:"ENVIRONMENT" default:"development" description:"Environment (development|production|[string])"`
	InstanceID  string `viper:"instance_id" validate:"omitempty,puidv7" envkey:"INSTANCE_ID" default:"" description:"(Optional) puidv7 of this instance, recorded in export files"`
	Verbose     bool   `viper:"verbose" envkey:"DBSESSION_DEBUG" default:"false" description:"Enable verbose output"`
	DataDir     string `viper:"data_dir" envkey:"DBSESSION_DATA_DIR" default:"./data" description:"(Optional) Path to directory for data and exports"`
	// Database Configuration
	Driver     string `viper:"driver" validate:"dbdriver" envkey:"DBSESSION_DRIVER" default:"sqlite3" description:"Database driver (sqlite3|sqlite|postgres, or odbc when built with -tags odbc)"`
	DSN        string `viper:"dsn" validate:"required_if=Driver postgres,required_if=Driver odbc" envkey:"DBSESSION_DSN" default:"" description:"Data source name (defaults to <data_dir>/db.sqlite3 for SQLite drivers)"`
	Autocommit bool   `viper:"autocommit" envkey:"DBSESSION_AUTOCOMMIT" default:"false" description:"Commit every statement individually"`
	// Export Configuration
	ExportCompression string `viper:"export_compression" validate:"oneof=zstd none" envkey:"DBSESSION_EXPORT_COMPRESSION" default:"zstd" description:"Compression of export files (zstd|none)"`
	// S3 Configuration
	S3Enabled         bool   `viper:"s3_enabled" envkey:"DBSESSION_S3_ENABLED" default:"false" description:"Upload export files to S3"`
	S3BucketName      string `viper:"s3_bucket_name" validate:"required_if=S3Enabled true" envkey:"DBSESSION_S3_BUCKET_NAME" default:"" description:"S3 bucket name (required when S3 is enabled)"`
	S3KeyPrefix       string `viper:"s3_key_prefix" envkey:"DBSESSION_S3_KEY_PREFIX" default:"" description:"S3 object key prefix"`
	S3Region          string `viper:"s3_region" envkey:"AWS_DEFAULT_REGION" default:"us-east-1" description:"AWS region for S3 bucket"`
	S3Endpoint        string `viper:"s3_endpoint" envkey:"AWS_ENDPOINT_URL" default:"" description:"Custom S3 endpoint URL (for MinIO, etc.)"`
	S3AccessKeyID     string `viper:"s3_access_key_id" envkey:"AWS_ACCESS_KEY_ID" default:"" description:"AWS access key ID (optional, prefer IAM roles)"`
	S3SecretAccessKey string `viper:"s3_secret_access_key" envkey:"AWS_SECRET_ACCESS_KEY" default:"" description:"AWS secret access key (optional, prefer IAM roles)"`
	S3SessionToken    string `viper:"s3_session_token" envkey:"AWS_SESSION_TOKEN" default:"" description:"AWS session token for temporary credentials"`
	S3RoleArn         string `viper:"s3_role_arn" envkey:"DBSESSION_S3_ROLE_ARN" default:"" description:"IAM role ARN to assume for S3 access"`
	S3RoleSessionName string `viper:"s3_role_session_name" envkey:"DBSESSION_S3_ROLE_SESSION_NAME" default:"dbsession" description:"Session name when assuming IAM role"`
	S3ForcePathStyle  bool   `viper:"s3_force_path_style" envkey:"DBSESSION_S3_FORCE_PATH_STYLE" default:"false" description:"Use path-style S3 addressing (required for MinIO)"`
	S3StorageClass    string `viper:"s3_storage_class" envkey:"DBSESSION_S3_STORAGE_CLASS" default:"STANDARD" description:"S3 storage class (STANDARD, STANDARD_IA, GLACIER, etc.)"`
	S3Encryption      string `viper:"s3_encryption" validate:"omitempty,oneof=AES256 aws:kms" envkey:"DBSESSION_S3_ENCRYPTION" default:"AES256" description:"S3 server-side encryption (AES256 or aws:kms)"`
	S3KMSKeyID        string `viper:"s3_kms_key_id" envkey:"DBSESSION_S3_KMS_KEY_ID" default:"" description:"KMS key ID for S3 encryption (when using aws:kms)"`
}

// Environment returns the current environment (development, production, etc)
func (c *Config) Environment() string {
	return viper.GetString("environment")
}

// InstanceID returns the ID of the current instance
func (c *Config) InstanceID() string {
	return viper.GetString("instance_id")
}

// Verbose returns whether verbose mode is enabled
func (c *Config) Verbose() bool {
	return viper.GetBool("verbose")
}

// DataDir returns the directory path for data
func (c *Config) DataDir() string {
	dir := viper.GetString("data_dir")
	if strings.HasPrefix(dir, "./") {
		dir = strings.TrimPrefix(dir, "./")
		currentDir, _ := filepath.Abs(".")
		dir = filepath.Join(currentDir, dir)
		viper.Set("data_dir", dir)
	}
	return dir
}

// ExportsDir returns the directory export files are written to
func (c *Config) ExportsDir() string {
	return filepath.Join(c.DataDir(), "exports")
}

// Driver returns the database driver name
func (c *Config) Driver() string {
	return viper.GetString("driver")
}

// DSN returns the data source name. SQLite drivers default to a database
// file in the data directory.
func (c *Config) DSN() string {
	dsn := viper.GetString("dsn")
	if dsn == "" && session.IsSQLite(c.Driver()) {
		dsn = filepath.Join(c.DataDir(), "db.sqlite3")
	}
	return dsn
}

// Autocommit returns whether statements are committed individually
func (c *Config) Autocommit() bool {
	return viper.GetBool("autocommit")
}

// ExportCompression returns the compression used for export files
func (c *Config) ExportCompression() string {
	return viper.GetString("export_compression")
}

// S3Enabled returns whether export uploads to S3 are enabled
func (c *Config) S3Enabled() bool {
	return viper.GetBool("s3_enabled")
}

// S3BucketName returns the S3 bucket name
func (c *Config) S3BucketName() string {
	return viper.GetString("s3_bucket_name")
}

// S3KeyPrefix returns the S3 object key prefix
func (c *Config) S3KeyPrefix() string {
	return viper.GetString("s3_key_prefix")
}

// S3Region returns the AWS region for S3 bucket
func (c *Config) S3Region() string {
	return viper.GetString("s3_region")
}

// S3Endpoint returns the custom S3 endpoint URL
func (c *Config) S3Endpoint() string {
	return viper.GetString("s3_endpoint")
}

// S3AccessKeyID returns the AWS access key ID
func (c *Config) S3AccessKeyID() string {
	return viper.GetString("s3_access_key_id")
}

// S3SecretAccessKey returns the AWS secret access key
func (c *Config) S3SecretAccessKey() string {
	return viper.GetString("s3_secret_access_key")
}

// S3SessionToken returns the AWS session token for temporary credentials
func (c *Config) S3SessionToken() string {
	return viper.GetString("s3_session_token")
}

// S3RoleArn returns the IAM role ARN to assume for S3 access
func (c *Config) S3RoleArn() string {
	return viper.GetString("s3_role_arn")
}

// S3RoleSessionName returns the session name when assuming IAM role
func (c *Config) S3RoleSessionName() string {
	return viper.GetString("s3_role_session_name")
}

// S3ForcePathStyle returns whether to use path-style S3 addressing
func (c *Config) S3ForcePathStyle() bool {
	return viper.GetBool("s3_force_path_style")
}

// S3StorageClass returns the S3 storage class
func (c *Config) S3StorageClass() string {
	return viper.GetString("s3_storage_class")
}

// S3Encryption returns the S3 server-side encryption type
func (c *Config) S3Encryption() string {
	return viper.GetString("s3_encryption")
}

// S3KMSKeyID returns the KMS key ID for S3 encryption
func (c *Config) S3KMSKeyID() string {
	return viper.GetString("s3_kms_key_id")
}
