// Copyright 2025 The axfor Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config unified configuration structure
type Config struct {
	Mesh MeshConfig `yaml:"mesh"`
}

// MeshConfig mesh-wide configuration. Every role reads the same file;
// listen addresses and downstream targets are externally configured,
// never hardcoded in the services.
type MeshConfig struct {
	// Per-role endpoints
	Gateway     GatewayConfig `yaml:"gateway"`
	Food        TierConfig    `yaml:"food"`
	Electronics TierConfig    `yaml:"electronics"`
	Fresh       LeafConfig    `yaml:"fresh"`
	Appliance   LeafConfig    `yaml:"appliance"`
	Logger      LoggerConfig  `yaml:"logger"`

	// Sub-configurations
	GRPC        GRPCConfig        `yaml:"grpc"`
	Limits      LimitsConfig      `yaml:"limits"`
	LogClient   LogClientConfig   `yaml:"log_client"`
	Reliability ReliabilityConfig `yaml:"reliability"`
	Log         LogConfig         `yaml:"log"`
	Monitoring  MonitoringConfig  `yaml:"monitoring"`
}

// GatewayConfig 网关配置
type GatewayConfig struct {
	ListenAddress     string `yaml:"listen_address"`     // Default :50050
	FoodTarget        string `yaml:"food_target"`        // Default 127.0.0.1:50052
	ElectronicsTarget string `yaml:"electronics_target"` // Default 127.0.0.1:50051
	DefaultTier       string `yaml:"default_tier"`       // "food" or "electronics", default electronics
}

// TierConfig 中层转发服务配置
type TierConfig struct {
	ListenAddress string `yaml:"listen_address"`
	LeafTarget    string `yaml:"leaf_target"`
}

// LeafConfig 叶子服务配置
type LeafConfig struct {
	ListenAddress string `yaml:"listen_address"`
}

// LoggerConfig 日志聚合服务配置
type LoggerConfig struct {
	ListenAddress string `yaml:"listen_address"` // Default :50055
	SnapshotPath  string `yaml:"snapshot_path"`  // Default data/operation_log.json
}

// GRPCConfig gRPC configuration
type GRPCConfig struct {
	// Message size limits
	MaxRecvMsgSize       int    `yaml:"max_recv_msg_size"`      // Default 1.5MB
	MaxSendMsgSize       int    `yaml:"max_send_msg_size"`      // Default 1.5MB
	MaxConcurrentStreams uint32 `yaml:"max_concurrent_streams"` // Default 1024; bounds the in-flight worker pool per conn

	// Keepalive configuration
	KeepaliveTime    time.Duration `yaml:"keepalive_time"`    // Default 10s
	KeepaliveTimeout time.Duration `yaml:"keepalive_timeout"` // Default 10s

	// Rate limiting configuration
	EnableRateLimit bool `yaml:"enable_rate_limit"` // Default false
	RateLimitQPS    int  `yaml:"rate_limit_qps"`    // Requests per second limit
	RateLimitBurst  int  `yaml:"rate_limit_burst"`  // Burst token bucket size
}

// LimitsConfig resource limits configuration
type LimitsConfig struct {
	MaxConnections int `yaml:"max_connections"` // Default 1000
}

// LogClientConfig 日志上报客户端配置
type LogClientConfig struct {
	Target      string        `yaml:"target"`       // LoggerService address; empty disables reporting
	QueueSize   int           `yaml:"queue_size"`   // Default 256
	CallTimeout time.Duration `yaml:"call_timeout"` // Default 2s
}

// ReliabilityConfig reliability configuration
type ReliabilityConfig struct {
	ShutdownTimeout     time.Duration `yaml:"shutdown_timeout"`      // Default 30s
	DrainTimeout        time.Duration `yaml:"drain_timeout"`         // Default 5s
	EnablePanicRecovery bool          `yaml:"enable_panic_recovery"` // Default true
}

// LogConfig log configuration
type LogConfig struct {
	Level            string   `yaml:"level"`              // Default info
	Encoding         string   `yaml:"encoding"`           // Default console
	OutputPaths      []string `yaml:"output_paths"`       // Default ["stdout"]
	ErrorOutputPaths []string `yaml:"error_output_paths"` // Default ["stderr"]
}

// MonitoringConfig monitoring configuration
type MonitoringConfig struct {
	EnablePrometheus     bool          `yaml:"enable_prometheus"`      // Default true
	PrometheusPort       int           `yaml:"prometheus_port"`        // Default 9090; each role adds its port offset
	SlowRequestThreshold time.Duration `yaml:"slow_request_threshold"` // Default 100ms
}

// DefaultConfig returns a configuration with recommended default values
func DefaultConfig() *Config {
	cfg := &Config{}
	cfg.SetDefaults()
	return cfg
}

// LoadConfig loads configuration from a file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.SetDefaults()
	cfg.OverrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// LoadConfigOrDefault attempts to load configuration from file, uses
// defaults if the file doesn't exist.
func LoadConfigOrDefault(path string) (*Config, error) {
	if path != "" {
		cfg, err := LoadConfig(path)
		if err == nil {
			return cfg, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cfg := DefaultConfig()
	cfg.OverrideFromEnv()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SetDefaults sets default values
func (c *Config) SetDefaults() {
	// Endpoint defaults mirror the original deployment layout
	if c.Mesh.Gateway.ListenAddress == "" {
		c.Mesh.Gateway.ListenAddress = ":50050"
	}
	if c.Mesh.Gateway.FoodTarget == "" {
		c.Mesh.Gateway.FoodTarget = "127.0.0.1:50052"
	}
	if c.Mesh.Gateway.ElectronicsTarget == "" {
		c.Mesh.Gateway.ElectronicsTarget = "127.0.0.1:50051"
	}
	if c.Mesh.Gateway.DefaultTier == "" {
		c.Mesh.Gateway.DefaultTier = "electronics"
	}
	if c.Mesh.Food.ListenAddress == "" {
		c.Mesh.Food.ListenAddress = ":50052"
	}
	if c.Mesh.Food.LeafTarget == "" {
		c.Mesh.Food.LeafTarget = "127.0.0.1:50053"
	}
	if c.Mesh.Electronics.ListenAddress == "" {
		c.Mesh.Electronics.ListenAddress = ":50051"
	}
	if c.Mesh.Electronics.LeafTarget == "" {
		c.Mesh.Electronics.LeafTarget = "127.0.0.1:50054"
	}
	if c.Mesh.Fresh.ListenAddress == "" {
		c.Mesh.Fresh.ListenAddress = ":50053"
	}
	if c.Mesh.Appliance.ListenAddress == "" {
		c.Mesh.Appliance.ListenAddress = ":50054"
	}
	if c.Mesh.Logger.ListenAddress == "" {
		c.Mesh.Logger.ListenAddress = ":50055"
	}
	if c.Mesh.Logger.SnapshotPath == "" {
		c.Mesh.Logger.SnapshotPath = "data/operation_log.json"
	}

	// gRPC defaults
	if c.Mesh.GRPC.MaxRecvMsgSize == 0 {
		c.Mesh.GRPC.MaxRecvMsgSize = 1572864 // 1.5MB
	}
	if c.Mesh.GRPC.MaxSendMsgSize == 0 {
		c.Mesh.GRPC.MaxSendMsgSize = 1572864 // 1.5MB
	}
	if c.Mesh.GRPC.MaxConcurrentStreams == 0 {
		c.Mesh.GRPC.MaxConcurrentStreams = 1024
	}
	if c.Mesh.GRPC.KeepaliveTime == 0 {
		c.Mesh.GRPC.KeepaliveTime = 10 * time.Second
	}
	if c.Mesh.GRPC.KeepaliveTimeout == 0 {
		c.Mesh.GRPC.KeepaliveTimeout = 10 * time.Second
	}

	// Limits defaults
	if c.Mesh.Limits.MaxConnections == 0 {
		c.Mesh.Limits.MaxConnections = 1000
	}

	// Log client defaults
	if c.Mesh.LogClient.Target == "" {
		c.Mesh.LogClient.Target = "127.0.0.1:50055"
	}
	if c.Mesh.LogClient.QueueSize == 0 {
		c.Mesh.LogClient.QueueSize = 256
	}
	if c.Mesh.LogClient.CallTimeout == 0 {
		c.Mesh.LogClient.CallTimeout = 2 * time.Second
	}

	// Reliability defaults
	if c.Mesh.Reliability.ShutdownTimeout == 0 {
		c.Mesh.Reliability.ShutdownTimeout = 30 * time.Second
	}
	if c.Mesh.Reliability.DrainTimeout == 0 {
		c.Mesh.Reliability.DrainTimeout = 5 * time.Second
	}
	if !c.Mesh.Reliability.EnablePanicRecovery {
		c.Mesh.Reliability.EnablePanicRecovery = true
	}

	// Log defaults
	if c.Mesh.Log.Level == "" {
		c.Mesh.Log.Level = "info"
	}
	if c.Mesh.Log.Encoding == "" {
		c.Mesh.Log.Encoding = "console"
	}
	if len(c.Mesh.Log.OutputPaths) == 0 {
		c.Mesh.Log.OutputPaths = []string{"stdout"}
	}
	if len(c.Mesh.Log.ErrorOutputPaths) == 0 {
		c.Mesh.Log.ErrorOutputPaths = []string{"stderr"}
	}

	// Monitoring defaults
	if !c.Mesh.Monitoring.EnablePrometheus {
		c.Mesh.Monitoring.EnablePrometheus = true
	}
	if c.Mesh.Monitoring.PrometheusPort == 0 {
		c.Mesh.Monitoring.PrometheusPort = 9090
	}
	if c.Mesh.Monitoring.SlowRequestThreshold == 0 {
		c.Mesh.Monitoring.SlowRequestThreshold = 100 * time.Millisecond
	}
}

// OverrideFromEnv overrides configuration from environment variables
func (c *Config) OverrideFromEnv() {
	if addr := os.Getenv("WAREHOUSE_GATEWAY_LISTEN"); addr != "" {
		c.Mesh.Gateway.ListenAddress = addr
	}
	if addr := os.Getenv("WAREHOUSE_LOGGER_TARGET"); addr != "" {
		c.Mesh.LogClient.Target = addr
	}
	if path := os.Getenv("WAREHOUSE_LOG_SNAPSHOT_PATH"); path != "" {
		c.Mesh.Logger.SnapshotPath = path
	}

	// Log configuration
	if logLevel := os.Getenv("WAREHOUSE_LOG_LEVEL"); logLevel != "" {
		c.Mesh.Log.Level = logLevel
	}
	if logEncoding := os.Getenv("WAREHOUSE_LOG_ENCODING"); logEncoding != "" {
		c.Mesh.Log.Encoding = logEncoding
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Mesh.Gateway.DefaultTier != "food" && c.Mesh.Gateway.DefaultTier != "electronics" {
		return fmt.Errorf("gateway.default_tier must be \"food\" or \"electronics\"")
	}

	if c.Mesh.GRPC.MaxRecvMsgSize < 0 {
		return fmt.Errorf("grpc.max_recv_msg_size must be >= 0")
	}
	if c.Mesh.GRPC.MaxSendMsgSize < 0 {
		return fmt.Errorf("grpc.max_send_msg_size must be >= 0")
	}
	if c.Mesh.GRPC.EnableRateLimit && (c.Mesh.GRPC.RateLimitQPS <= 0 || c.Mesh.GRPC.RateLimitBurst <= 0) {
		return fmt.Errorf("rate limiting enabled but rate_limit_qps/rate_limit_burst not set")
	}

	if c.Mesh.Limits.MaxConnections <= 0 {
		return fmt.Errorf("limits.max_connections must be > 0")
	}

	if c.Mesh.LogClient.QueueSize < 0 {
		return fmt.Errorf("log_client.queue_size must be >= 0")
	}

	if c.Mesh.Monitoring.PrometheusPort < 0 || c.Mesh.Monitoring.PrometheusPort > 65535 {
		return fmt.Errorf("monitoring.prometheus_port must be a valid port")
	}

	return nil
}
