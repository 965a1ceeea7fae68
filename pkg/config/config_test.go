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
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, ":50050", cfg.Mesh.Gateway.ListenAddress)
	assert.Equal(t, "127.0.0.1:50052", cfg.Mesh.Gateway.FoodTarget)
	assert.Equal(t, "127.0.0.1:50051", cfg.Mesh.Gateway.ElectronicsTarget)
	assert.Equal(t, "electronics", cfg.Mesh.Gateway.DefaultTier)
	assert.Equal(t, "127.0.0.1:50053", cfg.Mesh.Food.LeafTarget)
	assert.Equal(t, "127.0.0.1:50054", cfg.Mesh.Electronics.LeafTarget)
	assert.Equal(t, ":50055", cfg.Mesh.Logger.ListenAddress)
	assert.Equal(t, "data/operation_log.json", cfg.Mesh.Logger.SnapshotPath)

	assert.Equal(t, 1572864, cfg.Mesh.GRPC.MaxRecvMsgSize)
	assert.Equal(t, uint32(1024), cfg.Mesh.GRPC.MaxConcurrentStreams)
	assert.False(t, cfg.Mesh.GRPC.EnableRateLimit)
	assert.Equal(t, 1000, cfg.Mesh.Limits.MaxConnections)

	assert.Equal(t, 256, cfg.Mesh.LogClient.QueueSize)
	assert.Equal(t, 2*time.Second, cfg.Mesh.LogClient.CallTimeout)

	assert.Equal(t, 30*time.Second, cfg.Mesh.Reliability.ShutdownTimeout)
	assert.True(t, cfg.Mesh.Reliability.EnablePanicRecovery)

	assert.Equal(t, "info", cfg.Mesh.Log.Level)
	assert.Equal(t, "console", cfg.Mesh.Log.Encoding)
	assert.Equal(t, 9090, cfg.Mesh.Monitoring.PrometheusPort)
	assert.Equal(t, 100*time.Millisecond, cfg.Mesh.Monitoring.SlowRequestThreshold)

	require.NoError(t, cfg.Validate())
}

func TestLoadConfig(t *testing.T) {
	content := `
mesh:
  gateway:
    listen_address: ":16050"
    default_tier: "food"
  fresh:
    listen_address: ":16053"
  logger:
    snapshot_path: "/tmp/wm-test/log.json"
  grpc:
    max_recv_msg_size: 4194304
    enable_rate_limit: true
    rate_limit_qps: 100
    rate_limit_burst: 200
  log:
    level: "debug"
    encoding: "json"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":16050", cfg.Mesh.Gateway.ListenAddress)
	assert.Equal(t, "food", cfg.Mesh.Gateway.DefaultTier)
	assert.Equal(t, ":16053", cfg.Mesh.Fresh.ListenAddress)
	assert.Equal(t, "/tmp/wm-test/log.json", cfg.Mesh.Logger.SnapshotPath)
	assert.Equal(t, 4194304, cfg.Mesh.GRPC.MaxRecvMsgSize)
	assert.True(t, cfg.Mesh.GRPC.EnableRateLimit)
	assert.Equal(t, 100, cfg.Mesh.GRPC.RateLimitQPS)
	assert.Equal(t, "debug", cfg.Mesh.Log.Level)

	// 未出现的字段仍取默认值
	assert.Equal(t, "127.0.0.1:50052", cfg.Mesh.Gateway.FoodTarget)
	assert.Equal(t, ":50054", cfg.Mesh.Appliance.ListenAddress)
	assert.Equal(t, 1000, cfg.Mesh.Limits.MaxConnections)
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("mesh: [not a map"), 0644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigOrDefault(t *testing.T) {
	cfg, err := LoadConfigOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ":50050", cfg.Mesh.Gateway.ListenAddress)

	cfg, err = LoadConfigOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, "electronics", cfg.Mesh.Gateway.DefaultTier)
}

func TestOverrideFromEnv(t *testing.T) {
	t.Setenv("WAREHOUSE_GATEWAY_LISTEN", ":17050")
	t.Setenv("WAREHOUSE_LOGGER_TARGET", "10.0.0.9:50055")
	t.Setenv("WAREHOUSE_LOG_SNAPSHOT_PATH", "/data/ops.json")
	t.Setenv("WAREHOUSE_LOG_LEVEL", "warn")

	cfg := DefaultConfig()
	cfg.OverrideFromEnv()

	assert.Equal(t, ":17050", cfg.Mesh.Gateway.ListenAddress)
	assert.Equal(t, "10.0.0.9:50055", cfg.Mesh.LogClient.Target)
	assert.Equal(t, "/data/ops.json", cfg.Mesh.Logger.SnapshotPath)
	assert.Equal(t, "warn", cfg.Mesh.Log.Level)
}

func TestValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Mesh.Gateway.DefaultTier = "furniture"
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Mesh.GRPC.EnableRateLimit = true
	assert.Error(t, cfg.Validate(), "rate limit enabled without qps/burst")
	cfg.Mesh.GRPC.RateLimitQPS = 50
	cfg.Mesh.GRPC.RateLimitBurst = 100
	assert.NoError(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Mesh.Limits.MaxConnections = -1
	assert.Error(t, cfg.Validate())

	cfg = DefaultConfig()
	cfg.Mesh.Monitoring.PrometheusPort = 70000
	assert.Error(t, cfg.Validate())
}
