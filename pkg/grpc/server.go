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

package grpc

import (
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"

	"warehouseMesh/pkg/config"
	"warehouseMesh/pkg/metrics"
)

// ServerOptionsBuilder builds gRPC server options from configuration
// Constructs production-grade gRPC server options based on config file
type ServerOptionsBuilder struct {
	cfg     *config.Config
	logger  *zap.Logger
	metrics *metrics.Metrics
}

// NewServerOptionsBuilder creates a server options builder
func NewServerOptionsBuilder(cfg *config.Config, logger *zap.Logger) *ServerOptionsBuilder {
	return &ServerOptionsBuilder{
		cfg:    cfg,
		logger: logger,
	}
}

// WithMetrics sets the metrics collector for the builder
func (b *ServerOptionsBuilder) WithMetrics(m *metrics.Metrics) *ServerOptionsBuilder {
	b.metrics = m
	return b
}

// Build builds gRPC server options
// Returns a list of server options with all interceptors and configuration
func (b *ServerOptionsBuilder) Build() []grpc.ServerOption {
	opts := []grpc.ServerOption{
		// 1. Message size limits
		grpc.MaxRecvMsgSize(b.cfg.Mesh.GRPC.MaxRecvMsgSize),
		grpc.MaxSendMsgSize(b.cfg.Mesh.GRPC.MaxSendMsgSize),

		// 2. Concurrent stream limits
		grpc.MaxConcurrentStreams(b.cfg.Mesh.GRPC.MaxConcurrentStreams),

		// 3. Keepalive parameters
		grpc.KeepaliveParams(keepalive.ServerParameters{
			Time:    b.cfg.Mesh.GRPC.KeepaliveTime,
			Timeout: b.cfg.Mesh.GRPC.KeepaliveTimeout,
		}),
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             b.cfg.Mesh.GRPC.KeepaliveTime,
			PermitWithoutStream: true,
		}),
	}

	// 4. Add interceptor chain (all mesh RPCs are unary)
	unaryInterceptors := b.buildUnaryInterceptors()
	if len(unaryInterceptors) > 0 {
		opts = append(opts, grpc.ChainUnaryInterceptor(unaryInterceptors...))
	}

	return opts
}

// buildUnaryInterceptors builds unary RPC interceptor chain
// Interceptor order matters: Metrics -> Panic Recovery -> Logging -> Connection Tracking -> Rate Limiting -> Business Logic
func (b *ServerOptionsBuilder) buildUnaryInterceptors() []grpc.UnaryServerInterceptor {
	var interceptors []grpc.UnaryServerInterceptor

	// 1. Metrics (first, to measure everything including panic recovery overhead)
	if b.cfg.Mesh.Monitoring.EnablePrometheus && b.metrics != nil {
		mi := metrics.NewMetricsInterceptor(b.metrics)
		interceptors = append(interceptors, mi.UnaryServerInterceptor())
	}

	// 2. Panic Recovery (outermost layer, catches all panics)
	if b.cfg.Mesh.Reliability.EnablePanicRecovery {
		pri := NewPanicRecoveryInterceptor(b.logger)
		interceptors = append(interceptors, pri.UnaryServerInterceptor())
	}

	// 3. Slow request logging (after connection tracking, avoids logging rejected requests)
	if b.cfg.Mesh.Monitoring.SlowRequestThreshold > 0 {
		li := NewLoggingInterceptor(b.cfg.Mesh.Monitoring.SlowRequestThreshold, b.logger)
		interceptors = append(interceptors, li.UnaryServerInterceptor())
	}

	// 4. Connection tracking (after rate limiting, avoids tracking rate-limited requests)
	if b.cfg.Mesh.Limits.MaxConnections > 0 {
		ct := NewConnectionTracker(b.cfg.Mesh.Limits.MaxConnections, b.logger)
		interceptors = append(interceptors, ct.UnaryServerInterceptor())
	}

	// 5. Rate limiting (close to business logic, quickly rejects excessive requests)
	if b.cfg.Mesh.GRPC.EnableRateLimit &&
		b.cfg.Mesh.GRPC.RateLimitQPS > 0 &&
		b.cfg.Mesh.GRPC.RateLimitBurst > 0 {
		rl := NewRateLimiter(
			b.cfg.Mesh.GRPC.RateLimitQPS,
			b.cfg.Mesh.GRPC.RateLimitBurst,
			b.logger)
		interceptors = append(interceptors, rl.UnaryServerInterceptor())
	}

	return interceptors
}

// BuildServer builds a complete gRPC server
// This is a convenience method for creating a gRPC server with all options configured
func BuildServer(cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) *grpc.Server {
	builder := NewServerOptionsBuilder(cfg, logger).WithMetrics(m)
	opts := builder.Build()

	logger.Info("creating gRPC server",
		zap.Int("max_recv_msg_size", cfg.Mesh.GRPC.MaxRecvMsgSize),
		zap.Int("max_send_msg_size", cfg.Mesh.GRPC.MaxSendMsgSize),
		zap.Uint32("max_concurrent_streams", cfg.Mesh.GRPC.MaxConcurrentStreams),
		zap.Duration("keepalive_time", cfg.Mesh.GRPC.KeepaliveTime),
		zap.Duration("keepalive_timeout", cfg.Mesh.GRPC.KeepaliveTimeout),
		zap.Bool("enable_rate_limit", cfg.Mesh.GRPC.EnableRateLimit),
		zap.Int("rate_limit_qps", cfg.Mesh.GRPC.RateLimitQPS),
		zap.Int("rate_limit_burst", cfg.Mesh.GRPC.RateLimitBurst),
		zap.Int("max_connections", cfg.Mesh.Limits.MaxConnections),
		zap.Bool("enable_panic_recovery", cfg.Mesh.Reliability.EnablePanicRecovery),
		zap.Duration("slow_request_threshold", cfg.Mesh.Monitoring.SlowRequestThreshold))

	return grpc.NewServer(opts...)
}
