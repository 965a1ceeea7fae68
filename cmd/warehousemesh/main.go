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

package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"os"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"warehouseMesh/api/warehouse"
	"warehouseMesh/internal/forward"
	"warehouseMesh/internal/gateway"
	"warehouseMesh/internal/inventory"
	"warehouseMesh/internal/leaf"
	"warehouseMesh/internal/logclient"
	"warehouseMesh/internal/logsvc"
	"warehouseMesh/pkg/config"
	grpcserver "warehouseMesh/pkg/grpc"
	"warehouseMesh/pkg/health"
	"warehouseMesh/pkg/log"
	"warehouseMesh/pkg/metrics"
	"warehouseMesh/pkg/reliability"
)

// metricsPortOffset keeps per-role metrics ports distinct when every
// role runs on the same host with the default config.
var metricsPortOffset = map[string]int{
	"gateway":     0,
	"electronics": 1,
	"food":        2,
	"fresh":       3,
	"appliance":   4,
	"logger":      5,
}

func main() {
	role := flag.String("role", "", "mesh role: gateway, food, electronics, fresh, appliance or logger")
	configPath := flag.String("config", "", "path to config file (optional, defaults apply)")
	listenAddr := flag.String("listen", "", "listen address override")
	flag.Parse()

	if _, ok := metricsPortOffset[*role]; !ok {
		fmt.Fprintf(os.Stderr, "unknown role %q, expected one of: gateway, food, electronics, fresh, appliance, logger\n", *role)
		os.Exit(2)
	}

	cfg, err := config.LoadConfigOrDefault(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := log.InitFromConfig(&cfg.Mesh.Log); err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logger := log.GetLogger().Named(*role).Zap()

	if err := run(*role, *listenAddr, cfg, logger); err != nil {
		logger.Fatal("service failed", zap.Error(err))
	}
}

func run(role, listenOverride string, cfg *config.Config, logger *zap.Logger) error {
	gs := reliability.NewGracefulShutdown(cfg.Mesh.Reliability.ShutdownTimeout)

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)
	healthServer := health.NewHealthServer(logger)

	// Long-lived downstream connections, dialed once and shared. The
	// conn tracker is per-process so failures surface as fallback
	// responses, never as dial latency on the request path.
	dial := func(target string) (*grpc.ClientConn, error) {
		conn, err := grpc.NewClient(target, warehouse.DialOptions(
			grpc.WithTransportCredentials(insecure.NewCredentials()))...)
		if err != nil {
			return nil, fmt.Errorf("dial %s: %w", target, err)
		}
		gs.RegisterHook(reliability.PhaseCloseResources, func(ctx context.Context) error {
			return conn.Close()
		})
		healthServer.RegisterChecker(health.NewDownstreamChecker(target, conn))
		return conn, nil
	}

	// Every role except the logger itself reports operations to the
	// aggregator through a bounded fire-and-forget queue.
	newRecorder := func() (logclient.Recorder, error) {
		if role == "logger" || cfg.Mesh.LogClient.Target == "" {
			return logclient.NopRecorder{}, nil
		}
		conn, err := dial(cfg.Mesh.LogClient.Target)
		if err != nil {
			return nil, err
		}
		rec := logclient.NewQueueRecorder(warehouse.NewLoggerClient(conn), logger, logclient.Options{
			QueueSize:   cfg.Mesh.LogClient.QueueSize,
			CallTimeout: cfg.Mesh.LogClient.CallTimeout,
		})
		gs.RegisterHook(reliability.PhasePersistState, func(ctx context.Context) error {
			rec.Close()
			return nil
		})
		return rec, nil
	}

	server := grpcserver.BuildServer(cfg, logger, m)

	var listen string
	switch role {
	case "gateway":
		listen = cfg.Mesh.Gateway.ListenAddress
		foodConn, err := dial(cfg.Mesh.Gateway.FoodTarget)
		if err != nil {
			return err
		}
		elecConn, err := dial(cfg.Mesh.Gateway.ElectronicsTarget)
		if err != nil {
			return err
		}
		rec, err := newRecorder()
		if err != nil {
			return err
		}
		router := gateway.New("APIGateway",
			warehouse.NewOrderClient(foodConn),
			warehouse.NewOrderClient(elecConn),
			gateway.Tier(cfg.Mesh.Gateway.DefaultTier),
			rec, logger, m)
		warehouse.RegisterOrderServer(server, router)

	case "food":
		listen = cfg.Mesh.Food.ListenAddress
		leafConn, err := dial(cfg.Mesh.Food.LeafTarget)
		if err != nil {
			return err
		}
		rec, err := newRecorder()
		if err != nil {
			return err
		}
		svc := forward.New("FoodService", warehouse.NewOrderClient(leafConn), rec, logger, m)
		warehouse.RegisterOrderServer(server, svc)

	case "electronics":
		listen = cfg.Mesh.Electronics.ListenAddress
		leafConn, err := dial(cfg.Mesh.Electronics.LeafTarget)
		if err != nil {
			return err
		}
		rec, err := newRecorder()
		if err != nil {
			return err
		}
		svc := forward.New("ElectronicsService", warehouse.NewOrderClient(leafConn), rec, logger, m)
		warehouse.RegisterOrderServer(server, svc)

	case "fresh":
		listen = cfg.Mesh.Fresh.ListenAddress
		rec, err := newRecorder()
		if err != nil {
			return err
		}
		store := inventory.NewWithSeed(inventory.FreshSeed())
		svc := leaf.New("FreshService", store, rec, logger, m)
		warehouse.RegisterOrderServer(server, svc)
		healthServer.RegisterChecker(health.NewStoreChecker("inventory", func(ctx context.Context) error {
			if store.Categories() == 0 {
				return fmt.Errorf("inventory store is empty")
			}
			return nil
		}))

	case "appliance":
		listen = cfg.Mesh.Appliance.ListenAddress
		rec, err := newRecorder()
		if err != nil {
			return err
		}
		store := inventory.NewWithSeed(inventory.ApplianceSeed())
		svc := leaf.New("ApplianceService", store, rec, logger, m)
		warehouse.RegisterOrderServer(server, svc)
		healthServer.RegisterChecker(health.NewStoreChecker("inventory", func(ctx context.Context) error {
			if store.Categories() == 0 {
				return fmt.Errorf("inventory store is empty")
			}
			return nil
		}))

	case "logger":
		listen = cfg.Mesh.Logger.ListenAddress
		snapStore, err := logsvc.NewSnapshotStore(cfg.Mesh.Logger.SnapshotPath)
		if err != nil {
			return fmt.Errorf("open snapshot store: %w", err)
		}
		agg := logsvc.New(snapStore, logger, m)
		warehouse.RegisterLoggerServer(server, agg)
		gs.RegisterHook(reliability.PhasePersistState, func(ctx context.Context) error {
			agg.Close()
			return nil
		})
		healthServer.RegisterChecker(health.NewDiskSpaceChecker("snapshot-disk", ".", 1, 90))
	}

	if listenOverride != "" {
		listen = listenOverride
	}

	lis, err := net.Listen("tcp", listen)
	if err != nil {
		return fmt.Errorf("listen %s: %w", listen, err)
	}

	// Metrics and health endpoints share one HTTP server per role.
	if cfg.Mesh.Monitoring.EnablePrometheus {
		metricsAddr := fmt.Sprintf(":%d", cfg.Mesh.Monitoring.PrometheusPort+metricsPortOffset[role])
		ms := metrics.ServeMetrics(metricsAddr, registry, healthServer, logger)
		gs.RegisterHook(reliability.PhaseCloseResources, ms.Shutdown)
	}

	gs.RegisterHook(reliability.PhaseDrainConnections, func(ctx context.Context) error {
		done := make(chan struct{})
		go func() {
			server.GracefulStop()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			server.Stop()
			return fmt.Errorf("drain timed out, forced stop: %w", ctx.Err())
		}
	})
	gs.RegisterHook(reliability.PhaseCloseResources, func(ctx context.Context) error {
		return log.Sync()
	})

	serveErr := make(chan error, 1)
	reliability.SafeGo("grpc-serve", func() {
		logger.Info("service listening",
			zap.String("role", role),
			zap.String("addr", lis.Addr().String()))
		if err := server.Serve(lis); err != nil {
			serveErr <- err
		}
	})

	shutdownDone := make(chan struct{})
	go func() {
		gs.Wait()
		close(shutdownDone)
	}()

	select {
	case err := <-serveErr:
		gs.Shutdown()
		return err
	case <-shutdownDone:
		return nil
	}
}
