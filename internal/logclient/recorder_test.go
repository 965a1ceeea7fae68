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

package logclient

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"warehouseMesh/api/warehouse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// stubLogger 可选阻塞的 LoggerServer 桩，记录收到的上报
type stubLogger struct {
	mu       sync.Mutex
	requests []*warehouse.LogRequest

	started chan struct{} // closed on first LogOperation
	release chan struct{} // nil means never block
	once    sync.Once
}

func (s *stubLogger) LogOperation(ctx context.Context, req *warehouse.LogRequest) (*warehouse.LogResponse, error) {
	s.once.Do(func() { close(s.started) })
	if s.release != nil {
		select {
		case <-s.release:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	s.mu.Lock()
	s.requests = append(s.requests, req)
	s.mu.Unlock()
	return &warehouse.LogResponse{Success: true, Message: "Log recorded successfully"}, nil
}

func (s *stubLogger) QueryLogs(ctx context.Context, req *warehouse.QueryLogsRequest) (*warehouse.QueryLogsResponse, error) {
	return &warehouse.QueryLogsResponse{}, nil
}

func (s *stubLogger) GetStats(ctx context.Context, req *warehouse.StatsRequest) (*warehouse.StatsResponse, error) {
	return &warehouse.StatsResponse{}, nil
}

func (s *stubLogger) received() []*warehouse.LogRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*warehouse.LogRequest, len(s.requests))
	copy(out, s.requests)
	return out
}

func startStubLogger(t *testing.T, stub *stubLogger) *warehouse.LoggerClient {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	server := grpc.NewServer()
	warehouse.RegisterLoggerServer(server, stub)
	go server.Serve(lis)
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(),
		warehouse.DialOptions(grpc.WithTransportCredentials(insecure.NewCredentials()))...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return warehouse.NewLoggerClient(conn)
}

func TestQueueRecorderDelivers(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	stub := &stubLogger{started: make(chan struct{})}
	client := startStubLogger(t, stub)

	r := NewQueueRecorder(client, logger, Options{})
	r.Record(Record{
		Service:   "FreshService",
		Operation: "PlaceOrder",
		ClientIP:  "10.0.0.1",
		Success:   true,
		Request:   map[string]string{"category": "fruits"},
	})
	// Close 等待队列排空
	r.Close()

	got := stub.received()
	require.Len(t, got, 1)
	assert.Equal(t, "FreshService", got[0].ServiceName)
	assert.Equal(t, "PlaceOrder", got[0].Operation)
	assert.Equal(t, "10.0.0.1", got[0].ClientIP)
	assert.True(t, got[0].Success)
	assert.JSONEq(t, `{"category":"fruits"}`, got[0].RequestData)
	assert.Equal(t, int64(0), r.Dropped())
}

func TestQueueRecorderDropsOnOverflow(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	stub := &stubLogger{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	client := startStubLogger(t, stub)

	r := NewQueueRecorder(client, logger, Options{
		QueueSize:   1,
		CallTimeout: 10 * time.Second,
	})

	// 第一条被 worker 取走并阻塞在服务端
	r.Record(Record{Service: "FoodService", Operation: "op-0"})
	select {
	case <-stub.started:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never picked up first record")
	}

	// 第二条占满队列，其余全部丢弃
	for i := 1; i <= 4; i++ {
		r.Record(Record{Service: "FoodService", Operation: "op"})
	}
	assert.Equal(t, int64(3), r.Dropped())

	close(stub.release)
	r.Close()

	// 被丢弃的不会到达服务端
	assert.Len(t, stub.received(), 2)
}

func TestQueueRecorderCloseIdempotent(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	stub := &stubLogger{started: make(chan struct{})}
	client := startStubLogger(t, stub)

	r := NewQueueRecorder(client, logger, Options{})
	r.Close()
	r.Close()
}

func TestQueueRecorderSurvivesDeadAggregator(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	conn, err := grpc.NewClient("127.0.0.1:1",
		warehouse.DialOptions(grpc.WithTransportCredentials(insecure.NewCredentials()))...)
	require.NoError(t, err)
	defer conn.Close()

	r := NewQueueRecorder(warehouse.NewLoggerClient(conn), logger, Options{CallTimeout: time.Second})
	r.Record(Record{Service: "APIGateway", Operation: "PlaceOrder"})
	// 投递失败只影响日志，不影响调用方
	r.Close()
}

func TestNopRecorder(t *testing.T) {
	var r Recorder = NopRecorder{}
	r.Record(Record{Service: "x"})
	r.Close()
}
