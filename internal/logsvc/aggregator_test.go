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

package logsvc

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"warehouseMesh/api/warehouse"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newAggregator(t *testing.T) *Aggregator {
	t.Helper()
	logger, _ := zap.NewDevelopment()
	a := New(nil, logger, nil)
	t.Cleanup(a.Close)
	return a
}

// stubClock 单调递增的确定性时钟，保证条目时间戳严格有序
func stubClock(a *Aggregator) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	a.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Millisecond)
	}
}

func logOne(t *testing.T, a *Aggregator, service, op string, success bool) {
	t.Helper()
	resp, err := a.LogOperation(context.Background(), &warehouse.LogRequest{
		ServiceName:  service,
		Operation:    op,
		ClientIP:     "127.0.0.1",
		Success:      success,
		RequestData:  `{"category":"fruits"}`,
		ResponseData: `{"status":"ok"}`,
	})
	require.NoError(t, err)
	require.True(t, resp.Success)
}

func TestLogOperationAppends(t *testing.T) {
	a := newAggregator(t)

	logOne(t, a, "FreshService", "PlaceOrder", true)
	assert.Equal(t, 1, a.Len())

	resp, err := a.QueryLogs(context.Background(), &warehouse.QueryLogsRequest{})
	require.NoError(t, err)
	require.Len(t, resp.Logs, 1)
	e := resp.Logs[0]
	assert.Equal(t, "FreshService", e.ServiceName)
	assert.Equal(t, "PlaceOrder", e.Operation)
	assert.Equal(t, "127.0.0.1", e.ClientIP)
	assert.True(t, e.Success)
	assert.JSONEq(t, `{"category":"fruits"}`, e.RequestData)
	assert.NotEmpty(t, e.Timestamp)
}

func TestBufferEvictsOldest(t *testing.T) {
	a := newAggregator(t)
	stubClock(a)

	for i := 0; i < MaxEntries+1; i++ {
		logOne(t, a, "FoodService", fmt.Sprintf("op-%d", i), true)
	}

	assert.Equal(t, MaxEntries, a.Len())

	// 第一条已被淘汰
	resp, err := a.QueryLogs(context.Background(), &warehouse.QueryLogsRequest{Operation: "op-0"})
	require.NoError(t, err)
	assert.Empty(t, resp.Logs)

	resp, err = a.QueryLogs(context.Background(), &warehouse.QueryLogsRequest{Operation: "op-1"})
	require.NoError(t, err)
	assert.Len(t, resp.Logs, 1)
}

func TestQueryLogsFilters(t *testing.T) {
	a := newAggregator(t)
	stubClock(a)

	logOne(t, a, "FreshService", "PlaceOrder", true)
	logOne(t, a, "FreshService", "PutItem", true)
	logOne(t, a, "ApplianceService", "PlaceOrder", false)

	resp, err := a.QueryLogs(context.Background(), &warehouse.QueryLogsRequest{ServiceName: "FreshService"})
	require.NoError(t, err)
	assert.Len(t, resp.Logs, 2)
	assert.Equal(t, int32(2), resp.TotalCount)

	resp, err = a.QueryLogs(context.Background(), &warehouse.QueryLogsRequest{
		ServiceName: "FreshService",
		Operation:   "PutItem",
	})
	require.NoError(t, err)
	require.Len(t, resp.Logs, 1)
	assert.Equal(t, "PutItem", resp.Logs[0].Operation)

	resp, err = a.QueryLogs(context.Background(), &warehouse.QueryLogsRequest{ServiceName: "NoSuchService"})
	require.NoError(t, err)
	assert.Empty(t, resp.Logs)
	assert.Equal(t, int32(0), resp.TotalCount)
}

func TestQueryLogsOrderAndLimit(t *testing.T) {
	a := newAggregator(t)
	stubClock(a)

	for i := 0; i < DefaultQueryLimit+10; i++ {
		logOne(t, a, "FoodService", fmt.Sprintf("op-%d", i), true)
	}

	// 未指定 limit 时默认页大小，TotalCount 为截断前命中数
	resp, err := a.QueryLogs(context.Background(), &warehouse.QueryLogsRequest{})
	require.NoError(t, err)
	assert.Len(t, resp.Logs, DefaultQueryLimit)
	assert.Equal(t, int32(DefaultQueryLimit+10), resp.TotalCount)

	// 时间降序：最新条目排在最前
	assert.Equal(t, fmt.Sprintf("op-%d", DefaultQueryLimit+9), resp.Logs[0].Operation)
	for i := 1; i < len(resp.Logs); i++ {
		assert.GreaterOrEqual(t, resp.Logs[i-1].Timestamp, resp.Logs[i].Timestamp)
	}

	resp, err = a.QueryLogs(context.Background(), &warehouse.QueryLogsRequest{Limit: 3})
	require.NoError(t, err)
	assert.Len(t, resp.Logs, 3)
	assert.Equal(t, int32(DefaultQueryLimit+10), resp.TotalCount)
}

func TestGetStats(t *testing.T) {
	a := newAggregator(t)

	logOne(t, a, "FreshService", "PlaceOrder", true)
	logOne(t, a, "FreshService", "PlaceOrder", true)
	logOne(t, a, "FreshService", "PutItem", false)
	logOne(t, a, "ApplianceService", "PlaceOrder", true)

	resp, err := a.GetStats(context.Background(), &warehouse.StatsRequest{})
	require.NoError(t, err)

	assert.Equal(t, int64(4), resp.TotalOperations)
	assert.Equal(t, int64(3), resp.SuccessfulOperations)
	assert.Equal(t, int64(1), resp.FailedOperations)
	assert.InDelta(t, 75.0, resp.SuccessRate, 0.001)

	require.Len(t, resp.ServiceStats, 2)
	// 按服务名排序
	assert.Equal(t, "ApplianceService", resp.ServiceStats[0].ServiceName)
	assert.Equal(t, "FreshService", resp.ServiceStats[1].ServiceName)
	fresh := resp.ServiceStats[1]
	assert.Equal(t, int64(3), fresh.Total)
	assert.Equal(t, int64(2), fresh.Success)
	assert.Equal(t, int64(1), fresh.Failed)
	assert.InDelta(t, 66.666, fresh.SuccessRate, 0.01)

	require.Len(t, resp.OperationStats, 2)
	assert.Equal(t, "PlaceOrder", resp.OperationStats[0].Operation)
	assert.Equal(t, int64(3), resp.OperationStats[0].Total)
}

func TestGetStatsEmpty(t *testing.T) {
	a := newAggregator(t)

	resp, err := a.GetStats(context.Background(), &warehouse.StatsRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.TotalOperations)
	assert.Equal(t, float64(0), resp.SuccessRate)
	assert.Empty(t, resp.ServiceStats)
	assert.Empty(t, resp.OperationStats)
}

func TestMalformedPayloadWrapped(t *testing.T) {
	a := newAggregator(t)

	resp, err := a.LogOperation(context.Background(), &warehouse.LogRequest{
		ServiceName: "APIGateway",
		Operation:   "PlaceOrder",
		Success:     true,
		RequestData: "not json at all",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	q, err := a.QueryLogs(context.Background(), &warehouse.QueryLogsRequest{})
	require.NoError(t, err)
	require.Len(t, q.Logs, 1)
	assert.JSONEq(t, `{"raw":"not json at all"}`, q.Logs[0].RequestData)
	assert.JSONEq(t, `{}`, q.Logs[0].ResponseData)
}

func TestSnapshotRoundtrip(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	path := filepath.Join(t.TempDir(), "logs", "operation_log.json")

	store, err := NewSnapshotStore(path)
	require.NoError(t, err)

	a := New(store, logger, nil)
	logOne(t, a, "FreshService", "PlaceOrder", true)
	logOne(t, a, "FreshService", "PutItem", false)
	// Close 做最后一次同步快照
	a.Close()

	store2, err := NewSnapshotStore(path)
	require.NoError(t, err)
	entries, err := store2.Load()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "PlaceOrder", entries[0].Operation)
	assert.False(t, entries[1].Success)

	// 重启后从快照恢复
	b := New(store2, logger, nil)
	defer b.Close()
	assert.Equal(t, 2, b.Len())
}

func TestSnapshotLoadMissingFile(t *testing.T) {
	store, err := NewSnapshotStore(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)

	entries, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCloseIdempotent(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	a := New(nil, logger, nil)
	a.Close()
	a.Close()
}
