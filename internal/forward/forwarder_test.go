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

package forward

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"warehouseMesh/api/warehouse"
	"warehouseMesh/internal/inventory"
	"warehouseMesh/internal/leaf"
	"warehouseMesh/internal/logclient"
)

// startLeaf 起一个真实的叶子服务作为下游
func startLeaf(t *testing.T, store *inventory.Store) *grpc.ClientConn {
	t.Helper()

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger, _ := zap.NewDevelopment()
	s := grpc.NewServer()
	warehouse.RegisterOrderServer(s, leaf.New("FreshService", store, logclient.NopRecorder{}, logger, nil))
	go s.Serve(lis)
	t.Cleanup(s.Stop)

	conn, err := grpc.NewClient(lis.Addr().String(), warehouse.DialOptions(
		grpc.WithTransportCredentials(insecure.NewCredentials()))...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func newForwarder(t *testing.T, conn *grpc.ClientConn) *Service {
	logger, _ := zap.NewDevelopment()
	return New("FoodService", warehouse.NewOrderClient(conn), logclient.NopRecorder{}, logger, nil)
}

// recordingRecorder 收集上报记录，供断言用
type recordingRecorder struct {
	mu      sync.Mutex
	records []logclient.Record
}

func (r *recordingRecorder) Record(rec logclient.Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, rec)
}

func (r *recordingRecorder) Close() {}

func (r *recordingRecorder) all() []logclient.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]logclient.Record(nil), r.records...)
}

// TestForwardPassthrough 请求原样下传，响应原样上传
func TestForwardPassthrough(t *testing.T) {
	store := inventory.NewWithSeed(inventory.FreshSeed())
	fwd := newForwarder(t, startLeaf(t, store))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := fwd.PlaceOrder(ctx, &warehouse.OrderRequest{Category: "fruits", Subcategory: "apple", Item: "apple"})
	require.NoError(t, err)
	assert.Equal(t, warehouse.StatusOK, resp.Status)
	assert.Equal(t, int64(49), resp.Left)

	// 叶子侧的领域失败也原样透传，不触发兜底
	resp, err = fwd.PlaceOrder(ctx, &warehouse.OrderRequest{Category: "fruits", Subcategory: "apple", Item: "durian"})
	require.NoError(t, err)
	assert.Equal(t, warehouse.StatusItemNotFound, resp.Status)

	put, err := fwd.PutItem(ctx, &warehouse.PutItemRequest{Category: "fruits", Subcategory: "apple", Item: "fuji"})
	require.NoError(t, err)
	assert.True(t, put.Success)

	list, err := fwd.ListItems(ctx, &warehouse.ListItemsRequest{Category: "fruits", Subcategory: "apple"})
	require.NoError(t, err)
	assert.Contains(t, list.Items, "fuji")
}

// TestForwardFallbackOnDeadLeaf 叶子不可达时替换为兜底响应
func TestForwardFallbackOnDeadLeaf(t *testing.T) {
	conn, err := grpc.NewClient("127.0.0.1:1", warehouse.DialOptions(
		grpc.WithTransportCredentials(insecure.NewCredentials()))...)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	fwd := newForwarder(t, conn)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := fwd.PlaceOrder(ctx, &warehouse.OrderRequest{Category: "fruits", Subcategory: "apple", Item: "apple"})
	require.NoError(t, err)
	assert.Equal(t, warehouse.StatusServiceUnavailable, resp.Status)

	get, err := fwd.GetItem(ctx, &warehouse.GetItemRequest{Category: "fruits", Subcategory: "apple", Item: "apple"})
	require.NoError(t, err)
	assert.False(t, get.Success)

	upd, err := fwd.UpdateItem(ctx, &warehouse.UpdateItemRequest{Category: "fruits", Subcategory: "apple", Item: "5"})
	require.NoError(t, err)
	assert.False(t, upd.Success)

	list, err := fwd.ListItems(ctx, &warehouse.ListItemsRequest{Category: "fruits", Subcategory: "apple"})
	require.NoError(t, err)
	require.NotNil(t, list.Items)
	assert.Empty(t, list.Items)
}

// TestForwardRecordsOperations 每次转发都会生成一条操作记录
func TestForwardRecordsOperations(t *testing.T) {
	store := inventory.NewWithSeed(inventory.FreshSeed())
	rec := &recordingRecorder{}
	logger, _ := zap.NewDevelopment()
	fwd := New("FoodService", warehouse.NewOrderClient(startLeaf(t, store)), rec, logger, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_, err := fwd.PlaceOrder(ctx, &warehouse.OrderRequest{Category: "fruits", Subcategory: "apple", Item: "apple"})
	require.NoError(t, err)

	// 把子类目覆盖成标量后 PutItem 必然失败
	_, err = fwd.UpdateItem(ctx, &warehouse.UpdateItemRequest{Category: "fruits", Subcategory: "pear", Item: "5"})
	require.NoError(t, err)
	_, err = fwd.PutItem(ctx, &warehouse.PutItemRequest{Category: "fruits", Subcategory: "pear", Item: "bosc"})
	require.NoError(t, err)

	records := rec.all()
	require.Len(t, records, 3)
	assert.Equal(t, "FoodService", records[0].Service)
	assert.Equal(t, "PlaceOrder", records[0].Operation)
	assert.True(t, records[0].Success)
	assert.Equal(t, "PutItem", records[2].Operation)
	assert.False(t, records[2].Success)
}
