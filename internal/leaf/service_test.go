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

package leaf

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"warehouseMesh/api/warehouse"
	"warehouseMesh/internal/inventory"
	"warehouseMesh/internal/logclient"
)

func newService(store *inventory.Store) *Service {
	logger, _ := zap.NewDevelopment()
	return New("FreshService", store, logclient.NopRecorder{}, logger, nil)
}

func TestPlaceOrderStatuses(t *testing.T) {
	store := inventory.NewWithSeed(map[string]map[string]map[string]int64{
		"fruits": {"apple": {"apple": 1}},
	})
	svc := newService(store)
	ctx := context.Background()

	resp, err := svc.PlaceOrder(ctx, &warehouse.OrderRequest{Category: "fruits", Subcategory: "apple", Item: "apple"})
	require.NoError(t, err)
	assert.Equal(t, warehouse.StatusOK, resp.Status)
	assert.Equal(t, int64(0), resp.Left)

	resp, err = svc.PlaceOrder(ctx, &warehouse.OrderRequest{Category: "fruits", Subcategory: "apple", Item: "apple"})
	require.NoError(t, err)
	assert.Equal(t, warehouse.StatusOutOfStock, resp.Status)

	resp, err = svc.PlaceOrder(ctx, &warehouse.OrderRequest{Category: "fruits", Subcategory: "apple", Item: "mango"})
	require.NoError(t, err)
	assert.Equal(t, warehouse.StatusItemNotFound, resp.Status)
}

func TestPutItemMessages(t *testing.T) {
	svc := newService(inventory.New())
	ctx := context.Background()

	resp, err := svc.PutItem(ctx, &warehouse.PutItemRequest{Category: "fruits", Subcategory: "apple", Item: "fuji"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Added fuji to fruits/apple", resp.Message)

	// 先覆写成标量，再入库必须拒绝
	_, err = svc.UpdateItem(ctx, &warehouse.UpdateItemRequest{Category: "fruits", Subcategory: "pear", Item: "3"})
	require.NoError(t, err)

	resp, err = svc.PutItem(ctx, &warehouse.PutItemRequest{Category: "fruits", Subcategory: "pear", Item: "bosc"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Message, "scalar")
}

func TestGetItemMessages(t *testing.T) {
	store := inventory.NewWithSeed(map[string]map[string]map[string]int64{
		"fruits": {"apple": {"apple": 1}},
	})
	svc := newService(store)
	ctx := context.Background()

	resp, err := svc.GetItem(ctx, &warehouse.GetItemRequest{Category: "fruits", Subcategory: "apple", Item: "apple"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Retrieved apple from fruits/apple", resp.Message)

	resp, err = svc.GetItem(ctx, &warehouse.GetItemRequest{Category: "fruits", Subcategory: "apple", Item: "apple"})
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, "Item not available", resp.Message)
}

func TestUpdateItemOverwrites(t *testing.T) {
	store := inventory.NewWithSeed(map[string]map[string]map[string]int64{
		"fruits": {"apple": {"apple": 10}},
	})
	svc := newService(store)
	ctx := context.Background()

	resp, err := svc.UpdateItem(ctx, &warehouse.UpdateItemRequest{Category: "fruits", Subcategory: "apple", Item: "99"})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "Updated fruits/apple to 99", resp.Message)

	// 原来的计数表被整体替换
	list, err := svc.ListItems(ctx, &warehouse.ListItemsRequest{Category: "fruits", Subcategory: "apple"})
	require.NoError(t, err)
	assert.Equal(t, []string{"99"}, list.Items)
}

func TestListItemsEmptyPath(t *testing.T) {
	svc := newService(inventory.New())

	resp, err := svc.ListItems(context.Background(), &warehouse.ListItemsRequest{Category: "nope", Subcategory: "nothing"})
	require.NoError(t, err)
	require.NotNil(t, resp.Items)
	assert.Empty(t, resp.Items)
}
