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

package warehouse

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestRelaySuccessPassthrough(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	resp, err := Relay(context.Background(), logger, "PlaceOrder", OrderFallback,
		func(ctx context.Context) (*OrderResponse, error) {
			return &OrderResponse{Status: StatusOK, Left: 42}, nil
		})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	assert.Equal(t, int64(42), resp.Left)
}

func TestRelayErrorYieldsUnavailable(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	resp, err := Relay(context.Background(), logger, "PlaceOrder", OrderFallback,
		func(ctx context.Context) (*OrderResponse, error) {
			return nil, errors.New("connection refused")
		})
	// 传输错误不向上抛，替换为领域级失败响应
	require.NoError(t, err)
	assert.Equal(t, StatusServiceUnavailable, resp.Status)
	assert.Equal(t, int64(0), resp.Left)
}

func TestRelayPanicYieldsInternal(t *testing.T) {
	logger, _ := zap.NewDevelopment()

	resp, err := Relay(context.Background(), logger, "PlaceOrder", OrderFallback,
		func(ctx context.Context) (*OrderResponse, error) {
			panic("boom")
		})
	require.NoError(t, err)
	assert.Equal(t, StatusError, resp.Status)
}

func TestFallbackVariants(t *testing.T) {
	put := PutItemFallback.Unavailable()
	assert.False(t, put.Success)
	assert.Equal(t, "Service unavailable", put.Message)

	get := GetItemFallback.Internal()
	assert.False(t, get.Success)
	assert.Equal(t, "Error: internal failure", get.Message)

	upd := UpdateItemFallback.Unavailable()
	assert.False(t, upd.Success)

	// ListItems 的兜底是空列表，不是 nil，也不是错误
	list := ListItemsFallback.Unavailable()
	require.NotNil(t, list.Items)
	assert.Empty(t, list.Items)
	list = ListItemsFallback.Internal()
	require.NotNil(t, list.Items)
	assert.Empty(t, list.Items)
}

func TestJSONCodec(t *testing.T) {
	c := jsonCodec{}
	assert.Equal(t, CodecName, c.Name())

	data, err := c.Marshal(&OrderRequest{Category: "fruits", Subcategory: "apple", Item: "apple"})
	require.NoError(t, err)

	var out OrderRequest
	require.NoError(t, c.Unmarshal(data, &out))
	assert.Equal(t, "fruits", out.Category)
	assert.Equal(t, "apple", out.Item)

	assert.Error(t, c.Unmarshal([]byte("{"), &out))
}
