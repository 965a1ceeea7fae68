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
	"fmt"

	"go.uber.org/zap"
)

// Fallback 兜底响应策略。调用下游失败时各层不向上抛传输错误，
// 而是替换为领域级失败响应：传输层错误替换为 "service unavailable"
// 变体，其余意外错误替换为 "error" 变体。网关和中层转发服务共用
// 这一策略，保证对客户端而言 RPC 本身总是成功完成。
type Fallback[T any] struct {
	// Unavailable returns the "service unavailable" variant.
	Unavailable func() T
	// Internal returns the generic "error" variant.
	Internal func() T
}

// Relay invokes call and applies the fallback policy. A transport error
// from the downstream conn yields the unavailable variant; a panic in
// call yields the internal variant. Relay itself never returns an error.
func Relay[T any](ctx context.Context, logger *zap.Logger, op string, fb Fallback[T], call func(context.Context) (T, error)) (resp T, err error) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("relay panic, substituting error response",
				zap.String("operation", op),
				zap.String("panic", fmt.Sprintf("%v", r)))
			resp = fb.Internal()
			err = nil
		}
	}()

	resp, callErr := call(ctx)
	if callErr != nil {
		logger.Warn("downstream call failed, substituting fallback response",
			zap.String("operation", op),
			zap.Error(callErr))
		return fb.Unavailable(), nil
	}
	return resp, nil
}

// Per-operation fallback variants. The payload is always zeroed/empty so
// a failed downstream never leaks stale data to the caller.

// OrderFallback PlaceOrder 的兜底响应
var OrderFallback = Fallback[*OrderResponse]{
	Unavailable: func() *OrderResponse {
		return &OrderResponse{Status: StatusServiceUnavailable, Left: 0}
	},
	Internal: func() *OrderResponse {
		return &OrderResponse{Status: StatusError, Left: 0}
	},
}

// PutItemFallback PutItem 的兜底响应
var PutItemFallback = Fallback[*PutItemResponse]{
	Unavailable: func() *PutItemResponse {
		return &PutItemResponse{Success: false, Message: "Service unavailable"}
	},
	Internal: func() *PutItemResponse {
		return &PutItemResponse{Success: false, Message: "Error: internal failure"}
	},
}

// GetItemFallback GetItem 的兜底响应
var GetItemFallback = Fallback[*GetItemResponse]{
	Unavailable: func() *GetItemResponse {
		return &GetItemResponse{Success: false, Message: "Service unavailable"}
	},
	Internal: func() *GetItemResponse {
		return &GetItemResponse{Success: false, Message: "Error: internal failure"}
	},
}

// UpdateItemFallback UpdateItem 的兜底响应
var UpdateItemFallback = Fallback[*UpdateItemResponse]{
	Unavailable: func() *UpdateItemResponse {
		return &UpdateItemResponse{Success: false, Message: "Service unavailable"}
	},
	Internal: func() *UpdateItemResponse {
		return &UpdateItemResponse{Success: false, Message: "Error: internal failure"}
	},
}

// ListItemsFallback ListItems 的兜底响应（空列表，不是错误）
var ListItemsFallback = Fallback[*ListItemsResponse]{
	Unavailable: func() *ListItemsResponse {
		return &ListItemsResponse{Items: []string{}}
	},
	Internal: func() *ListItemsResponse {
		return &ListItemsResponse{Items: []string{}}
	},
}
