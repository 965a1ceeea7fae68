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

// Package leaf exposes one inventory store over the warehouse order
// contract. This is the bottom tier: there is no further forwarding,
// every call is a single read-modify-write on the store.
package leaf

import (
	"context"
	"fmt"

	"warehouseMesh/api/warehouse"
	"warehouseMesh/internal/inventory"
	"warehouseMesh/internal/logclient"
	"warehouseMesh/pkg/metrics"

	"go.uber.org/zap"
	"google.golang.org/grpc/peer"
)

// Service 叶子服务：持有权威库存，处理全部五种仓库操作。
// 每个方法最外层兜住 panic 并转换为 "error" 响应，单个坏请求
// 不会让服务崩溃或污染工作协程。
type Service struct {
	name     string
	store    *inventory.Store
	recorder logclient.Recorder
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New creates a leaf service. recorder may be a NopRecorder; metrics may
// be nil when monitoring is disabled.
func New(name string, store *inventory.Store, recorder logclient.Recorder, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		name:     name,
		store:    store,
		recorder: recorder,
		logger:   logger,
		metrics:  m,
	}
}

var _ warehouse.OrderServer = (*Service)(nil)

// PlaceOrder 扣减库存。检查与扣减在存储层同一临界区内完成。
func (s *Service) PlaceOrder(ctx context.Context, req *warehouse.OrderRequest) (resp *warehouse.OrderResponse, err error) {
	defer s.recoverOrder(&resp)

	status, left := s.store.PlaceOrder(req.Category, req.Subcategory, req.Item)
	switch status {
	case inventory.OrderOK:
		resp = &warehouse.OrderResponse{Status: warehouse.StatusOK, Left: left}
	case inventory.OrderOutOfStock:
		resp = &warehouse.OrderResponse{Status: warehouse.StatusOutOfStock, Left: 0}
	default:
		resp = &warehouse.OrderResponse{Status: warehouse.StatusItemNotFound, Left: 0}
	}

	s.logger.Info("place order",
		zap.String("category", req.Category),
		zap.String("subcategory", req.Subcategory),
		zap.String("item", req.Item),
		zap.String("status", resp.Status),
		zap.Int64("left", resp.Left))
	if s.metrics != nil {
		s.metrics.RecordOrder(resp.Status)
	}

	s.record(ctx, "PlaceOrder", resp.Status == warehouse.StatusOK, req, resp, "")
	return resp, nil
}

// PutItem 入库，按需创建缺失的类目容器。
func (s *Service) PutItem(ctx context.Context, req *warehouse.PutItemRequest) (resp *warehouse.PutItemResponse, err error) {
	defer s.recoverPut(&resp)

	if _, ok := s.store.PutItem(req.Category, req.Subcategory, req.Item); !ok {
		resp = &warehouse.PutItemResponse{
			Success: false,
			Message: fmt.Sprintf("Error: %s/%s holds a scalar value", req.Category, req.Subcategory),
		}
	} else {
		resp = &warehouse.PutItemResponse{
			Success: true,
			Message: fmt.Sprintf("Added %s to %s/%s", req.Item, req.Category, req.Subcategory),
		}
	}

	s.logger.Info("put item",
		zap.String("category", req.Category),
		zap.String("subcategory", req.Subcategory),
		zap.String("item", req.Item),
		zap.Bool("success", resp.Success))
	if s.metrics != nil {
		s.metrics.RecordInventoryOp("PutItem", resp.Success)
	}

	s.record(ctx, "PutItem", resp.Success, req, resp, "")
	return resp, nil
}

// GetItem 出库：等价于一次扣减，但以 success/message 语义返回。
func (s *Service) GetItem(ctx context.Context, req *warehouse.GetItemRequest) (resp *warehouse.GetItemResponse, err error) {
	defer s.recoverGet(&resp)

	if s.store.GetItem(req.Category, req.Subcategory, req.Item) {
		resp = &warehouse.GetItemResponse{
			Success: true,
			Message: fmt.Sprintf("Retrieved %s from %s/%s", req.Item, req.Category, req.Subcategory),
		}
	} else {
		resp = &warehouse.GetItemResponse{
			Success: false,
			Message: "Item not available",
		}
	}

	s.logger.Info("get item",
		zap.String("category", req.Category),
		zap.String("subcategory", req.Subcategory),
		zap.String("item", req.Item),
		zap.Bool("success", resp.Success))
	if s.metrics != nil {
		s.metrics.RecordInventoryOp("GetItem", resp.Success)
	}

	s.record(ctx, "GetItem", resp.Success, req, resp, "")
	return resp, nil
}

// UpdateItem 覆写子类目槽位为标量值。破坏性操作：同一键上的
// 条目计数表会被整体替换，调用方不能依赖形状稳定。
func (s *Service) UpdateItem(ctx context.Context, req *warehouse.UpdateItemRequest) (resp *warehouse.UpdateItemResponse, err error) {
	defer s.recoverUpdate(&resp)

	s.store.UpdateItem(req.Category, req.Subcategory, req.Item)
	resp = &warehouse.UpdateItemResponse{
		Success: true,
		Message: fmt.Sprintf("Updated %s/%s to %s", req.Category, req.Subcategory, req.Item),
	}

	s.logger.Info("update item",
		zap.String("category", req.Category),
		zap.String("subcategory", req.Subcategory),
		zap.String("value", req.Item))
	if s.metrics != nil {
		s.metrics.RecordInventoryOp("UpdateItem", true)
	}

	s.record(ctx, "UpdateItem", true, req, resp, "")
	return resp, nil
}

// ListItems 返回路径下的当前内容；路径不存在返回空列表而不是错误。
func (s *Service) ListItems(ctx context.Context, req *warehouse.ListItemsRequest) (resp *warehouse.ListItemsResponse, err error) {
	defer s.recoverList(&resp)

	items := s.store.ListItems(req.Category, req.Subcategory)
	resp = &warehouse.ListItemsResponse{Items: items}

	s.logger.Info("list items",
		zap.String("category", req.Category),
		zap.String("subcategory", req.Subcategory),
		zap.Int("count", len(items)))
	if s.metrics != nil {
		s.metrics.RecordInventoryOp("ListItems", true)
	}

	s.record(ctx, "ListItems", true, req, resp, "")
	return resp, nil
}

// record 上报操作日志，永不阻塞也永不失败
func (s *Service) record(ctx context.Context, op string, success bool, req, resp interface{}, errMsg string) {
	s.recorder.Record(logclient.Record{
		Service:   s.name,
		Operation: op,
		ClientIP:  clientIP(ctx),
		Success:   success,
		Request:   req,
		Response:  resp,
		Error:     errMsg,
	})
}

func clientIP(ctx context.Context) string {
	if p, ok := peer.FromContext(ctx); ok {
		return p.Addr.String()
	}
	return "unknown"
}

// 各响应类型的 panic 兜底：转换为通用 "error" 变体，不让异常外泄

func (s *Service) recoverOrder(resp **warehouse.OrderResponse) {
	if r := recover(); r != nil {
		s.logPanic("PlaceOrder", r)
		*resp = &warehouse.OrderResponse{Status: warehouse.StatusError, Left: 0}
	}
}

func (s *Service) recoverPut(resp **warehouse.PutItemResponse) {
	if r := recover(); r != nil {
		s.logPanic("PutItem", r)
		*resp = &warehouse.PutItemResponse{Success: false, Message: "Error: internal failure"}
	}
}

func (s *Service) recoverGet(resp **warehouse.GetItemResponse) {
	if r := recover(); r != nil {
		s.logPanic("GetItem", r)
		*resp = &warehouse.GetItemResponse{Success: false, Message: "Error: internal failure"}
	}
}

func (s *Service) recoverUpdate(resp **warehouse.UpdateItemResponse) {
	if r := recover(); r != nil {
		s.logPanic("UpdateItem", r)
		*resp = &warehouse.UpdateItemResponse{Success: false, Message: "Error: internal failure"}
	}
}

func (s *Service) recoverList(resp **warehouse.ListItemsResponse) {
	if r := recover(); r != nil {
		s.logPanic("ListItems", r)
		*resp = &warehouse.ListItemsResponse{Items: []string{}}
	}
}

func (s *Service) logPanic(op string, r interface{}) {
	s.logger.Error("handler panic converted to error response",
		zap.String("operation", op),
		zap.String("panic", fmt.Sprintf("%v", r)))
	if s.metrics != nil {
		s.metrics.RecordPanicRecovered(op)
	}
}
