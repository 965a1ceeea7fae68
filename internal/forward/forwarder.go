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

// Package forward implements the stateless mid-tier proxy. Every
// request is passed verbatim to exactly one downstream leaf over a
// long-lived conn; a downstream failure is translated into the
// domain-level fallback response instead of a propagated error.
package forward

import (
	"context"

	"warehouseMesh/api/warehouse"
	"warehouseMesh/internal/logclient"
	"warehouseMesh/pkg/metrics"

	"go.uber.org/zap"
	"google.golang.org/grpc/peer"
)

// Service 中层转发服务。不持有任何库存状态。
type Service struct {
	name     string
	next     *warehouse.OrderClient
	recorder logclient.Recorder
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New creates a forwarding service bound to one downstream leaf client.
func New(name string, next *warehouse.OrderClient, recorder logclient.Recorder, logger *zap.Logger, m *metrics.Metrics) *Service {
	return &Service{
		name:     name,
		next:     next,
		recorder: recorder,
		logger:   logger,
		metrics:  m,
	}
}

var _ warehouse.OrderServer = (*Service)(nil)

func (s *Service) PlaceOrder(ctx context.Context, req *warehouse.OrderRequest) (*warehouse.OrderResponse, error) {
	resp, err := warehouse.Relay(ctx, s.logger, "PlaceOrder", warehouse.OrderFallback,
		func(ctx context.Context) (*warehouse.OrderResponse, error) {
			return s.next.PlaceOrder(ctx, req)
		})
	s.observe(ctx, "PlaceOrder", resp.Status != warehouse.StatusServiceUnavailable && resp.Status != warehouse.StatusError, req, resp)
	return resp, err
}

func (s *Service) PutItem(ctx context.Context, req *warehouse.PutItemRequest) (*warehouse.PutItemResponse, error) {
	resp, err := warehouse.Relay(ctx, s.logger, "PutItem", warehouse.PutItemFallback,
		func(ctx context.Context) (*warehouse.PutItemResponse, error) {
			return s.next.PutItem(ctx, req)
		})
	s.observe(ctx, "PutItem", resp.Success, req, resp)
	return resp, err
}

func (s *Service) GetItem(ctx context.Context, req *warehouse.GetItemRequest) (*warehouse.GetItemResponse, error) {
	resp, err := warehouse.Relay(ctx, s.logger, "GetItem", warehouse.GetItemFallback,
		func(ctx context.Context) (*warehouse.GetItemResponse, error) {
			return s.next.GetItem(ctx, req)
		})
	s.observe(ctx, "GetItem", resp.Success, req, resp)
	return resp, err
}

func (s *Service) UpdateItem(ctx context.Context, req *warehouse.UpdateItemRequest) (*warehouse.UpdateItemResponse, error) {
	resp, err := warehouse.Relay(ctx, s.logger, "UpdateItem", warehouse.UpdateItemFallback,
		func(ctx context.Context) (*warehouse.UpdateItemResponse, error) {
			return s.next.UpdateItem(ctx, req)
		})
	s.observe(ctx, "UpdateItem", resp.Success, req, resp)
	return resp, err
}

func (s *Service) ListItems(ctx context.Context, req *warehouse.ListItemsRequest) (*warehouse.ListItemsResponse, error) {
	resp, err := warehouse.Relay(ctx, s.logger, "ListItems", warehouse.ListItemsFallback,
		func(ctx context.Context) (*warehouse.ListItemsResponse, error) {
			return s.next.ListItems(ctx, req)
		})
	s.observe(ctx, "ListItems", true, req, resp)
	return resp, err
}

// observe 一次转发完成后的统一后处理：指标与日志上报
func (s *Service) observe(ctx context.Context, op string, success bool, req, resp interface{}) {
	if s.metrics != nil && !success {
		s.metrics.RecordForwardFallback(op)
	}

	ip := "unknown"
	if p, ok := peer.FromContext(ctx); ok {
		ip = p.Addr.String()
	}
	s.recorder.Record(logclient.Record{
		Service:   s.name,
		Operation: op,
		ClientIP:  ip,
		Success:   success,
		Request:   req,
		Response:  resp,
	})
}
