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

// Package gateway implements the mesh entry point. Each request is
// classified by its category into one of the mid-tier forwarding
// services and passed through unchanged. Routing is total: an unknown
// category goes to the configured default tier, never to an error.
package gateway

import (
	"context"
	"strings"

	"warehouseMesh/api/warehouse"
	"warehouseMesh/internal/logclient"
	"warehouseMesh/pkg/log"
	"warehouseMesh/pkg/metrics"

	"go.uber.org/zap"
	"google.golang.org/grpc/peer"
)

// Tier 路由目标
type Tier string

const (
	TierFood        Tier = "food"
	TierElectronics Tier = "electronics"
)

// foodCategories / electronicsCategories 固定的类别划分（合同给定）
var (
	foodCategories = map[string]struct{}{
		"food": {}, "fruits": {}, "vegetables": {}, "fresh": {},
	}
	electronicsCategories = map[string]struct{}{
		"electronics": {}, "appliance": {}, "kitchen": {}, "living": {},
	}
)

// Router 顶层网关。持有到两个中层服务的长连接客户端，
// 按 category 分类后原样转发，失败时替换为兜底响应。
type Router struct {
	name        string
	food        *warehouse.OrderClient
	electronics *warehouse.OrderClient
	defaultTier Tier
	recorder    logclient.Recorder
	logger      *zap.Logger
	metrics     *metrics.Metrics
}

// New creates the gateway router. defaultTier receives every category
// that matches neither partition.
func New(name string, food, electronics *warehouse.OrderClient, defaultTier Tier, recorder logclient.Recorder, logger *zap.Logger, m *metrics.Metrics) *Router {
	if defaultTier != TierFood {
		defaultTier = TierElectronics
	}
	return &Router{
		name:        name,
		food:        food,
		electronics: electronics,
		defaultTier: defaultTier,
		recorder:    recorder,
		logger:      logger,
		metrics:     m,
	}
}

var _ warehouse.OrderServer = (*Router)(nil)

// Classify 把类别映射到目标层。大小写不敏感，总是有结果。
func (r *Router) Classify(category string) Tier {
	c := strings.ToLower(category)
	if _, ok := foodCategories[c]; ok {
		return TierFood
	}
	if _, ok := electronicsCategories[c]; ok {
		return TierElectronics
	}
	return r.defaultTier
}

func (r *Router) route(category string) (*warehouse.OrderClient, Tier) {
	tier := r.Classify(category)
	if tier == TierFood {
		return r.food, tier
	}
	return r.electronics, tier
}

func (r *Router) PlaceOrder(ctx context.Context, req *warehouse.OrderRequest) (*warehouse.OrderResponse, error) {
	next, tier := r.route(req.Category)
	r.logRoute("PlaceOrder", req.Category, tier)
	resp, err := warehouse.Relay(ctx, r.logger, "PlaceOrder", warehouse.OrderFallback,
		func(ctx context.Context) (*warehouse.OrderResponse, error) {
			return next.PlaceOrder(ctx, req)
		})
	r.observe(ctx, "PlaceOrder", tier, resp.Status == warehouse.StatusOK, req, resp)
	return resp, err
}

func (r *Router) PutItem(ctx context.Context, req *warehouse.PutItemRequest) (*warehouse.PutItemResponse, error) {
	next, tier := r.route(req.Category)
	r.logRoute("PutItem", req.Category, tier)
	resp, err := warehouse.Relay(ctx, r.logger, "PutItem", warehouse.PutItemFallback,
		func(ctx context.Context) (*warehouse.PutItemResponse, error) {
			return next.PutItem(ctx, req)
		})
	r.observe(ctx, "PutItem", tier, resp.Success, req, resp)
	return resp, err
}

func (r *Router) GetItem(ctx context.Context, req *warehouse.GetItemRequest) (*warehouse.GetItemResponse, error) {
	next, tier := r.route(req.Category)
	r.logRoute("GetItem", req.Category, tier)
	resp, err := warehouse.Relay(ctx, r.logger, "GetItem", warehouse.GetItemFallback,
		func(ctx context.Context) (*warehouse.GetItemResponse, error) {
			return next.GetItem(ctx, req)
		})
	r.observe(ctx, "GetItem", tier, resp.Success, req, resp)
	return resp, err
}

func (r *Router) UpdateItem(ctx context.Context, req *warehouse.UpdateItemRequest) (*warehouse.UpdateItemResponse, error) {
	next, tier := r.route(req.Category)
	r.logRoute("UpdateItem", req.Category, tier)
	resp, err := warehouse.Relay(ctx, r.logger, "UpdateItem", warehouse.UpdateItemFallback,
		func(ctx context.Context) (*warehouse.UpdateItemResponse, error) {
			return next.UpdateItem(ctx, req)
		})
	r.observe(ctx, "UpdateItem", tier, resp.Success, req, resp)
	return resp, err
}

func (r *Router) ListItems(ctx context.Context, req *warehouse.ListItemsRequest) (*warehouse.ListItemsResponse, error) {
	next, tier := r.route(req.Category)
	r.logRoute("ListItems", req.Category, tier)
	resp, err := warehouse.Relay(ctx, r.logger, "ListItems", warehouse.ListItemsFallback,
		func(ctx context.Context) (*warehouse.ListItemsResponse, error) {
			return next.ListItems(ctx, req)
		})
	r.observe(ctx, "ListItems", tier, true, req, resp)
	return resp, err
}

func (r *Router) logRoute(op, category string, tier Tier) {
	r.logger.Debug("routing request",
		log.Operation(op),
		log.Category(category),
		log.Tier(string(tier)))
	if r.metrics != nil {
		r.metrics.RecordRoute(string(tier))
	}
}

func (r *Router) observe(ctx context.Context, op string, tier Tier, success bool, req, resp interface{}) {
	ip := "unknown"
	if p, ok := peer.FromContext(ctx); ok {
		ip = p.Addr.String()
	}
	r.recorder.Record(logclient.Record{
		Service:   r.name,
		Operation: op,
		ClientIP:  ip,
		Success:   success,
		Request:   req,
		Response:  resp,
	})
}

