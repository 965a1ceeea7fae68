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

	"google.golang.org/grpc"
)

// OrderServiceName gRPC 服务全名
const OrderServiceName = "warehouse.OrderService"

// OrderServer 仓库操作服务端接口。网关、中层转发服务和叶子服务
// 都实现同一个接口，请求沿层级原样下传。
type OrderServer interface {
	PlaceOrder(ctx context.Context, req *OrderRequest) (*OrderResponse, error)
	PutItem(ctx context.Context, req *PutItemRequest) (*PutItemResponse, error)
	GetItem(ctx context.Context, req *GetItemRequest) (*GetItemResponse, error)
	UpdateItem(ctx context.Context, req *UpdateItemRequest) (*UpdateItemResponse, error)
	ListItems(ctx context.Context, req *ListItemsRequest) (*ListItemsResponse, error)
}

// RegisterOrderServer 注册 OrderService 到 gRPC server
func RegisterOrderServer(s grpc.ServiceRegistrar, srv OrderServer) {
	s.RegisterService(&OrderServiceDesc, srv)
}

// OrderServiceDesc 手工维护的服务描述表（契约由外部给定，仓库内不做 codegen）
var OrderServiceDesc = grpc.ServiceDesc{
	ServiceName: OrderServiceName,
	HandlerType: (*OrderServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceOrder", Handler: orderPlaceOrderHandler},
		{MethodName: "PutItem", Handler: orderPutItemHandler},
		{MethodName: "GetItem", Handler: orderGetItemHandler},
		{MethodName: "UpdateItem", Handler: orderUpdateItemHandler},
		{MethodName: "ListItems", Handler: orderListItemsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "warehouse",
}

func orderPlaceOrderHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(OrderRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).PlaceOrder(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + OrderServiceName + "/PlaceOrder"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderServer).PlaceOrder(ctx, req.(*OrderRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func orderPutItemHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(PutItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).PutItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + OrderServiceName + "/PutItem"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderServer).PutItem(ctx, req.(*PutItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func orderGetItemHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).GetItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + OrderServiceName + "/GetItem"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderServer).GetItem(ctx, req.(*GetItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func orderUpdateItemHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(UpdateItemRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).UpdateItem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + OrderServiceName + "/UpdateItem"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderServer).UpdateItem(ctx, req.(*UpdateItemRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func orderListItemsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListItemsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(OrderServer).ListItems(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + OrderServiceName + "/ListItems"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(OrderServer).ListItems(ctx, req.(*ListItemsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// OrderClient 仓库操作客户端。包一个长连接，所有工作协程共享。
type OrderClient struct {
	cc grpc.ClientConnInterface
}

// NewOrderClient creates an order client over an established conn.
func NewOrderClient(cc grpc.ClientConnInterface) *OrderClient {
	return &OrderClient{cc: cc}
}

func (c *OrderClient) PlaceOrder(ctx context.Context, in *OrderRequest, opts ...grpc.CallOption) (*OrderResponse, error) {
	out := new(OrderResponse)
	if err := c.cc.Invoke(ctx, "/"+OrderServiceName+"/PlaceOrder", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderClient) PutItem(ctx context.Context, in *PutItemRequest, opts ...grpc.CallOption) (*PutItemResponse, error) {
	out := new(PutItemResponse)
	if err := c.cc.Invoke(ctx, "/"+OrderServiceName+"/PutItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderClient) GetItem(ctx context.Context, in *GetItemRequest, opts ...grpc.CallOption) (*GetItemResponse, error) {
	out := new(GetItemResponse)
	if err := c.cc.Invoke(ctx, "/"+OrderServiceName+"/GetItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderClient) UpdateItem(ctx context.Context, in *UpdateItemRequest, opts ...grpc.CallOption) (*UpdateItemResponse, error) {
	out := new(UpdateItemResponse)
	if err := c.cc.Invoke(ctx, "/"+OrderServiceName+"/UpdateItem", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *OrderClient) ListItems(ctx context.Context, in *ListItemsRequest, opts ...grpc.CallOption) (*ListItemsResponse, error) {
	out := new(ListItemsResponse)
	if err := c.cc.Invoke(ctx, "/"+OrderServiceName+"/ListItems", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
