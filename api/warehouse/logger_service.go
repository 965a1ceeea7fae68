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

// LoggerServiceName gRPC 服务全名
const LoggerServiceName = "warehouse.LoggerService"

// LoggerServer 日志聚合服务端接口
type LoggerServer interface {
	LogOperation(ctx context.Context, req *LogRequest) (*LogResponse, error)
	QueryLogs(ctx context.Context, req *QueryLogsRequest) (*QueryLogsResponse, error)
	GetStats(ctx context.Context, req *StatsRequest) (*StatsResponse, error)
}

// RegisterLoggerServer 注册 LoggerService 到 gRPC server
func RegisterLoggerServer(s grpc.ServiceRegistrar, srv LoggerServer) {
	s.RegisterService(&LoggerServiceDesc, srv)
}

// LoggerServiceDesc 手工维护的服务描述表
var LoggerServiceDesc = grpc.ServiceDesc{
	ServiceName: LoggerServiceName,
	HandlerType: (*LoggerServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "LogOperation", Handler: loggerLogOperationHandler},
		{MethodName: "QueryLogs", Handler: loggerQueryLogsHandler},
		{MethodName: "GetStats", Handler: loggerGetStatsHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "warehouse",
}

func loggerLogOperationHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(LogRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LoggerServer).LogOperation(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + LoggerServiceName + "/LogOperation"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LoggerServer).LogOperation(ctx, req.(*LogRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func loggerQueryLogsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(QueryLogsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LoggerServer).QueryLogs(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + LoggerServiceName + "/QueryLogs"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LoggerServer).QueryLogs(ctx, req.(*QueryLogsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func loggerGetStatsHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(StatsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LoggerServer).GetStats(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: "/" + LoggerServiceName + "/GetStats"}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(LoggerServer).GetStats(ctx, req.(*StatsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// LoggerClient 日志聚合客户端
type LoggerClient struct {
	cc grpc.ClientConnInterface
}

// NewLoggerClient creates a logger client over an established conn.
func NewLoggerClient(cc grpc.ClientConnInterface) *LoggerClient {
	return &LoggerClient{cc: cc}
}

func (c *LoggerClient) LogOperation(ctx context.Context, in *LogRequest, opts ...grpc.CallOption) (*LogResponse, error) {
	out := new(LogResponse)
	if err := c.cc.Invoke(ctx, "/"+LoggerServiceName+"/LogOperation", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LoggerClient) QueryLogs(ctx context.Context, in *QueryLogsRequest, opts ...grpc.CallOption) (*QueryLogsResponse, error) {
	out := new(QueryLogsResponse)
	if err := c.cc.Invoke(ctx, "/"+LoggerServiceName+"/QueryLogs", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *LoggerClient) GetStats(ctx context.Context, in *StatsRequest, opts ...grpc.CallOption) (*StatsResponse, error) {
	out := new(StatsResponse)
	if err := c.cc.Invoke(ctx, "/"+LoggerServiceName+"/GetStats", in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
