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

// Package warehouse defines the wire contract of the warehouse mesh.
// The request/response shapes are an externally-owned contract; the
// message structs and service descriptors here are maintained by hand
// and carried over a JSON codec (see codec.go).
package warehouse

// PlaceOrder response statuses. The status field is a closed enum on
// the wire; every tier must return one of these values.
const (
	StatusOK                 = "ok"
	StatusOutOfStock         = "out of stock"
	StatusItemNotFound       = "item not found"
	StatusServiceUnavailable = "service unavailable"
	StatusError              = "error"
)

// OrderRequest 下单请求（category/subcategory/item 三元组定位一个库存计数器）
type OrderRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Item        string `json:"item"`
}

// OrderResponse 下单响应
type OrderResponse struct {
	Status string `json:"status"`
	Left   int64  `json:"left"`
}

// PutItemRequest 入库请求
type PutItemRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Item        string `json:"item"`
}

// PutItemResponse 入库响应
type PutItemResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// GetItemRequest 出库请求
type GetItemRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Item        string `json:"item"`
}

// GetItemResponse 出库响应
type GetItemResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// UpdateItemRequest 更新请求。Item 字段携带要写入的子类目级数值，
// 语义上是不透明标量而不是条目名（合同如此约定）。
type UpdateItemRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Item        string `json:"item"`
}

// UpdateItemResponse 更新响应
type UpdateItemResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// ListItemsRequest 查询请求
type ListItemsRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
}

// ListItemsResponse 查询响应
type ListItemsResponse struct {
	Items []string `json:"items"`
}

// LogRequest 操作日志上报请求。RequestData/ResponseData 是不透明的
// JSON 文本，聚合端尽力解析，解析失败也不拒绝。
type LogRequest struct {
	ServiceName  string `json:"service_name"`
	Operation    string `json:"operation"`
	ClientIP     string `json:"client_ip"`
	Success      bool   `json:"success"`
	RequestData  string `json:"request_data"`
	ResponseData string `json:"response_data"`
	ErrorMessage string `json:"error_message"`
}

// LogResponse 日志上报响应
type LogResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// QueryLogsRequest 日志查询请求。空字符串字段表示不过滤；
// Limit <= 0 时服务端取默认值。
type QueryLogsRequest struct {
	ServiceName string `json:"service_name"`
	Operation   string `json:"operation"`
	Limit       int32  `json:"limit"`
}

// LogEntry 日志条目（一旦生成不可变）
type LogEntry struct {
	Timestamp    string `json:"timestamp"`
	ServiceName  string `json:"service_name"`
	Operation    string `json:"operation"`
	ClientIP     string `json:"client_ip"`
	Success      bool   `json:"success"`
	RequestData  string `json:"request_data"`
	ResponseData string `json:"response_data"`
	ErrorMessage string `json:"error_message"`
}

// QueryLogsResponse 日志查询响应。TotalCount 为截断前的命中总数。
type QueryLogsResponse struct {
	Logs       []*LogEntry `json:"logs"`
	TotalCount int32       `json:"total_count"`
}

// StatsRequest 统计请求
type StatsRequest struct{}

// ServiceStats 按服务维度的统计
type ServiceStats struct {
	ServiceName string  `json:"service_name"`
	Total       int64   `json:"total"`
	Success     int64   `json:"success"`
	Failed      int64   `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// OperationStats 按操作维度的统计
type OperationStats struct {
	Operation   string  `json:"operation"`
	Total       int64   `json:"total"`
	Success     int64   `json:"success"`
	Failed      int64   `json:"failed"`
	SuccessRate float64 `json:"success_rate"`
}

// StatsResponse 统计响应
type StatsResponse struct {
	TotalOperations      int64             `json:"total_operations"`
	SuccessfulOperations int64             `json:"successful_operations"`
	FailedOperations     int64             `json:"failed_operations"`
	SuccessRate          float64           `json:"success_rate"`
	ServiceStats         []*ServiceStats   `json:"service_stats"`
	OperationStats       []*OperationStats `json:"operation_stats"`
}
