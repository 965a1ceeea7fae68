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

// Package logsvc implements the log aggregator: a capped in-memory
// buffer of operation records fed by every tier of the mesh, persisted
// as a full JSON snapshot on each append, with filtered queries and
// derived statistics. The buffer is the only mesh state behind an
// explicit lock; persistence runs outside the critical section.
package logsvc

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"warehouseMesh/api/warehouse"
	"warehouseMesh/pkg/metrics"
	"warehouseMesh/pkg/reliability"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxEntries 缓冲区容量：最多保留最近 1000 条，先进先出淘汰
const MaxEntries = 1000

// DefaultQueryLimit QueryLogs 未指定 limit 时的默认页大小
const DefaultQueryLimit = 50

// timestampLayout 固定宽度小数秒，保证字符串序即时间序
const timestampLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Entry 缓冲区内的日志条目，生成后不可变
type Entry struct {
	ID        string                 `json:"id"`
	Timestamp string                 `json:"timestamp"`
	Service   string                 `json:"service"`
	Operation string                 `json:"operation"`
	ClientIP  string                 `json:"client_ip"`
	Success   bool                   `json:"success"`
	Request   map[string]interface{} `json:"request"`
	Response  map[string]interface{} `json:"response"`
	Error     string                 `json:"error,omitempty"`
}

// Aggregator 日志聚合服务。entries 只在 mu 下读写；快照持久化由
// 独立协程完成，不持锁，也不保证与后续追加的先后次序——磁盘上的
// 文件只是最终一致的快照。
type Aggregator struct {
	mu      sync.Mutex
	entries []Entry

	store   *SnapshotStore
	flushC  chan struct{}
	done    chan struct{}
	stopped chan struct{}

	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// New creates the aggregator, loading any existing snapshot from store.
// store may be nil to run purely in memory (tests).
func New(store *SnapshotStore, logger *zap.Logger, m *metrics.Metrics) *Aggregator {
	a := &Aggregator{
		store:   store,
		flushC:  make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
		logger:  logger,
		metrics: m,
		now:     time.Now,
	}

	if store != nil {
		entries, err := store.Load()
		if err != nil {
			logger.Warn("snapshot load failed, starting with empty buffer", zap.Error(err))
		} else if len(entries) > 0 {
			if len(entries) > MaxEntries {
				entries = entries[len(entries)-MaxEntries:]
			}
			a.entries = entries
			logger.Info("loaded existing log snapshot", zap.Int("entries", len(entries)))
		}
	}

	reliability.SafeGo("logsvc-flusher", a.flushLoop)
	return a
}

var _ warehouse.LoggerServer = (*Aggregator)(nil)

// LogOperation 追加一条日志并触发异步持久化。载荷尽力解析，
// 非法 JSON 包装为 {"raw": ...} 而不是拒绝。持久化失败不影响本 RPC。
func (a *Aggregator) LogOperation(ctx context.Context, req *warehouse.LogRequest) (*warehouse.LogResponse, error) {
	entry := Entry{
		ID:        uuid.NewString(),
		Timestamp: a.now().Format(timestampLayout),
		Service:   req.ServiceName,
		Operation: req.Operation,
		ClientIP:  req.ClientIP,
		Success:   req.Success,
		Request:   parsePayload(req.RequestData),
		Response:  parsePayload(req.ResponseData),
		Error:     req.ErrorMessage,
	}

	a.mu.Lock()
	a.entries = append(a.entries, entry)
	if len(a.entries) > MaxEntries {
		a.entries = a.entries[len(a.entries)-MaxEntries:]
	}
	size := len(a.entries)
	a.mu.Unlock()

	if a.metrics != nil {
		a.metrics.RecordLogEntry(size)
	}
	a.requestFlush()

	return &warehouse.LogResponse{Success: true, Message: "Log recorded successfully"}, nil
}

// QueryLogs 快照后过滤：按服务名/操作名做等值过滤，时间降序，
// 截断到 limit。TotalCount 是截断前的命中数。
func (a *Aggregator) QueryLogs(ctx context.Context, req *warehouse.QueryLogsRequest) (*warehouse.QueryLogsResponse, error) {
	snapshot := a.snapshot()

	filtered := snapshot[:0:0]
	for _, e := range snapshot {
		if req.ServiceName != "" && e.Service != req.ServiceName {
			continue
		}
		if req.Operation != "" && e.Operation != req.Operation {
			continue
		}
		filtered = append(filtered, e)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].Timestamp > filtered[j].Timestamp
	})

	total := len(filtered)
	limit := int(req.Limit)
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	if len(filtered) > limit {
		filtered = filtered[:limit]
	}

	logs := make([]*warehouse.LogEntry, 0, len(filtered))
	for _, e := range filtered {
		logs = append(logs, &warehouse.LogEntry{
			Timestamp:    e.Timestamp,
			ServiceName:  e.Service,
			Operation:    e.Operation,
			ClientIP:     e.ClientIP,
			Success:      e.Success,
			RequestData:  marshalPayload(e.Request),
			ResponseData: marshalPayload(e.Response),
			ErrorMessage: e.Error,
		})
	}

	a.logger.Debug("query logs",
		zap.String("service_filter", req.ServiceName),
		zap.String("operation_filter", req.Operation),
		zap.Int("matched", total),
		zap.Int("returned", len(logs)))

	return &warehouse.QueryLogsResponse{Logs: logs, TotalCount: int32(total)}, nil
}

// GetStats 从缓冲区的时点快照推导统计；空缓冲区的成功率为 0。
func (a *Aggregator) GetStats(ctx context.Context, req *warehouse.StatsRequest) (*warehouse.StatsResponse, error) {
	snapshot := a.snapshot()

	var successful int64
	byService := make(map[string]*warehouse.ServiceStats)
	byOperation := make(map[string]*warehouse.OperationStats)

	for _, e := range snapshot {
		if e.Success {
			successful++
		}

		ss, ok := byService[e.Service]
		if !ok {
			ss = &warehouse.ServiceStats{ServiceName: e.Service}
			byService[e.Service] = ss
		}
		ss.Total++
		if e.Success {
			ss.Success++
		} else {
			ss.Failed++
		}

		os, ok := byOperation[e.Operation]
		if !ok {
			os = &warehouse.OperationStats{Operation: e.Operation}
			byOperation[e.Operation] = os
		}
		os.Total++
		if e.Success {
			os.Success++
		} else {
			os.Failed++
		}
	}

	total := int64(len(snapshot))
	resp := &warehouse.StatsResponse{
		TotalOperations:      total,
		SuccessfulOperations: successful,
		FailedOperations:     total - successful,
		SuccessRate:          rate(successful, total),
		ServiceStats:         make([]*warehouse.ServiceStats, 0, len(byService)),
		OperationStats:       make([]*warehouse.OperationStats, 0, len(byOperation)),
	}

	for _, ss := range byService {
		ss.SuccessRate = rate(ss.Success, ss.Total)
		resp.ServiceStats = append(resp.ServiceStats, ss)
	}
	for _, os := range byOperation {
		os.SuccessRate = rate(os.Success, os.Total)
		resp.OperationStats = append(resp.OperationStats, os)
	}

	// 稳定输出顺序，方便消费端与测试
	sort.Slice(resp.ServiceStats, func(i, j int) bool {
		return resp.ServiceStats[i].ServiceName < resp.ServiceStats[j].ServiceName
	})
	sort.Slice(resp.OperationStats, func(i, j int) bool {
		return resp.OperationStats[i].Operation < resp.OperationStats[j].Operation
	})

	return resp, nil
}

// Close 停止后台刷盘协程并做最后一次同步快照
func (a *Aggregator) Close() {
	select {
	case <-a.done:
		return
	default:
		close(a.done)
	}
	<-a.stopped

	if a.store != nil {
		if err := a.store.Save(a.snapshot()); err != nil {
			a.logger.Warn("final snapshot failed", zap.Error(err))
		}
	}
}

// Len returns the current buffer size.
func (a *Aggregator) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.entries)
}

// snapshot 拷贝缓冲区，锁只护住拷贝本身
func (a *Aggregator) snapshot() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]Entry, len(a.entries))
	copy(out, a.entries)
	return out
}

// requestFlush 合并通知：已有待刷任务时丢弃本次通知
func (a *Aggregator) requestFlush() {
	if a.store == nil {
		return
	}
	select {
	case a.flushC <- struct{}{}:
	default:
	}
}

// flushLoop 后台持久化协程。写盘在锁外进行，与后续追加之间没有
// 顺序保证，磁盘文件是尽力而为的最终一致快照。
func (a *Aggregator) flushLoop() {
	defer close(a.stopped)

	for {
		select {
		case <-a.flushC:
			if a.store == nil {
				continue
			}
			if err := a.store.Save(a.snapshot()); err != nil {
				a.logger.Warn("snapshot persist failed", zap.Error(err))
				if a.metrics != nil {
					a.metrics.RecordSnapshotFailure()
				}
			}
		case <-a.done:
			return
		}
	}
}

func rate(success, total int64) float64 {
	if total == 0 {
		return 0
	}
	return float64(success) / float64(total) * 100
}

// parsePayload 尽力解析不透明载荷；解析失败时包装原始文本
func parsePayload(data string) map[string]interface{} {
	if data == "" {
		return map[string]interface{}{}
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(data), &m); err != nil {
		return map[string]interface{}{"raw": data}
	}
	return m
}

func marshalPayload(m map[string]interface{}) string {
	data, err := json.Marshal(m)
	if err != nil {
		return "{}"
	}
	return string(data)
}
