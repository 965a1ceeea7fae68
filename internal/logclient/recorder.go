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

// Package logclient sends operation records to the log aggregator.
// Records are fire-and-forget: Record never blocks the caller's RPC
// path and a full queue drops the record rather than waiting. The
// recorder is injected into each service at construction time; there is
// no process-global client.
package logclient

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"warehouseMesh/api/warehouse"
	"warehouseMesh/pkg/log"
	"warehouseMesh/pkg/reliability"

	"go.uber.org/zap"
)

// Record 一次操作的日志记录
type Record struct {
	Service   string
	Operation string
	ClientIP  string
	Success   bool
	Request   interface{} // marshaled to the opaque request_data payload
	Response  interface{} // marshaled to the opaque response_data payload
	Error     string
}

// Recorder 日志上报接口，叶子/中层/网关服务构造时注入
type Recorder interface {
	// Record enqueues an operation record. Never blocks, never fails
	// the caller.
	Record(rec Record)
	// Close drains the queue and releases the worker.
	Close()
}

// NopRecorder 空实现，用于测试或未配置日志服务的进程
type NopRecorder struct{}

func (NopRecorder) Record(Record) {}
func (NopRecorder) Close()        {}

// QueueRecorder 带界队列的异步上报器。单个后台协程消费队列并调用
// LoggerService，队列满时丢弃新记录（只计数，不阻塞主链路）。
type QueueRecorder struct {
	client  *warehouse.LoggerClient
	logger  *zap.Logger
	timeout time.Duration

	queue   chan Record
	dropped atomic.Int64

	closeOnce sync.Once
	done      chan struct{}
}

// Options QueueRecorder 可调参数
type Options struct {
	QueueSize   int           // default 256
	CallTimeout time.Duration // default 2s
}

// NewQueueRecorder starts the drain worker and returns the recorder.
func NewQueueRecorder(client *warehouse.LoggerClient, logger *zap.Logger, opts Options) *QueueRecorder {
	if opts.QueueSize <= 0 {
		opts.QueueSize = 256
	}
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = 2 * time.Second
	}

	r := &QueueRecorder{
		client:  client,
		logger:  logger,
		timeout: opts.CallTimeout,
		queue:   make(chan Record, opts.QueueSize),
		done:    make(chan struct{}),
	}

	reliability.SafeGo("logclient-drain", r.drain)
	return r
}

// Record enqueues without blocking; overflow drops the record.
func (r *QueueRecorder) Record(rec Record) {
	select {
	case r.queue <- rec:
	default:
		n := r.dropped.Add(1)
		if n%100 == 1 {
			r.logger.Warn("log queue full, dropping records",
				log.QueueStats(int64(len(r.queue)), int64(cap(r.queue)), n))
		}
	}
}

// Close stops accepting records and waits for the worker to drain.
func (r *QueueRecorder) Close() {
	r.closeOnce.Do(func() {
		close(r.queue)
		<-r.done
	})
}

// Dropped returns how many records were discarded on overflow.
func (r *QueueRecorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *QueueRecorder) drain() {
	defer close(r.done)

	for rec := range r.queue {
		r.send(rec)
	}
}

// send 上报一条记录；任何失败只记日志，绝不向调用方传播
func (r *QueueRecorder) send(rec Record) {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	req := &warehouse.LogRequest{
		ServiceName:  rec.Service,
		Operation:    rec.Operation,
		ClientIP:     rec.ClientIP,
		Success:      rec.Success,
		RequestData:  marshalPayload(rec.Request),
		ResponseData: marshalPayload(rec.Response),
		ErrorMessage: rec.Error,
	}

	resp, err := r.client.LogOperation(ctx, req)
	if err != nil {
		r.logger.Debug("log delivery failed",
			zap.String("service", rec.Service),
			zap.String("operation", rec.Operation),
			zap.Error(err))
		return
	}
	if !resp.Success {
		r.logger.Debug("log rejected by aggregator",
			zap.String("service", rec.Service),
			zap.String("operation", rec.Operation),
			zap.String("message", resp.Message))
	}
}

func marshalPayload(v interface{}) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(data)
}
