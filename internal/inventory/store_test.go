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

package inventory

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOne(count int64) *Store {
	return NewWithSeed(map[string]map[string]map[string]int64{
		"fruits": {"apple": {"apple": count}},
	})
}

// TestPlaceOrder 下单路径：成功扣减、售罄、路径不存在
func TestPlaceOrder(t *testing.T) {
	s := seedOne(2)

	status, left := s.PlaceOrder("fruits", "apple", "apple")
	assert.Equal(t, OrderOK, status)
	assert.Equal(t, int64(1), left)

	status, left = s.PlaceOrder("fruits", "apple", "apple")
	assert.Equal(t, OrderOK, status)
	assert.Equal(t, int64(0), left)

	// 库存归零后继续下单
	status, _ = s.PlaceOrder("fruits", "apple", "apple")
	assert.Equal(t, OrderOutOfStock, status)

	// 路径不存在
	status, _ = s.PlaceOrder("fruits", "apple", "durian")
	assert.Equal(t, OrderItemNotFound, status)
	status, _ = s.PlaceOrder("nope", "apple", "apple")
	assert.Equal(t, OrderItemNotFound, status)
}

// TestPlaceOrderCaseInsensitive 键统一小写
func TestPlaceOrderCaseInsensitive(t *testing.T) {
	s := seedOne(1)

	status, _ := s.PlaceOrder("Fruits", "APPLE", "Apple")
	assert.Equal(t, OrderOK, status)
}

// TestPlaceOrderNeverOversells N 件库存下 N+1 个并发订单，
// 成功数必须恰好为 N，计数器不能为负
func TestPlaceOrderNeverOversells(t *testing.T) {
	const stock = 50
	s := seedOne(stock)

	var wg sync.WaitGroup
	results := make(chan OrderStatus, stock+1)
	for i := 0; i < stock+1; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			status, _ := s.PlaceOrder("fruits", "apple", "apple")
			results <- status
		}()
	}
	wg.Wait()
	close(results)

	okCount, soldOut := 0, 0
	for status := range results {
		switch status {
		case OrderOK:
			okCount++
		case OrderOutOfStock:
			soldOut++
		}
	}
	assert.Equal(t, stock, okCount)
	assert.Equal(t, 1, soldOut)

	n, ok := s.Count("fruits", "apple", "apple")
	require.True(t, ok)
	assert.Equal(t, int64(0), n)
}

// TestPutItem 懒创建路径和并发累加
func TestPutItem(t *testing.T) {
	s := New()

	n, ok := s.PutItem("fruits", "apple", "apple")
	require.True(t, ok)
	assert.Equal(t, int64(1), n)

	n, ok = s.PutItem("fruits", "apple", "apple")
	require.True(t, ok)
	assert.Equal(t, int64(2), n)
}

func TestPutItemConcurrent(t *testing.T) {
	s := New()

	const writers = 100
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok := s.PutItem("fruits", "apple", "apple")
			assert.True(t, ok)
		}()
	}
	wg.Wait()

	n, ok := s.Count("fruits", "apple", "apple")
	require.True(t, ok)
	assert.Equal(t, int64(writers), n)
}

// TestPutItemScalarConflict UpdateItem 写入标量后 PutItem 必须失败，
// 不能把标量槽位悄悄还原成计数表
func TestPutItemScalarConflict(t *testing.T) {
	s := New()
	s.UpdateItem("fruits", "apple", "42")

	_, ok := s.PutItem("fruits", "apple", "apple")
	assert.False(t, ok)
}

func TestGetItem(t *testing.T) {
	s := seedOne(1)

	assert.True(t, s.GetItem("fruits", "apple", "apple"))
	// 已扣到零
	assert.False(t, s.GetItem("fruits", "apple", "apple"))
	// 不存在
	assert.False(t, s.GetItem("fruits", "apple", "mango"))
	assert.False(t, s.GetItem("veg", "carrot", "carrot"))
}

// TestUpdateItemDestructive UpdateItem 整体覆盖槽位
func TestUpdateItemDestructive(t *testing.T) {
	s := seedOne(10)

	s.UpdateItem("fruits", "apple", "99")

	// 旧计数表被替换，下单路径消失
	status, _ := s.PlaceOrder("fruits", "apple", "apple")
	assert.Equal(t, OrderItemNotFound, status)

	assert.Equal(t, []string{"99"}, s.ListItems("fruits", "apple"))
}

func TestListItems(t *testing.T) {
	s := NewWithSeed(map[string]map[string]map[string]int64{
		"fruits": {"apple": {"fuji": 3, "gala": 1, "ambrosia": 2}},
	})

	// 计数表返回排序后的条目名
	assert.Equal(t, []string{"ambrosia", "fuji", "gala"}, s.ListItems("fruits", "apple"))

	// 不存在的路径返回空列表而不是 nil
	items := s.ListItems("fruits", "pear")
	require.NotNil(t, items)
	assert.Empty(t, items)
}

// TestSeeds 出厂种子必须覆盖规范场景用到的键路径
func TestSeeds(t *testing.T) {
	fresh := NewWithSeed(FreshSeed())
	n, ok := fresh.Count("fruits", "apple", "apple")
	require.True(t, ok)
	assert.Equal(t, int64(50), n)

	appliance := NewWithSeed(ApplianceSeed())
	n, ok = appliance.Count("kitchen", "refrigerator", "refrigerator")
	require.True(t, ok)
	assert.Equal(t, int64(5), n)
}

// TestMixedConcurrentOps 混合读写没有数据竞争（配合 -race 使用）
func TestMixedConcurrentOps(t *testing.T) {
	s := NewWithSeed(FreshSeed())

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(4)
		go func() {
			defer wg.Done()
			s.PlaceOrder("fruits", "apple", "apple")
		}()
		go func(i int) {
			defer wg.Done()
			s.PutItem("fruits", "banana", fmt.Sprintf("bunch-%d", i))
		}(i)
		go func() {
			defer wg.Done()
			s.ListItems("vegetables", "carrot")
		}()
		go func() {
			defer wg.Done()
			s.GetItem("vegetables", "tomato", "tomato")
		}()
	}
	wg.Wait()
}
