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

// Package inventory implements the authoritative stock store owned by a
// leaf service. The store is a two-level map of category -> subcategory,
// where each subcategory slot is a tagged variant: either a per-item
// counter map or a single opaque scalar written by UpdateItem. Shape is
// not stable across operation types for the same key; UpdateItem
// overwrites whatever shape is present.
package inventory

import (
	"sort"
	"strings"
	"sync"
)

// OrderStatus 下单结果
type OrderStatus int

const (
	// OrderOK 下单成功，库存已扣减
	OrderOK OrderStatus = iota
	// OrderOutOfStock 条目存在但库存为零
	OrderOutOfStock
	// OrderItemNotFound 路径不存在（或槽位形状不匹配）
	OrderItemNotFound
)

// slotKind 槽位形状
type slotKind int

const (
	kindItems slotKind = iota
	kindScalar
)

// slot 子类目槽位：条目计数表或者标量，二者取一
type slot struct {
	kind   slotKind
	items  map[string]int64
	scalar string
}

// Store 单个领域（生鲜或家电）的库存。所有读写都在一把读写锁下，
// check-then-decrement 是单个临界区，并发下单不会把计数扣成负数。
type Store struct {
	mu   sync.RWMutex
	cats map[string]map[string]*slot
}

// New creates an empty store.
func New() *Store {
	return &Store{cats: make(map[string]map[string]*slot)}
}

// NewWithSeed creates a store pre-populated with per-item counters.
// seed maps category -> subcategory -> item -> count.
func NewWithSeed(seed map[string]map[string]map[string]int64) *Store {
	s := New()
	for cat, subs := range seed {
		cs := make(map[string]*slot, len(subs))
		for sub, items := range subs {
			m := make(map[string]int64, len(items))
			for item, n := range items {
				m[norm(item)] = n
			}
			cs[norm(sub)] = &slot{kind: kindItems, items: m}
		}
		s.cats[norm(cat)] = cs
	}
	return s
}

// norm 键统一小写后查找
func norm(s string) string {
	return strings.ToLower(s)
}

// PlaceOrder decrements the counter at (category, subcategory, item) by
// one unit. The existence check and the decrement happen in one critical
// section so two concurrent orders can never oversell the last unit.
func (s *Store) PlaceOrder(category, subcategory, item string) (OrderStatus, int64) {
	category, subcategory, item = norm(category), norm(subcategory), norm(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.lookup(category, subcategory)
	if sl == nil || sl.kind != kindItems {
		return OrderItemNotFound, 0
	}
	count, ok := sl.items[item]
	if !ok {
		return OrderItemNotFound, 0
	}
	if count <= 0 {
		return OrderOutOfStock, 0
	}
	sl.items[item] = count - 1
	return OrderOK, count - 1
}

// PutItem lazily creates missing containers and increments the target
// counter, creating it at 1 when absent. Returns false when the slot
// already holds a scalar written by UpdateItem; the scalar shape is not
// silently coerced back to a counter map.
func (s *Store) PutItem(category, subcategory, item string) (int64, bool) {
	category, subcategory, item = norm(category), norm(subcategory), norm(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	subs, ok := s.cats[category]
	if !ok {
		subs = make(map[string]*slot)
		s.cats[category] = subs
	}
	sl, ok := subs[subcategory]
	if !ok {
		sl = &slot{kind: kindItems, items: make(map[string]int64)}
		subs[subcategory] = sl
	}
	if sl.kind != kindItems {
		return 0, false
	}
	sl.items[item]++
	return sl.items[item], true
}

// GetItem removes one unit of the item. Fails when the path is absent,
// the slot holds a scalar, or the counter is already at zero.
func (s *Store) GetItem(category, subcategory, item string) bool {
	category, subcategory, item = norm(category), norm(subcategory), norm(item)

	s.mu.Lock()
	defer s.mu.Unlock()

	sl := s.lookup(category, subcategory)
	if sl == nil || sl.kind != kindItems {
		return false
	}
	count, ok := sl.items[item]
	if !ok || count <= 0 {
		return false
	}
	sl.items[item] = count - 1
	return true
}

// UpdateItem unconditionally overwrites the subcategory slot with a
// scalar value, lazily creating containers first. This is destructive:
// a per-item counter map at the same key is replaced wholesale.
func (s *Store) UpdateItem(category, subcategory, value string) {
	category, subcategory = norm(category), norm(subcategory)

	s.mu.Lock()
	defer s.mu.Unlock()

	subs, ok := s.cats[category]
	if !ok {
		subs = make(map[string]*slot)
		s.cats[category] = subs
	}
	subs[subcategory] = &slot{kind: kindScalar, scalar: value}
}

// ListItems returns the current content of the slot: sorted item names
// for a counter map, the single scalar for a scalar slot, and an empty
// list (not an error) for an absent path.
func (s *Store) ListItems(category, subcategory string) []string {
	category, subcategory = norm(category), norm(subcategory)

	s.mu.RLock()
	defer s.mu.RUnlock()

	sl := s.lookup(category, subcategory)
	if sl == nil {
		return []string{}
	}
	if sl.kind == kindScalar {
		return []string{sl.scalar}
	}
	items := make([]string, 0, len(sl.items))
	for item := range sl.items {
		items = append(items, item)
	}
	sort.Strings(items)
	return items
}

// Count returns the counter at the key path, for introspection and tests.
func (s *Store) Count(category, subcategory, item string) (int64, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sl := s.lookup(norm(category), norm(subcategory))
	if sl == nil || sl.kind != kindItems {
		return 0, false
	}
	n, ok := sl.items[norm(item)]
	return n, ok
}

// Categories returns the number of top-level categories in the store.
func (s *Store) Categories() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.cats)
}

// lookup 调用方必须持有 s.mu
func (s *Store) lookup(category, subcategory string) *slot {
	subs, ok := s.cats[category]
	if !ok {
		return nil
	}
	return subs[subcategory]
}
