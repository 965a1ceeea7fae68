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

// FreshSeed 生鲜叶子服务的初始库存
func FreshSeed() map[string]map[string]map[string]int64 {
	return map[string]map[string]map[string]int64{
		"fruits": {
			"apple":  {"apple": 50},
			"banana": {"banana": 30},
			"orange": {"orange": 25},
		},
		"vegetables": {
			"carrot":  {"carrot": 40},
			"tomato":  {"tomato": 35},
			"lettuce": {"lettuce": 20},
		},
	}
}

// ApplianceSeed 家电叶子服务的初始库存
func ApplianceSeed() map[string]map[string]map[string]int64 {
	return map[string]map[string]map[string]int64{
		"kitchen": {
			"refrigerator": {"refrigerator": 5},
			"microwave":    {"microwave": 8},
			"dishwasher":   {"dishwasher": 3},
		},
		"living": {
			"tv":           {"tv": 12},
			"sofa":         {"sofa": 6},
			"coffee_table": {"coffee_table": 4},
		},
	}
}
