// Copyright 2026 fanjia1024
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

package builtin

import (
	"context"
	"encoding/json"

	"trip-planner/internal/tool"
)

// tierKeywords 住宿档位到高德搜索关键词的映射
var tierKeywords = map[string]string{
	"economy": "经济型酒店",
	"comfort": "舒适型酒店",
	"luxury":  "豪华型酒店",
}

// HotelSearchTool 实现 hotel.search：按城市与档位搜索酒店
type HotelSearchTool struct {
	amap *AmapClient
}

// NewHotelSearchTool 创建 hotel.search 工具
func NewHotelSearchTool(amap *AmapClient) *HotelSearchTool {
	return &HotelSearchTool{amap: amap}
}

// Name 实现 tool.Tool
func (t *HotelSearchTool) Name() string { return "hotel.search" }

// Description 实现 tool.Tool
func (t *HotelSearchTool) Description() string {
	return "搜索城市内的酒店。传入 city、tier（economy/comfort/luxury），可选 area 限定商圈。"
}

// Schema 实现 tool.Tool
func (t *HotelSearchTool) Schema() tool.Schema {
	return tool.Schema{
		Type:        "object",
		Description: "酒店搜索参数",
		Properties: map[string]tool.SchemaProperty{
			"city": {Type: "string", Description: "城市名，如 北京"},
			"tier": {Type: "string", Description: "住宿档位", Enum: []string{"economy", "comfort", "luxury"}},
			"area": {Type: "string", Description: "商圈或区域（可选），如 王府井"},
		},
		Required: []string{"city", "tier"},
	}
}

// OutputSchema 实现 tool.Tool
func (t *HotelSearchTool) OutputSchema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"tier":   {Type: "string"},
			"count":  {Type: "integer"},
			"hotels": {Type: "array", Description: "酒店列表"},
		},
		Required: []string{"hotels"},
	}
}

// Execute 实现 tool.Tool
func (t *HotelSearchTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	city, _ := input["city"].(string)
	tier, _ := input["tier"].(string)
	area, _ := input["area"].(string)

	keywords := tierKeywords[tier]
	if area != "" {
		keywords = area + " " + keywords
	}

	hotels, err := t.amap.SearchPOI(ctx, city, keywords, 10)
	if err != nil {
		return tool.ToolResult{Err: err.Error()}, nil
	}

	out := map[string]any{"tier": tier, "count": len(hotels), "hotels": hotels}
	raw, _ := json.Marshal(out)
	return tool.ToolResult{Content: string(raw)}, nil
}
