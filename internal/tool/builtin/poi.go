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

// POISearchTool 实现 poi.search：按城市与关键词搜索景点/餐厅等兴趣点
type POISearchTool struct {
	amap *AmapClient
}

// NewPOISearchTool 创建 poi.search 工具
func NewPOISearchTool(amap *AmapClient) *POISearchTool {
	return &POISearchTool{amap: amap}
}

// Name 实现 tool.Tool
func (t *POISearchTool) Name() string { return "poi.search" }

// Description 实现 tool.Tool
func (t *POISearchTool) Description() string {
	return "搜索城市内的兴趣点（景点、博物馆、餐厅等）。传入 city、keywords，可选 limit。"
}

// Schema 实现 tool.Tool
func (t *POISearchTool) Schema() tool.Schema {
	return tool.Schema{
		Type:        "object",
		Description: "POI 搜索参数",
		Properties: map[string]tool.SchemaProperty{
			"city":     {Type: "string", Description: "城市名，如 北京"},
			"keywords": {Type: "string", Description: "搜索关键词，如 博物馆、美食"},
			"limit":    {Type: "integer", Description: "返回数量上限（可选，默认 10）"},
		},
		Required: []string{"city", "keywords"},
	}
}

// OutputSchema 实现 tool.Tool
func (t *POISearchTool) OutputSchema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"count": {Type: "integer"},
			"pois":  {Type: "array", Description: "POI 列表"},
		},
		Required: []string{"count", "pois"},
	}
}

// Execute 实现 tool.Tool
func (t *POISearchTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	city, _ := input["city"].(string)
	keywords, _ := input["keywords"].(string)
	limit := intInput(input, "limit")

	pois, err := t.amap.SearchPOI(ctx, city, keywords, limit)
	if err != nil {
		return tool.ToolResult{Err: err.Error()}, nil
	}

	out := map[string]any{"count": len(pois), "pois": pois}
	raw, _ := json.Marshal(out)
	return tool.ToolResult{Content: string(raw)}, nil
}

// intInput 读取 JSON 解码后的数值参数
func intInput(input map[string]any, key string) int {
	switch v := input[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}
