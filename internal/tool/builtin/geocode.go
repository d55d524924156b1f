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

// GeocodeTool 实现 geo.locate：地址转经纬度坐标
type GeocodeTool struct {
	amap *AmapClient
}

// NewGeocodeTool 创建 geo.locate 工具
func NewGeocodeTool(amap *AmapClient) *GeocodeTool {
	return &GeocodeTool{amap: amap}
}

// Name 实现 tool.Tool
func (t *GeocodeTool) Name() string { return "geo.locate" }

// Description 实现 tool.Tool
func (t *GeocodeTool) Description() string {
	return "地理编码，把地址转换为经纬度坐标。传入 address，可选 city。"
}

// Schema 实现 tool.Tool
func (t *GeocodeTool) Schema() tool.Schema {
	return tool.Schema{
		Type:        "object",
		Description: "地理编码参数",
		Properties: map[string]tool.SchemaProperty{
			"address": {Type: "string", Description: "地址，如 东城区景山前街4号"},
			"city":    {Type: "string", Description: "城市名（可选）"},
		},
		Required: []string{"address"},
	}
}

// OutputSchema 实现 tool.Tool
func (t *GeocodeTool) OutputSchema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"longitude": {Type: "number"},
			"latitude":  {Type: "number"},
		},
		Required: []string{"longitude", "latitude"},
	}
}

// Execute 实现 tool.Tool
func (t *GeocodeTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	address, _ := input["address"].(string)
	city, _ := input["city"].(string)

	loc, err := t.amap.Geocode(ctx, address, city)
	if err != nil {
		return tool.ToolResult{Err: err.Error()}, nil
	}

	raw, _ := json.Marshal(loc)
	return tool.ToolResult{Content: string(raw)}, nil
}
