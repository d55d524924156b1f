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

// WeatherTool 实现 weather.query：查询城市天气预报
type WeatherTool struct {
	amap *AmapClient
}

// NewWeatherTool 创建 weather.query 工具
func NewWeatherTool(amap *AmapClient) *WeatherTool {
	return &WeatherTool{amap: amap}
}

// Name 实现 tool.Tool
func (t *WeatherTool) Name() string { return "weather.query" }

// Description 实现 tool.Tool
func (t *WeatherTool) Description() string {
	return "查询城市未来几天的天气预报。传入 city。"
}

// Schema 实现 tool.Tool
func (t *WeatherTool) Schema() tool.Schema {
	return tool.Schema{
		Type:        "object",
		Description: "天气查询参数",
		Properties: map[string]tool.SchemaProperty{
			"city": {Type: "string", Description: "城市名，如 北京"},
		},
		Required: []string{"city"},
	}
}

// OutputSchema 实现 tool.Tool
func (t *WeatherTool) OutputSchema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"city":     {Type: "string"},
			"forecast": {Type: "array", Description: "逐日预报"},
		},
		Required: []string{"forecast"},
	}
}

// Execute 实现 tool.Tool
func (t *WeatherTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	city, _ := input["city"].(string)

	days, err := t.amap.GetWeatherForecast(ctx, city)
	if err != nil {
		return tool.ToolResult{Err: err.Error()}, nil
	}
	if days == nil {
		days = []WeatherDay{}
	}

	out := map[string]any{"city": city, "forecast": days}
	raw, _ := json.Marshal(out)
	return tool.ToolResult{Content: string(raw)}, nil
}
