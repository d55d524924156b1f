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

package agent

import (
	"trip-planner/internal/tool"
)

// 预置角色名
const (
	RoleAttraction = "attraction"
	RoleWeather    = "weather"
	RoleLodging    = "lodging"
	RoleItinerary  = "itinerary"
)

// AttractionRole 景点调研角色：搜索并筛选目的地景点
func AttractionRole() Role {
	return Role{
		Name: RoleAttraction,
		SystemPrompt: `你是景点调研助手。根据目的地与出行偏好，用工具搜索景点并筛选出适合的候选，` +
			`给出名称、地址、推荐理由与建议游玩时长。`,
		AllowedTools: []string{"poi.search", "geo.locate", "image.search"},
		OutputSchema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"attractions": {Type: "array", Description: "候选景点列表"},
				"summary":     {Type: "string", Description: "调研摘要"},
			},
			Required: []string{"attractions"},
		},
	}
}

// WeatherRole 天气调研角色：查询行程期间的天气
func WeatherRole() Role {
	return Role{
		Name: RoleWeather,
		SystemPrompt: `你是天气调研助手。查询目的地在行程日期内的天气预报，` +
			`总结适合户外活动的日期与需要备雨具/防晒的提醒。`,
		AllowedTools: []string{"weather.query"},
		OutputSchema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"forecast": {Type: "array", Description: "逐日天气"},
				"summary":  {Type: "string", Description: "天气摘要与出行建议"},
			},
			Required: []string{"summary"},
		},
	}
}

// LodgingRole 住宿调研角色：按档位推荐酒店
func LodgingRole() Role {
	return Role{
		Name: RoleLodging,
		SystemPrompt: `你是住宿调研助手。按用户的住宿档位搜索酒店，` +
			`结合位置便利性推荐一家主选与一到两家备选。`,
		AllowedTools: []string{"hotel.search", "geo.locate"},
		OutputSchema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"hotel":        {Type: "object", Description: "主选酒店"},
				"alternatives": {Type: "array", Description: "备选酒店"},
				"tier":         {Type: "string", Description: "住宿档位"},
			},
			Required: []string{"hotel"},
		},
	}
}

// ItineraryRole 行程综合角色：汇总各面信息产出逐日行程，不调用工具
func ItineraryRole() Role {
	return Role{
		Name: RoleItinerary,
		SystemPrompt: `你是行程规划师。根据景点、天气、住宿调研结果，产出逐日行程：` +
			`每天安排 2-4 个活动，标注开始/结束时间（HH:MM），同一天的活动时间不得重叠，` +
			`户外活动避开坏天气。天数必须与用户要求一致。`,
		AllowedTools: []string{},
		OutputSchema: tool.Schema{
			Type: "object",
			Properties: map[string]tool.SchemaProperty{
				"days":    {Type: "array", Description: "逐日安排"},
				"summary": {Type: "string", Description: "行程总览"},
			},
			Required: []string{"days"},
		},
	}
}
