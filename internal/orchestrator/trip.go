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

package orchestrator

import (
	"errors"
	"fmt"
	"time"
)

// ErrInvariantViolation 产出的行程违反结构约束，规划失败且不可重试
var ErrInvariantViolation = errors.New("itinerary invariant violation")

// 住宿档位
const (
	TierEconomy = "economy"
	TierComfort = "comfort"
	TierLuxury  = "luxury"
)

// TripRequest 规划请求
type TripRequest struct {
	Destination string   `json:"destination"`
	StartDate   string   `json:"start_date"` // YYYY-MM-DD
	Days        int      `json:"days"`
	Tier        string   `json:"tier"` // economy/comfort/luxury，默认 comfort
	Preferences []string `json:"preferences,omitempty"`
}

// Validate 校验请求参数
func (r *TripRequest) Validate() error {
	if r.Destination == "" {
		return errors.New("destination 不能为空")
	}
	if r.Days < 1 || r.Days > 30 {
		return fmt.Errorf("days 必须在 1-30 之间，当前 %d", r.Days)
	}
	if r.StartDate != "" {
		if _, err := time.Parse("2006-01-02", r.StartDate); err != nil {
			return fmt.Errorf("start_date 格式应为 YYYY-MM-DD: %w", err)
		}
	}
	switch r.Tier {
	case "":
		r.Tier = TierComfort
	case TierEconomy, TierComfort, TierLuxury:
	default:
		return fmt.Errorf("tier 取值非法: %s", r.Tier)
	}
	return nil
}

// Activity 单个活动
type Activity struct {
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Start   string `json:"start"` // HH:MM
	End     string `json:"end"`   // HH:MM
	Note    string `json:"note,omitempty"`
}

// DayPlan 单日安排
type DayPlan struct {
	Day        int        `json:"day"`
	Date       string     `json:"date,omitempty"`
	Activities []Activity `json:"activities"`
}

// ItineraryPlan 完整行程
type ItineraryPlan struct {
	ID             string            `json:"id"`
	Destination    string            `json:"destination"`
	StartDate      string            `json:"start_date,omitempty"`
	Days           []DayPlan         `json:"days"`
	Lodging        map[string]any    `json:"lodging,omitempty"`
	WeatherSummary string            `json:"weather_summary,omitempty"`
	FacetNotes     map[string]string `json:"facet_notes,omitempty"` // 缺失可选信息的标记
	Summary        string            `json:"summary,omitempty"`
	CreatedAt      time.Time         `json:"created_at"`
}

// checkInvariants 校验行程结构：天数吻合、每日活动时间有序且不重叠
func (p *ItineraryPlan) checkInvariants(req TripRequest) error {
	if len(p.Days) != req.Days {
		return fmt.Errorf("行程天数 %d 与请求 %d 不一致: %w", len(p.Days), req.Days, ErrInvariantViolation)
	}
	for _, day := range p.Days {
		if len(day.Activities) == 0 {
			return fmt.Errorf("第 %d 天没有任何活动: %w", day.Day, ErrInvariantViolation)
		}
		prevEnd := -1
		for _, act := range day.Activities {
			start, err := parseClock(act.Start)
			if err != nil {
				return fmt.Errorf("第 %d 天活动 %s 开始时间非法: %w", day.Day, act.Name, ErrInvariantViolation)
			}
			end, err := parseClock(act.End)
			if err != nil {
				return fmt.Errorf("第 %d 天活动 %s 结束时间非法: %w", day.Day, act.Name, ErrInvariantViolation)
			}
			if end <= start {
				return fmt.Errorf("第 %d 天活动 %s 结束不晚于开始: %w", day.Day, act.Name, ErrInvariantViolation)
			}
			if start < prevEnd {
				return fmt.Errorf("第 %d 天活动 %s 与前一活动时间重叠: %w", day.Day, act.Name, ErrInvariantViolation)
			}
			prevEnd = end
		}
	}
	return nil
}

// parseClock 解析 HH:MM 为当日分钟数
func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, err
	}
	return t.Hour()*60 + t.Minute(), nil
}
