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
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"trip-planner/internal/storage/cache"
	"trip-planner/pkg/metrics"
	"trip-planner/pkg/resilience"
)

const (
	defaultAmapBaseURL = "https://restapi.amap.com"

	poiCacheTTL     = time.Hour        // POI 结果缓存 1 小时
	weatherCacheTTL = 30 * time.Minute // 天气预报缓存 30 分钟
)

// Location 经纬度坐标
type Location struct {
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// POIInfo 兴趣点信息
type POIInfo struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     string   `json:"type"`
	Address  string   `json:"address"`
	Location Location `json:"location"`
	Tel      string   `json:"tel,omitempty"`
}

// WeatherDay 单日天气预报
type WeatherDay struct {
	Date          string `json:"date"`
	DayWeather    string `json:"day_weather"`
	NightWeather  string `json:"night_weather"`
	DayTemp       int    `json:"day_temp"`
	NightTemp     int    `json:"night_temp"`
	WindDirection string `json:"wind_direction"`
	WindPower     string `json:"wind_power"`
}

// AmapClient 高德开放平台客户端：POI 搜索、天气预报、地理编码。
// 结果经 cache.Store 缓存，上游连续失败时由熔断器快速失败。
type AmapClient struct {
	apiKey  string
	baseURL string
	client  *resty.Client
	breaker *resilience.CircuitBreaker
	store   cache.Store
}

// NewAmapClient 创建高德客户端；store 为 nil 时不缓存
func NewAmapClient(apiKey, baseURL string, store cache.Store) *AmapClient {
	if baseURL == "" {
		baseURL = defaultAmapBaseURL
	}

	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)

	return &AmapClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  client,
		breaker: resilience.NewCircuitBreaker("amap", 5, 30*time.Second),
		store:   store,
	}
}

// SearchPOI 按城市与关键词搜索 POI
func (c *AmapClient) SearchPOI(ctx context.Context, city, keywords string, limit int) ([]POIInfo, error) {
	if limit <= 0 {
		limit = 10
	}

	cacheKey := fmt.Sprintf("poi:%s:%s:%d", city, keywords, limit)
	var cached []POIInfo
	if c.cacheGet(ctx, "poi", cacheKey, &cached) {
		return cached, nil
	}

	var response struct {
		Status string `json:"status"`
		Info   string `json:"info"`
		POIs   []struct {
			ID       string `json:"id"`
			Name     string `json:"name"`
			Type     string `json:"type"`
			Address  string `json:"address"`
			Location string `json:"location"` // "lng,lat"
			Tel      string `json:"tel"`
		} `json:"pois"`
	}

	err := c.breaker.Call(func() error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"key":       c.apiKey,
				"keywords":  keywords,
				"city":      city,
				"citylimit": "true",
				"offset":    strconv.Itoa(limit),
			}).
			SetResult(&response).
			Get(c.baseURL + "/v3/place/text")
		if err != nil {
			return fmt.Errorf("调用高德 POI 搜索 failed: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("高德 POI 搜索返回错误: %s", resp.String())
		}
		if response.Status != "1" {
			return fmt.Errorf("高德 POI 搜索业务错误: %s", response.Info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	pois := make([]POIInfo, 0, len(response.POIs))
	for _, item := range response.POIs {
		pois = append(pois, POIInfo{
			ID:       item.ID,
			Name:     item.Name,
			Type:     item.Type,
			Address:  item.Address,
			Location: parseLocation(item.Location),
			Tel:      item.Tel,
		})
	}

	if len(pois) > 0 {
		c.cacheSet(ctx, cacheKey, pois, poiCacheTTL)
	}
	return pois, nil
}

// GetWeatherForecast 查询城市未来几天的天气预报
func (c *AmapClient) GetWeatherForecast(ctx context.Context, city string) ([]WeatherDay, error) {
	cacheKey := "weather:" + city + ":forecast"
	var cached []WeatherDay
	if c.cacheGet(ctx, "weather", cacheKey, &cached) {
		return cached, nil
	}

	var response struct {
		Status    string `json:"status"`
		Info      string `json:"info"`
		Forecasts []struct {
			City  string `json:"city"`
			Casts []struct {
				Date         string `json:"date"`
				DayWeather   string `json:"dayweather"`
				NightWeather string `json:"nightweather"`
				DayTemp      string `json:"daytemp"`
				NightTemp    string `json:"nighttemp"`
				DayWind      string `json:"daywind"`
				DayPower     string `json:"daypower"`
			} `json:"casts"`
		} `json:"forecasts"`
	}

	err := c.breaker.Call(func() error {
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"key":        c.apiKey,
				"city":       city,
				"extensions": "all",
			}).
			SetResult(&response).
			Get(c.baseURL + "/v3/weather/weatherInfo")
		if err != nil {
			return fmt.Errorf("调用高德天气查询 failed: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("高德天气查询返回错误: %s", resp.String())
		}
		if response.Status != "1" {
			return fmt.Errorf("高德天气查询业务错误: %s", response.Info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	var days []WeatherDay
	for _, forecast := range response.Forecasts {
		for _, cast := range forecast.Casts {
			dayTemp, _ := strconv.Atoi(cast.DayTemp)
			nightTemp, _ := strconv.Atoi(cast.NightTemp)
			days = append(days, WeatherDay{
				Date:          cast.Date,
				DayWeather:    cast.DayWeather,
				NightWeather:  cast.NightWeather,
				DayTemp:       dayTemp,
				NightTemp:     nightTemp,
				WindDirection: cast.DayWind,
				WindPower:     cast.DayPower,
			})
		}
	}

	if len(days) > 0 {
		c.cacheSet(ctx, cacheKey, days, weatherCacheTTL)
	}
	return days, nil
}

// Geocode 地理编码（地址转坐标）
func (c *AmapClient) Geocode(ctx context.Context, address, city string) (*Location, error) {
	var response struct {
		Status   string `json:"status"`
		Info     string `json:"info"`
		Geocodes []struct {
			Location string `json:"location"` // "lng,lat"
		} `json:"geocodes"`
	}

	err := c.breaker.Call(func() error {
		params := map[string]string{
			"key":     c.apiKey,
			"address": address,
		}
		if city != "" {
			params["city"] = city
		}
		resp, err := c.client.R().
			SetContext(ctx).
			SetQueryParams(params).
			SetResult(&response).
			Get(c.baseURL + "/v3/geocode/geo")
		if err != nil {
			return fmt.Errorf("调用高德地理编码 failed: %w", err)
		}
		if resp.StatusCode() != http.StatusOK {
			return fmt.Errorf("高德地理编码返回错误: %s", resp.String())
		}
		if response.Status != "1" {
			return fmt.Errorf("高德地理编码业务错误: %s", response.Info)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(response.Geocodes) == 0 {
		return nil, fmt.Errorf("地址 %s 无法编码", address)
	}
	loc := parseLocation(response.Geocodes[0].Location)
	return &loc, nil
}

func (c *AmapClient) cacheGet(ctx context.Context, kind, key string, dest interface{}) bool {
	if c.store == nil {
		return false
	}
	if err := c.store.Get(ctx, key, dest); err == nil {
		metrics.CacheHitTotal.WithLabelValues(kind, "hit").Inc()
		return true
	}
	metrics.CacheHitTotal.WithLabelValues(kind, "miss").Inc()
	return false
}

func (c *AmapClient) cacheSet(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	if c.store == nil {
		return
	}
	// 写缓存失败不影响返回结果
	_ = c.store.Set(ctx, key, value, ttl)
}

// parseLocation 解析 "lng,lat" 格式坐标
func parseLocation(s string) Location {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Location{}
	}
	lng, _ := strconv.ParseFloat(parts[0], 64)
	lat, _ := strconv.ParseFloat(parts[1], 64)
	return Location{Longitude: lng, Latitude: lat}
}
