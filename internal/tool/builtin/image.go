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
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"trip-planner/internal/tool"
)

const defaultUnsplashBaseURL = "https://api.unsplash.com"

// ImageSearchTool 实现 image.search：从 Unsplash 搜索景点配图
type ImageSearchTool struct {
	accessKey string
	baseURL   string
	client    *resty.Client
}

// NewImageSearchTool 创建 image.search 工具
func NewImageSearchTool(accessKey, baseURL string) *ImageSearchTool {
	if baseURL == "" {
		baseURL = defaultUnsplashBaseURL
	}

	client := resty.New()
	client.SetTimeout(10 * time.Second)
	client.SetRetryCount(3)
	client.SetRetryWaitTime(1 * time.Second)
	client.SetRetryMaxWaitTime(5 * time.Second)

	return &ImageSearchTool{
		accessKey: accessKey,
		baseURL:   baseURL,
		client:    client,
	}
}

// Name 实现 tool.Tool
func (t *ImageSearchTool) Name() string { return "image.search" }

// Description 实现 tool.Tool
func (t *ImageSearchTool) Description() string {
	return "搜索景点/城市配图。传入 query，可选 limit。"
}

// Schema 实现 tool.Tool
func (t *ImageSearchTool) Schema() tool.Schema {
	return tool.Schema{
		Type:        "object",
		Description: "图片搜索参数",
		Properties: map[string]tool.SchemaProperty{
			"query": {Type: "string", Description: "搜索词，如 Forbidden City"},
			"limit": {Type: "integer", Description: "返回数量上限（可选，默认 3）"},
		},
		Required: []string{"query"},
	}
}

// OutputSchema 实现 tool.Tool
func (t *ImageSearchTool) OutputSchema() tool.Schema {
	return tool.Schema{
		Type: "object",
		Properties: map[string]tool.SchemaProperty{
			"query":  {Type: "string"},
			"images": {Type: "array", Description: "图片列表"},
		},
		Required: []string{"images"},
	}
}

// Execute 实现 tool.Tool
func (t *ImageSearchTool) Execute(ctx context.Context, input map[string]any) (tool.ToolResult, error) {
	query, _ := input["query"].(string)
	limit := intInput(input, "limit")
	if limit <= 0 {
		limit = 3
	}

	var response struct {
		Results []struct {
			ID   string `json:"id"`
			URLs struct {
				Regular string `json:"regular"`
				Small   string `json:"small"`
			} `json:"urls"`
			Description string `json:"description"`
		} `json:"results"`
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetHeader("Authorization", "Client-ID "+t.accessKey).
		SetQueryParams(map[string]string{
			"query":    query,
			"per_page": fmt.Sprintf("%d", limit),
		}).
		SetResult(&response).
		Get(t.baseURL + "/search/photos")
	if err != nil {
		return tool.ToolResult{Err: fmt.Sprintf("调用 Unsplash failed: %v", err)}, nil
	}
	if resp.StatusCode() != http.StatusOK {
		return tool.ToolResult{Err: fmt.Sprintf("Unsplash 返回错误: %s", resp.String())}, nil
	}

	type image struct {
		ID          string `json:"id"`
		URL         string `json:"url"`
		Thumb       string `json:"thumb"`
		Description string `json:"description,omitempty"`
	}
	images := make([]image, 0, len(response.Results))
	for _, r := range response.Results {
		images = append(images, image{
			ID:          r.ID,
			URL:         r.URLs.Regular,
			Thumb:       r.URLs.Small,
			Description: r.Description,
		})
	}

	out := map[string]any{"query": query, "images": images}
	raw, _ := json.Marshal(out)
	return tool.ToolResult{Content: string(raw)}, nil
}
