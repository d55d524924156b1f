package builtin

import (
	"trip-planner/internal/tool"
	"trip-planner/internal/tool/registry"
)

// RegisterBuiltin 将内置工具注册到 ToolRegistry（需传入已装配的 amap 客户端）
func RegisterBuiltin(reg *registry.Registry, amap *AmapClient, unsplashAccessKey, unsplashBaseURL string) error {
	if reg == nil {
		return nil
	}
	if amap != nil {
		for _, t := range []tool.Tool{
			NewPOISearchTool(amap),
			NewWeatherTool(amap),
			NewGeocodeTool(amap),
			NewHotelSearchTool(amap),
		} {
			if err := reg.Register(t); err != nil {
				return err
			}
		}
	}
	if unsplashAccessKey != "" {
		if err := reg.Register(NewImageSearchTool(unsplashAccessKey, unsplashBaseURL)); err != nil {
			return err
		}
	}
	return nil
}

// RegisterBuiltinWithTools 仅注册给定工具（用于测试或最小装配）
func RegisterBuiltinWithTools(reg *registry.Registry, tools ...tool.Tool) error {
	if reg == nil {
		return nil
	}
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return err
		}
	}
	return nil
}
