package api

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	hertzslog "github.com/hertz-contrib/logger/slog"
	hertztracing "github.com/hertz-contrib/obs-opentelemetry/tracing"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"trip-planner/internal/agent"
	apihttp "trip-planner/internal/api/http"
	"trip-planner/internal/app"
	"trip-planner/internal/model/llm"
	"trip-planner/internal/orchestrator"
	"trip-planner/internal/tool/builtin"
	"trip-planner/internal/tool/invoker"
	"trip-planner/internal/tool/registry"
	"trip-planner/pkg/config"
	"trip-planner/pkg/tracing"
)

// App API 应用（装配 Registry、Agents、Orchestrator、HTTP Router）
type App struct {
	bootstrap    *app.Bootstrap
	router       *apihttp.Router
	hertz        *server.Hertz
	tracerShut   *sdktrace.TracerProvider
	orchestrator *orchestrator.Orchestrator
}

// NewApp 创建 API 应用（由 cmd/api 调用）
func NewApp(bootstrap *app.Bootstrap) (*App, error) {
	cfg := bootstrap.Config
	ctx := context.Background()

	// LLM 客户端：限流 + 响应缓存
	llmClient, genOpts, err := buildLLMClient(ctx, bootstrap)
	if err != nil {
		return nil, fmt.Errorf("初始化 LLM 客户端失败: %w", err)
	}

	// 工具注册表：高德 + Unsplash，装配完成后冻结
	amapKey := bootstrap.ResolveSecret(ctx, cfg.Providers.Amap.APIKey, "amap_api_key")
	amapClient := builtin.NewAmapClient(amapKey, cfg.Providers.Amap.BaseURL, bootstrap.Cache)
	unsplashKey := bootstrap.ResolveSecret(ctx, cfg.Providers.Unsplash.AccessKey, "unsplash_access_key")

	reg := registry.New()
	if err := builtin.RegisterBuiltin(reg, amapClient, unsplashKey, cfg.Providers.Unsplash.BaseURL); err != nil {
		return nil, fmt.Errorf("注册内置工具失败: %w", err)
	}
	reg.Freeze()

	inv := invoker.New(reg, bootstrap.Logger, invokerOptions(cfg)...)
	adapter := agent.NewAdapter(llmClient, genOpts)

	buildAgent := func(role agent.Role) (*agent.Agent, error) {
		schemas, err := reg.SchemasFor(role.AllowedTools)
		if err != nil {
			return nil, err
		}
		return agent.New(role, adapter, inv, schemas, bootstrap.Logger,
			agent.WithMaxSteps(cfg.Agent.MaxSteps),
			agent.WithMaxRetries(cfg.Agent.MaxRetries),
			agent.WithMaxContext(cfg.Agent.MaxContext),
		), nil
	}

	var agents [4]*agent.Agent
	for i, role := range []agent.Role{
		agent.AttractionRole(), agent.WeatherRole(), agent.LodgingRole(), agent.ItineraryRole(),
	} {
		a, err := buildAgent(role)
		if err != nil {
			return nil, fmt.Errorf("装配角色 %s 失败: %w", role.Name, err)
		}
		agents[i] = a
	}

	var orchOpts []orchestrator.Option
	if facets := cfg.Agent.Synthesis.RequiredFacets; len(facets) > 0 {
		orchOpts = append(orchOpts, orchestrator.WithRequiredFacets(facets))
	}
	orch := orchestrator.New(agents[0], agents[1], agents[2], agents[3], bootstrap.Logger, orchOpts...)

	handler := apihttp.NewHandler(orch, bootstrap.Plans, bootstrap.Logger)
	router := apihttp.NewRouter(handler)

	return &App{
		bootstrap:    bootstrap,
		router:       router,
		orchestrator: orch,
	}, nil
}

// Run 启动 HTTP 服务，addr 如 ":8080"
func (a *App) Run(addr string) error {
	a.bootstrap.Logger.Info("API 服务启动", "addr", addr)

	// 使用 Hertz slog 扩展，与 bootstrap 日志配置对齐
	output := os.Stdout
	if a.bootstrap.Config.Log.File != "" {
		f, err := os.OpenFile(a.bootstrap.Config.Log.File, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err != nil {
			return fmt.Errorf("打开日志文件失败: %w", err)
		}
		output = f
	}
	levelVar := &slog.LevelVar{}
	switch a.bootstrap.Config.Log.Level {
	case "debug":
		levelVar.Set(slog.LevelDebug)
	case "warn":
		levelVar.Set(slog.LevelWarn)
	case "error":
		levelVar.Set(slog.LevelError)
	default:
		levelVar.Set(slog.LevelInfo)
	}
	hlog.SetLogger(hertzslog.NewLogger(
		hertzslog.WithOutput(output),
		hertzslog.WithLevel(levelVar),
	))

	// 可选：启用链路追踪（OpenTelemetry）
	tcfg := a.bootstrap.Config.Monitoring.Tracing
	if tcfg.Enable && tcfg.ExportEndpoint != "" {
		serviceName := tcfg.ServiceName
		if serviceName == "" {
			serviceName = "trip-planner"
		}
		tp, err := tracing.InitTracer(tracing.OTelConfig{
			ServiceName:    serviceName,
			ExportEndpoint: tcfg.ExportEndpoint,
			Insecure:       tcfg.Insecure,
		})
		if err != nil {
			a.bootstrap.Logger.Warn("链路追踪初始化失败", "error", err)
		} else {
			a.tracerShut = tp
			tracerOpt, mwCfg := hertztracing.NewServerTracer()
			a.hertz = a.router.Build(addr, tracerOpt)
			a.hertz.Use(hertztracing.ServerMiddleware(mwCfg))
			a.bootstrap.Logger.Info("链路追踪已启用", "service_name", serviceName, "endpoint", tcfg.ExportEndpoint)
		}
	}
	if a.hertz == nil {
		a.hertz = a.router.Build(addr)
	}
	return a.hertz.Run()
}

// Shutdown 优雅关闭（传入 ctx 以支持超时，如 cmd 层 WithTimeout）
func (a *App) Shutdown(ctx context.Context) error {
	if a.tracerShut != nil {
		_ = a.tracerShut.Shutdown(ctx)
	}
	if a.hertz != nil {
		if err := a.hertz.Shutdown(ctx); err != nil {
			return err
		}
	}
	a.bootstrap.Close()
	return nil
}

// buildLLMClient 按配置装配 LLM 客户端：provider 限流 + 响应缓存
func buildLLMClient(ctx context.Context, bootstrap *app.Bootstrap) (llm.Client, llm.GenerateOptions, error) {
	cfg := bootstrap.Config
	provider := cfg.Model.Defaults.LLM
	if provider == "" {
		provider = "openai"
	}
	providerCfg := cfg.Model.LLM.Providers[provider]

	apiKey := bootstrap.ResolveSecret(ctx, providerCfg.APIKey, "llm_"+provider+"_api_key")

	modelInfo, err := pickModel(providerCfg)
	if err != nil {
		return nil, llm.GenerateOptions{}, err
	}

	client, err := llm.NewOpenAIClientWithBaseURL(provider, modelInfo.Name, apiKey, providerCfg.BaseURL)
	if err != nil {
		return nil, llm.GenerateOptions{}, err
	}

	if len(cfg.RateLimits.LLM) > 0 {
		limits := make(map[string]llm.LLMLimitConfig, len(cfg.RateLimits.LLM))
		for name, lc := range cfg.RateLimits.LLM {
			limits[name] = llm.LLMLimitConfig{
				TokensPerMinute:   lc.TokensPerMinute,
				RequestsPerMinute: lc.RequestsPerMinute,
				MaxConcurrent:     lc.MaxConcurrent,
			}
		}
		client.SetRateLimiter(llm.NewLLMRateLimiter(limits, nil))
	}

	genOpts := llm.GenerateOptions{
		Temperature: modelInfo.Temperature,
		MaxTokens:   modelInfo.MaxTokens,
	}

	ttl := time.Duration(cfg.Storage.Cache.LLMTTL) * time.Second
	return llm.NewCachedClient(client, bootstrap.Cache, ttl), genOpts, nil
}

// pickModel 选择 provider 下的模型：优先 default，否则任取其一
func pickModel(providerCfg config.ProviderConfig) (config.ModelInfo, error) {
	if len(providerCfg.Models) == 0 {
		return config.ModelInfo{}, fmt.Errorf("provider 未配置任何模型")
	}
	if m, ok := providerCfg.Models["default"]; ok {
		return m, nil
	}
	for _, m := range providerCfg.Models {
		return m, nil
	}
	return config.ModelInfo{}, fmt.Errorf("provider 未配置任何模型")
}

// invokerOptions 从配置解析工具超时
func invokerOptions(cfg *config.Config) []invoker.Option {
	var opts []invoker.Option
	if d, err := time.ParseDuration(cfg.Providers.Timeouts.Default); err == nil && d > 0 {
		opts = append(opts, invoker.WithDefaultTimeout(d))
	}
	for name, s := range cfg.Providers.Timeouts.PerTool {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			opts = append(opts, invoker.WithToolTimeout(name, d))
		}
	}
	return opts
}
