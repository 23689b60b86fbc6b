// CrewPlan 船员排班引擎服务
// 主程序入口

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/crewplan/crewplan/internal/config"
	"github.com/crewplan/crewplan/internal/fleet"
	"github.com/crewplan/crewplan/internal/handler"
	"github.com/crewplan/crewplan/internal/metrics"
	"github.com/crewplan/crewplan/internal/middleware"
	"github.com/crewplan/crewplan/internal/rules"
	"github.com/crewplan/crewplan/pkg/logger"
	"github.com/crewplan/crewplan/pkg/model"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// 加载 .env（不存在时忽略错误）
	godotenv.Load()

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	logger.Init(logger.Config{
		Level:  cfg.App.LogLevel,
		Format: "console",
	})

	// 打印版本信息
	fmt.Printf("CrewPlan 船员排班引擎 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	port := fmt.Sprintf("%d", cfg.App.Port)

	// 限流阈值取自配置
	if cfg.API.RateLimit > 0 {
		globalRateLimiter = NewRateLimiter(float64(cfg.API.RateLimit))
	}

	// 船队注册表，内置默认船队兜底
	fleetManager := fleet.NewManager()
	if err := fleetManager.Register(fleet.CreateDefaultFleet()); err != nil {
		logger.Error().Err(err).Msg("注册默认船队失败")
		os.Exit(1)
	}

	// 创建处理器
	planHandler := handler.NewPlanHandler()

	// 创建 HTTP 服务器
	mux := http.NewServeMux()

	// ========================================
	// 系统端点
	// ========================================

	// 健康检查端点
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok","service":"crewplan"}`))
	})

	// 版本信息端点
	mux.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"version":"%s","build_time":"%s","git_commit":"%s"}`, Version, BuildTime, GitCommit)
	})

	// ========================================
	// API v1 端点
	// ========================================

	// API 根路由
	mux.HandleFunc("/api/v1/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{
			"message": "CrewPlan 船员排班引擎 API v1",
			"endpoints": {
				"plan": {
					"generate": "POST /api/v1/plan/generate",
					"validate": "POST /api/v1/plan/validate"
				},
				"rules": {
					"library": "GET /api/v1/rules/library",
					"templates": "GET /api/v1/rules/templates",
					"defaults": "GET /api/v1/rules/defaults"
				},
				"stats": {
					"fairness": "POST /api/v1/stats/fairness",
					"coverage": "POST /api/v1/stats/coverage",
					"workload": "POST /api/v1/stats/workload"
				},
				"relief": {
					"single": "POST /api/v1/relief/single",
					"batch": "POST /api/v1/relief/batch",
					"route": "POST /api/v1/relief/route"
				},
				"rotation": {
					"expand": "POST /api/v1/rotation/expand"
				},
				"swap": {
					"evaluate": "POST /api/v1/swap/evaluate",
					"recommend": "POST /api/v1/swap/recommend"
				}
			}
		}`))
	})

	// 排班生成 API
	mux.HandleFunc("/api/v1/plan/generate", planHandler.Generate)

	// 排班验证 API
	mux.HandleFunc("/api/v1/plan/validate", planHandler.Validate)

	// 规则库 API - 返回引擎支持的所有规则及参数定义
	mux.HandleFunc("/api/v1/rules/library", handleRuleLibrary)

	// 船型规则模板 API
	mux.HandleFunc("/api/v1/rules/templates", handleRuleTemplates)

	// 默认权重阈值 API
	mux.HandleFunc("/api/v1/rules/defaults", handleRuleDefaults)

	// ========================================
	// 统计分析 API
	// ========================================

	// 公平性分析 API
	mux.HandleFunc("/api/v1/stats/fairness", handler.GetFairnessHandler)

	// 覆盖率分析 API
	mux.HandleFunc("/api/v1/stats/coverage", handler.GetCoverageHandler)

	// 工作量统计 API
	mux.HandleFunc("/api/v1/stats/workload", handler.GetWorkloadHandler)

	// ========================================
	// 接替调派 API
	// ========================================

	// 单单调派 API
	mux.HandleFunc("/api/v1/relief/single", handler.ReliefDispatchHandler)

	// 批量调派 API
	mux.HandleFunc("/api/v1/relief/batch", handler.BatchReliefHandler)

	// 最优巡回路线 API
	mux.HandleFunc("/api/v1/relief/route", handler.OptimalRouteHandler)

	// ========================================
	// 值班制与换班 API
	// ========================================

	// 值班制展开 API
	mux.HandleFunc("/api/v1/rotation/expand", handler.ExpandRotationHandler)

	// 换班评估 API
	mux.HandleFunc("/api/v1/swap/evaluate", handler.EvaluateSwapHandler)

	// 换班推荐 API
	mux.HandleFunc("/api/v1/swap/recommend", handler.RecommendSwapHandler)

	// ========================================
	// 监控端点
	// ========================================

	// Prometheus 指标端点
	mux.Handle("/metrics", metrics.Handler())

	// ========================================
	// 中间件
	// ========================================

	// 船队解析中间件，系统端点跳过
	fleetMW := middleware.FleetMiddleware(&middleware.FleetConfig{
		Manager:   fleetManager,
		SkipPaths: []string{"/health", "/version", "/metrics"},
	})

	// 创建带中间件的处理器
	// 中间件执行顺序：recovery -> requestID -> rateLimit -> cors -> logging -> fleet -> handler
	handler := middleware.RecoveryMiddleware(
		requestIDMiddleware(rateLimitMiddleware(corsMiddleware(loggingMiddleware(fleetMW(mux))))))

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// 启动服务器（非阻塞）
	go func() {
		logger.Info().
			Str("port", port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("url", fmt.Sprintf("http://localhost:%s", port)).
			Str("api_docs", fmt.Sprintf("http://localhost:%s/api/v1/", port)).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error().Err(err).Msg("服务器启动失败")
			os.Exit(1)
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("正在关闭服务器...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("服务器关闭失败")
		os.Exit(1)
	}

	logger.Info().Msg("服务器已关闭")
}

// requestIDMiddleware 请求ID追踪中间件
func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 尝试从请求头获取 Request ID，没有则生成新的
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = uuid.New().String()
		}

		// 设置响应头
		w.Header().Set("X-Request-ID", requestID)

		// 将 Request ID 存储到 context 中
		ctx := context.WithValue(r.Context(), "request_id", requestID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// loggingMiddleware 日志中间件
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// 获取 Request ID
		requestID, _ := r.Context().Value("request_id").(string)

		// 包装ResponseWriter以捕获状态码
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		duration := time.Since(start)

		logger.Info().
			Str("request_id", requestID).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rw.statusCode).
			Dur("duration", duration).
			Msg("请求处理")

		// 记录Prometheus指标
		metrics.RecordRequestMetrics(r.Method, r.URL.Path, rw.statusCode, duration)
	})
}

// responseWriter 包装ResponseWriter以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// RateLimiter 简单的令牌桶限流器
type RateLimiter struct {
	tokens     float64
	maxTokens  float64
	refillRate float64 // 每秒添加的令牌数
	lastRefill time.Time
	mu         sync.Mutex
}

// NewRateLimiter 创建限流器
func NewRateLimiter(requestsPerSecond float64) *RateLimiter {
	return &RateLimiter{
		tokens:     requestsPerSecond,
		maxTokens:  requestsPerSecond * 2, // 允许突发流量
		refillRate: requestsPerSecond,
		lastRefill: time.Now(),
	}
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow() bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(rl.lastRefill).Seconds()
	rl.tokens += elapsed * rl.refillRate
	if rl.tokens > rl.maxTokens {
		rl.tokens = rl.maxTokens
	}
	rl.lastRefill = now

	if rl.tokens >= 1 {
		rl.tokens--
		return true
	}
	return false
}

var globalRateLimiter = NewRateLimiter(100) // 默认 100 QPS

// rateLimitMiddleware 限流中间件
func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !globalRateLimiter.Allow() {
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   true,
				"code":    "RATE_LIMITED",
				"message": "请求过于频繁，请稍后重试",
			})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// corsMiddleware CORS中间件
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Fleet-Code")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// handleRuleLibrary 处理规则库请求 - 返回引擎支持的所有规则定义
func handleRuleLibrary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	response := rules.LibraryResponse{Library: rules.GetLibrary()}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleRuleTemplates 处理船型规则模板请求
func handleRuleTemplates(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	response := rules.TemplatesResponse{Templates: rules.GetTemplates()}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}

// handleRuleDefaults 处理默认权重阈值请求
func handleRuleDefaults(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	defaults := model.DefaultPreferences()
	response := map[string]interface{}{
		"weights":             defaults.Weights,
		"max_nights_per_week": defaults.MaxNightsPerWeek,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
