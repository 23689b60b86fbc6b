// Package middleware 提供HTTP中间件
package middleware

import (
	"crypto/rand"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/crewplan/crewplan/internal/fleet"
)

// FleetHeader 船队编码请求头
const FleetHeader = "X-Fleet-Code"

// FleetConfig 船队解析配置
type FleetConfig struct {
	Manager   *fleet.Manager
	SkipPaths []string // 跳过解析的路径
}

// FleetMiddleware 船队解析中间件
// 请求头未携带船队编码时直接放行，由处理器按请求体中的fleet_id处理
func FleetMiddleware(config *FleetConfig) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, path := range config.SkipPaths {
				if strings.HasPrefix(r.URL.Path, path) {
					next.ServeHTTP(w, r)
					return
				}
			}

			code := r.Header.Get(FleetHeader)
			if code == "" {
				next.ServeHTTP(w, r)
				return
			}

			f, err := config.Manager.Get(code)
			if err != nil {
				http.Error(w, `{"error":"fleet_error","message":"船队不可用"}`, http.StatusForbidden)
				return
			}

			// 将船队信息添加到上下文
			ctx := fleet.WithFleet(r.Context(), f)
			r = r.WithContext(ctx)

			// 添加船队信息到响应头
			w.Header().Set("X-Fleet-ID", f.ID.String())

			next.ServeHTTP(w, r)
		})
	}
}

// RequireFeature 功能开关检查中间件
// 请求未解析出船队时放行，解析出的船队必须启用该功能
func RequireFeature(feature string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			f, ok := fleet.FromContext(r.Context())
			if !ok {
				next.ServeHTTP(w, r)
				return
			}

			if !f.HasFeature(feature) {
				http.Error(w, `{"error":"feature_disabled","message":"功能未启用"}`, http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// LoggingMiddleware 日志中间件
func LoggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 获取船队信息
		fleetInfo := "anonymous"
		if f, ok := fleet.FromContext(r.Context()); ok {
			fleetInfo = f.Code
		}

		log.Printf("[%s] %s %s - fleet=%s", r.Method, r.URL.Path, r.RemoteAddr, fleetInfo)
		next.ServeHTTP(w, r)
	})
}

// SecurityHeadersMiddleware 安全头中间件
func SecurityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// 安全相关响应头
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		w.Header().Set("Content-Security-Policy", "default-src 'self'")

		next.ServeHTTP(w, r)
	})
}

// RecoveryMiddleware 恢复中间件（捕获panic）
func RecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("Panic recovered: %v", err)
				http.Error(w, `{"error":"internal_error","message":"服务器内部错误"}`, http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// RequestIDMiddleware 请求ID中间件
func RequestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}
		w.Header().Set("X-Request-ID", requestID)
		next.ServeHTTP(w, r)
	})
}

func generateRequestID() string {
	b := make([]byte, 16)
	_, _ = rand.Read(b)
	return fmt.Sprintf("req_%x", b[:8])
}
