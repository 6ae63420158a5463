package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/middleware"
)

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	Logger            *slog.Logger
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// 投稿管理
	PostService PostServiceInterface
	Metrics     MetricsRecorder

	// 運用エンドポイント
	HealthDB       DBPinger
	MetricsHandler http.Handler

	// MetricsMiddleware はリクエストのステータスとレイテンシを記録する。nil可。
	MetricsMiddleware func(next http.Handler) http.Handler
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → SecurityHeaders → CORS → Metrics → Logging
//
// 運用エンドポイント（/health、/metrics）は認証の外に配置し、
// /post以下には Auth → RateLimit(General) を追加で適用する。
// 変更系の3エンドポイントにはさらに変更系専用レート制限をかける。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	if deps.MetricsMiddleware != nil {
		r.Use(deps.MetricsMiddleware)
	}
	r.Use(middleware.NewLoggingMiddleware(deps.Logger))

	postHandler := NewPostHandler(deps.PostService, deps.Metrics)
	healthHandler := NewHealthHandler(deps.HealthDB)

	// --- 認証不要のルート ---

	r.Get("/health", healthHandler.Health)
	if deps.MetricsHandler != nil {
		r.Method(http.MethodGet, "/metrics", deps.MetricsHandler)
	}

	// --- 認証が必要なルート ---
	r.Group(func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
		r.Use(deps.RateLimiter.GeneralMiddleware())

		mutation := deps.RateLimiter.MutationMiddleware()

		r.Route("/post", func(r chi.Router) {
			r.Get("/getposts", postHandler.GetPosts)

			r.With(mutation).Post("/create", postHandler.CreatePost)
			r.With(mutation).Delete("/deletepost/{postId}/{userId}", postHandler.DeletePost)
			r.With(mutation).Put("/updatepost/{postId}/{userId}", postHandler.UpdatePost)
		})
	})

	return r
}
