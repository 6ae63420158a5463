// Package handler はHTTPハンドラーとルーティングを提供する。
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/blogman/internal/middleware"
	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/post"
)

// PostServiceInterface は投稿ハンドラーが必要とするサービスインターフェース。
type PostServiceInterface interface {
	// Create は新規投稿を作成する。
	Create(ctx context.Context, userID string, params post.CreateParams) (*model.Post, error)
	// List はフィルタ条件に一致する投稿一覧と統計を返す。
	List(ctx context.Context, params post.ListParams) (*post.ListResult, error)
	// Update は投稿を部分更新する。対象が存在しない場合は(nil, nil)を返す。
	Update(ctx context.Context, postID string, params post.UpdateParams) (*model.Post, error)
	// Delete は投稿を削除する。対象が存在しなくてもエラーにしない。
	Delete(ctx context.Context, postID string) error
}

// MetricsRecorder は投稿ハンドラーが記録するメトリクスのインターフェース。
// metrics.Collectorの部分集合として定義する。
type MetricsRecorder interface {
	RecordPostCreated()
	RecordPostUpdated()
	RecordPostDeleted()
}

// noopMetrics はメトリクス未設定時に使うレコーダー。
type noopMetrics struct{}

func (noopMetrics) RecordPostCreated() {}
func (noopMetrics) RecordPostUpdated() {}
func (noopMetrics) RecordPostDeleted() {}

// PostHandler は投稿管理のHTTPハンドラー。
type PostHandler struct {
	service PostServiceInterface
	metrics MetricsRecorder
}

// NewPostHandler はPostHandlerを生成する。metricsはnil可。
func NewPostHandler(service PostServiceInterface, metrics MetricsRecorder) *PostHandler {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	return &PostHandler{
		service: service,
		metrics: metrics,
	}
}

// createPostRequest は投稿作成リクエストのボディ。
type createPostRequest struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	Category string `json:"category"`
	Image    string `json:"image"`
}

// updatePostRequest は投稿更新リクエストのボディ。nilのフィールドは変更しない。
type updatePostRequest struct {
	Title    *string `json:"title"`
	Content  *string `json:"content"`
	Category *string `json:"category"`
	Image    *string `json:"image"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// CreatePost は投稿作成を処理する。管理者のみ実行できる。
// POST /post/create
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	claim, err := middleware.ClaimFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	if !claim.IsAdmin {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewCreateNotAllowedError())
		return
	}

	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "Failed to parse the request body",
			Category: "validation",
			Action:   "Send a valid JSON body.",
		})
		return
	}

	created, err := h.service.Create(r.Context(), claim.ID, post.CreateParams{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Image:    req.Image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordPostCreated()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(created)
}

// GetPosts は投稿一覧を取得する。クエリパラメータで動的にフィルタできる。
// 数値パラメータが不正な場合はデフォルト値（startIndex=0、limit=9）で扱う。
// GET /post/getposts
func (h *PostHandler) GetPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	// Atoi失敗時はゼロ値のまま渡し、サービス層のデフォルトに任せる
	startIndex, _ := strconv.Atoi(q.Get("startIndex"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	order := model.SortDesc
	if q.Get("order") == string(model.SortAsc) {
		order = model.SortAsc
	}

	result, err := h.service.List(r.Context(), post.ListParams{
		UserID:     q.Get("userId"),
		Category:   q.Get("category"),
		Slug:       q.Get("slug"),
		PostID:     q.Get("postId"),
		SearchTerm: q.Get("searchTerm"),
		Order:      order,
		StartIndex: startIndex,
		Limit:      limit,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

// DeletePost は投稿削除を処理する。
// 管理者かつパスのuserIdが本人と一致する場合のみ実行できる。
// 対象の投稿が存在しなくても成功レスポンスを返す。
// DELETE /post/deletepost/{postId}/{userId}
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	claim, err := middleware.ClaimFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	userID := chi.URLParam(r, "userId")
	if !claim.IsAdmin || claim.ID != userID {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewDeleteNotAllowedError())
		return
	}

	postID := chi.URLParam(r, "postId")
	if err := h.service.Delete(r.Context(), postID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordPostDeleted()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode("The post has been deleted")
}

// UpdatePost は投稿の部分更新を処理する。
// 管理者かつパスのuserIdが本人と一致する場合のみ実行できる。
// 対象の投稿が存在しない場合は200でnullを返す。
// PUT /post/updatepost/{postId}/{userId}
func (h *PostHandler) UpdatePost(w http.ResponseWriter, r *http.Request) {
	claim, err := middleware.ClaimFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
		return
	}

	userID := chi.URLParam(r, "userId")
	if !claim.IsAdmin || claim.ID != userID {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewUpdateNotAllowedError())
		return
	}

	var req updatePostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
			Code:     "INVALID_REQUEST",
			Message:  "Failed to parse the request body",
			Category: "validation",
			Action:   "Send a valid JSON body.",
		})
		return
	}

	postID := chi.URLParam(r, "postId")
	updated, err := h.service.Update(r.Context(), postID, post.UpdateParams{
		Title:    req.Title,
		Content:  req.Content,
		Category: req.Category,
		Image:    req.Image,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if updated != nil {
		h.metrics.RecordPostUpdated()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(updated)
}

// --- ヘルパー関数 ---

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     model.ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Wait a moment and try again.",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeMissingFields:
		return http.StatusBadRequest
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeNoToken, model.ErrCodeTokenExpired, model.ErrCodeInvalidToken, model.ErrCodeTokenVerification:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}
