// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/blogman/internal/model"
)

// accessTokenCookieName はトークンを運ぶCookieのフィールド名。
const accessTokenCookieName = "access_token"

// bearerPrefix はAuthorizationヘッダーのBearerスキーム接頭辞。
const bearerPrefix = "Bearer "

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

// claimContextKey はリクエストコンテキストに認証情報を格納するためのキー。
var claimContextKey = contextKey("user")

// TokenVerifier はトークン検証に必要なインターフェース。
// auth.Serviceの部分集合として定義する。
type TokenVerifier interface {
	VerifyToken(tokenString string) (*model.Claim, error)
}

// NewAuthMiddleware はリクエストから資格情報を取り出して検証する
// ミドルウェアを返す。探索順は (1) access_token Cookie、
// (2) Authorization: Bearer ヘッダー。どちらにも無ければ401。
//
// 検証成功時は復号した認証情報をリクエストコンテキストに注入して
// 次段へ進む。失敗はすべてそのリクエストで終端し、分類済みの
// メッセージとともに401を返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewNoTokenError())
				return
			}

			claim, err := verifier.VerifyToken(token)
			if err != nil {
				var apiErr *model.APIError
				if errors.As(err, &apiErr) {
					WriteErrorResponse(w, http.StatusUnauthorized, apiErr)
					return
				}
				WriteErrorResponse(w, http.StatusUnauthorized, model.NewTokenVerificationError())
				return
			}

			ctx := context.WithValue(r.Context(), claimContextKey, claim)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken はCookie、次いでBearerヘッダーの順で資格情報を探す。
// 見つからない場合は空文字列を返す。
func extractToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, bearerPrefix) {
		return strings.TrimPrefix(header, bearerPrefix)
	}

	return ""
}

// ClaimFromContext はリクエストコンテキストから認証情報を取得する。
// Authミドルウェアを通過したリクエストでのみ有効。
func ClaimFromContext(ctx context.Context) (*model.Claim, error) {
	claim, ok := ctx.Value(claimContextKey).(*model.Claim)
	if !ok || claim == nil {
		return nil, fmt.Errorf("claim not found in context")
	}
	return claim, nil
}

// ContextWithClaim はコンテキストに認証情報を注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithClaim(ctx context.Context, claim *model.Claim) context.Context {
	return context.WithValue(ctx, claimContextKey, claim)
}
