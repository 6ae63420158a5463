// Package auth は署名付きトークンの検証と発行を提供する。
//
// トークンはプロセス全体で共有するシークレットによるHMAC署名（HS256）で、
// 検証は純粋な同期チェックとして行う。リトライはしない。
// 検証失敗はステータス同一（401相当）・メッセージ別の
// model.APIErrorに分類して返す。
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/hitoshi/blogman/internal/model"
)

// tokenClaims はトークンのペイロードを表す。
// id と isAdmin は発行側（ログインサービス）と共有するクレーム名。
type tokenClaims struct {
	jwt.RegisteredClaims
	UserID  string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
}

// Service はトークンの検証と発行を行う。
// シークレットは起動時に1回設定され、以後読み取り専用。
type Service struct {
	secret []byte
}

// NewService はServiceを生成する。
// secretには設定から明示的に渡された共有シークレットを指定する。
func NewService(secret []byte) *Service {
	return &Service{secret: secret}
}

// VerifyToken はトークン文字列を検証し、復号した認証情報を返す。
//
// 失敗は以下のとおり分類する。ステータスはいずれも401相当で、
// メッセージのみ区別可能:
//   - 期限切れ → model.NewTokenExpiredError
//   - 形式不正・署名不正 → model.NewInvalidTokenError
//   - その他の検証失敗 → model.NewTokenVerificationError
func (s *Service) VerifyToken(tokenString string) (*model.Claim, error) {
	claims := &tokenClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return nil, classifyVerifyError(err)
	}

	if !token.Valid {
		return nil, model.NewTokenVerificationError()
	}

	return &model.Claim{
		ID:      claims.UserID,
		IsAdmin: claims.IsAdmin,
	}, nil
}

// Issue はclaimをペイロードとする署名付きトークンを発行する。
// テストとtokenサブコマンドで使用する。ログイン機能は本サービスの
// 範囲外のため、運用上のトークン発行はここに集約する。
func (s *Service) Issue(claim *model.Claim, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, tokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   claim.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		UserID:  claim.ID,
		IsAdmin: claim.IsAdmin,
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// classifyVerifyError はjwtライブラリの検証エラーをAPIErrorへ変換する。
func classifyVerifyError(err error) *model.APIError {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return model.NewTokenExpiredError()
	case errors.Is(err, jwt.ErrTokenMalformed),
		errors.Is(err, jwt.ErrTokenSignatureInvalid),
		errors.Is(err, jwt.ErrTokenUnverifiable):
		return model.NewInvalidTokenError()
	default:
		return model.NewTokenVerificationError()
	}
}
