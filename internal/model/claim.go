// Package model はドメインモデルを定義する。
package model

// Claim は検証済みトークンから復号したリクエスト単位の認証情報を表す。
// リクエストごとにAuthミドルウェアが生成してコンテキストに載せ、
// レスポンス送信後に破棄される。永続化はしない。
type Claim struct {
	ID      string `json:"id"`
	IsAdmin bool   `json:"isAdmin"`
}
