// Package model はドメインモデルを定義する。
package model

import "time"

// Post はブログ記事を表す。
// UserID は作成時に決定され、以後変更されない。
// Slug はタイトルから決定的に導出されるURL安全な識別子で、
// この層では一意性を要求しない。
type Post struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	Title     string    `json:"title"`
	Content   string    `json:"content"` // サニタイズ済みHTML
	Category  string    `json:"category,omitempty"`
	Image     string    `json:"image,omitempty"`
	Slug      string    `json:"slug"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
