// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// PostRepository は投稿データの永続化インターフェース。
type PostRepository interface {
	// Create は投稿を作成する。
	Create(ctx context.Context, post *model.Post) error

	// List はフィルタ条件に一致する投稿一覧を取得する。
	// 条件はすべてANDで結合され、updatedAtで並び替えた上で
	// StartIndex/Limitによるウィンドウを適用する。
	List(ctx context.Context, filter model.PostFilter) ([]model.Post, error)

	// CountAll はフィルタ条件に関わらず全投稿数を返す。
	CountAll(ctx context.Context) (int, error)

	// CountCreatedSince は指定時刻以降に作成された投稿数を返す。
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)

	// Update は指定IDの投稿を部分更新し、更新後の投稿を返す。
	// 対象が存在しない場合は(nil, nil)を返す。
	Update(ctx context.Context, id string, update model.PostUpdate, updatedAt time.Time) (*model.Post, error)

	// Delete は指定IDの投稿を削除する。対象が存在しなくてもエラーにしない。
	Delete(ctx context.Context, id string) error
}
