package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// postColumns はSELECT句で使用するカラム並び。Scanの順序と一致させること。
const postColumns = "id, user_id, title, content, category, image, slug, created_at, updated_at"

// PostgresPostRepo はPostgreSQLを使用した投稿リポジトリ。
type PostgresPostRepo struct {
	db *sql.DB
}

// NewPostgresPostRepo はPostgresPostRepoを生成する。
func NewPostgresPostRepo(db *sql.DB) *PostgresPostRepo {
	return &PostgresPostRepo{db: db}
}

// Create は新規投稿を作成する。
func (r *PostgresPostRepo) Create(ctx context.Context, post *model.Post) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO posts (id, user_id, title, content, category, image, slug, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		post.ID, post.UserID, post.Title, post.Content, post.Category,
		post.Image, post.Slug, post.CreatedAt, post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}
	return nil
}

// List はフィルタ条件に一致する投稿一覧を取得する。
func (r *PostgresPostRepo) List(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
	query, args := buildListQuery(filter)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var post model.Post
		if err := rows.Scan(
			&post.ID, &post.UserID, &post.Title, &post.Content, &post.Category,
			&post.Image, &post.Slug, &post.CreatedAt, &post.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("投稿行の読み取りに失敗しました: %w", err)
		}
		posts = append(posts, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("投稿一覧の走査に失敗しました: %w", err)
	}

	return posts, nil
}

// buildListQuery はフィルタ条件から一覧取得クエリとバインド引数を構築する。
// 指定された条件はすべてANDで結合し、部分一致検索はタイトルと本文の
// いずれかにマッチすればよい（OR）。
func buildListQuery(filter model.PostFilter) (string, []interface{}) {
	query := `SELECT ` + postColumns + ` FROM posts`

	var conds []string
	var args []interface{}
	argIndex := 1

	if filter.UserID != "" {
		conds = append(conds, fmt.Sprintf("user_id = $%d", argIndex))
		args = append(args, filter.UserID)
		argIndex++
	}
	if filter.Category != "" {
		conds = append(conds, fmt.Sprintf("category = $%d", argIndex))
		args = append(args, filter.Category)
		argIndex++
	}
	if filter.Slug != "" {
		conds = append(conds, fmt.Sprintf("slug = $%d", argIndex))
		args = append(args, filter.Slug)
		argIndex++
	}
	if filter.PostID != "" {
		conds = append(conds, fmt.Sprintf("id = $%d", argIndex))
		args = append(args, filter.PostID)
		argIndex++
	}
	if filter.SearchTerm != "" {
		// 大文字小文字を区別しない部分一致。同一引数をタイトルと本文で共用する
		conds = append(conds, fmt.Sprintf("(title ILIKE $%d OR content ILIKE $%d)", argIndex, argIndex))
		args = append(args, "%"+escapeLikePattern(filter.SearchTerm)+"%")
		argIndex++
	}

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	direction := "DESC"
	if filter.Order == model.SortAsc {
		direction = "ASC"
	}
	query += " ORDER BY updated_at " + direction

	query += fmt.Sprintf(" OFFSET $%d LIMIT $%d", argIndex, argIndex+1)
	args = append(args, filter.StartIndex, filter.Limit)

	return query, args
}

// escapeLikePattern はLIKE/ILIKEパターンのメタ文字をエスケープする。
// 検索語はリテラルとして扱う。
func escapeLikePattern(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}

// CountAll はフィルタ条件に関わらず全投稿数を返す。
func (r *PostgresPostRepo) CountAll(ctx context.Context) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM posts`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("投稿総数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// CountCreatedSince は指定時刻以降に作成された投稿数を返す。
func (r *PostgresPostRepo) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM posts WHERE created_at >= $1`,
		since,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("期間内投稿数の取得に失敗しました: %w", err)
	}
	return count, nil
}

// Update は指定IDの投稿を部分更新し、更新後の投稿を返す。
// 対象が存在しない場合は(nil, nil)を返す。updated_atは常に更新され、
// slugとuser_idはこの経路では変更されない。
func (r *PostgresPostRepo) Update(ctx context.Context, id string, update model.PostUpdate, updatedAt time.Time) (*model.Post, error) {
	sets := []string{}
	args := []interface{}{id}
	argIndex := 2

	appendSet := func(column string, value *string) {
		if value == nil {
			return
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", column, argIndex))
		args = append(args, *value)
		argIndex++
	}
	appendSet("title", update.Title)
	appendSet("content", update.Content)
	appendSet("category", update.Category)
	appendSet("image", update.Image)

	sets = append(sets, fmt.Sprintf("updated_at = $%d", argIndex))
	args = append(args, updatedAt)

	query := fmt.Sprintf(
		`UPDATE posts SET %s WHERE id = $1 RETURNING %s`,
		strings.Join(sets, ", "), postColumns,
	)

	post := &model.Post{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&post.ID, &post.UserID, &post.Title, &post.Content, &post.Category,
		&post.Image, &post.Slug, &post.CreatedAt, &post.UpdatedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}

	return post, nil
}

// Delete は指定IDの投稿を削除する。対象が存在しなくてもエラーにしない。
func (r *PostgresPostRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PostRepository = (*PostgresPostRepo)(nil)
