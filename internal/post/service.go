// Package post は投稿管理のドメインロジックを提供する。
package post

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/blogman/internal/model"
	"github.com/hitoshi/blogman/internal/repository"
	"github.com/hitoshi/blogman/internal/security"
)

const (
	// defaultCategory はカテゴリ未指定時に割り当てる値。
	defaultCategory = "uncategorized"

	// defaultImage はカバー画像未指定時に割り当てるプレースホルダー画像。
	defaultImage = "https://www.hostinger.com/tutorials/wp-content/uploads/sites/2/2021/09/how-to-write-a-blog-post.png"

	// defaultLimit は一覧取得のデフォルト件数。
	defaultLimit = 9
)

// Service は投稿管理のサービス層。
// 投稿の作成、一覧取得、更新、削除のビジネスロジックを提供する。
type Service struct {
	repo      repository.PostRepository
	sanitizer security.ContentSanitizerService

	// now はテストで時刻を固定するために差し替え可能にしている。
	now func() time.Time
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(repo repository.PostRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		repo:      repo,
		sanitizer: sanitizer,
		now:       time.Now,
	}
}

// CreateParams は投稿作成の入力値。
type CreateParams struct {
	Title    string
	Content  string
	Category string
	Image    string
}

// Create は新規投稿を作成する。
// タイトルと本文は必須。カテゴリとカバー画像は未指定時にデフォルト値を割り当てる。
// 本文は保存前にサニタイズされ、スラグはタイトルから導出される。
func (s *Service) Create(ctx context.Context, userID string, params CreateParams) (*model.Post, error) {
	if params.Title == "" || params.Content == "" {
		return nil, model.NewMissingFieldsError()
	}

	category := params.Category
	if category == "" {
		category = defaultCategory
	}
	image := params.Image
	if image == "" {
		image = defaultImage
	}

	now := s.now()
	post := &model.Post{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     params.Title,
		Content:   s.sanitizer.Sanitize(params.Content),
		Category:  category,
		Image:     image,
		Slug:      Slugify(params.Title),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(ctx, post); err != nil {
		return nil, fmt.Errorf("投稿の作成に失敗しました: %w", err)
	}

	return post, nil
}

// ListParams は投稿一覧取得の検索条件。
// ゼロ値のフィールドは条件に含めない。
type ListParams struct {
	UserID     string
	Category   string
	Slug       string
	PostID     string
	SearchTerm string
	Order      model.SortOrder
	StartIndex int
	Limit      int
}

// ListResult は投稿一覧と統計値をまとめたレスポンス。
type ListResult struct {
	Posts []model.Post `json:"posts"`
	// TotalPosts はフィルタ条件に関わらない全投稿数。
	TotalPosts int `json:"totalPosts"`
	// LastMonthPosts は直近1ヶ月に作成された投稿数。
	LastMonthPosts int `json:"lastMonthPosts"`
}

// List はフィルタ条件に一致する投稿一覧と全体統計を返す。
// StartIndexが負・Limitが非正の場合はデフォルト値（0、9件）に補正する。
// 並び順はupdatedAt基準で、"asc"指定時のみ昇順。
func (s *Service) List(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.StartIndex < 0 {
		params.StartIndex = 0
	}
	if params.Limit <= 0 {
		params.Limit = defaultLimit
	}

	order := model.SortDesc
	if params.Order == model.SortAsc {
		order = model.SortAsc
	}

	posts, err := s.repo.List(ctx, model.PostFilter{
		UserID:     params.UserID,
		Category:   params.Category,
		Slug:       params.Slug,
		PostID:     params.PostID,
		SearchTerm: params.SearchTerm,
		Order:      order,
		StartIndex: params.StartIndex,
		Limit:      params.Limit,
	})
	if err != nil {
		return nil, fmt.Errorf("投稿一覧の取得に失敗しました: %w", err)
	}

	total, err := s.repo.CountAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("投稿総数の取得に失敗しました: %w", err)
	}

	lastMonth, err := s.repo.CountCreatedSince(ctx, oneMonthAgo(s.now()))
	if err != nil {
		return nil, fmt.Errorf("直近投稿数の取得に失敗しました: %w", err)
	}

	return &ListResult{
		Posts:          posts,
		TotalPosts:     total,
		LastMonthPosts: lastMonth,
	}, nil
}

// UpdateParams は投稿の部分更新の入力値。nilのフィールドは変更しない。
type UpdateParams struct {
	Title    *string
	Content  *string
	Category *string
	Image    *string
}

// Update は指定IDの投稿を部分更新し、更新後の投稿を返す。
// 変更できるのはタイトル・本文・カテゴリ・カバー画像のみで、
// スラグとuserIdはこの経路では不変。本文は保存前にサニタイズする。
// 対象が存在しない場合は(nil, nil)を返す。
func (s *Service) Update(ctx context.Context, postID string, params UpdateParams) (*model.Post, error) {
	update := model.PostUpdate{
		Title:    params.Title,
		Category: params.Category,
		Image:    params.Image,
	}

	if params.Content != nil {
		sanitized := s.sanitizer.Sanitize(*params.Content)
		update.Content = &sanitized
	}

	updated, err := s.repo.Update(ctx, postID, update, s.now())
	if err != nil {
		return nil, fmt.Errorf("投稿の更新に失敗しました: %w", err)
	}

	return updated, nil
}

// Delete は指定IDの投稿を削除する。対象が存在しなくてもエラーにしない。
func (s *Service) Delete(ctx context.Context, postID string) error {
	if err := s.repo.Delete(ctx, postID); err != nil {
		return fmt.Errorf("投稿の削除に失敗しました: %w", err)
	}
	return nil
}

// Slugify はタイトルからURLスラグを導出する。
// 空白をハイフンに置換し、小文字化した上で英数字とハイフン以外を取り除く。
func Slugify(title string) string {
	slug := strings.ToLower(strings.ReplaceAll(title, " ", "-"))

	var b strings.Builder
	b.Grow(len(slug))
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// oneMonthAgo は基準時刻と同じ日の1ヶ月前の0時を返す。
// 月初の日数差（例: 3月31日の1ヶ月前）はカレンダー規則で正規化される。
func oneMonthAgo(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month()-1, now.Day(), 0, 0, 0, 0, now.Location())
}
