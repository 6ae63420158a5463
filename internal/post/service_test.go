package post

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hitoshi/blogman/internal/model"
)

// mockPostRepository はPostRepositoryのテスト用実装。
type mockPostRepository struct {
	createFn            func(ctx context.Context, post *model.Post) error
	listFn              func(ctx context.Context, filter model.PostFilter) ([]model.Post, error)
	countAllFn          func(ctx context.Context) (int, error)
	countCreatedSinceFn func(ctx context.Context, since time.Time) (int, error)
	updateFn            func(ctx context.Context, id string, update model.PostUpdate, updatedAt time.Time) (*model.Post, error)
	deleteFn            func(ctx context.Context, id string) error
}

func (m *mockPostRepository) Create(ctx context.Context, post *model.Post) error {
	return m.createFn(ctx, post)
}

func (m *mockPostRepository) List(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
	return m.listFn(ctx, filter)
}

func (m *mockPostRepository) CountAll(ctx context.Context) (int, error) {
	return m.countAllFn(ctx)
}

func (m *mockPostRepository) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return m.countCreatedSinceFn(ctx, since)
}

func (m *mockPostRepository) Update(ctx context.Context, id string, update model.PostUpdate, updatedAt time.Time) (*model.Post, error) {
	return m.updateFn(ctx, id, update, updatedAt)
}

func (m *mockPostRepository) Delete(ctx context.Context, id string) error {
	return m.deleteFn(ctx, id)
}

// mockSanitizer はContentSanitizerServiceのテスト用実装。
type mockSanitizer struct {
	sanitizeFn func(rawHTML string) string
}

func (m *mockSanitizer) Sanitize(rawHTML string) string {
	return m.sanitizeFn(rawHTML)
}

// passthroughSanitizer は入力をそのまま返すサニタイザを生成する。
func passthroughSanitizer() *mockSanitizer {
	return &mockSanitizer{sanitizeFn: func(rawHTML string) string { return rawHTML }}
}

// --- Create のテスト ---

func TestCreate_Success(t *testing.T) {
	var created *model.Post
	repo := &mockPostRepository{
		createFn: func(ctx context.Context, post *model.Post) error {
			created = post
			return nil
		},
	}

	svc := NewService(repo, passthroughSanitizer())
	fixed := time.Date(2026, 3, 15, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	post, err := svc.Create(context.Background(), "user-1", CreateParams{
		Title:    "My First Post",
		Content:  "<p>Hello</p>",
		Category: "golang",
		Image:    "https://example.com/cover.png",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if post.ID == "" {
		t.Error("expected generated post ID")
	}
	if post.UserID != "user-1" {
		t.Errorf("UserID = %q, want %q", post.UserID, "user-1")
	}
	if post.Slug != "my-first-post" {
		t.Errorf("Slug = %q, want %q", post.Slug, "my-first-post")
	}
	if !post.CreatedAt.Equal(fixed) || !post.UpdatedAt.Equal(fixed) {
		t.Errorf("timestamps = %v / %v, want %v", post.CreatedAt, post.UpdatedAt, fixed)
	}
	if created == nil || created.ID != post.ID {
		t.Error("expected repository Create to receive the post")
	}
}

func TestCreate_MissingRequiredFields(t *testing.T) {
	repo := &mockPostRepository{
		createFn: func(ctx context.Context, post *model.Post) error {
			t.Fatal("Create should not reach the repository")
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer())

	tests := []struct {
		name   string
		params CreateParams
	}{
		{"タイトルなし", CreateParams{Content: "<p>body</p>"}},
		{"本文なし", CreateParams{Title: "Title Only"}},
		{"両方なし", CreateParams{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "user-1", tt.params)
			if err == nil {
				t.Fatal("expected error for missing fields")
			}

			var apiErr *model.APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected *model.APIError, got %T", err)
			}
			if apiErr.Code != model.ErrCodeMissingFields {
				t.Errorf("Code = %q, want %q", apiErr.Code, model.ErrCodeMissingFields)
			}
			if apiErr.Message != "Please provide all required fields" {
				t.Errorf("Message = %q, want %q", apiErr.Message, "Please provide all required fields")
			}
		})
	}
}

func TestCreate_AppliesDefaults(t *testing.T) {
	repo := &mockPostRepository{
		createFn: func(ctx context.Context, post *model.Post) error { return nil },
	}
	svc := NewService(repo, passthroughSanitizer())

	post, err := svc.Create(context.Background(), "user-1", CreateParams{
		Title:   "Untagged Post",
		Content: "<p>body</p>",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if post.Category != "uncategorized" {
		t.Errorf("Category = %q, want %q", post.Category, "uncategorized")
	}
	if post.Image == "" {
		t.Error("expected default cover image")
	}
}

func TestCreate_SanitizesContent(t *testing.T) {
	repo := &mockPostRepository{
		createFn: func(ctx context.Context, post *model.Post) error { return nil },
	}
	sanitizer := &mockSanitizer{
		sanitizeFn: func(rawHTML string) string { return "<p>clean</p>" },
	}
	svc := NewService(repo, sanitizer)

	post, err := svc.Create(context.Background(), "user-1", CreateParams{
		Title:   "XSS Attempt",
		Content: "<script>alert(1)</script>",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if post.Content != "<p>clean</p>" {
		t.Errorf("Content = %q, want sanitized output", post.Content)
	}
}

func TestCreate_RepositoryError(t *testing.T) {
	repo := &mockPostRepository{
		createFn: func(ctx context.Context, post *model.Post) error {
			return errors.New("connection refused")
		},
	}
	svc := NewService(repo, passthroughSanitizer())

	_, err := svc.Create(context.Background(), "user-1", CreateParams{
		Title:   "Doomed Post",
		Content: "<p>body</p>",
	})
	if err == nil {
		t.Fatal("expected error from repository failure")
	}
}

// --- Slugify のテスト ---

func TestSlugify(t *testing.T) {
	tests := []struct {
		name  string
		title string
		want  string
	}{
		{"空白はハイフンに", "My First Post", "my-first-post"},
		{"大文字は小文字に", "GoLang Tips", "golang-tips"},
		{"記号は除去", "Hello, World! (2026)", "hello-world-2026"},
		{"連続空白は連続ハイフンのまま", "a  b", "a--b"},
		{"非ASCII文字は除去", "日本語タイトル post", "-post"},
		{"空文字列", "", ""},
		{"数字とハイフンは保持", "go-1.25 release", "go-125-release"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Slugify(tt.title); got != tt.want {
				t.Errorf("Slugify(%q) = %q, want %q", tt.title, got, tt.want)
			}
		})
	}
}

// --- List のテスト ---

func TestList_PassesFilterAndReturnsStats(t *testing.T) {
	var gotFilter model.PostFilter
	var gotSince time.Time

	repo := &mockPostRepository{
		listFn: func(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
			gotFilter = filter
			return []model.Post{{ID: "p-1"}, {ID: "p-2"}}, nil
		},
		countAllFn: func(ctx context.Context) (int, error) { return 42, nil },
		countCreatedSinceFn: func(ctx context.Context, since time.Time) (int, error) {
			gotSince = since
			return 7, nil
		},
	}

	svc := NewService(repo, passthroughSanitizer())
	fixed := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)
	svc.now = func() time.Time { return fixed }

	result, err := svc.List(context.Background(), ListParams{
		UserID:     "user-1",
		Category:   "golang",
		SearchTerm: "testing",
		StartIndex: 9,
		Limit:      3,
	})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if gotFilter.UserID != "user-1" || gotFilter.Category != "golang" || gotFilter.SearchTerm != "testing" {
		t.Errorf("filter = %+v, filter fields not forwarded", gotFilter)
	}
	if gotFilter.StartIndex != 9 || gotFilter.Limit != 3 {
		t.Errorf("window = %d/%d, want 9/3", gotFilter.StartIndex, gotFilter.Limit)
	}
	if gotFilter.Order != model.SortDesc {
		t.Errorf("Order = %q, want desc by default", gotFilter.Order)
	}

	if len(result.Posts) != 2 {
		t.Errorf("len(Posts) = %d, want 2", len(result.Posts))
	}
	if result.TotalPosts != 42 {
		t.Errorf("TotalPosts = %d, want 42", result.TotalPosts)
	}
	if result.LastMonthPosts != 7 {
		t.Errorf("LastMonthPosts = %d, want 7", result.LastMonthPosts)
	}

	// 1ヶ月前の同日0時が基準になる
	wantSince := time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC)
	if !gotSince.Equal(wantSince) {
		t.Errorf("since = %v, want %v", gotSince, wantSince)
	}
}

func TestList_AppliesDefaults(t *testing.T) {
	var gotFilter model.PostFilter
	repo := &mockPostRepository{
		listFn: func(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
			gotFilter = filter
			return nil, nil
		},
		countAllFn:          func(ctx context.Context) (int, error) { return 0, nil },
		countCreatedSinceFn: func(ctx context.Context, since time.Time) (int, error) { return 0, nil },
	}

	svc := NewService(repo, passthroughSanitizer())

	if _, err := svc.List(context.Background(), ListParams{StartIndex: -5, Limit: 0}); err != nil {
		t.Fatalf("List failed: %v", err)
	}

	if gotFilter.StartIndex != 0 {
		t.Errorf("StartIndex = %d, want 0", gotFilter.StartIndex)
	}
	if gotFilter.Limit != 9 {
		t.Errorf("Limit = %d, want 9", gotFilter.Limit)
	}
}

func TestList_AscendingOrder(t *testing.T) {
	var gotFilter model.PostFilter
	repo := &mockPostRepository{
		listFn: func(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
			gotFilter = filter
			return nil, nil
		},
		countAllFn:          func(ctx context.Context) (int, error) { return 0, nil },
		countCreatedSinceFn: func(ctx context.Context, since time.Time) (int, error) { return 0, nil },
	}

	svc := NewService(repo, passthroughSanitizer())

	if _, err := svc.List(context.Background(), ListParams{Order: model.SortAsc}); err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if gotFilter.Order != model.SortAsc {
		t.Errorf("Order = %q, want asc", gotFilter.Order)
	}
}

func TestList_RepositoryError(t *testing.T) {
	repo := &mockPostRepository{
		listFn: func(ctx context.Context, filter model.PostFilter) ([]model.Post, error) {
			return nil, errors.New("connection refused")
		},
	}
	svc := NewService(repo, passthroughSanitizer())

	if _, err := svc.List(context.Background(), ListParams{}); err == nil {
		t.Fatal("expected error from repository failure")
	}
}

// --- oneMonthAgo のテスト ---

func TestOneMonthAgo_NormalizesCalendarOverflow(t *testing.T) {
	tests := []struct {
		name string
		now  time.Time
		want time.Time
	}{
		{
			name: "通常の月",
			now:  time.Date(2026, 3, 15, 18, 45, 0, 0, time.UTC),
			want: time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "1月は前年12月になる",
			now:  time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC),
			want: time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "3月31日の1ヶ月前は正規化されて3月3日",
			now:  time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC),
			want: time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), // 2月31日 -> 3月3日
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := oneMonthAgo(tt.now); !got.Equal(tt.want) {
				t.Errorf("oneMonthAgo(%v) = %v, want %v", tt.now, got, tt.want)
			}
		})
	}
}

// --- Update のテスト ---

func TestUpdate_SanitizesContentAndKeepsSlug(t *testing.T) {
	var gotUpdate model.PostUpdate
	repo := &mockPostRepository{
		updateFn: func(ctx context.Context, id string, update model.PostUpdate, updatedAt time.Time) (*model.Post, error) {
			gotUpdate = update
			// スラグは作成時の値のまま返る
			return &model.Post{ID: id, Title: *update.Title, Slug: "original-slug", UpdatedAt: updatedAt}, nil
		},
	}
	sanitizer := &mockSanitizer{sanitizeFn: func(rawHTML string) string { return "CLEAN:" + rawHTML }}
	svc := NewService(repo, sanitizer)

	title := "New Shiny Title"
	content := "<p>updated</p>"
	updated, err := svc.Update(context.Background(), "post-1", UpdateParams{
		Title:   &title,
		Content: &content,
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated == nil {
		t.Fatal("expected updated post")
	}

	if gotUpdate.Title == nil || *gotUpdate.Title != "New Shiny Title" {
		t.Errorf("Title update = %v, want New Shiny Title", gotUpdate.Title)
	}
	if gotUpdate.Content == nil || *gotUpdate.Content != "CLEAN:<p>updated</p>" {
		t.Errorf("Content update = %v, want sanitized content", gotUpdate.Content)
	}
	// タイトルを変更してもスラグは更新経路では不変
	if updated.Slug != "original-slug" {
		t.Errorf("Slug = %q, want original-slug", updated.Slug)
	}
}

func TestUpdate_PartialFieldsLeaveOthersNil(t *testing.T) {
	var gotUpdate model.PostUpdate
	repo := &mockPostRepository{
		updateFn: func(ctx context.Context, id string, update model.PostUpdate, updatedAt time.Time) (*model.Post, error) {
			gotUpdate = update
			return &model.Post{ID: id}, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer())

	category := "news"
	if _, err := svc.Update(context.Background(), "post-1", UpdateParams{Category: &category}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if gotUpdate.Category == nil || *gotUpdate.Category != "news" {
		t.Errorf("Category update = %v, want news", gotUpdate.Category)
	}
	if gotUpdate.Title != nil || gotUpdate.Content != nil || gotUpdate.Image != nil {
		t.Errorf("unexpected field updates: %+v", gotUpdate)
	}
}

func TestUpdate_MissingPostReturnsNil(t *testing.T) {
	repo := &mockPostRepository{
		updateFn: func(ctx context.Context, id string, update model.PostUpdate, updatedAt time.Time) (*model.Post, error) {
			return nil, nil
		},
	}
	svc := NewService(repo, passthroughSanitizer())

	title := "Anything"
	updated, err := svc.Update(context.Background(), "missing-post", UpdateParams{Title: &title})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated != nil {
		t.Errorf("expected nil for missing post, got %+v", updated)
	}
}

// --- Delete のテスト ---

func TestDelete_DelegatesToRepository(t *testing.T) {
	var deletedID string
	repo := &mockPostRepository{
		deleteFn: func(ctx context.Context, id string) error {
			deletedID = id
			return nil
		},
	}
	svc := NewService(repo, passthroughSanitizer())

	if err := svc.Delete(context.Background(), "post-1"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if deletedID != "post-1" {
		t.Errorf("deleted id = %q, want %q", deletedID, "post-1")
	}
}

func TestDelete_RepositoryError(t *testing.T) {
	repo := &mockPostRepository{
		deleteFn: func(ctx context.Context, id string) error {
			return errors.New("connection refused")
		},
	}
	svc := NewService(repo, passthroughSanitizer())

	if err := svc.Delete(context.Background(), "post-1"); err == nil {
		t.Fatal("expected error from repository failure")
	}
}
