package model

// SortOrder は一覧取得時の並び順を表す。
type SortOrder string

const (
	// SortAsc はupdatedAt昇順。
	SortAsc SortOrder = "asc"
	// SortDesc はupdatedAt降順（デフォルト）。
	SortDesc SortOrder = "desc"
)

// PostFilter は投稿一覧取得の検索条件を表す。
// ゼロ値のフィールドは条件に含めない。指定された条件はすべてANDで結合される。
type PostFilter struct {
	UserID     string
	Category   string
	Slug       string
	PostID     string
	SearchTerm string // タイトルまたは本文への部分一致（大文字小文字を区別しない）
	Order      SortOrder
	StartIndex int
	Limit      int
}

// PostUpdate は投稿の部分更新を表す。
// nilのフィールドは更新しない。スラグとuserIdは更新経路では変更できない。
type PostUpdate struct {
	Title    *string
	Content  *string
	Category *string
	Image    *string
}
