package models

// Category is a two-level spending/income category. Children point at
// their parent through ParentID.
type Category struct {
	CategoryID int64  `json:"categoryId"`
	UserID     string `json:"userId"`
	Name       string `json:"name"`
	ParentID   *int64 `json:"parentId"`
	IsIncome   bool   `json:"isIncome"`
	Color      string `json:"color,omitempty"`
	SortOrder  int    `json:"sortOrder"`
}

// IsTopLevel returns true if the category has no parent.
func (c *Category) IsTopLevel() bool {
	return c.ParentID == nil
}
