package livepager

import (
	"cmp"
	"context"
	"fmt"

	"github.com/samber/lo"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CursorPager pushes keyset pagination down into a gorm query.
//
// The resulting query selects rows strictly after the cursor on the position
// column and fetches one row more than the limit. The extra row only tells
// whether the page is the last one and is never returned to the caller, see
// NextPage.
type CursorPager[K cmp.Ordered] struct {
	limit  *int
	cursor *K
	column PositionColumn
}

func NewCursorPager[K cmp.Ordered](column PositionColumn) *CursorPager[K] {
	return &CursorPager[K]{column: column}
}

// WithRequest applies the limit and cursor of a PageRequest.
func (c *CursorPager[K]) WithRequest(req PageRequest[K]) *CursorPager[K] {
	if c == nil {
		c = new(CursorPager[K])
	}

	c.limit = req.Limit
	c.cursor = req.Cursor

	return c
}

// WithLimit sets the maximum number of returned records. The value is
// validated by Paginate and NextPage.
func (c *CursorPager[K]) WithLimit(limit int) *CursorPager[K] {
	if c == nil {
		c = new(CursorPager[K])
	}

	c.limit = &limit

	return c
}

// WithCursor sets the cursor explicitly. A nil cursor starts from the
// beginning of the dataset.
func (c *CursorPager[K]) WithCursor(cursor *K) *CursorPager[K] {
	if c == nil {
		c = new(CursorPager[K])
	}

	c.cursor = cursor

	return c
}

// WithColumn sets the position column.
func (c *CursorPager[K]) WithColumn(column PositionColumn) *CursorPager[K] {
	if c == nil {
		c = new(CursorPager[K])
	}

	c.column = column

	return c
}

// Paginate applies pagination to the dataset. Returns an error if pagination
// cannot be applied.
func (c *CursorPager[K]) Paginate(db *gorm.DB) (*gorm.DB, error) {
	err := c.validate()
	if err != nil {
		return nil, fmt.Errorf("cannot paginate: %w", err)
	}

	db = c.column.Apply(db)
	if c.cursor != nil {
		db = db.Clauses(clause.Expr{
			SQL:  fmt.Sprintf("%s %s ?", c.column.Column, c.column.Direction.ForOperator()),
			Vars: []any{*c.cursor},
		})
	}

	return db.Limit(c.GetDatasetLimit()), nil
}

// GetColumn returns the position column.
func (c *CursorPager[K]) GetColumn() PositionColumn {
	if c == nil {
		return PositionColumn{}
	}

	return c.column
}

// GetCursor returns the cursor stored in CursorPager as-is.
func (c *CursorPager[K]) GetCursor() *K {
	if c == nil {
		return nil
	}

	return c.cursor
}

// GetLimit returns the effective limit, DefaultLimit when none was set, or
// zero when the stored limit is invalid.
func (c *CursorPager[K]) GetLimit() int {
	if c == nil {
		return DefaultLimit
	}

	limit, err := ValidateLimit(c.limit)
	if err != nil {
		return 0
	}

	return limit
}

// GetDatasetLimit returns GetLimit() + 1, the number of rows to fetch.
func (c *CursorPager[K]) GetDatasetLimit() int {
	return c.GetLimit() + 1
}

func (c *CursorPager[K]) validate() error {
	if c == nil {
		return fmt.Errorf("cursor pager is nil")
	}

	if _, err := ValidateLimit(c.limit); err != nil {
		return err
	}

	if err := c.column.validate(); err != nil {
		return invalidArgument("%s", err)
	}

	return nil
}

// IsLastPage returns true if the fetched rows contain no lookahead row.
func IsLastPage[K cmp.Ordered, T any](pager *CursorPager[K], resultSet []T) bool {
	return len(resultSet) <= pager.GetLimit()
}

// TrimResultSet drops the lookahead row, if any. Suppose limit = 2 and
// resultSet = [a, b, c]: the result becomes [a, b], and b's key is the
// cursor for the next page.
func TrimResultSet[K cmp.Ordered, T any](pager *CursorPager[K], resultSet []T) []T {
	if IsLastPage(pager, resultSet) {
		return resultSet
	}

	return resultSet[:pager.GetLimit()]
}

// NextPage builds the Page for rows fetched with a query prepared by
// Paginate.
func NextPage[K cmp.Ordered, T any](
	pager *CursorPager[K],
	resultSet []T,
	position PositionFunc[T, K],
) (*Page[T, K], error) {
	err := pager.validate()
	if err != nil {
		return nil, fmt.Errorf("cannot build next page: %w", err)
	}

	if resultSet == nil {
		resultSet = make([]T, 0)
	}

	if IsLastPage(pager, resultSet) {
		return &Page[T, K]{Items: resultSet}, nil
	}

	resultSet = TrimResultSet(pager, resultSet)
	last := lo.LastOrEmpty(resultSet)

	return &Page[T, K]{
		Items:      resultSet,
		NextCursor: lo.ToPtr(position(last)),
	}, nil
}

// PaginateGORM runs a paginated query for T against db and returns the page.
// db may carry additional conditions; ordering and limit are owned by pager.
func PaginateGORM[T any, K cmp.Ordered](
	ctx context.Context,
	db *gorm.DB,
	pager *CursorPager[K],
	position PositionFunc[T, K],
) (*Page[T, K], error) {
	query, err := pager.Paginate(db.WithContext(ctx))
	if err != nil {
		return nil, err
	}

	var rows []T
	if err = query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("cannot fetch page: %w", err)
	}

	return NextPage(pager, rows, position)
}
