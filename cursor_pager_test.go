package livepager

import (
	"context"
	"database/sql/driver"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var _createdAtASC = PositionColumn{Column: "created_at", Direction: DirectionASC}

func Test_CursorPager_WithMethods(t *testing.T) {
	p := (*CursorPager[int64])(nil)
	p = p.WithLimit(5).
		WithCursor(lo.ToPtr[int64](7)).
		WithColumn(_createdAtASC)

	require.Equal(t, 5, p.GetLimit())
	require.Equal(t, 6, p.GetDatasetLimit())
	require.EqualValues(t, 7, *p.GetCursor())
	require.Equal(t, _createdAtASC, p.GetColumn())

	p = p.WithRequest(PageRequest[int64]{})
	assert.Equal(t, DefaultLimit, p.GetLimit())
	assert.Nil(t, p.GetCursor())
}

func Test_CursorPager_validate(t *testing.T) {
	tests := []struct {
		name    string
		pager   *CursorPager[int64]
		wantErr bool
	}{
		{
			name:    "standard case, ok",
			pager:   NewCursorPager[int64](_createdAtASC).WithLimit(10).WithCursor(lo.ToPtr[int64](1)),
			wantErr: false,
		},
		{
			name:    "default limit, ok",
			pager:   NewCursorPager[int64](_createdAtASC),
			wantErr: false,
		},
		{
			name:    "limit above max is rejected",
			pager:   NewCursorPager[int64](_createdAtASC).WithLimit(MaxLimit + 1),
			wantErr: true,
		},
		{
			name:    "zero limit is rejected",
			pager:   NewCursorPager[int64](_createdAtASC).WithLimit(0),
			wantErr: true,
		},
		{
			name:    "pager with no column is invalid",
			pager:   new(CursorPager[int64]).WithLimit(10),
			wantErr: true,
		},
		{
			name:    "nil pager is invalid",
			pager:   (*CursorPager[int64])(nil),
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gotErr := tt.pager.validate(); (gotErr != nil) != tt.wantErr {
				t.Errorf("%s: got error = %v, want error = %v", tt.name, gotErr, tt.wantErr)
			}
		})
	}
}

func Test_CursorPager_Paginate(t *testing.T) {
	sqlMockFnList := []func() (string, *gorm.DB, sqlmock.Sqlmock, error){
		newGORMMySQLMock,
		newGORMPostgresMock,
	}

	tests := []struct {
		name          string
		limit         int
		cursor        *int64
		column        PositionColumn
		expectedQuery string
		expectedArgs  []driver.Value
		expectedRows  *sqlmock.Rows
	}{
		{
			name:          "pagination with cursor fetches a lookahead row",
			limit:         3,
			cursor:        lo.ToPtr[int64](5),
			column:        _createdAtASC,
			expectedQuery: "^SELECT \\* FROM [`'\"]posts[`'\"] WHERE title <> [`'\"]draft[`'\"] AND created_at > (?:\\$\\d|\\?) ORDER BY created_at ASC LIMIT 4$",
			expectedArgs:  []driver.Value{5},
			expectedRows:  sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a", 6),
		},
		{
			name:          "pagination with nil cursor",
			limit:         10,
			cursor:        nil,
			column:        _createdAtASC,
			expectedQuery: "^SELECT \\* FROM [`'\"]posts[`'\"] WHERE title <> [`'\"]draft[`'\"] ORDER BY created_at ASC LIMIT 11$",
			expectedArgs:  nil,
			expectedRows:  sqlmock.NewRows([]string{"id", "created_at"}).AddRow("a", 0),
		},
		{
			name:          "pagination with DESC ordering",
			limit:         3,
			cursor:        lo.ToPtr[int64](5),
			column:        PositionColumn{Column: "created_at", Direction: DirectionDESC},
			expectedQuery: "^SELECT \\* FROM [`'\"]posts[`'\"] WHERE title <> [`'\"]draft[`'\"] AND created_at < (?:\\$\\d|\\?) ORDER BY created_at DESC LIMIT 4$",
			expectedArgs:  []driver.Value{5},
			expectedRows:  sqlmock.NewRows([]string{"id", "created_at"}).AddRow("b", 4),
		},
	}

	for _, sqlMockFn := range sqlMockFnList {
		for _, tt := range tests {
			dialect, db, dbMock, err := sqlMockFn()
			t.Run(fmt.Sprintf("%s %s", dialect, tt.name), func(t *testing.T) {
				if err != nil {
					t.Fatalf("gorm open: %v", err)
				}

				expectation := dbMock.ExpectQuery(tt.expectedQuery)
				if len(tt.expectedArgs) > 0 {
					expectation = expectation.WithArgs(tt.expectedArgs...)
				}
				expectation.WillReturnRows(tt.expectedRows)

				p := NewCursorPager[int64](tt.column).
					WithLimit(tt.limit).
					WithCursor(tt.cursor)

				paged, err := p.Paginate(db.Select("*").Table("posts").Where("title <> 'draft'"))
				if err != nil {
					t.Fatalf("paginate: %v", err)
				}

				err = paged.Find(&[]tPost{}).Error
				if err != nil {
					t.Fatalf("find: %v", err)
				}

				assert.NoError(t, dbMock.ExpectationsWereMet())
			})
		}
	}
}

func Test_CursorPager_Paginate_RejectsInvalidPager(t *testing.T) {
	_, db, _, err := newGORMPostgresMock()
	require.NoError(t, err)

	_, err = NewCursorPager[int64](PositionColumn{Column: "id;--", Direction: DirectionASC}).Paginate(db)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewCursorPager[int64](_createdAtASC).WithLimit(-3).Paginate(db)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func Test_NextPage(t *testing.T) {
	tests := []struct {
		name           string
		pager          *CursorPager[int64]
		rows           []tPost
		expectedLen    int
		expectedCursor *int64
		expectedError  bool
	}{
		{
			name:           "lookahead row present",
			pager:          NewCursorPager[int64](_createdAtASC).WithLimit(2),
			rows:           makePosts(3),
			expectedLen:    2,
			expectedCursor: lo.ToPtr[int64](1),
		},
		{
			name:           "exactly limit rows is the last page",
			pager:          NewCursorPager[int64](_createdAtASC).WithLimit(2),
			rows:           makePosts(2),
			expectedLen:    2,
			expectedCursor: nil,
		},
		{
			name:           "short page",
			pager:          NewCursorPager[int64](_createdAtASC).WithLimit(2),
			rows:           makePosts(1),
			expectedLen:    1,
			expectedCursor: nil,
		},
		{
			name:           "no rows",
			pager:          NewCursorPager[int64](_createdAtASC).WithLimit(2),
			rows:           nil,
			expectedLen:    0,
			expectedCursor: nil,
		},
		{
			name:          "invalid pager",
			pager:         NewCursorPager[int64](_createdAtASC).WithLimit(1000),
			rows:          makePosts(3),
			expectedError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := NextPage(tt.pager, tt.rows, postPosition)
			if tt.expectedError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, page.Items)
			assert.Len(t, page.Items, tt.expectedLen)
			assert.Equal(t, tt.expectedCursor, page.NextCursor)
		})
	}
}

func Test_PaginateGORM_WalksAllPages(t *testing.T) {
	_, db, dbMock, err := newGORMPostgresMock()
	require.NoError(t, err)

	dbMock.ExpectQuery("^SELECT \\* FROM \"t_posts\" ORDER BY created_at ASC LIMIT 3$").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow("p0", 0).AddRow("p1", 1).AddRow("p2", 2))
	dbMock.ExpectQuery("^SELECT \\* FROM \"t_posts\" WHERE created_at > \\$1 ORDER BY created_at ASC LIMIT 3$").
		WithArgs(1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).
			AddRow("p2", 2))

	ctx := context.Background()
	pager := NewCursorPager[int64](_createdAtASC).WithLimit(2)

	page, err := PaginateGORM(ctx, db, pager, postPosition)
	require.NoError(t, err)
	assert.Equal(t, []string{"p0", "p1"}, lo.Map(page.Items, func(p tPost, _ int) string { return p.ID }))
	require.EqualValues(t, 1, *page.NextCursor)

	page, err = PaginateGORM(ctx, db, pager.WithCursor(page.NextCursor), postPosition)
	require.NoError(t, err)
	assert.Equal(t, []string{"p2"}, lo.Map(page.Items, func(p tPost, _ int) string { return p.ID }))
	assert.Nil(t, page.NextCursor)

	assert.NoError(t, dbMock.ExpectationsWereMet())
}
