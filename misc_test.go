package livepager

import (
	"database/sql"

	"github.com/DATA-DOG/go-sqlmock"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

type gormMockFn func() (string, *gorm.DB, sqlmock.Sqlmock, error)

// _gormMocks lists every dialect the SQL tests run against.
var _gormMocks = []gormMockFn{
	newGORMMySQLMock,
	newGORMPostgresMock,
}

func newGORMMock(dialect string, dialector func(conn *sql.DB) gorm.Dialector) (string, *gorm.DB, sqlmock.Sqlmock, error) {
	conn, mock, err := sqlmock.New()
	if err != nil {
		return "", nil, nil, err
	}

	db, err := gorm.Open(dialector(conn), &gorm.Config{})
	if err != nil {
		return "", nil, nil, err
	}

	return dialect, db.Debug(), mock, nil
}

func newGORMMySQLMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	return newGORMMock("mysql", func(conn *sql.DB) gorm.Dialector {
		// Skip the version probe, sqlmock would see an unexpected query.
		return mysql.New(mysql.Config{Conn: conn, SkipInitializeWithVersion: true})
	})
}

func newGORMPostgresMock() (string, *gorm.DB, sqlmock.Sqlmock, error) {
	return newGORMMock("postgres", func(conn *sql.DB) gorm.Dialector {
		return postgres.New(postgres.Config{Conn: conn})
	})
}
