package postdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/Alp4ka/livepager"
)

// Post is a row of the posts table. CreatedAt is its position key: unique
// and growing with every insert.
type Post struct {
	ID        string `gorm:"primaryKey;size:36" json:"id"`
	Title     string `gorm:"not null" json:"title"`
	CreatedAt int64  `gorm:"column:created_at;uniqueIndex;autoCreateTime:false" json:"createdAt"`
}

// Position returns the position key of p.
func Position(p Post) int64 {
	return p.CreatedAt
}

// PositionColumn is the column holding Post positions.
var PositionColumn = livepager.PositionColumn{Column: "created_at", Direction: livepager.DirectionASC}

// Driver names a supported SQL dialect.
type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverMySQL    Driver = "mysql"
	DriverPostgres Driver = "postgres"
)

var _dialectors = map[Driver]func(dsn string) gorm.Dialector{
	DriverSQLite:   sqlite.Open,
	DriverMySQL:    mysql.Open,
	DriverPostgres: postgres.Open,
}

// Drivers returns the supported driver names.
func Drivers() []Driver {
	return []Driver{DriverSQLite, DriverMySQL, DriverPostgres}
}

// Dialector returns the gorm dialector registered for driver.
func Dialector(driver Driver, dsn string) (gorm.Dialector, error) {
	open, ok := _dialectors[driver]
	if !ok {
		return nil, fmt.Errorf("%w: unsupported driver '%s'", livepager.ErrInvalidArgument, driver)
	}

	return open(dsn), nil
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the store logger. By default nothing is logged.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// Store keeps posts in a SQL database. All state, the request counter
// included, belongs to the Store value so separate stores never interfere.
type Store struct {
	db    *gorm.DB
	posts *livepager.GORMCollection[Post]
	log   logrus.FieldLogger
	count atomic.Int64
	// highest position handed out by this store
	last  atomic.Int64
}

// Open connects to the database identified by driver and dsn.
func Open(driver Driver, dsn string, opts ...Option) (*Store, error) {
	driver = Driver(strings.ToLower(string(driver)))
	dialector, err := Dialector(driver, dsn)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		return nil, fmt.Errorf("cannot open %s database: %w", driver, err)
	}

	if driver == DriverSQLite {
		// Every sqlite connection to ":memory:" opens its own database.
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("cannot access sql db: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	return New(db, opts...)
}

// New wraps an open gorm connection.
func New(db *gorm.DB, opts ...Option) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("%w: db cannot be nil", livepager.ErrInvalidArgument)
	}

	posts, err := livepager.NewGORMCollection[Post](db.Model(&Post{}), PositionColumn)
	if err != nil {
		return nil, err
	}

	s := &Store{
		db:    db,
		posts: posts,
		log:   discardLogger(),
	}
	s.last.Store(-1)
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// Migrate creates or updates the posts table.
func (s *Store) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&Post{}); err != nil {
		return fmt.Errorf("cannot migrate posts: %w", err)
	}

	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("cannot access sql db: %w", err)
	}

	return sqlDB.Close()
}

// Count returns "<input>:<n>" where n counts the calls made on this store.
func (s *Store) Count(input string) string {
	return fmt.Sprintf("%s:%d", input, s.count.Add(1)-1)
}

// AddPost appends a post positioned after every post stored so far,
// including deleted ones this store created.
func (s *Store) AddPost(ctx context.Context, title string) (Post, error) {
	post := Post{
		ID:    uuid.NewString(),
		Title: title,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var last int64
		err := tx.Model(&Post{}).Select("COALESCE(MAX(created_at), -1)").Scan(&last).Error
		if err != nil {
			return fmt.Errorf("cannot read last position: %w", err)
		}

		post.CreatedAt = max(last, s.last.Load()) + 1

		return tx.Create(&post).Error
	})
	if err != nil {
		return Post{}, fmt.Errorf("cannot add post: %w", err)
	}
	s.advanceLast(post.CreatedAt)

	s.log.WithFields(logrus.Fields{"id": post.ID, "position": post.CreatedAt}).Debug("post added")

	return post, nil
}

// advanceLast raises the highest handed out position to pos, never lowering it.
func (s *Store) advanceLast(pos int64) {
	for {
		cur := s.last.Load()
		if pos <= cur || s.last.CompareAndSwap(cur, pos) {
			return
		}
	}
}

// DeletePosts removes the posts with the given ids. A nil ids slice removes
// every post, an empty one removes nothing.
func (s *Store) DeletePosts(ctx context.Context, ids []string) (int64, error) {
	if ids != nil && len(ids) == 0 {
		return 0, nil
	}

	db := s.db.WithContext(ctx)
	if ids == nil {
		db = db.Session(&gorm.Session{AllowGlobalUpdate: true})
	} else {
		db = db.Where("id IN ?", lo.Uniq(ids))
	}

	res := db.Delete(&Post{})
	if res.Error != nil {
		return 0, fmt.Errorf("cannot delete posts: %w", res.Error)
	}

	s.log.WithField("deleted", res.RowsAffected).Debug("posts deleted")

	return res.RowsAffected, nil
}

// AllPosts returns every post ordered by position.
func (s *Store) AllPosts(ctx context.Context) ([]Post, error) {
	return s.posts.Read(ctx)
}

// Read implements livepager.Collection.
func (s *Store) Read(ctx context.Context) ([]Post, error) {
	return s.posts.Read(ctx)
}

// PostByID returns the post with the given id or an error wrapping
// livepager.ErrNotFound.
func (s *Store) PostByID(ctx context.Context, id string) (Post, error) {
	var post Post
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&post).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Post{}, fmt.Errorf("post '%s': %w", id, livepager.ErrNotFound)
	}
	if err != nil {
		return Post{}, fmt.Errorf("cannot get post '%s': %w", id, err)
	}

	return post, nil
}

// Paginate returns the page of posts following req.Cursor.
func (s *Store) Paginate(ctx context.Context, req livepager.PageRequest[int64]) (*livepager.Page[Post, int64], error) {
	pager := livepager.NewCursorPager[int64](PositionColumn).WithRequest(req)

	return livepager.PaginateGORM[Post, int64](ctx, s.db.Model(&Post{}), pager, Position)
}

// Live returns a stream of full post snapshots, emitted whenever the posts
// change. cursor is the fingerprint the subscriber already holds.
func (s *Store) Live(
	cursor *string,
	interval time.Duration,
	gateOpts ...livepager.GateOption[Post],
) (*livepager.Stream[livepager.Snapshot[Post]], error) {
	return livepager.LiveQuery[Post](s, cursor, interval, gateOpts,
		livepager.WithLogger(s.log),
		livepager.WithName("posts-live"),
	)
}

// NewPosts returns a stream of posts added after the position after.
func (s *Store) NewPosts(after *int64, interval time.Duration) (*livepager.Stream[Post], error) {
	return livepager.TailStream[Post, int64](s, Position, after, interval, nil,
		livepager.WithLogger(s.log),
		livepager.WithName("new-posts"),
	)
}

func discardLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)

	return log
}

var _ livepager.Collection[Post] = (*Store)(nil)
