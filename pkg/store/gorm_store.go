package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"kitapsever/pkg/domain"
)

// accountSchemaLock serialises schema migration between account replicas.
const accountSchemaLock int64 = 0x6b69746170

const (
	maxOpenConns    = 20
	maxIdleConns    = 5
	connMaxLifetime = 30 * time.Minute
)

// GormStore keeps accounts and book comments in Postgres.
type GormStore struct {
	db *gorm.DB
}

// NewGormStore connects, sizes the pool and migrates the users and comments
// tables. GORM's slow-query and error output goes to the default slog handler.
func NewGormStore(dsn string) (*GormStore, error) {
	sqlLog := gormlogger.New(
		slog.NewLogLogger(slog.Default().Handler(), slog.LevelWarn),
		gormlogger.Config{
			SlowThreshold:             500 * time.Millisecond,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
		},
	)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{Logger: sqlLog, TranslateError: true})
	if err != nil {
		return nil, fmt.Errorf("open accounts db: %w", err)
	}
	pool, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("accounts db pool: %w", err)
	}
	pool.SetMaxOpenConns(maxOpenConns)
	pool.SetMaxIdleConns(maxIdleConns)
	pool.SetConnMaxLifetime(connMaxLifetime)

	err = underSchemaLock(pool, func() error {
		if err := db.AutoMigrate(&UserModel{}, &CommentModel{}); err != nil {
			return fmt.Errorf("migrate accounts schema: %w", err)
		}
		return nil
	})
	if err != nil {
		_ = pool.Close()
		return nil, err
	}
	return &GormStore{db: db}, nil
}

// Close releases the connection pool.
func (s *GormStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// underSchemaLock holds a Postgres advisory lock on a dedicated connection
// while migrate runs.
func underSchemaLock(pool *sql.DB, migrate func() error) error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	conn, err := pool.Conn(ctx)
	if err != nil {
		return fmt.Errorf("schema lock conn: %w", err)
	}
	defer conn.Close()
	if _, err := conn.ExecContext(ctx, "SELECT pg_advisory_lock($1)", accountSchemaLock); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}
	defer func() {
		_, _ = conn.ExecContext(ctx, "SELECT pg_advisory_unlock($1)", accountSchemaLock)
	}()
	return migrate()
}

// CreateUser inserts a new user. The unique email index turns a concurrent
// duplicate registration into ErrDuplicateEmail.
func (s *GormStore) CreateUser(ctx context.Context, u domain.User) error {
	model := userToModel(u)
	if err := s.db.WithContext(ctx).Create(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func (s *GormStore) HasUserEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	if err := s.db.WithContext(ctx).Model(&UserModel{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id string) (domain.User, bool, error) {
	var model UserModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return userFromModel(model), true, nil
}

func (s *GormStore) AddComment(ctx context.Context, c domain.Comment) error {
	model := commentToModel(c)
	return s.db.WithContext(ctx).Create(&model).Error
}

// ListCommentsByBook returns the comments of a book, newest first.
func (s *GormStore) ListCommentsByBook(ctx context.Context, bookID string) ([]domain.Comment, error) {
	var models []CommentModel
	if err := s.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&models).Error; err != nil {
		return nil, err
	}
	res := make([]domain.Comment, 0, len(models))
	for _, m := range models {
		res = append(res, commentFromModel(m))
	}
	return res, nil
}
