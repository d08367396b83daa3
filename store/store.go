package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ormperfapi/models"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var (
	ErrNotFound            = errors.New("not-found")
	ErrConcurrencyConflict = errors.New("concurrency-conflict")
	ErrInvalidReference    = errors.New("invalid-reference")
)

const foreignKeyViolation = "23503"

// ProductQuery describes a fetch-all. Results are always ordered by id.
type ProductQuery struct {
	// Include loads the Category relation.
	Include bool
	// Split loads Category with a second query instead of a LEFT JOIN.
	Split bool
	// PriceAbove keeps products with price strictly greater than the value.
	PriceAbove *decimal.Decimal
}

// Repository is the data access used by the HTTP handlers. Every call
// observes ctx for cancellation.
type Repository interface {
	ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, error)
	GetProduct(ctx context.Context, id int) (*models.Product, error)
	CreateProduct(ctx context.Context, p *models.Product) error
	UpdateProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id int) error
	ProductExists(ctx context.Context, id int) (bool, error)
	ListCategories(ctx context.Context) ([]models.Category, error)
	CreateOrder(ctx context.Context, productIDs []int) (*models.Order, error)
	Migrate(ctx context.Context) error
}

var _ Repository = (*Store)(nil)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

type Options struct {
	Logger      zerolog.Logger
	LogSQL      bool
	PrepareStmt bool
}

// Open connects to postgres through lib/pq and wraps the pool with gorm.
func Open(dsn string, opts Options) (*Store, error) {
	if dsn == "" {
		return nil, errors.New("missing connection string")
	}

	conn, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping db: %w", err)
	}
	conn.SetConnMaxLifetime(5 * time.Minute)

	db, err := Dial(conn, opts)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return New(db), nil
}

// Dial builds a gorm handle on top of an existing connection pool.
func Dial(conn *sql.DB, opts Options) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: conn}), &gorm.Config{
		SkipDefaultTransaction: true,
		PrepareStmt:            opts.PrepareStmt,
		Logger:                 NewGormLogger(opts.Logger, opts.LogSQL),
	})
	if err != nil {
		return nil, fmt.Errorf("gorm open: %w", err)
	}
	return db, nil
}

func (s *Store) Close() error {
	conn, err := s.db.DB()
	if err != nil {
		return err
	}
	return conn.Close()
}

func translate(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == foreignKeyViolation {
		return fmt.Errorf("%w: %s", ErrInvalidReference, pqErr.Constraint)
	}
	return err
}
