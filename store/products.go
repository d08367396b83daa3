package store

import (
	"context"
	"fmt"
	"time"

	"ormperfapi/models"

	"github.com/gofrs/uuid"
	"gorm.io/gorm/clause"
)

// ListProducts returns plain values. Nothing tracks them for later writes.
func (s *Store) ListProducts(ctx context.Context, q ProductQuery) ([]models.Product, error) {
	tx := s.db.WithContext(ctx).Model(&models.Product{})

	if q.Include {
		if q.Split {
			tx = tx.Preload("Category")
		} else {
			tx = tx.Joins("Category")
		}
	}

	if q.PriceAbove != nil {
		tx = tx.Where("products.price > ?", *q.PriceAbove)
	}

	products := make([]models.Product, 0)
	if err := tx.Order("products.id").Find(&products).Error; err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *Store) GetProduct(ctx context.Context, id int) (*models.Product, error) {
	var product models.Product
	if err := s.db.WithContext(ctx).Where("id = ?", id).Take(&product).Error; err != nil {
		return nil, translate(err)
	}
	return &product, nil
}

// CreateProduct assigns CreatedAt and a fresh RowVersion. Associations are
// never written.
func (s *Store) CreateProduct(ctx context.Context, p *models.Product) error {
	token, err := newRowVersion()
	if err != nil {
		return err
	}

	p.ID = 0
	p.CreatedAt = time.Now().UTC()
	p.RowVersion = token
	if p.Status == "" {
		p.Status = models.Active
	}

	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(p).Error; err != nil {
		return translate(err)
	}
	return nil
}

// UpdateProduct writes p only when the stored row still carries p.RowVersion.
// created_at is not part of the write-set. On success p.RowVersion holds the
// new token.
func (s *Store) UpdateProduct(ctx context.Context, p *models.Product) error {
	token, err := newRowVersion()
	if err != nil {
		return err
	}

	status := p.Status
	if status == "" {
		status = models.Active
	}

	res := s.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("id = ? AND row_version = ?", p.ID, p.RowVersion).
		Updates(map[string]interface{}{
			"name":        p.Name,
			"price":       p.Price,
			"status":      status,
			"category_id": p.CategoryID,
			"row_version": token,
		})
	if res.Error != nil {
		return translate(res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrConcurrencyConflict
	}

	p.Status = status
	p.RowVersion = token
	return nil
}

func (s *Store) DeleteProduct(ctx context.Context, id int) error {
	res := s.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Product{})
	if res.Error != nil {
		return translate(res.Error)
	}

	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) ProductExists(ctx context.Context, id int) (bool, error) {
	var exists bool
	row := s.db.WithContext(ctx).Raw("SELECT EXISTS(SELECT 1 FROM products WHERE id = ?)", id).Row()
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("product exists: %w", err)
	}
	return exists, nil
}

func (s *Store) ListCategories(ctx context.Context) ([]models.Category, error) {
	categories := make([]models.Category, 0)
	if err := s.db.WithContext(ctx).Order("id").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func newRowVersion() ([]byte, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, fmt.Errorf("row version: %w", err)
	}
	return id.Bytes(), nil
}
