package store

import (
	"context"
	"fmt"
	"time"

	"ormperfapi/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateOrder inserts the order and its product links in one transaction.
// Every id must reference an existing product.
func (s *Store) CreateOrder(ctx context.Context, productIDs []int) (*models.Order, error) {
	ids := uniqueIDs(productIDs)
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: empty order", ErrInvalidReference)
	}

	order := &models.Order{CreatedAt: time.Now().UTC()}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var products []models.Product
		if err := tx.Where("id IN ?", ids).Order("id").Find(&products).Error; err != nil {
			return err
		}

		if len(products) != len(ids) {
			return fmt.Errorf("%w: expected %d products but found %d", ErrInvalidReference, len(ids), len(products))
		}

		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}

		links := make([]models.OrderProduct, 0, len(products))
		for _, p := range products {
			links = append(links, models.OrderProduct{OrderID: order.ID, ProductID: p.ID})
		}

		if err := tx.Create(&links).Error; err != nil {
			return err
		}

		order.Products = products
		return nil
	})
	if err != nil {
		return nil, translate(err)
	}
	return order, nil
}

func uniqueIDs(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
