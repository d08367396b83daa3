package models

import "time"

type Order struct {
	ID        int       `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at" gorm:"not null"`
	Products  []Product `json:"products" gorm:"many2many:order_products;constraint:OnDelete:CASCADE"`
}

type OrderProduct struct {
	OrderID   int `gorm:"primaryKey;autoIncrement:false"`
	ProductID int `gorm:"primaryKey;autoIncrement:false"`
}

type CreateOrderRequest struct {
	ProductIDs []int `json:"product_ids" binding:"required,min=1"`
}
