package models

type Category struct {
	ID   int    `json:"id" gorm:"primaryKey"`
	Name string `json:"name" gorm:"type:varchar(100);not null"`
}

// SeedCategories are inserted by the migration and never changed afterwards.
func SeedCategories() []Category {
	return []Category{
		{ID: 1, Name: "Electronics"},
		{ID: 2, Name: "Books"},
	}
}
