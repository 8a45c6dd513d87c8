package types

import (
	"time"
)

type Category string

const (
	CategoryVehicles    Category = "vehicles"
	CategoryElectronics Category = "electronics"
	CategoryFurniture   Category = "furniture"
	CategoryRealEstate  Category = "real-estate"
)

func Categories() []Category {
	return []Category{
		CategoryVehicles,
		CategoryElectronics,
		CategoryFurniture,
		CategoryRealEstate,
	}
}

func ValidCategory(v string) bool {
	for _, c := range Categories() {
		if string(c) == v {
			return true
		}
	}
	return false
}

// Cities returns the fixed set of cities an ad may be posted from.
func Cities() []string {
	return []string{
		"الخرطوم",
		"أم درمان",
		"بحري",
		"بورتسودان",
		"عطبرة",
		"شندي",
		"دنقلا",
		"مدني",
		"القضارف",
		"كسلا",
		"الأبيض",
		"الفاشر",
		"نيالا",
	}
}

func ValidCity(v string) bool {
	for _, c := range Cities() {
		if c == v {
			return true
		}
	}
	return false
}

// Ad is the persisted listing row. Images is never empty; the publish
// pipeline substitutes a placeholder URL when every upload failed.
type Ad struct {
	ID          string    `db:"id"`
	Title       string    `db:"title"`
	Price       int64     `db:"price"`
	City        string    `db:"city"`
	Category    Category  `db:"category"`
	Phone       string    `db:"phone"`
	Description string    `db:"description"`
	Images      []string  `db:"images"` // text[] of public URLs
	UserID      *string   `db:"user_id"`
	UserName    string    `db:"user_name"`
	CreatedAt   time.Time `db:"created_at"`
}

// SelectedImage is one slot of a draft's image selection. Preview holds the
// locally generated preview bytes and is released when the slot is removed.
type SelectedImage struct {
	Name        string
	ContentType string
	Data        []byte
	Preview     []byte
}

// DraftAd is the transient, wizard-owned state of an unpublished listing.
type DraftAd struct {
	Category    Category
	Title       string
	Price       int64
	City        string
	Phone       string
	Description string
	Images      []SelectedImage
	Notice      string
}

const MaxDraftImages = 10
