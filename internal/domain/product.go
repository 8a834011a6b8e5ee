package domain

import (
	"math"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	ProductNameMaxLength = 100
	RatingMinScore       = 1
	RatingMaxScore       = 5
)

type Product struct {
	ID            string           `gorm:"primaryKey;size:36" bson:"_id" json:"id"`
	Name          string           `gorm:"size:100;not null" bson:"name" json:"name"`
	Description   string           `gorm:"type:text;not null" bson:"description" json:"description"`
	Price         float64          `gorm:"not null" bson:"price" json:"price"`
	DiscountPrice float64          `gorm:"not null;default:0" bson:"discount_price" json:"discountPrice"`
	Stock         int              `gorm:"not null;default:0" bson:"stock" json:"stock"`
	Category      string           `gorm:"size:120;not null;index" bson:"category" json:"category"`
	Brand         string           `gorm:"size:120" bson:"brand" json:"brand,omitempty"`
	Images        []ProductImage   `gorm:"serializer:json" bson:"images" json:"images"`
	Variants      []ProductVariant `gorm:"serializer:json" bson:"variants" json:"variants"`
	Ratings       ProductRatings   `gorm:"embedded;embeddedPrefix:rating_" bson:"ratings" json:"ratings"`
	IsFeatured    bool             `gorm:"not null;default:false" bson:"is_featured" json:"isFeatured"`
	CreatedAt     time.Time        `gorm:"not null;autoCreateTime:false" bson:"created_at" json:"createdAt"`
}

// ProductImage binds a stored image reference to a live object in the media store.
type ProductImage struct {
	RemoteID string `bson:"remote_id" json:"remoteId"`
	URL      string `bson:"url" json:"url"`
}

type ProductVariant struct {
	Color string  `bson:"color" json:"color"`
	Size  string  `bson:"size" json:"size"`
	Stock int     `bson:"stock" json:"stock"`
	Price float64 `bson:"price" json:"price"`
}

// ProductRatings is a running mean; individual scores are never stored.
type ProductRatings struct {
	Average float64 `gorm:"not null;default:0" bson:"average" json:"average"`
	Count   int     `gorm:"not null;default:0" bson:"count" json:"count"`
}

// Record folds one score into the aggregate.
func (r *ProductRatings) Record(score float64) {
	total := r.Average * float64(r.Count)
	r.Count++
	r.Average = (total + score) / float64(r.Count)
}

// DiscountActive reports whether the discount price applies: 0 < discountPrice < price.
func (p *Product) DiscountActive() bool {
	return p.DiscountPrice > 0 && p.DiscountPrice < p.Price
}

// EffectivePrice is the price a buyer pays.
func (p *Product) EffectivePrice() float64 {
	if p.DiscountActive() {
		return p.DiscountPrice
	}
	return p.Price
}

// Clone returns a deep copy so callers can mutate images and variants freely.
func (p *Product) Clone() *Product {
	cp := *p
	if p.Images != nil {
		cp.Images = append([]ProductImage(nil), p.Images...)
	}
	if p.Variants != nil {
		cp.Variants = append([]ProductVariant(nil), p.Variants...)
	}
	return &cp
}

// Normalize trims free-text fields and replaces nil lists with empty ones.
func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.Brand = strings.TrimSpace(p.Brand)
	if p.Images == nil {
		p.Images = []ProductImage{}
	}
	if p.Variants == nil {
		p.Variants = []ProductVariant{}
	}
}

// Validate checks every invariant of a persisted product.
func (p *Product) Validate() error {
	switch {
	case strings.TrimSpace(p.Name) == "":
		return NewValidationError("name", "is required")
	case utf8.RuneCountInString(strings.TrimSpace(p.Name)) > ProductNameMaxLength:
		return NewValidationError("name", "must be at most 100 characters")
	case strings.TrimSpace(p.Description) == "":
		return NewValidationError("description", "is required")
	case strings.TrimSpace(p.Category) == "":
		return NewValidationError("category", "is required")
	}
	if err := validateAmount("price", p.Price); err != nil {
		return err
	}
	if err := validateAmount("discountPrice", p.DiscountPrice); err != nil {
		return err
	}
	if p.Stock < 0 {
		return NewValidationError("stock", "must be >= 0")
	}
	for i, img := range p.Images {
		if strings.TrimSpace(img.RemoteID) == "" || strings.TrimSpace(img.URL) == "" {
			return NewIndexedValidationError("images", i, "remoteId and url are required")
		}
	}
	for i, v := range p.Variants {
		if err := v.Validate(); err != nil {
			return NewIndexedValidationError("variants", i, err.Error())
		}
	}
	if math.IsNaN(p.Ratings.Average) || p.Ratings.Average < 0 || p.Ratings.Average > RatingMaxScore {
		return NewValidationError("ratings.average", "must be between 0 and 5")
	}
	if p.Ratings.Count < 0 {
		return NewValidationError("ratings.count", "must be >= 0")
	}
	return nil
}

func (v ProductVariant) Validate() error {
	if v.Stock < 0 {
		return NewValidationError("stock", "must be >= 0")
	}
	if math.IsNaN(v.Price) || math.IsInf(v.Price, 0) {
		return NewValidationError("price", "must be a number")
	}
	return nil
}

// ValidRatingScore reports whether a single new score can be folded into the aggregate.
func ValidRatingScore(score float64) bool {
	return score >= RatingMinScore && score <= RatingMaxScore
}

func validateAmount(field string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return NewValidationError(field, "must be a number")
	}
	if v < 0 {
		return NewValidationError(field, "must be >= 0")
	}
	return nil
}
