package service

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sandeepkv93/product-media-catalog/internal/domain"
	"github.com/sandeepkv93/product-media-catalog/internal/media"
)

type CreateProductInput struct {
	Name          string
	Description   string
	Price         *float64
	DiscountPrice float64
	Stock         *int
	Category      string
	Brand         string
	Variants      json.RawMessage
	IsFeatured    bool
	Images        []media.File
}

// UpdateProductInput is a partial update. Zero scalars and blank strings mean
// "leave unchanged"; IsFeatured is applied whenever it is non-nil.
type UpdateProductInput struct {
	Name          string
	Description   string
	Price         float64
	DiscountPrice float64
	Stock         int
	Category      string
	Brand         string
	IsFeatured    *bool
	Variants      json.RawMessage
	Rating        float64
	Images        []media.File
}

// CoerceFeatured maps a loosely typed featured flag to a bool. The second
// result reports whether the flag was present at all. Only true and "true"
// mean featured: any other present value, including 1 or "1", clears the flag.
func CoerceFeatured(v any) (featured bool, present bool) {
	switch t := v.(type) {
	case nil:
		return false, false
	case bool:
		return t, true
	case *bool:
		if t == nil {
			return false, false
		}
		return *t, true
	case string:
		return t == "true", true
	default:
		return false, true
	}
}

// flexNumber accepts a JSON number or a string holding one, as form-driven
// clients send edited variant fields as text. Blank strings and null are absent.
type flexNumber struct {
	value float64
	set   bool
}

func (n *flexNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var text string
		if err := json.Unmarshal(b, &text); err != nil {
			return err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return nil
		}
		v, err := strconv.ParseFloat(text, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("invalid number %q", text)
		}
		n.value, n.set = v, true
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.value, n.set = v, true
	return nil
}

type variantPayload struct {
	Color string     `json:"color"`
	Size  string     `json:"size"`
	Stock flexNumber `json:"stock"`
	Price flexNumber `json:"price"`
}

// ParseVariants decodes a variant list sent either as a JSON array or as a
// JSON string holding one. ok is false when nothing was sent.
func ParseVariants(raw json.RawMessage) (variants []domain.ProductVariant, ok bool, err error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, false, nil
	}
	if trimmed[0] == '"' {
		var inner string
		if err := json.Unmarshal(trimmed, &inner); err != nil {
			return nil, false, domain.NewValidationError("variants", "must be a JSON array")
		}
		inner = strings.TrimSpace(inner)
		if inner == "" {
			return nil, false, nil
		}
		trimmed = []byte(inner)
	}

	var payload []variantPayload
	if err := json.Unmarshal(trimmed, &payload); err != nil {
		return nil, false, domain.NewValidationError("variants", "must be a JSON array of variants")
	}
	variants = make([]domain.ProductVariant, 0, len(payload))
	for i, p := range payload {
		v := domain.ProductVariant{Color: p.Color, Size: p.Size, Price: p.Price.value}
		if p.Stock.set {
			if p.Stock.value != math.Trunc(p.Stock.value) {
				return nil, false, domain.NewIndexedValidationError("variants", i, "stock must be an integer")
			}
			v.Stock = int(p.Stock.value)
		}
		if err := v.Validate(); err != nil {
			return nil, false, domain.NewIndexedValidationError("variants", i, err.Error())
		}
		variants = append(variants, v)
	}
	return variants, true, nil
}

func (in CreateProductInput) product() (*domain.Product, error) {
	switch {
	case strings.TrimSpace(in.Name) == "":
		return nil, domain.NewValidationError("name", "is required")
	case strings.TrimSpace(in.Description) == "":
		return nil, domain.NewValidationError("description", "is required")
	case in.Price == nil:
		return nil, domain.NewValidationError("price", "is required")
	case in.Stock == nil:
		return nil, domain.NewValidationError("stock", "is required")
	case strings.TrimSpace(in.Category) == "":
		return nil, domain.NewValidationError("category", "is required")
	}
	variants, _, err := ParseVariants(in.Variants)
	if err != nil {
		return nil, err
	}
	p := &domain.Product{
		Name:          in.Name,
		Description:   in.Description,
		Price:         *in.Price,
		DiscountPrice: in.DiscountPrice,
		Stock:         *in.Stock,
		Category:      in.Category,
		Brand:         in.Brand,
		Variants:      variants,
		IsFeatured:    in.IsFeatured,
	}
	p.Normalize()
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// apply folds the update into p. p must be a detached copy: on error it may
// be partially modified.
func (in UpdateProductInput) apply(p *domain.Product) error {
	if strings.TrimSpace(in.Name) != "" {
		p.Name = in.Name
	}
	if strings.TrimSpace(in.Description) != "" {
		p.Description = in.Description
	}
	if in.Price != 0 {
		p.Price = in.Price
	}
	if in.DiscountPrice != 0 {
		p.DiscountPrice = in.DiscountPrice
	}
	if in.Stock != 0 {
		p.Stock = in.Stock
	}
	if strings.TrimSpace(in.Category) != "" {
		p.Category = in.Category
	}
	if strings.TrimSpace(in.Brand) != "" {
		p.Brand = in.Brand
	}
	if featured, ok := CoerceFeatured(in.IsFeatured); ok {
		p.IsFeatured = featured
	}
	variants, ok, err := ParseVariants(in.Variants)
	if err != nil {
		return err
	}
	if ok {
		p.Variants = variants
	}
	if in.Rating != 0 {
		if !domain.ValidRatingScore(in.Rating) {
			return domain.NewValidationError("rating", "must be between 1 and 5")
		}
		p.Ratings.Record(in.Rating)
	}
	p.Normalize()
	return p.Validate()
}
