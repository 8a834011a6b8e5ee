package domain

import (
	"errors"
	"math"
	"strings"
	"testing"
	"time"
)

func validProductForTest() *Product {
	return &Product{
		ID:          "p-1",
		Name:        "Trail Shoe",
		Description: "waterproof",
		Price:       120,
		Stock:       4,
		Category:    "footwear",
		CreatedAt:   time.Now().UTC(),
	}
}

func TestProductValidateRejectsMissingAndOutOfRangeFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(p *Product)
		field  string
	}{
		{"blank name", func(p *Product) { p.Name = "   " }, "name"},
		{"long name", func(p *Product) { p.Name = strings.Repeat("x", 101) }, "name"},
		{"missing description", func(p *Product) { p.Description = "" }, "description"},
		{"missing category", func(p *Product) { p.Category = "" }, "category"},
		{"negative price", func(p *Product) { p.Price = -5 }, "price"},
		{"nan price", func(p *Product) { p.Price = math.NaN() }, "price"},
		{"negative discount", func(p *Product) { p.DiscountPrice = -1 }, "discountPrice"},
		{"negative stock", func(p *Product) { p.Stock = -1 }, "stock"},
		{"image without url", func(p *Product) { p.Images = []ProductImage{{RemoteID: "k"}} }, "images[0]"},
		{"variant negative stock", func(p *Product) { p.Variants = []ProductVariant{{}, {Stock: -2}} }, "variants[1]"},
		{"average above five", func(p *Product) { p.Ratings.Average = 5.5 }, "ratings.average"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := validProductForTest()
			tc.mutate(p)
			err := p.Validate()
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected ErrValidation, got %v", err)
			}
			var verr *ValidationError
			if !errors.As(err, &verr) || verr.Field != tc.field {
				t.Fatalf("expected field %q, got %+v", tc.field, verr)
			}
		})
	}

	if err := validProductForTest().Validate(); err != nil {
		t.Fatalf("expected valid product, got %v", err)
	}
}

func TestProductNameLimitCountsCharactersAfterTrim(t *testing.T) {
	p := validProductForTest()
	p.Name = "  " + strings.Repeat("é", 100) + "  "
	if err := p.Validate(); err != nil {
		t.Fatalf("expected 100 runes to be accepted, got %v", err)
	}
}

func TestDiscountActive(t *testing.T) {
	cases := []struct {
		price, discount float64
		want            bool
	}{
		{100, 0, false},
		{100, 80, true},
		{100, 100, false},
		{100, 120, false},
		{0, 0, false},
	}
	for _, tc := range cases {
		p := &Product{Price: tc.price, DiscountPrice: tc.discount}
		if got := p.DiscountActive(); got != tc.want {
			t.Fatalf("price=%v discount=%v: got %v want %v", tc.price, tc.discount, got, tc.want)
		}
	}
	p := &Product{Price: 100, DiscountPrice: 80}
	if p.EffectivePrice() != 80 {
		t.Fatalf("expected effective price 80, got %v", p.EffectivePrice())
	}
}

func TestProductRatingsRecord(t *testing.T) {
	r := ProductRatings{Average: 4, Count: 2}
	r.Record(2)
	if r.Count != 3 {
		t.Fatalf("expected count 3, got %d", r.Count)
	}
	if math.Abs(r.Average-10.0/3.0) > 1e-9 {
		t.Fatalf("expected average 3.333.., got %v", r.Average)
	}

	var empty ProductRatings
	empty.Record(5)
	if empty.Average != 5 || empty.Count != 1 {
		t.Fatalf("unexpected first rating aggregate: %+v", empty)
	}
}

func TestProductCloneIsDeep(t *testing.T) {
	p := validProductForTest()
	p.Images = []ProductImage{{RemoteID: "a", URL: "u"}}
	p.Variants = []ProductVariant{{Color: "red"}}
	cp := p.Clone()
	cp.Images[0].RemoteID = "b"
	cp.Variants[0].Color = "blue"
	if p.Images[0].RemoteID != "a" || p.Variants[0].Color != "red" {
		t.Fatalf("clone shares backing arrays: %+v", p)
	}
}

func TestValidRatingScore(t *testing.T) {
	for _, s := range []float64{1, 3.5, 5} {
		if !ValidRatingScore(s) {
			t.Fatalf("expected %v valid", s)
		}
	}
	for _, s := range []float64{0.5, 6, -1} {
		if ValidRatingScore(s) {
			t.Fatalf("expected %v invalid", s)
		}
	}
}
