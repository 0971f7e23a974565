package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clothsearch/backend/internal/domain"
)

func TestFilterEngine_Matches(t *testing.T) {
	engine := NewFilterEngine()

	kurta := domain.NormalizedProduct{
		Name:   "Red Kurta",
		Price:  floatPtr(500),
		Rating: floatPtr(4.5),
		Size:   "S, M, L",
		Color:  "Maroon Red",
		Gender: "Women",
	}
	unpriced := domain.NormalizedProduct{Name: "Mystery", Rating: floatPtr(4.9)}
	unrated := domain.NormalizedProduct{Name: "Plain", Price: floatPtr(300)}

	tests := []struct {
		name    string
		product domain.NormalizedProduct
		spec    domain.FilterSpec
		want    bool
	}{
		{name: "empty spec passes everything", product: unpriced, spec: domain.FilterSpec{}, want: true},
		{name: "price below min", product: kurta, spec: domain.FilterSpec{MinPrice: floatPtr(600)}, want: false},
		{name: "price equal to min", product: kurta, spec: domain.FilterSpec{MinPrice: floatPtr(500)}, want: true},
		{name: "price above max", product: kurta, spec: domain.FilterSpec{MaxPrice: floatPtr(499.99)}, want: false},
		{name: "price equal to max", product: kurta, spec: domain.FilterSpec{MaxPrice: floatPtr(500)}, want: true},
		{name: "price within range", product: kurta, spec: domain.FilterSpec{MinPrice: floatPtr(100), MaxPrice: floatPtr(1000)}, want: true},
		{name: "no price fails any price filter", product: unpriced, spec: domain.FilterSpec{MaxPrice: floatPtr(10000)}, want: false},
		{name: "rating meets minimum", product: kurta, spec: domain.FilterSpec{MinRating: 4.5}, want: true},
		{name: "rating below minimum", product: kurta, spec: domain.FilterSpec{MinRating: 4.6}, want: false},
		{name: "no rating fails rating filter", product: unrated, spec: domain.FilterSpec{MinRating: 1}, want: false},
		{name: "no rating passes without rating filter", product: unrated, spec: domain.FilterSpec{MaxPrice: floatPtr(300)}, want: true},
		{name: "size substring case-insensitive", product: kurta, spec: domain.FilterSpec{Size: "m"}, want: true},
		{name: "color substring", product: kurta, spec: domain.FilterSpec{Color: "RED"}, want: true},
		{name: "substring match inside a word", product: kurta, spec: domain.FilterSpec{Gender: "men"}, want: true},
		{name: "gender absent from field", product: kurta, spec: domain.FilterSpec{Gender: "unisex"}, want: false},
		{name: "attribute filter on empty field", product: unrated, spec: domain.FilterSpec{Color: "blue"}, want: false},
		{name: "conjunction fails on one clause", product: kurta, spec: domain.FilterSpec{MinPrice: floatPtr(100), MinRating: 4, Color: "blue"}, want: false},
		{name: "conjunction passes all clauses", product: kurta, spec: domain.FilterSpec{MinPrice: floatPtr(100), MinRating: 4, Color: "red", Size: "L"}, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Matches(tt.product, tt.spec))
		})
	}
}

func TestFilterEngine_ApplyPreservesOrder(t *testing.T) {
	engine := NewFilterEngine()
	products := []domain.NormalizedProduct{
		{Name: "a", Price: floatPtr(900)},
		{Name: "b", Price: floatPtr(100)},
		{Name: "c", Price: floatPtr(700)},
		{Name: "d"},
	}

	got := engine.Apply(products, domain.FilterSpec{MinPrice: floatPtr(500)})

	var names []string
	for _, p := range got {
		names = append(names, p.Name)
	}
	assert.Equal(t, []string{"a", "c"}, names)
}

func TestFilterEngine_ApplyEmptyResultIsNotNil(t *testing.T) {
	got := NewFilterEngine().Apply(nil, domain.FilterSpec{MinRating: 5})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestFilterSpec_Validate(t *testing.T) {
	tests := []struct {
		name    string
		spec    domain.FilterSpec
		wantErr bool
	}{
		{name: "empty", spec: domain.FilterSpec{}},
		{name: "full range", spec: domain.FilterSpec{MinPrice: floatPtr(0), MaxPrice: floatPtr(100), MinRating: 5}},
		{name: "equal bounds", spec: domain.FilterSpec{MinPrice: floatPtr(100), MaxPrice: floatPtr(100)}},
		{name: "inverted range", spec: domain.FilterSpec{MinPrice: floatPtr(200), MaxPrice: floatPtr(100)}, wantErr: true},
		{name: "negative min", spec: domain.FilterSpec{MinPrice: floatPtr(-1)}, wantErr: true},
		{name: "negative max", spec: domain.FilterSpec{MaxPrice: floatPtr(-1)}, wantErr: true},
		{name: "rating above scale", spec: domain.FilterSpec{MinRating: 5.5}, wantErr: true},
		{name: "negative rating", spec: domain.FilterSpec{MinRating: -0.5}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.spec.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrInvalidFilter)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
