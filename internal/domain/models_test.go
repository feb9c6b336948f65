package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDefaultReferenceCurrency(t *testing.T) {
	assert.Equal(t, "EUR", DefaultReferenceCurrency.String())
}

func TestPortfolio_Products(t *testing.T) {
	p := Portfolio{
		PositionTypeProduct: {
			"123": {ID: "123", PositionType: PositionTypeProduct, Value: decimal.NewNullDecimal(decimal.NewFromInt(100))},
		},
		"CASH": {
			"FLATEX_EUR": {ID: "FLATEX_EUR", PositionType: "CASH"},
		},
	}

	products := p.Products()
	assert.Len(t, products, 1)
	assert.Contains(t, products, "123")
}

func TestPortfolio_ProductsEmpty(t *testing.T) {
	p := Portfolio{}
	assert.Nil(t, p.Products())
}
