package xlsxport

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMatchPattern(t *testing.T) {
	tests := []struct {
		pattern string
		name    string
		want    bool
	}{
		{"price", "price", true},
		{"price", "prices", false},
		{"Price", "price", false},

		{"price_*", "price_usd", true},
		{"price_*", "price_", true},
		{"price_*", "unit_price", false},

		{"*_id", "user_id", true},
		{"*_id", "id", false},
		{"*_id", "_id", true},

		{"*amount*", "total_amount_usd", true},
		{"*amount*", "amount", true},
		{"*amount*", "total", false},

		{"*", "anything", true},
		{"**", "anything", true},
		{"**", "", true},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, MatchPattern(tt.pattern, tt.name),
			"pattern %q against %q", tt.pattern, tt.name)
	}
}

func TestMatchColumnsOrder(t *testing.T) {
	cols := []string{"id", "price_usd", "price_eur", "name"}
	assert.Equal(t, []int{1, 2}, matchColumns("price_*", cols))
	assert.Nil(t, matchColumns("missing", cols))
}
