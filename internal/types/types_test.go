package types_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/ginjaninja78/rcdv-generator/internal/types"
)

func TestTable_Orders(t *testing.T) {
	tests := []struct {
		name   string
		orders []int64
		want   []int64
	}{
		{name: "empty table", orders: nil, want: []int64{}},
		{name: "single order", orders: []int64{7, 7, 7}, want: []int64{7}},
		{name: "first appearance order", orders: []int64{300, 100, 300, 200, 100}, want: []int64{300, 100, 200}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := &types.Table{}
			for _, o := range tt.orders {
				table.Rows = append(table.Rows, types.ExpenseRow{Order: o})
			}
			assert.Equal(t, tt.want, table.Orders())
		})
	}
}

func TestBucket_Add(t *testing.T) {
	var b types.Bucket
	assert.True(t, b.Empty())

	b.Add(decimal.RequireFromString("50.00"))
	b.Add(decimal.RequireFromString("75.25"))

	assert.False(t, b.Empty())
	assert.Equal(t, 2, b.Count)
	assert.True(t, b.Sum.Equal(decimal.RequireFromString("125.25")))
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "lodging", types.CategoryLodging.String())
	assert.Equal(t, "transport", types.CategoryTransport.String())
	assert.Equal(t, "other", types.CategoryOther.String())
}
