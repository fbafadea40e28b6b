package models

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProduct_EffectivePrice(t *testing.T) {
	t.Parallel()

	discount := decimal.NewFromInt(80)
	zero := decimal.Zero

	tests := []struct {
		name string
		p    Product
		want decimal.Decimal
	}{
		{name: "no discount", p: Product{Price: decimal.NewFromInt(100)}, want: decimal.NewFromInt(100)},
		{name: "discount", p: Product{Price: decimal.NewFromInt(100), DiscountPrice: &discount}, want: discount},
		{name: "zero discount ignored", p: Product{Price: decimal.NewFromInt(100), DiscountPrice: &zero}, want: decimal.NewFromInt(100)},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.want.Equal(tt.p.EffectivePrice()))
		})
	}
}

func TestJSON_ScanValueMarshal(t *testing.T) {
	t.Parallel()

	var j JSON
	require.NoError(t, j.Scan([]byte(`{"city":"Pune"}`)))
	v, err := j.Value()
	require.NoError(t, err)
	assert.Equal(t, `{"city":"Pune"}`, v)

	require.NoError(t, j.Scan(`{"pin":"411001"}`))
	assert.Equal(t, JSON(`{"pin":"411001"}`), j)

	require.NoError(t, j.Scan(nil))
	v, err = j.Value()
	require.NoError(t, err)
	assert.Nil(t, v)

	assert.Error(t, j.Scan(42))

	var wrap struct {
		Address JSON `json:"address"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"address":{"line1":"x"}}`), &wrap))
	out, err := json.Marshal(wrap)
	require.NoError(t, err)
	assert.JSONEq(t, `{"address":{"line1":"x"}}`, string(out))
}

func TestJSON_IsEmpty(t *testing.T) {
	t.Parallel()

	for _, s := range []string{"", "null", "{}", "[]", `""`} {
		assert.True(t, JSON(s).IsEmpty(), s)
	}
	assert.False(t, JSON(`{"a":1}`).IsEmpty())
}
