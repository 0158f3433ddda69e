package agg

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Sum, "sum"},
		{Min, "min"},
		{Max, "max"},
		{CountValid, "count"},
		{CountAll, "count_all"},
		{Mean, "mean"},
		{Variance, "var"},
		{Std, "std"},
		{Median, "median"},
		{Quantile, "quantile"},
		{NthElement, "nth"},
		{TDigest, "tdigest"},
		{MergeTDigest, "merge_tdigest"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.kind.String())
	}
}

func TestResultName(t *testing.T) {
	assert.Equal(t, "sum_amount", NewSum().ResultName("amount"))
	assert.Equal(t, "var_amount", NewVariance(1).ResultName("amount"))
	assert.Equal(t, "total", NewSum().As("total").ResultName("amount"))
}

func TestSignatureDistinguishesParams(t *testing.T) {
	assert.NotEqual(t, NewVariance(0).Signature(), NewVariance(1).Signature())
	assert.NotEqual(t,
		NewQuantile([]float64{0.5}, Linear).Signature(),
		NewQuantile([]float64{0.5}, Nearest).Signature())
	assert.NotEqual(t,
		NewNthElement(1, true).Signature(),
		NewNthElement(1, false).Signature())
	assert.Equal(t, NewSum().Signature(), NewSum().Signature())
}

func TestOrderInsensitive(t *testing.T) {
	assert.True(t, NewSum().OrderInsensitive())
	assert.True(t, NewMean().OrderInsensitive())
	assert.True(t, NewCountAll().OrderInsensitive())
	assert.False(t, NewQuantile([]float64{0.5}, Linear).OrderInsensitive())
	assert.False(t, NewNthElement(0, true).OrderInsensitive())
	assert.False(t, NewTDigest(100).OrderInsensitive())
}

func TestQuantileCopiesInput(t *testing.T) {
	qs := []float64{0.25, 0.75}
	a := NewQuantile(qs, Linear)
	qs[0] = 0.99
	assert.Equal(t, 0.25, a.Quantiles()[0])
}

func TestParameterAccessors(t *testing.T) {
	v := NewVariance(2)
	assert.Equal(t, Variance, v.Kind())
	assert.Equal(t, 2, v.DDof())

	n := NewNthElement(-1, false)
	assert.Equal(t, -1, n.N())
	assert.False(t, n.IncludeNulls())

	td := NewTDigest(250)
	assert.Equal(t, 250, td.Delta())
}
