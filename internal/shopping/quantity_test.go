package shopping

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumericParse(t *testing.T) {
	cases := []struct {
		in   Numeric
		want float64
		ok   bool
	}{
		{"2", 2, true},
		{"1,5", 1.5, true},
		{" 0.25 ", 0.25, true},
		{"-1", -1, true},
		{"", 0, false},
		{"abc", 0, false},
		{"NaN", 0, false},
		{"Inf", 0, false},
	}
	for _, c := range cases {
		got, ok := c.in.Parse()
		assert.Equal(t, c.ok, ok, string(c.in))
		assert.Equal(t, c.want, got, string(c.in))
	}
}

func TestNumericUnmarshal(t *testing.T) {
	var body struct {
		A Numeric `json:"a"`
		B Numeric `json:"b"`
		C Numeric `json:"c"`
		D Numeric `json:"d"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"a": 3.5, "b": "2,75", "c": null}`), &body))
	assert.Equal(t, Numeric("3.5"), body.A)
	assert.Equal(t, Numeric("2,75"), body.B)
	assert.Equal(t, Numeric(""), body.C)
	assert.Equal(t, Numeric(""), body.D)
}

func TestPlannedQuantity(t *testing.T) {
	assert.Equal(t, 1.0, plannedQuantity(""))
	assert.Equal(t, 1.0, plannedQuantity("0"))
	assert.Equal(t, 1.0, plannedQuantity("-2"))
	assert.Equal(t, 3.0, plannedQuantity("3"))
}
