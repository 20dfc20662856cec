package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuantity_AbsentIsNotZero(t *testing.T) {
	assert.False(t, None().Valid())
	assert.True(t, Some(0).Valid())
	assert.False(t, None().Equal(Some(0)))
	assert.Nil(t, None().Ptr())
	require.NotNil(t, Some(0).Ptr())
	assert.Equal(t, 0.0, *Some(0).Ptr())
}

func TestQuantity_Arithmetic(t *testing.T) {
	tests := []struct {
		name string
		got  Quantity
		want Quantity
	}{
		{"both present", Some(1200).Sub(Some(300)), Some(900)},
		{"short only", None().Sub(Some(400)), Some(-400)},
		{"long only", Some(50).Sub(None()), Some(50)},
		{"both absent", None().Add(None()), None()},
		{"sum skips absent", SumQuantities(Some(1), None(), Some(2.5)), Some(3.5)},
		{"sum of nothing", SumQuantities(), None()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, tt.want.Equal(tt.got), "want %v got %v", tt.want, tt.got)
		})
	}
}

func TestQuantity_JSON(t *testing.T) {
	type wrapper struct {
		A Quantity `json:"a"`
		B Quantity `json:"b"`
	}

	data, err := json.Marshal(wrapper{A: Some(12.5), B: None()})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":12.5,"b":null}`, string(data))

	var back wrapper
	require.NoError(t, json.Unmarshal([]byte(`{"a":0,"b":null}`), &back))
	assert.True(t, back.A.Equal(Some(0)))
	assert.False(t, back.B.Valid())
}
