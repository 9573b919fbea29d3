package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOperatorsAllows(t *testing.T) {
	ops := NewOperators([]string{"marudor", " @TiiRex9 ", "42", ""})

	assert.Equal(t, 3, ops.Len())

	assert.True(t, ops.Allows(1, "marudor"))
	assert.True(t, ops.Allows(1, "Marudor"))
	assert.True(t, ops.Allows(1, "@marudor"))
	assert.True(t, ops.Allows(1, "tiirex9"))
	assert.True(t, ops.Allows(42, ""))

	assert.False(t, ops.Allows(1, ""))
	assert.False(t, ops.Allows(1, "someone"))
	assert.False(t, ops.Allows(43, "marudor2"))
}

func TestNilOperatorsAllowNobody(t *testing.T) {
	var ops *Operators
	assert.False(t, ops.Allows(42, "marudor"))
}
