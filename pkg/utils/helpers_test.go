package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 5.0, Clamp(3.0, 5.0, 10.0))
	assert.Equal(t, 10.0, Clamp(12.0, 5.0, 10.0))
	assert.Equal(t, 7.5, Clamp(7.5, 5.0, 10.0))
}

func TestRoundTo(t *testing.T) {
	assert.Equal(t, 0.5, RoundTo(0.503, 1))
	assert.Equal(t, 0.57, RoundTo(0.567, 2))
	assert.Equal(t, 146.0, RoundTo(146.4, 0))
}
