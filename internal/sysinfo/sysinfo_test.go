package sysinfo

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetIsStableAndFilled(t *testing.T) {
	a := Get()
	b := Get()
	assert.Equal(t, a, b)
	assert.NotEmpty(t, a.Platform)
	assert.NotEmpty(t, a.CPU)
	assert.NotEmpty(t, a.RAM)
}
