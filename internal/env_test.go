package internal

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvBool(t *testing.T) {
	t.Setenv("FILTER_DEBUG", "")
	assert.False(t, EnvBool("FILTER_DEBUG", false))

	t.Setenv("FILTER_DEBUG", "true")
	assert.True(t, EnvBool("FILTER_DEBUG", false))

	t.Setenv("FILTER_DEBUG", "0")
	assert.False(t, EnvBool("FILTER_DEBUG", true))

	t.Setenv("FILTER_DEBUG", "loud")
	assert.True(t, EnvBool("FILTER_DEBUG", true))
}
