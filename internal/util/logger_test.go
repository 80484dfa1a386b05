package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitLogger(t *testing.T) {
	for _, env := range []string{"production", "development"} {
		require.NoError(t, InitLogger(env), "env %s", env)
		assert.NotNil(t, GetLogger())
	}
	SyncLogger()
}

func TestGetLoggerBeforeInit(t *testing.T) {
	logger = nil
	assert.NotNil(t, GetLogger(), "falls back to a development logger")
}
