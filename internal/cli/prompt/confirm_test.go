package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfirmWithForce_SkipsPrompt(t *testing.T) {
	ok, err := ConfirmWithForce("Disconnect all sessions?", true)
	require.NoError(t, err)
	assert.True(t, ok)
}
