package bridge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_ResetMessage(t *testing.T) {
	out, err := resetMessage()
	require.NoError(t, err)

	// The wearable expects exactly one field: "reset" at key index 0.
	assert.JSONEq(t, `{"0": "reset"}`, string(out))
}
