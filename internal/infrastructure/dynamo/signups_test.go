package dynamo

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// A code created exactly TTL seconds ago is expired: the condition must be
// a strict inequality, never >=, or a boundary-aged code would be accepted.
func TestConsumeCondition_StrictlyAfterCutoff(t *testing.T) {
	assert.Equal(t, "created_at > :cutoff", consumeCondition)
	assert.False(t, strings.Contains(consumeCondition, ">="))
}
