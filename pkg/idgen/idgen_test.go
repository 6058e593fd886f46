package idgen

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsOutOfRangeNodeID(t *testing.T) {
	_, err := New(1 << 20)
	assert.Error(t, err)
}

func TestNextCorrelationIDIsUniqueAndNonEmpty(t *testing.T) {
	g, err := New(1)
	require.NoError(t, err)

	a := g.NextCorrelationID()
	b := g.NextCorrelationID()

	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)
}

func TestNextIDIsMonotonicallyIncreasing(t *testing.T) {
	g, err := New(2)
	require.NoError(t, err)

	a := g.NextID()
	b := g.NextID()
	assert.Greater(t, b, a)
}
