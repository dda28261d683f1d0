package comparison_test

import (
	"testing"

	"github.com/named-data/qosfwd/utils/comparison"
	"github.com/stretchr/testify/assert"
)

func TestMinMaxClamp(t *testing.T) {
	assert.Equal(t, 2, comparison.Min(2, 5))
	assert.Equal(t, 5.5, comparison.Max(2.0, 5.5))
	assert.Equal(t, uint64(10), comparison.Clamp(uint64(12), 0, 10))
	assert.Equal(t, 0.0, comparison.Clamp(-0.1, 0, 1))
	assert.Equal(t, 0.4, comparison.Clamp(0.4, 0, 1))
}
