package gnu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCompare(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"1.0", "2.0", -1},
		{"1.22", "1.22", 0},
		{"1.1.10", "1.1.9", 1},
		{"1.1.10.1", "1.1.9", 1},
		{"1.1.10.1", "1.2.1", -1},
		{"1.1.10", "1.1.10.1", -1},
		{"1.01", "1.1", 0},
		{"", "1", -1},
		{"1.2~rc1", "1.2", -1},
		{"1.0a", "1.0", 1},
		{"1.0.0-rc1", "1.0.0-rc2", -1},
	}
	for _, tt := range tests {
		t.Run(tt.a+"_"+tt.b, func(t *testing.T) {
			assert.Equal(t, tt.want, Compare(tt.a, tt.b))
			assert.Equal(t, -tt.want, Compare(tt.b, tt.a))
		})
	}
}

func TestSort(t *testing.T) {
	vers := []string{"1.2.1", "1.1.10.1", "1.1.9", "1.1.7"}
	Sort(vers, nil)
	assert.Equal(t, []string{"1.1.7", "1.1.9", "1.1.10.1", "1.2.1"}, vers)

	Sort(vers, func(a, b string) int { return Compare(b, a) })
	assert.Equal(t, []string{"1.2.1", "1.1.10.1", "1.1.9", "1.1.7"}, vers)
}

func TestIsRelease(t *testing.T) {
	for _, v := range []string{"1", "1.22", "1.1.7", "1.1.10.1"} {
		assert.True(t, IsRelease(v), v)
	}
	for _, v := range []string{"", "latest", "1.", ".1", "1..2", "1.2-rc1", "v1.2", "1.2+meta"} {
		assert.False(t, IsRelease(v), v)
	}
}
