package util

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGetKeysSorted(t *testing.T) {
	m := map[int]string{3: "c", 1: "a", 2: "b"}
	assert.Equal(t, []int{1, 2, 3}, GetKeys(m))
}

func TestSumAndSumBy(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(6, Sum([]int{1, 2, 3}))
	assert.Equal(1.75, Sum([]float64{1, 0.5, 0.25}))
	assert.Equal(3, SumBy([]string{"a", "bb"}, func(s string) int { return len(s) }))
}

func TestClamp(t *testing.T) {
	assert := assert.New(t)
	assert.Equal(0, Clamp(-1, 0, 5))
	assert.Equal(5, Clamp(7, 0, 5))
	assert.Equal(3, Clamp(3, 0, 5))
}

func TestDedupeKeepsFirstOccurrence(t *testing.T) {
	assert.Equal(t, []int{60, 64, 67}, Dedupe([]int{60, 64, 60, 67, 64}))
}
