package crdt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestKeyBetweenOrdersCorrectly(t *testing.T) {
	first := keyBetween("", "")
	assert.NotEmpty(t, first)

	before := keyBetween("", first)
	assert.Less(t, before, first)

	after := keyBetween(first, "")
	assert.Greater(t, after, first)

	mid := keyBetween(first, after)
	assert.Greater(t, mid, first)
	assert.Less(t, mid, after)
}

func TestKeyBetweenManyInsertionsStayOrdered(t *testing.T) {
	keys := []string{keyBetween("", "")}
	for i := 0; i < 50; i++ {
		k := keyBetween("", keys[0])
		keys = append([]string{k}, keys...)
	}
	for i := 1; i < len(keys); i++ {
		assert.Less(t, keys[i-1], keys[i])
	}
}
