package diskcache

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rrichc/Cache/pkg/utils"
)

func TestMissFilter_SizedByFlags(t *testing.T) {
	utils.SetTestFlag(t, "filter_expected_entries", "64")
	utils.SetTestFlag(t, "filter_false_positive_rate", "0.05")

	filter := newMissFilter()
	assert.False(t, filter.mightContain("name"), "A fresh filter holds nothing")
	filter.add("name")
	assert.True(t, filter.mightContain("name"))
}

func TestMissFilter_NeverFalseMiss(t *testing.T) {
	filter := newMissFilter()
	for i := 0; i < 10_000; i++ {
		filter.add(fileNameForKey(fmt.Sprintf("key-%d", i)))
	}
	for i := 0; i < 10_000; i++ {
		name := fileNameForKey(fmt.Sprintf("key-%d", i))
		assert.True(t, filter.mightContain(name), "A stored name must always test positive")
	}
}

func TestMissFilter_SeedMarksExistingNames(t *testing.T) {
	filter := newMissFilter()
	filter.seed([]string{"one", "two"})
	assert.True(t, filter.mightContain("one"))
	assert.True(t, filter.mightContain("two"))
}

func TestMissFilter_ResetForgetsEverything(t *testing.T) {
	filter := newMissFilter()
	filter.add(fileNameForKey("key"))
	filter.reset()
	assert.False(t, filter.mightContain(fileNameForKey("key")),
		"After a reset the filter must report definite misses again")
}

func TestMissFilter_DisabledPassesThrough(t *testing.T) {
	filter := newMissFilter()
	filter.disable()
	assert.True(t, filter.mightContain("anything"),
		"A disabled filter must degrade reads to disk lookups, never short-circuit")
	filter.reset()
	assert.False(t, filter.mightContain("anything"), "Reset re-arms a disabled filter")
}
