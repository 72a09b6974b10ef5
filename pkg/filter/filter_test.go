package filter

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterScan(t *testing.T) {
	f := Build([]string{"badword", "bad", "evil plan"})

	t.Run("No Match", func(t *testing.T) {
		match, ok := f.Scan("a perfectly fine sentence")
		assert.False(t, ok)
		assert.Equal(t, "", match)
	})

	t.Run("Simple Match", func(t *testing.T) {
		match, ok := f.Scan("this is an evil plan indeed")
		assert.True(t, ok)
		assert.Equal(t, "evil plan", match)
	})

	t.Run("Shortest Completion Wins", func(t *testing.T) {
		// "bad" is a prefix of "badword"; the shorter phrase completes first.
		match, ok := f.Scan("such a badword here")
		assert.True(t, ok)
		assert.Equal(t, "bad", match)
	})

	t.Run("Smallest Offset Wins", func(t *testing.T) {
		f := Build([]string{"plan", "evil"})
		match, ok := f.Scan("the evil plan")
		assert.True(t, ok)
		assert.Equal(t, "evil", match)
	})

	t.Run("Case Normalized", func(t *testing.T) {
		match, ok := f.Scan("A BADWORD shouted")
		assert.True(t, ok)
		assert.Equal(t, "bad", match)

		f := Build([]string{"MiXeD"})
		match, ok = f.Scan("some mixed case")
		assert.True(t, ok)
		assert.Equal(t, "mixed", match)
	})

	t.Run("Match At End Of Text", func(t *testing.T) {
		match, ok := f.Scan("so bad")
		assert.True(t, ok)
		assert.Equal(t, "bad", match)
	})

	t.Run("Partial Phrase Is Not A Match", func(t *testing.T) {
		f := Build([]string{"evil plan"})
		_, ok := f.Scan("evil pla")
		assert.False(t, ok)
	})

	t.Run("Unicode Phrases", func(t *testing.T) {
		f := Build([]string{"敏感词"})
		match, ok := f.Scan("这句话包含敏感词测试")
		assert.True(t, ok)
		assert.Equal(t, "敏感词", match)
	})

	t.Run("Blank Phrases Ignored", func(t *testing.T) {
		f := Build([]string{"", "   ", "ok"})
		_, ok := f.Scan("an empty trie edge should not match everything")
		assert.False(t, ok)
		match, ok := f.Scan("ok then")
		assert.True(t, ok)
		assert.Equal(t, "ok", match)
	})
}

func TestFilterEmpty(t *testing.T) {
	f := New()
	_, ok := f.Scan("anything at all")
	assert.False(t, ok)

	_, ok = f.Scan("")
	assert.False(t, ok)
}
