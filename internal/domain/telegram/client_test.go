package telegram

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitMessage(t *testing.T) {
	t.Run("short text is one chunk", func(t *testing.T) {
		assert.Equal(t, []string{"hello\n"}, SplitMessage("hello\n", 100))
	})

	t.Run("cuts on line boundaries", func(t *testing.T) {
		text := "aaaa\nbbbb\ncccc\n"
		assert.Equal(t, []string{"aaaa\nbbbb\n", "cccc\n"}, SplitMessage(text, 10))
	})

	t.Run("overlong line is hard-cut", func(t *testing.T) {
		got := SplitMessage(strings.Repeat("x", 25), 10)
		assert.Equal(t, []string{strings.Repeat("x", 10), strings.Repeat("x", 10), strings.Repeat("x", 5)}, got)
	})

	t.Run("counts runes not bytes", func(t *testing.T) {
		got := SplitMessage("¥¥¥¥\n¥¥\n", 5)
		assert.Equal(t, []string{"¥¥¥¥\n", "¥¥\n"}, got)
	})

	t.Run("empty text has no chunks", func(t *testing.T) {
		assert.Empty(t, SplitMessage("", 10))
	})

	t.Run("chunks reassemble to the input", func(t *testing.T) {
		text := strings.Repeat("line of ledger text\n", 500)
		chunks := SplitMessage(text, MaxMessageLength)
		assert.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len([]rune(c)), MaxMessageLength)
		}
		assert.Equal(t, text, strings.Join(chunks, ""))
	})
}
