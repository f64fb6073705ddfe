package ocr

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"collapses whitespace", "the   quick\t\tbrown\n\nfox", "the quick brown fox"},
		{"breaks after sentence end", "First one. Second one! Third? Done", "First one.\nSecond one!\nThird?\nDone"},
		{"strips control characters", "clean\x00 te\x1bxt\x07 here", "clean text here"},
		{"drops replacement rune", "bro�ken", "broken"},
		{"trims", "  padded.  ", "padded."},
		{"empty", " \n\t ", ""},
		{"keeps decimals", "pi is 3.14 roughly", "pi is 3.14 roughly"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestJoinPages(t *testing.T) {
	assert.Equal(t, "one\n\nthree", JoinPages([]string{"one", "", "three"}))
	assert.Equal(t, "one", JoinPages([]string{"", "one", "  "}))
	assert.Equal(t, "", JoinPages(nil))
}
