package router

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScore(t *testing.T) {
	tests := []struct {
		path       string
		candidates []string
		scores     []int
	}{
		{"foo", []string{"%x.ks", "foo.ks"}, []int{0, 1}},
		{"bar", []string{"%x.ks", "%y.ks"}, []int{0, 0}},
		{"baz", []string{"baz.ks"}, []int{1}},
		{"foo/bar", []string{"%y/%x.ks", "foo/%x.ks", "%y/bar.ks"}, []int{0, 1, 1}},
		{"foo/", []string{"%y/%x.ks", "foo/%x.ks", "%y/index.ks"}, []int{0, 1, 2}},
		{"foo/baz", []string{"%x/%y.ks", "foo/%y.ks", "%x/baz", "%x/baz.ks"}, []int{0, 1, 1, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			for i, c := range tt.candidates {
				assert.Equal(t, tt.scores[i], Score(tt.path, c), "candidate %s", c)
			}
		})
	}
}

func TestScoreIndexBeatsParameter(t *testing.T) {
	assert.Greater(t, Score("subdir/", "subdir/index.ks"), Score("subdir/", "%wildcard/index.ks"))
	assert.Greater(t, Score("subdir/", "%wildcard/index.ks"), Score("subdir/", "%wildcard/%wildcard2.ks"))
}

func TestParams(t *testing.T) {
	tests := []struct {
		path      string
		candidate string
		want      map[string]string
	}{
		{"subdir", "%widlcard.ks", map[string]string{"widlcard": "subdir"}},
		{"anydir/pagename", "%wildcard/%wildcard2.ks", map[string]string{"wildcard": "anydir", "wildcard2": "pagename"}},
		{"anydir/", "%wildcard/index.ks", map[string]string{"wildcard": "anydir"}},
		{"other/file.txt", "%wildcard/file.txt", map[string]string{"wildcard": "other"}},
		{"pageA", "pageA.ks", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			assert.Equal(t, tt.want, Params(tt.path, tt.candidate))
		})
	}
}
