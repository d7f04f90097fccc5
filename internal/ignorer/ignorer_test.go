package ignorer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type boolIgnorer bool

func (b boolIgnorer) Ignore(_, _ string) bool {
	return bool(b)
}

func TestNewAny(t *testing.T) {
	tests := []struct {
		name     string
		ignorers []Ignorer
		want     bool
	}{
		{name: "empty", ignorers: nil, want: false},
		{name: "single false", ignorers: []Ignorer{boolIgnorer(false)}, want: false},
		{name: "single true", ignorers: []Ignorer{boolIgnorer(true)}, want: true},
		{name: "mixed", ignorers: []Ignorer{boolIgnorer(false), boolIgnorer(true)}, want: true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := NewAny(tc.ignorers...).Ignore("/some/path", "some/path")
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewDirNames(t *testing.T) {
	ign := NewDirNames(".git", "node_modules")
	assert.True(t, ign.Ignore("/repo/.git", ".git"))
	assert.True(t, ign.Ignore("/repo/.git/config", ".git/config"))
	assert.True(t, ign.Ignore("/repo/node_modules/foo", "node_modules/foo"))
	assert.False(t, ign.Ignore("/repo/src/.gitignore", "src/.gitignore"))
	assert.False(t, ign.Ignore("/repo/gitstuff", "gitstuff"))
}
