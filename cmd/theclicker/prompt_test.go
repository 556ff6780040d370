package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrompterYes(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("\ny\nno\n\n"), &out)

	for _, tc := range []struct {
		def  bool
		want bool
	}{
		{def: true, want: true},
		{def: false, want: true},
		{def: true, want: false},
		{def: false, want: false},
	} {
		got, err := p.yes("Grab?", tc.def)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)
	}
	assert.Contains(t, out.String(), "Grab? [Y/n]")
	assert.Contains(t, out.String(), "Grab? [y/N]")

	_, err := p.yes("Again?", true)
	assert.ErrorIs(t, err, errNoInput)
}

func TestPrompterNumber(t *testing.T) {
	var out bytes.Buffer
	p := newPrompter(strings.NewReader("abc\n40\n\n"), &out)

	n, err := p.number("Cooldown", nil)
	require.NoError(t, err)
	assert.Equal(t, uint64(40), n)
	assert.Contains(t, out.String(), `"abc" is not a number!`)

	n, err = p.number("Cooldown", uintPtr(25))
	require.NoError(t, err)
	assert.Equal(t, uint64(25), n)
	assert.Contains(t, out.String(), "Cooldown [25]: ")

	_, err = p.number("Cooldown", uintPtr(25))
	assert.ErrorIs(t, err, errNoInput)
}
