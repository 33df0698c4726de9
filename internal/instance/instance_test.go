package instance

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vrproute/internal/model"
)

const small = `3
1 2
2 3
3 1
4
0 1 5
1 2 3
2 3 4
3 0 6
`

func TestParse(t *testing.T) {
	inst, err := Parse(strings.NewReader(small))
	require.NoError(t, err)

	assert.Equal(t, []model.City{{ID: 1, Demand: 2}, {ID: 2, Demand: 3}, {ID: 3, Demand: 1}}, inst.Cities)
	require.Len(t, inst.Roads, 4)
	assert.Equal(t, model.Road{From: 3, To: 0, Cost: 6}, inst.Roads[3])
}

func TestParseAcceptsAnyWhitespace(t *testing.T) {
	inst, err := Parse(strings.NewReader("1 1 4\t1\n0 1 2"))
	require.NoError(t, err)
	assert.Len(t, inst.Cities, 1)
	assert.Len(t, inst.Roads, 1)
}

func TestParseMalformed(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"short cities":   "2\n1 1\n",
		"non integer":    "1\n1 x\n0\n",
		"missing roads":  "1\n1 1\n",
		"short road":     "1\n1 1\n1\n0 1\n",
		"trailing token": "1\n1 1\n0\n9\n",
		"negative count": "-1\n",
		"depot listed":   "1\n0 1\n0\n",
		"duplicate city": "2\n1 1\n1 2\n0\n",
		"unknown city":   "1\n1 1\n1\n0 4 2\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(in))
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedInput), "got %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "inst.txt")
	require.NoError(t, os.WriteFile(path, []byte(small), 0o600))

	inst, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, inst.Cities, 3)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInputIO))
	assert.False(t, errors.Is(err, ErrMalformedInput))
}
