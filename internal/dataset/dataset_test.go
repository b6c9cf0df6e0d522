package dataset_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/katalvlaran/pofr/core"
	"github.com/katalvlaran/pofr/internal/dataset"
)

func TestRead(t *testing.T) {
	t.Parallel()

	m, err := dataset.Read(strings.NewReader(`# sphere, R = 50
q I dI
0.01  99.5  1.0

0.02, 98.0, 1.0, 0.001
0.03;95.1;0.9
`))
	require.NoError(t, err)
	assert.Equal(t, []float64{0.01, 0.02, 0.03}, m.Q)
	assert.Equal(t, []float64{99.5, 98.0, 95.1}, m.I)
	assert.Equal(t, []float64{1.0, 1.0, 0.9}, m.Err)
	assert.False(t, m.Smeared())
}

func TestRead_Errors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want error
	}{
		{"empty", "# nothing\n", dataset.ErrEmpty},
		{"bad row after data", "0.1 1 1\n0.2 x 1\n", dataset.ErrFormat},
		{"short row after data", "0.1 1 1\n0.2 1\n", dataset.ErrFormat},
		{"zero sigma", "0.1 1 0\n", core.ErrConfig},
		{"negative q", "-0.1 1 1\n", core.ErrConfig},
	}
	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			_, err := dataset.Read(strings.NewReader(tc.in))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "run7.dat")
	require.NoError(t, os.WriteFile(path, []byte("0.1 2 0.1\n0.2 1 0.1\n"), 0o644))

	m, err := dataset.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Len())
	assert.Equal(t, "run7", dataset.Name(path))

	_, err = dataset.Load(filepath.Join(t.TempDir(), "missing.dat"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
