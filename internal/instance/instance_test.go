package instance

import (
	"bytes"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ChuLiYu/pcmax-genetic/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_TextFormat(t *testing.T) {
	inst, err := Parse(strings.NewReader("3\n4\n1\n2\n4\n3\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, inst.Processors)
	assert.Equal(t, []float64{1, 2, 4, 3}, inst.Durations)
}

func TestParse_FractionalAndSameLine(t *testing.T) {
	inst, err := Parse(strings.NewReader("2 3  1.5 2.25 7"))
	require.NoError(t, err)
	assert.Equal(t, []float64{1.5, 2.25, 7}, inst.Durations)
}

func TestParse_ZeroProcesses(t *testing.T) {
	inst, err := Parse(strings.NewReader("4\n0\n"))
	require.NoError(t, err)
	assert.Equal(t, 4, inst.Processors)
	assert.Empty(t, inst.Durations)
}

func TestParse_Errors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  error
	}{
		{"empty", "", ErrMalformed},
		{"missing count", "3", ErrMalformed},
		{"bad processor count", "x 1 1", ErrMalformed},
		{"bad duration", "2 2 1 abc", ErrMalformed},
		{"too few durations", "2 3 1 2", ErrProcessCountMismatch},
		{"too many durations", "2 1 1 2", ErrProcessCountMismatch},
		{"zero processors", "0 2 1 2", types.ErrNoProcessors},
		{"non-positive duration", "2 2 1 0", types.ErrInvalidDuration},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.input))
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestLoad_ByExtension(t *testing.T) {
	dir := t.TempDir()

	yamlPath := filepath.Join(dir, "small.yaml")
	require.NoError(t, os.WriteFile(yamlPath, []byte("processors: 3\ndurations: [1, 2, 4, 3]\n"), 0644))
	inst, err := Load(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, types.Instance{Processors: 3, Durations: []float64{1, 2, 4, 3}}, inst)

	jsonPath := filepath.Join(dir, "small.json")
	require.NoError(t, os.WriteFile(jsonPath, []byte(`{"processors": 2, "durations": [5, 5]}`), 0644))
	inst, err = Load(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, types.Instance{Processors: 2, Durations: []float64{5, 5}}, inst)

	textPath := filepath.Join(dir, "small.txt")
	require.NoError(t, os.WriteFile(textPath, []byte("2\n2\n5\n5\n"), 0644))
	inst, err = Load(textPath)
	require.NoError(t, err)
	assert.Equal(t, types.Instance{Processors: 2, Durations: []float64{5, 5}}, inst)
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load("/nonexistent/instance.txt")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to open instance file")

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("processors: [oops"), 0644))
	_, err = Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse instance YAML")

	zero := filepath.Join(t.TempDir(), "zero.yaml")
	require.NoError(t, os.WriteFile(zero, []byte("processors: 0\ndurations: [1]\n"), 0644))
	_, err = Load(zero)
	assert.ErrorIs(t, err, types.ErrNoProcessors)
}

func TestWriteThenParse(t *testing.T) {
	original := types.Instance{Processors: 4, Durations: []float64{10, 2.5, 7}}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, original))
	assert.Equal(t, "4\n3\n10\n2.5\n7\n", buf.String())

	parsed, err := Parse(&buf)
	require.NoError(t, err)
	assert.Equal(t, original, parsed)
}

func TestGenerate(t *testing.T) {
	inst, err := Generate(rand.New(rand.NewSource(9)), 5, 40, 3, 12)
	require.NoError(t, err)
	assert.Equal(t, 5, inst.Processors)
	require.Len(t, inst.Durations, 40)
	for _, d := range inst.Durations {
		assert.GreaterOrEqual(t, d, 3.0)
		assert.LessOrEqual(t, d, 12.0)
		assert.Equal(t, float64(int(d)), d)
	}
	require.NoError(t, inst.Validate())

	_, err = Generate(rand.New(rand.NewSource(9)), 0, 4, 1, 2)
	assert.ErrorIs(t, err, types.ErrNoProcessors)

	_, err = Generate(rand.New(rand.NewSource(9)), 2, 4, 5, 1)
	assert.ErrorIs(t, err, types.ErrInvalidDuration)
}
