package console

import (
	"bytes"
	"strings"
	"testing"

	"github.com/axiomhq/mrl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runSession(t *testing.T, sketch *mrl.Sketch, input string) (string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	s := &Session{
		In:     strings.NewReader(input),
		Out:    &out,
		Err:    &errOut,
		Sketch: sketch,
		N:      sketch.N(),
	}
	require.NoError(t, s.Run())
	return out.String(), errOut.String()
}

func goldenSketch(t *testing.T) *mrl.Sketch {
	s, err := mrl.New(0.8, 14)
	require.NoError(t, err)
	for _, v := range []int64{4, 1, 4, 5, 7, 4, 5, 7, 8, 2, 1, 1, 3, 2} {
		require.NoError(t, s.Insert(v))
	}
	return s
}

func TestSession(t *testing.T) {
	out, errOut := runSession(t, goldenSketch(t),
		"rank(7)\n  quantile(0.2)  \nselect(2)\nselect(15)\nquantile(2)\nfoo\nexit\nrank(1)\n")

	assert.True(t, strings.HasPrefix(out, "\nInteractive MRL sketch evaluation."))
	assert.Contains(t, out, "\n> rank(7) = 14\n")
	assert.Contains(t, out, "\n> quantile(0.2) = 1\n")
	assert.Contains(t, out, "\n> select(2) = 1\n")
	assert.NotContains(t, out, "rank(1) =")
	assert.Equal(t, 7, strings.Count(out, "> "))

	assert.Equal(t, "Error: r must be in [1, 14]\n"+
		"Error: phi must be in [0,1]\n"+
		"Error: Unknown command. Use rank(x), select(r), quantile(phi), or exit\n", errOut)
}

func TestSessionEOF(t *testing.T) {
	out, errOut := runSession(t, goldenSketch(t), "rank(2)")
	assert.Contains(t, out, "rank(2) = 4\n")
	assert.True(t, strings.HasSuffix(out, "\n> "))
	assert.Empty(t, errOut)
}

func TestSessionEmptySketch(t *testing.T) {
	s, err := mrl.New(0.5, 10)
	require.NoError(t, err)
	_, errOut := runSession(t, s, "select(1)\n")
	assert.Equal(t, "Error: mrl: sketch is empty\n", errOut)
}
