package source

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScanner(t *testing.T) {
	input := "4\n  1\n\n-7 \nabc\n9223372036854775808\n12x\n-9223372036854775808\n"
	var bad []*ParseError
	values, err := ReadAll(strings.NewReader(input), func(e *ParseError) { bad = append(bad, e) })
	require.NoError(t, err)

	assert.Equal(t, []int64{4, 1, -7, -9223372036854775808}, values)
	require.Len(t, bad, 3)
	assert.Equal(t, 5, bad[0].Line)
	assert.Equal(t, "abc", bad[0].Content)
	assert.Equal(t, 6, bad[1].Line)
	assert.ErrorIs(t, bad[1], strconv.ErrRange)
	assert.ErrorIs(t, bad[2], strconv.ErrSyntax)
	assert.Contains(t, bad[2].Error(), `line 7: invalid value "12x"`)
}

func TestScannerWithoutHandler(t *testing.T) {
	values, err := ReadAll(strings.NewReader("x\n2\n"), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{2}, values)
}

func TestReadFileAndCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stream.txt")
	require.NoError(t, os.WriteFile(path, []byte("4\n1\n4\nnope\n5\n"), 0o644))

	values, err := ReadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{4, 1, 4, 5}, values)

	n, err := Count(path)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.txt"), nil)
	assert.Error(t, err)
	_, err = Count(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	const n = 1000
	for _, kind := range Kinds {
		values, err := Generate(kind, n, 42)
		require.NoError(t, err, kind)
		require.Len(t, values, n, kind)
		for _, v := range values {
			assert.True(t, v >= 0 && v < n, "%s produced %d", kind, v)
		}

		again, err := Generate(kind, n, 42)
		require.NoError(t, err)
		assert.Equal(t, values, again, "%s is not reproducible", kind)
	}

	sorted, _ := Generate("sorted", 3, 1)
	assert.Equal(t, []int64{0, 1, 2}, sorted)
	reversed, _ := Generate("reversed", 3, 1)
	assert.Equal(t, []int64{2, 1, 0}, reversed)
}

func TestGenerateInvalid(t *testing.T) {
	_, err := Generate("uniform", 0, 1)
	assert.Error(t, err)
	_, err = Generate("bimodal", 10, 1)
	assert.Error(t, err)
}

func TestScannerSkipsOverlongLine(t *testing.T) {
	long := strings.Repeat("x", 70*1024)
	var bad []*ParseError
	values, err := ReadAll(strings.NewReader("1\n"+long+"\n2\n3\n"), func(e *ParseError) { bad = append(bad, e) })
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 2, 3}, values)
	require.Len(t, bad, 1)
	assert.Equal(t, 2, bad[0].Line)
	assert.ErrorIs(t, bad[0], ErrLineTooLong)
	assert.Equal(t, strings.Repeat("x", 64)+"...", bad[0].Content)
}

func TestScannerLineLengthLimit(t *testing.T) {
	// A value padded to exactly MaxLineLength still parses.
	padded := strings.Repeat(" ", MaxLineLength-2) + "42"
	values, err := ReadAll(strings.NewReader(padded+"\n"+padded+" \n7"), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{42, 7}, values)
}

func TestScannerLastLineWithoutNewline(t *testing.T) {
	values, err := ReadAll(strings.NewReader("5\r\n-6"), nil)
	require.NoError(t, err)
	assert.Equal(t, []int64{5, -6}, values)
}
