package table

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_HeaderAndRows(t *testing.T) {
	data := []byte("\xef\xbb\xbfa, b ,c\n1,2,3\n,,\n4,5\n")

	tbl, err := Parse(data)
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b", "c"}, tbl.Header)
	require.Len(t, tbl.Rows, 3)
	assert.Equal(t, 2, tbl.Rows[0].Line)
	assert.False(t, tbl.Rows[0].Blank())
	assert.True(t, tbl.Rows[1].Blank())
	assert.Equal(t, []string{"4", "5", ""}, tbl.Rows[2].Cells)
	assert.Equal(t, 4, tbl.Rows[2].Line)
}

func TestParse_Empty(t *testing.T) {
	tbl, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, tbl.Header)
	assert.Empty(t, tbl.Rows)
}

func TestMissing(t *testing.T) {
	tbl := New([]string{"a", "c"})
	assert.Equal(t, []string{"b", "d"}, tbl.Missing([]string{"a", "b", "c", "d"}))
	assert.Empty(t, tbl.Missing([]string{"c"}))
}

func TestAppend_AssignsLines(t *testing.T) {
	tbl := New([]string{"a", "b"})
	r1 := tbl.Append([]string{"x"})
	r2 := tbl.Append([]string{"y", "z"})

	assert.Equal(t, 2, r1.Line)
	assert.Equal(t, 3, r2.Line)
	assert.Equal(t, []string{"x", ""}, r1.Cells)
}

func TestWriteRead_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "t.csv")

	tbl := New([]string{"caption", "notes"})
	tbl.Append([]string{"Doe, John v Roe", "said \"hello\"\nthen left"})
	tbl.Append([]string{"", ""})
	require.NoError(t, tbl.Write(path))

	got, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, tbl.Header, got.Header)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, tbl.Rows[0].Cells, got.Rows[0].Cells)
	assert.True(t, got.Rows[1].Blank())

	// No temp files left behind.
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestRead_Missing(t *testing.T) {
	_, err := Read(filepath.Join(t.TempDir(), "nope.csv"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
