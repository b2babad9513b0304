package trackio

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/bundle"
)

func TestRead(t *testing.T) {
	src := `# x,y,z,weight
0,0,0,1
1, 2, 3,0.5

2.5,-1,1e2,0
`
	got, err := Read(strings.NewReader(src))
	require.NoError(t, err)

	want := bundle.Track{
		{X: 0, Y: 0, Z: 0, Attributes: []float32{1}},
		{X: 1, Y: 2, Z: 3, Attributes: []float32{0.5}},
		{X: 2.5, Y: -1, Z: 100, Attributes: []float32{0}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Read() mismatch (-want +got):\n%s", diff)
	}
}

func TestRead_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"empty", "# nothing\n"},
		{"too few fields", "1,2\n"},
		{"ragged attributes", "1,2,3,4\n1,2,3\n"},
		{"not a number", "1,two,3\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.src))
			assert.True(t, errors.Is(err, ErrFormat), "Read() error = %v, want ErrFormat", err)
		})
	}
}

func TestWriteDirLoadDir_RoundTrip(t *testing.T) {
	tracks := []bundle.Track{
		{bundle.Pt(0, 0, 0), bundle.Pt(1.25, 2, -3)},
		{{X: 4, Y: 5, Z: 6, Attributes: []float32{0.1, 7}}},
	}
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteDir(dir, tracks))

	_, err := os.Stat(filepath.Join(dir, "track_00001.csv"))
	require.NoError(t, err)

	got, err := LoadDir(dir)
	require.NoError(t, err)
	if diff := cmp.Diff(tracks, got); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadDir_SortedSkipsDirsAndHidden(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.txt":   "2,0,0\n",
		"a.txt":   "1,0,0\n",
		".hidden": "9,9,9\n",
	}
	for name, body := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	got, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, float32(1), got[0][0].X)
	assert.Equal(t, float32(2), got[1][0].X)
}

func TestLoadDir_ReportsFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.csv"), []byte("x\n"), 0o644))
	_, err := LoadDir(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad.csv")
}

func TestFromVertexBuffers(t *testing.T) {
	got, err := FromVertexBuffers([][]float32{{0, 1, 2, 3, 4, 5}, {6, 7, 8}})
	require.NoError(t, err)
	want := []bundle.Track{
		{bundle.Pt(0, 1, 2), bundle.Pt(3, 4, 5)},
		{bundle.Pt(6, 7, 8)},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("FromVertexBuffers() mismatch (-want +got):\n%s", diff)
	}

	for _, bad := range [][]float32{nil, {1, 2}} {
		_, err := FromVertexBuffers([][]float32{bad})
		assert.True(t, errors.Is(err, ErrFormat), "FromVertexBuffers(%v) error = %v", bad, err)
	}
}
