// Package trackio reads and writes track sets as delimited text.
//
// A track directory holds one file per track. Every non-empty line of a
// file is one point: three coordinates followed by any number of
// attributes, comma separated. Lines starting with '#' are comments.
package trackio

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/gogpu/bundle"
)

// ErrFormat reports a malformed track file.
var ErrFormat = errors.New("trackio: malformed track")

// Read parses one track from r.
func Read(r io.Reader) (bundle.Track, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = 0 // every record as wide as the first

	var t bundle.Track
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrFormat, err)
		}
		if len(rec) < 3 {
			line, _ := cr.FieldPos(0)
			return nil, fmt.Errorf("%w: line %d has %d fields, want at least 3", ErrFormat, line, len(rec))
		}
		vals := make([]float32, len(rec))
		for i, field := range rec {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				line, col := cr.FieldPos(i)
				return nil, fmt.Errorf("%w: line %d column %d: %w", ErrFormat, line, col, err)
			}
			vals[i] = float32(v)
		}
		p := bundle.Pt(vals[0], vals[1], vals[2])
		if len(vals) > 3 {
			p.Attributes = vals[3:]
		}
		t = append(t, p)
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("%w: %w", ErrFormat, bundle.ErrEmptyTrack)
	}
	return t, nil
}

// LoadFile reads the track stored at path.
func LoadFile(path string) (bundle.Track, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	t, err := Read(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// LoadDir reads every regular file in dir, in name order, as one track.
// Subdirectories and hidden files are skipped.
func LoadDir(dir string) ([]bundle.Track, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	var tracks []bundle.Track
	for _, e := range entries {
		if !e.Type().IsRegular() || e.Name()[0] == '.' {
			continue
		}
		t, err := LoadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		tracks = append(tracks, t)
	}
	return tracks, nil
}

// FromVertexBuffers converts flat x,y,z sequences, one per track, into
// tracks without attributes.
func FromVertexBuffers(buffers [][]float32) ([]bundle.Track, error) {
	tracks := make([]bundle.Track, len(buffers))
	for i, buf := range buffers {
		if len(buf) == 0 || len(buf)%3 != 0 {
			return nil, fmt.Errorf("%w: vertex buffer %d has %d floats, want a positive multiple of 3", ErrFormat, i, len(buf))
		}
		t := make(bundle.Track, len(buf)/3)
		for k := range t {
			t[k] = bundle.Pt(buf[3*k], buf[3*k+1], buf[3*k+2])
		}
		tracks[i] = t
	}
	return tracks, nil
}

// Write encodes t as one line per point.
func Write(w io.Writer, t bundle.Track) error {
	cw := csv.NewWriter(w)
	rec := make([]string, 0, 3+t.Attributes())
	for _, p := range t {
		rec = append(rec[:0], formatFloat(p.X), formatFloat(p.Y), formatFloat(p.Z))
		for _, a := range p.Attributes {
			rec = append(rec, formatFloat(a))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// FileName returns the name WriteDir uses for track i.
func FileName(i int) string {
	return fmt.Sprintf("track_%05d.csv", i)
}

// WriteDir writes each track to dir/FileName(i), creating dir if needed.
func WriteDir(dir string, tracks []bundle.Track) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	for i, t := range tracks {
		if err := writeFile(filepath.Join(dir, FileName(i)), t); err != nil {
			return err
		}
	}
	return nil
}

func writeFile(path string, t bundle.Track) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return Write(f, t)
}

func formatFloat(v float32) string {
	return strconv.FormatFloat(float64(v), 'g', -1, 32)
}
