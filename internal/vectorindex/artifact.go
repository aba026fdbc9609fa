package vectorindex

import (
	"bufio"
	"encoding/binary"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
)

// Artifact layout: a binary vector file and a CSV side table mapping row
// ordinal to occupation URI/label, both produced by the offline build.
// The two files must agree on row count; drift is a data-integrity failure
// surfaced at load time, not a recoverable runtime condition.

const (
	artifactMagic   = "SCVX"
	artifactVersion = uint32(1)
)

// Entry is one occupation row written during the offline index build.
type Entry struct {
	URI    string
	Label  string
	Vector []float32
}

// WriteArtifact persists the index to vectorPath and its row mapping to
// mappingPath. All vectors must share one dimensionality.
func WriteArtifact(vectorPath, mappingPath string, entries []Entry) error {
	if len(entries) == 0 {
		return fmt.Errorf("cannot write an empty index artifact")
	}
	dims := len(entries[0].Vector)
	if dims == 0 {
		return fmt.Errorf("entry %q has an empty vector", entries[0].URI)
	}
	for _, e := range entries {
		if len(e.Vector) != dims {
			return fmt.Errorf("entry %q has %d dimensions, expected %d", e.URI, len(e.Vector), dims)
		}
	}

	vf, err := os.Create(vectorPath)
	if err != nil {
		return fmt.Errorf("failed to create vector file: %w", err)
	}
	defer vf.Close()
	w := bufio.NewWriter(vf)
	if _, err := w.WriteString(artifactMagic); err != nil {
		return fmt.Errorf("failed to write vector header: %w", err)
	}
	for _, v := range []uint32{artifactVersion, uint32(dims), uint32(len(entries))} {
		if err := binary.Write(w, binary.LittleEndian, v); err != nil {
			return fmt.Errorf("failed to write vector header: %w", err)
		}
	}
	buf := make([]byte, 4)
	for _, e := range entries {
		for _, x := range e.Vector {
			binary.LittleEndian.PutUint32(buf, math.Float32bits(x))
			if _, err := w.Write(buf); err != nil {
				return fmt.Errorf("failed to write vector row for %q: %w", e.URI, err)
			}
		}
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("failed to flush vector file: %w", err)
	}

	mf, err := os.Create(mappingPath)
	if err != nil {
		return fmt.Errorf("failed to create mapping file: %w", err)
	}
	defer mf.Close()
	cw := csv.NewWriter(mf)
	if err := cw.Write([]string{"occupation_uri", "occupation_label"}); err != nil {
		return fmt.Errorf("failed to write mapping header: %w", err)
	}
	for _, e := range entries {
		if err := cw.Write([]string{e.URI, e.Label}); err != nil {
			return fmt.Errorf("failed to write mapping row for %q: %w", e.URI, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Load reads the artifact pair and validates their consistency. Any
// mismatch (bad magic, truncated rows, mapping count != vector count) is a
// fatal startup error for the caller.
func Load(vectorPath, mappingPath string) (*Index, error) {
	vf, err := os.Open(vectorPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open vector file: %w", err)
	}
	defer vf.Close()
	r := bufio.NewReader(vf)

	magic := make([]byte, len(artifactMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		return nil, fmt.Errorf("failed to read vector header: %w", err)
	}
	if string(magic) != artifactMagic {
		return nil, fmt.Errorf("not a vector index artifact: bad magic %q", magic)
	}
	var version, dims, count uint32
	for _, p := range []*uint32{&version, &dims, &count} {
		if err := binary.Read(r, binary.LittleEndian, p); err != nil {
			return nil, fmt.Errorf("failed to read vector header: %w", err)
		}
	}
	if version != artifactVersion {
		return nil, fmt.Errorf("unsupported artifact version %d", version)
	}
	if dims == 0 || count == 0 {
		return nil, fmt.Errorf("artifact declares %d vectors of %d dimensions", count, dims)
	}

	vectors := make([]float32, int(count)*int(dims))
	buf := make([]byte, 4)
	for i := range vectors {
		if _, err := io.ReadFull(r, buf); err != nil {
			return nil, fmt.Errorf("vector file truncated at element %d: %w", i, err)
		}
		vectors[i] = math.Float32frombits(binary.LittleEndian.Uint32(buf))
	}

	uris, labels, err := loadMapping(mappingPath)
	if err != nil {
		return nil, err
	}
	if len(uris) != int(count) {
		return nil, fmt.Errorf("mapping table has %d rows but index holds %d vectors", len(uris), count)
	}

	return &Index{
		dims:    int(dims),
		vectors: vectors,
		uris:    uris,
		labels:  labels,
	}, nil
}

func loadMapping(path string) ([]string, []string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open mapping file: %w", err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.FieldsPerRecord = 2
	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read mapping header: %w", err)
	}
	if header[0] != "occupation_uri" {
		return nil, nil, fmt.Errorf("mapping file must start with an occupation_uri column, got %q", header[0])
	}
	var uris, labels []string
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read mapping row: %w", err)
		}
		uris = append(uris, rec[0])
		labels = append(labels, rec[1])
	}
	return uris, labels, nil
}
