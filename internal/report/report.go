// Package report turns a compare result into a serialisable report and
// writes it as JSON (optionally xz-compressed) or into a SQLite store.
package report

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/JuniperMerge/core/diff"
	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
	"github.com/FocuswithJustin/JuniperMerge/core/merge"
)

// xzMagic opens every xz stream.
var xzMagic = []byte{0xFD, '7', 'z', 'X', 'Z', 0x00}

// Unit is one clustered unit as it appears in a report.
type Unit struct {
	Handle uuid.UUID `json:"handle"`
	Range  string    `json:"range"`
	Pos    int       `json:"pos"`
	Empty  bool      `json:"empty,omitempty"`
}

// Cluster is the report form of a merge cluster.
type Cluster struct {
	Type        merge.ClusterType `json:"type"`
	Min         ir.Ordinal        `json:"min"`
	Max         ir.Ordinal        `json:"max"`
	Current     []Unit            `json:"current,omitempty"`
	Revision    []Unit            `json:"revision,omitempty"`
	InsertIndex int               `json:"insert_index"`
}

// Report is the outcome of one compare run.
type Report struct {
	ID          string     `json:"id"`
	CreatedAt   time.Time  `json:"created_at"`
	Book        string     `json:"book"`
	Level       string     `json:"level"`
	Clusters    []Cluster  `json:"clusters"`
	Differences *diff.List `json:"differences"`
	Digest      string     `json:"digest"`
}

// New builds a report for book from a compare result.
func New(book string, res *merge.Result) (*Report, error) {
	if res == nil {
		return nil, errors.NewValidation("result", "no compare result")
	}
	r := &Report{
		ID:          uuid.New().String(),
		CreatedAt:   time.Now().UTC(),
		Book:        book,
		Level:       res.Level.String(),
		Clusters:    make([]Cluster, 0, len(res.Clusters)),
		Differences: res.Differences,
	}
	if r.Differences == nil {
		r.Differences = diff.NewList()
	}
	for _, c := range res.Clusters {
		r.Clusters = append(r.Clusters, Cluster{
			Type:        c.Type,
			Min:         c.Range.Min,
			Max:         c.Range.Max,
			Current:     units(c.Current),
			Revision:    units(c.Revision),
			InsertIndex: c.InsertIndex,
		})
	}

	digest, err := diff.Digest(r.Differences)
	if err != nil {
		return nil, err
	}
	r.Digest = digest
	return r, nil
}

func units(items []*merge.Proxy) []Unit {
	if len(items) == 0 {
		return nil
	}
	out := make([]Unit, len(items))
	for i, p := range items {
		out[i] = Unit{Handle: p.Handle, Range: p.Range.String(), Pos: p.Pos(), Empty: p.Empty}
	}
	return out
}

// Counts returns the number of clusters of each type.
func (r *Report) Counts() map[merge.ClusterType]int {
	out := make(map[merge.ClusterType]int)
	for _, c := range r.Clusters {
		out[c.Type]++
	}
	return out
}

// WriteJSON writes r as indented JSON, xz-compressed when compress is set.
func WriteJSON(w io.Writer, r *Report, compress bool) error {
	if !compress {
		return encode(w, r)
	}
	xw, err := xz.NewWriter(w)
	if err != nil {
		return errors.Wrap(err, "xz writer")
	}
	if err := encode(xw, r); err != nil {
		xw.Close()
		return err
	}
	return xw.Close()
}

func encode(w io.Writer, r *Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(r); err != nil {
		return errors.Wrap(err, "failed to encode report")
	}
	return nil
}

// ReadJSON reads a report written by WriteJSON, compressed or not.
func ReadJSON(rd io.Reader) (*Report, error) {
	br := bufio.NewReader(rd)
	var src io.Reader = br
	if head, _ := br.Peek(len(xzMagic)); bytes.Equal(head, xzMagic) {
		xr, err := xz.NewReader(br)
		if err != nil {
			return nil, errors.Wrap(err, "xz reader")
		}
		src = xr
	}

	var r Report
	if err := json.NewDecoder(src).Decode(&r); err != nil {
		return nil, errors.NewParse("report", "", err.Error())
	}
	if r.Differences == nil {
		r.Differences = diff.NewList()
	}
	return &r, nil
}

// WriteFile writes r to path, compressed when compress is set or the path
// ends in ".xz".
func WriteFile(path string, r *Report, compress bool) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.NewIO("create", path, err)
	}
	if err := WriteJSON(f, r, compress || strings.HasSuffix(path, ".xz")); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return errors.NewIO("close", path, err)
	}
	return nil
}

// ReadFile reads a report from path.
func ReadFile(path string) (*Report, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.NewIO("open", path, err)
	}
	defer f.Close()
	return ReadJSON(f)
}
