// Package merge finds which structural units of two versions of a book
// correspond. Units are grouped into clusters by overlapping reference
// ranges, each cluster is classified, and complex clusters are broken down
// into simpler ones where the content allows it.
package merge

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/FocuswithJustin/JuniperMerge/core/book"
	"github.com/FocuswithJustin/JuniperMerge/core/diff"
	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
	"github.com/FocuswithJustin/JuniperMerge/internal/logging"
)

// Merger runs compares between a Current and a Revision book. A Merger must
// not be used by two compares at once.
type Merger struct {
	Simplifier    *Simplifier
	HeadProximity int
	Preferred     ir.Side // primary side when ordering differences
	Limit         ir.RefRange // when set, only units overlapping it are compared
	Progress      Progress
	Logger        *slog.Logger
}

// NewMerger returns a merger with default settings.
func NewMerger() *Merger {
	return &Merger{
		Simplifier:    NewSimplifier(),
		HeadProximity: DefaultHeadProximity,
		Preferred:     ir.Current,
	}
}

// Result is the outcome of one compare.
type Result struct {
	Level       Level
	Clusters    []*Cluster
	Differences *diff.List
}

// Compare clusters curr and rev at the given level and derives the
// structural differences, sorted by the preferred side.
func (m *Merger) Compare(level Level, curr, rev *book.Book) (*Result, error) {
	var (
		clusters []*Cluster
		err      error
	)
	switch level {
	case LevelSections:
		clusters, err = m.CompareSections(curr, rev)
	case LevelParagraphs:
		clusters, err = m.CompareParagraphs(curr, rev)
	case LevelVerses:
		clusters, err = m.CompareVerses(curr, rev)
	default:
		return nil, errors.NewValidation("level", level.String())
	}
	if err != nil {
		return nil, err
	}

	diffs, err := StructuralDifferences(level, clusters)
	if err != nil {
		return nil, m.invariant("differences", err)
	}
	list := diff.NewList(diffs...)
	if err := list.SortIfNeeded(diff.NewComparator(m.Preferred)); err != nil {
		return nil, m.invariant("difflist", err)
	}
	return &Result{Level: level, Clusters: clusters, Differences: list}, nil
}

// CompareSections clusters sections by overlap. Each MultipleInBoth cluster
// is then resolved by section-head correlation; heads left unpaired become
// orphan clusters.
func (m *Merger) CompareSections(curr, rev *book.Book) ([]*Cluster, error) {
	cp, rp, err := m.proxies(LevelSections, curr, rev, SectionProxies)
	if err != nil {
		return nil, err
	}
	clusters, err := BuildOverlapClusters(cp, rp)
	if err != nil {
		return nil, m.invariant("builder", err)
	}
	logging.ClustersBuilt(m.Logger, "overlap", len(clusters), "level", LevelSections.String())

	var out []*Cluster
	for _, c := range clusters {
		if c.Type != MultipleInBoth {
			out = append(out, c)
			continue
		}
		heads, err := m.CorrelateHeads(c)
		if err != nil {
			return nil, err
		}
		out = append(out, heads...)
	}
	SortClusters(out)
	return out, nil
}

// CorrelateHeads pairs the section heads of one complex cluster. One-sided
// results are reported as orphans since they come from splitting c.
func (m *Merger) CorrelateHeads(c *Cluster) ([]*Cluster, error) {
	heads, err := CorrelateSectionHeads(c, m.HeadProximity)
	if err != nil {
		return nil, m.invariant("section heads", err)
	}
	for _, h := range heads {
		switch h.Type {
		case AddedToCurrent:
			h.Type = OrphansInCurrent
		case MissingInCurrent:
			h.Type = OrphansInRevision
		}
	}
	logging.ClustersBuilt(m.Logger, "section_heads", len(heads), "range", c.Range.String())
	return heads, nil
}

// CompareParagraphs clusters content paragraphs by overlap and separates
// stanza breaks from real content.
func (m *Merger) CompareParagraphs(curr, rev *book.Book) ([]*Cluster, error) {
	cp, rp, err := m.proxies(LevelParagraphs, curr, rev, ParagraphProxies)
	if err != nil {
		return nil, err
	}
	clusters, err := BuildOverlapClusters(cp, rp)
	if err != nil {
		return nil, m.invariant("builder", err)
	}
	logging.ClustersBuilt(m.Logger, "overlap", len(clusters), "level", LevelParagraphs.String())

	clusters, err = m.simplifier().ExtractStanzaBreaks(clusters)
	if err != nil {
		return nil, err
	}
	SortClusters(clusters)
	return clusters, nil
}

// CompareVerses clusters verse lines by adjacent overlap and simplifies the
// result.
func (m *Merger) CompareVerses(curr, rev *book.Book) ([]*Cluster, error) {
	cp, rp, err := m.proxies(LevelVerses, curr, rev, VerseProxies)
	if err != nil {
		return nil, err
	}
	clusters, err := BuildAdjacentClusters(cp, rp)
	if err != nil {
		return nil, m.invariant("builder", err)
	}
	logging.ClustersBuilt(m.Logger, "adjacent", len(clusters), "level", LevelVerses.String())
	return m.simplifier().Simplify(clusters)
}

type proxyFunc func(*book.Book, ir.Side, Progress) ([]*Proxy, error)

func (m *Merger) proxies(level Level, curr, rev *book.Book, build proxyFunc) ([]*Proxy, []*Proxy, error) {
	if curr == nil || rev == nil {
		return nil, nil, errors.NewValidation("book", "both books are required")
	}
	cp, err := build(curr, ir.Current, m.Progress)
	if err != nil {
		return nil, nil, err
	}
	rp, err := build(rev, ir.Revision, m.Progress)
	if err != nil {
		return nil, nil, err
	}
	if m.Limit != (ir.RefRange{}) {
		if m.Limit.Min.Book() != curr.Number {
			return nil, nil, &errors.ValidationError{
				Field:   "range",
				Value:   m.Limit.String(),
				Message: fmt.Sprintf("range is outside %s", curr.Code),
			}
		}
		cp, rp = m.limit(cp), m.limit(rp)
	}
	logging.CompareStarted(m.Logger, level.String(), len(cp), len(rp), "book", curr.Code)
	return cp, rp, nil
}

func (m *Merger) limit(items []*Proxy) []*Proxy {
	return slices.DeleteFunc(items, func(p *Proxy) bool {
		return !p.Range.Overlaps(m.Limit)
	})
}

func (m *Merger) simplifier() *Simplifier {
	if m.Simplifier == nil {
		m.Simplifier = NewSimplifier()
	}
	if m.Simplifier.Logger == nil {
		m.Simplifier.Logger = m.Logger
	}
	return m.Simplifier
}

// invariant logs err when it is an invariant violation and returns it.
func (m *Merger) invariant(component string, err error) error {
	if errors.IsInvariant(err) {
		logging.InvariantViolation(m.Logger, component, err)
	}
	return err
}
