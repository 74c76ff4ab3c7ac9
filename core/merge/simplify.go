package merge

import (
	"log/slog"
	"slices"

	"github.com/FocuswithJustin/JuniperMerge/core/ir"
	"github.com/FocuswithJustin/JuniperMerge/internal/logging"
)

// DefaultThreshold is the minimum correlation for two verse lines with equal
// ranges to be treated as the same line.
const DefaultThreshold = 0.75

// Simplifier breaks complex clusters into simpler ones. Extracted items are
// tombstoned in their source cluster and removed by a cleanup pass at the end
// of each extraction.
type Simplifier struct {
	Correlator Correlator
	Props      CharProps
	Threshold  float64
	Logger     *slog.Logger
}

// NewSimplifier returns a simplifier using TextCorrelator and DefaultThreshold.
func NewSimplifier() *Simplifier {
	return &Simplifier{
		Correlator: TextCorrelator{},
		Props:      DefaultCharProps,
		Threshold:  DefaultThreshold,
	}
}

// Simplify runs correlated-pair extraction, then stanza-break extraction,
// and sorts the result.
func (s *Simplifier) Simplify(clusters []*Cluster) ([]*Cluster, error) {
	clusters, err := s.ExtractCorrelatedPairs(clusters)
	if err != nil {
		return nil, err
	}
	clusters, err = s.ExtractStanzaBreaks(clusters)
	if err != nil {
		return nil, err
	}
	SortClusters(clusters)
	return clusters, nil
}

// ExtractCorrelatedPairs pulls matching verse lines off both ends of each
// complex cluster. A pair is extracted when both lines have the same range
// and their texts correlate at or above the threshold. Clusters whose two
// sides bridge verses differently, or that do not cross a paragraph break,
// are left alone.
func (s *Simplifier) ExtractCorrelatedPairs(clusters []*Cluster) ([]*Cluster, error) {
	out := slices.Clone(clusters)
	extracted := 0
	for _, c := range clusters {
		if !c.Type.IsComplex() || containsVerseBridgeDifference(c) || !spansParaBreak(c) {
			continue
		}
		extracted += extractEnds(c, &out, s.correlated, true)
	}

	out, err := s.cleanup(out)
	if err != nil {
		return nil, err
	}
	logging.SimplifyPass(s.Logger, "correlated_pairs", extracted, len(out))
	return out, nil
}

// ExtractStanzaBreaks separates stanza breaks from real content:
//   - complex clusters lose leading and trailing pairs of empty units;
//   - a matched pair where only one unit is empty becomes one added and one
//     missing cluster;
//   - one-sided clusters, including what is left of a complex cluster after
//     its pairs were taken, lose leading and trailing runs of empty units,
//     each becoming its own single-unit cluster.
func (s *Simplifier) ExtractStanzaBreaks(clusters []*Cluster) ([]*Cluster, error) {
	out := slices.Clone(clusters)
	extracted := 0
	for _, c := range clusters {
		switch {
		case c.Type.IsComplex():
			extracted += extractEnds(c, &out, bothEmpty, false)
		case c.Type == MatchedItems && c.Current[0].Empty != c.Revision[0].Empty:
			out = append(out, splitMatched(c)...)
			extracted++
		}
	}
	out, err := s.cleanup(out)
	if err != nil {
		return nil, err
	}

	for _, c := range slices.Clone(out) {
		if c.Type.IsOneSided() && len(c.Current)+len(c.Revision) > 1 {
			extracted += extractEmptyRuns(c, &out)
		}
	}
	if out, err = s.cleanup(out); err != nil {
		return nil, err
	}
	logging.SimplifyPass(s.Logger, "stanza_breaks", extracted, len(out))
	return out, nil
}

func (s *Simplifier) correlated(cp, rp *Proxy) bool {
	if cp.Range != rp.Range {
		return false
	}
	corr := s.Correlator
	if corr == nil {
		corr = TextCorrelator{}
	}
	return corr.Correlate(cp.Text, rp.Text, s.Props) >= s.Threshold
}

func bothEmpty(cp, rp *Proxy) bool {
	return cp.Empty && rp.Empty
}

// extractEnds extracts matching pairs from the front of c, then from the
// back without crossing what the front scan took. When checkVerseStart is
// set, a pair touching index 0 on either side is kept if only one of them
// starts with a verse number.
func extractEnds(c *Cluster, out *[]*Cluster, match func(cp, rp *Proxy) bool, checkVerseStart bool) int {
	cur, rev := c.Current, c.Revision
	n := min(len(cur), len(rev))

	fwd := 0
	for fwd < n && match(cur[fwd], rev[fwd]) {
		*out = append(*out, c.extractPair(fwd, fwd, true))
		fwd++
	}
	count := fwd
	if fwd == len(cur) && fwd == len(rev) {
		return count
	}

	for ci, ri := len(cur)-1, len(rev)-1; ci >= fwd && ri >= fwd; ci, ri = ci-1, ri-1 {
		cp, rp := cur[ci], rev[ri]
		if checkVerseStart && (ci == 0 || ri == 0) && cp.VerseStart != rp.VerseStart {
			break
		}
		if !match(cp, rp) {
			break
		}
		*out = append(*out, c.extractPair(ci, ri, false))
		count++
	}
	return count
}

// extractPair tombstones Current[ci] and Revision[ri] and returns them as a
// matched cluster. If this empties one side of c while the other still has
// items, c's insert index is set next to the extracted unit: after it for a
// front extraction, at it for a back extraction.
func (c *Cluster) extractPair(ci, ri int, forward bool) *Cluster {
	cp, rp := c.Current[ci], c.Revision[ri]
	c.kill(ir.Current, ci)
	c.kill(ir.Revision, ri)

	after := 0
	if forward {
		after = 1
	}
	liveCurr, liveRev := c.aliveCount(ir.Current), c.aliveCount(ir.Revision)
	switch {
	case liveCurr == 0 && liveRev > 0:
		c.InsertIndex = cp.pos + after
	case liveRev == 0 && liveCurr > 0:
		c.InsertIndex = rp.pos + after
	}

	pair := newCluster()
	pair.add(cp)
	pair.add(rp)
	pair.Type = MatchedItems
	return pair
}

// extractEmptyRuns moves leading and trailing empty units of a one-sided
// cluster into single-unit clusters with the same insert index.
func extractEmptyRuns(c *Cluster, out *[]*Cluster) int {
	side := ir.Current
	single := AddedToCurrent
	if len(c.Current) == 0 {
		side, single = ir.Revision, MissingInCurrent
	}
	items := c.Items(side)

	take := func(i int) {
		c.kill(side, i)
		n := newCluster()
		n.add(items[i])
		n.Type = single
		n.InsertIndex = c.InsertIndex
		*out = append(*out, n)
	}

	lead := 0
	for lead < len(items) && items[lead].Empty {
		take(lead)
		lead++
	}
	count := lead
	for i := len(items) - 1; i >= lead && items[i].Empty; i-- {
		take(i)
		count++
	}
	return count
}

// splitMatched turns a pair that disagrees on emptiness into an added and a
// missing cluster.
func splitMatched(c *Cluster) []*Cluster {
	cp, rp := c.Current[0], c.Revision[0]
	c.kill(ir.Current, 0)
	c.kill(ir.Revision, 0)

	added := newCluster()
	added.add(cp)
	added.Type = AddedToCurrent
	added.InsertIndex = rp.pos

	missing := newCluster()
	missing.add(rp)
	missing.Type = MissingInCurrent
	missing.InsertIndex = cp.pos + 1

	return []*Cluster{added, missing}
}

func (c *Cluster) kill(side ir.Side, i int) {
	if c.alive[ir.Current] == nil {
		for s, items := range [2][]*Proxy{c.Current, c.Revision} {
			c.alive[s] = newBitset(len(items))
			for j := range items {
				c.alive[s].set(j)
			}
		}
	}
	c.alive[side].clear(i)
}

func (c *Cluster) isAlive(side ir.Side, i int) bool {
	return c.alive[side] == nil || c.alive[side].has(i)
}

func (c *Cluster) aliveCount(side ir.Side) int {
	n := 0
	for i := range c.Items(side) {
		if c.isAlive(side, i) {
			n++
		}
	}
	return n
}

// cleanup drops tombstoned items, removes clusters left empty, and
// reclassifies what changed. A complex cluster reduced to real content on
// one side becomes an orphan cluster placed by placeOrphan.
func (s *Simplifier) cleanup(clusters []*Cluster) ([]*Cluster, error) {
	type changed struct {
		c   *Cluster
		was ClusterType
	}
	var pending []changed

	kept := make([]*Cluster, 0, len(clusters))
	for _, c := range clusters {
		if c.alive[ir.Current] == nil {
			kept = append(kept, c)
			continue
		}
		was := c.Type
		var live [2][]*Proxy
		for side := range live {
			for i, p := range c.Items(ir.Side(side)) {
				if c.isAlive(ir.Side(side), i) {
					live[side] = append(live[side], p)
				}
			}
		}
		c.alive = [2]bitset{}
		c.Current, c.Revision = live[ir.Current], live[ir.Revision]
		if len(c.Current) == 0 && len(c.Revision) == 0 {
			continue
		}

		c.Range = ir.RefRange{}
		for _, p := range append(slices.Clone(c.Current), c.Revision...) {
			c.Range = c.Range.Union(p.Range)
		}
		if err := c.classify(); err != nil {
			logging.InvariantViolation(s.Logger, "simplifier", err)
			return nil, err
		}
		kept = append(kept, c)
		pending = append(pending, changed{c, was})
	}

	for _, p := range pending {
		c := p.c
		if !c.Type.IsOneSided() {
			c.InsertIndex = -1
			continue
		}
		items, _ := c.SourceItems()
		switch {
		case p.was == OrphansInCurrent || p.was == OrphansInRevision:
			c.Type = p.was
		case p.was.IsComplex() && hasContent(items):
			c.Type = orphanType(c.Type)
			c.InsertIndex = placeOrphan(c, kept)
		case c.InsertIndex < 0:
			c.InsertIndex = placeOrphan(c, kept)
		}
	}
	return kept, nil
}

func hasContent(items []*Proxy) bool {
	for _, p := range items {
		if !p.Empty {
			return true
		}
	}
	return false
}

func orphanType(t ClusterType) ClusterType {
	if t == AddedToCurrent {
		return OrphansInCurrent
	}
	return OrphansInRevision
}

// placeOrphan returns the insert index of a one-sided cluster: one past the
// nearest unit on the other side whose cluster ends at or before the orphan's
// start, or 0 when there is none. The nearest match is used rather than the
// first one found, and positions are input-list positions, not owner indices.
func placeOrphan(c *Cluster, clusters []*Cluster) int {
	other := ir.Revision
	if len(c.Current) == 0 {
		other = ir.Current
	}
	best := -1
	var bestMin ir.Ordinal
	for _, o := range clusters {
		items := o.Items(other)
		if o == c || len(items) == 0 {
			continue
		}
		last := items[len(items)-1]
		if last.Range.Min > c.Range.Min {
			continue
		}
		if best < 0 || last.Range.Min > bestMin || (last.Range.Min == bestMin && last.pos+1 > best) {
			best = last.pos + 1
			bestMin = last.Range.Min
		}
	}
	return max(best, 0)
}

// containsVerseBridgeDifference reports whether the two sides of c cover
// their verses with different sets of ranges.
func containsVerseBridgeDifference(c *Cluster) bool {
	ranges := func(items []*Proxy) map[ir.RefRange]bool {
		m := make(map[ir.RefRange]bool, len(items))
		for _, p := range items {
			m[p.Range] = true
		}
		return m
	}
	curr, rev := ranges(c.Current), ranges(c.Revision)
	if len(curr) != len(rev) {
		return true
	}
	for rr := range curr {
		if !rev[rr] {
			return true
		}
	}
	return false
}

// spansParaBreak reports whether either side of c draws its lines from more
// than one paragraph.
func spansParaBreak(c *Cluster) bool {
	for _, items := range [][]*Proxy{c.Current, c.Revision} {
		for _, p := range items[min(1, len(items)):] {
			if p.Para != items[0].Para {
				return true
			}
		}
	}
	return false
}
