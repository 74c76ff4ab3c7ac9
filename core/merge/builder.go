package merge

import (
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

// BuildOverlapClusters groups curr and rev into the connected components of
// the overlap relation. Each proxy lands in exactly one cluster; within a
// cluster each side keeps its input order. The returned clusters are
// classified, have insert indices on one-sided clusters, and are sorted.
//
// Every pair of proxies is compared, so the lists should be section or
// paragraph sized.
func BuildOverlapClusters(curr, rev []*Proxy) ([]*Cluster, error) {
	a, err := newArena(curr, rev)
	if err != nil {
		return nil, err
	}
	a.relate()

	// Members are recorded per list position so each side keeps input order.
	visited := [2]bitset{newBitset(len(curr)), newBitset(len(rev))}
	owner := [2][]*Cluster{make([]*Cluster, len(curr)), make([]*Cluster, len(rev))}
	heads := [2]int{}
	var clusters []*Cluster
	for {
		for side := range heads {
			for heads[side] < len(a.items[side]) && visited[side].has(heads[side]) {
				heads[side]++
			}
		}
		start, ok := a.pickHead(heads, false)
		if !ok {
			break
		}
		c := newCluster()
		a.component(start, heads[start], visited, func(side ir.Side, i int) {
			owner[side][i] = c
		})
		clusters = append(clusters, c)
	}
	for side := range owner {
		for i, c := range owner[side] {
			c.add(a.items[side][i])
		}
	}

	if err := finish(clusters, curr, rev); err != nil {
		return nil, err
	}
	return clusters, nil
}

// component walks the connected component containing (side, i) breadth
// first, calling visit once per member.
func (a *arena) component(side ir.Side, i int, visited [2]bitset, visit func(ir.Side, int)) {
	type node struct {
		side ir.Side
		i    int
	}
	queue := []node{{side, i}}
	visited[side].set(i)
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		visit(n.side, n.i)
		other := n.side.Other()
		for _, j := range a.related[n.side][n.i] {
			if !visited[other].has(j) {
				visited[other].set(j)
				queue = append(queue, node{other, j})
			}
		}
	}
}

// pickHead chooses which side's head proxy comes next: the one with the
// smaller range start. On a tie Current wins, unless preferEmpty is set and
// exactly one head is an empty marker.
func (a *arena) pickHead(heads [2]int, preferEmpty bool) (ir.Side, bool) {
	hasCurr := heads[ir.Current] < len(a.items[ir.Current])
	hasRev := heads[ir.Revision] < len(a.items[ir.Revision])
	switch {
	case !hasCurr && !hasRev:
		return ir.Current, false
	case !hasRev:
		return ir.Current, true
	case !hasCurr:
		return ir.Revision, true
	}
	c := a.items[ir.Current][heads[ir.Current]]
	r := a.items[ir.Revision][heads[ir.Revision]]
	switch {
	case c.Range.Min < r.Range.Min:
		return ir.Current, true
	case r.Range.Min < c.Range.Min:
		return ir.Revision, true
	case preferEmpty && r.Empty && !c.Empty:
		return ir.Revision, true
	}
	return ir.Current, true
}

// BuildAdjacentClusters groups curr and rev into runs of overlapping units.
// A unit joins the cluster under construction only when it overlaps the
// cluster's range and, if its side already has members, it belongs to the
// same owning sequence as the last of them. Output is classified, has insert
// indices on one-sided clusters, and is sorted.
func BuildAdjacentClusters(curr, rev []*Proxy) ([]*Cluster, error) {
	a, err := newArena(curr, rev)
	if err != nil {
		return nil, err
	}

	var clusters []*Cluster
	var c *Cluster
	heads := [2]int{}
	for {
		first, ok := a.pickHead(heads, true)
		if !ok {
			break
		}
		side := first
		if c != nil && !c.canJoin(a.items[side][heads[side]]) {
			side = first.Other()
			if heads[side] >= len(a.items[side]) || !c.canJoin(a.items[side][heads[side]]) {
				clusters = append(clusters, c)
				c = nil
				side = first
			}
		}
		if c == nil {
			c = newCluster()
		}
		c.add(a.items[side][heads[side]])
		heads[side]++
	}
	if c != nil {
		clusters = append(clusters, c)
	}

	if err := finish(clusters, curr, rev); err != nil {
		return nil, err
	}
	return clusters, nil
}

func (c *Cluster) canJoin(p *Proxy) bool {
	if !p.Range.Overlaps(c.Range) {
		return false
	}
	items := c.Items(p.Side)
	return len(items) == 0 || items[len(items)-1].Owner == p.Owner
}

// finish classifies clusters, assigns insert indices and sorts.
func finish(clusters []*Cluster, curr, rev []*Proxy) error {
	for _, c := range clusters {
		if err := c.classify(); err != nil {
			return err
		}
	}
	assignInsertIndices(clusters, curr, rev)
	SortClusters(clusters)
	return nil
}

// assignInsertIndices walks clusters in order, tracking which proxies of
// each list have been consumed. A cluster with no units on one side gets the
// position of that side's next unconsumed proxy, or one past the last
// position when none remain.
func assignInsertIndices(clusters []*Cluster, curr, rev []*Proxy) {
	lists := [2][]*Proxy{curr, rev}
	consumed := [2]bitset{newBitset(len(curr)), newBitset(len(rev))}
	next := [2]int{}

	for _, c := range clusters {
		if c.Type.IsOneSided() {
			empty := ir.Current
			if len(c.Current) > 0 {
				empty = ir.Revision
			}
			list := lists[empty]
			for next[empty] < len(list) && consumed[empty].has(next[empty]) {
				next[empty]++
			}
			switch {
			case next[empty] < len(list):
				c.InsertIndex = list[next[empty]].pos
			case len(list) > 0:
				c.InsertIndex = list[len(list)-1].pos + 1
			default:
				c.InsertIndex = 0
			}
		}
		for side := range lists {
			for _, p := range c.Items(ir.Side(side)) {
				if i := indexOf(lists[side], p); i >= 0 {
					consumed[side].set(i)
				}
			}
		}
	}
}

// indexOf finds p in list, trying its recorded position first.
func indexOf(list []*Proxy, p *Proxy) int {
	if p.pos < len(list) && list[p.pos] == p {
		return p.pos
	}
	for i, q := range list {
		if q == p {
			return i
		}
	}
	return -1
}
