package merge

import (
	"slices"

	"github.com/FocuswithJustin/JuniperMerge/core/errors"
	"github.com/FocuswithJustin/JuniperMerge/core/ir"
)

// DefaultHeadProximity is how many verses apart two section heads may start
// and still be paired.
const DefaultHeadProximity = 2

// CorrelateSectionHeads pairs the section heads of one cluster by how close
// their start references are. It works on copies of the cluster's proxies
// and returns matched, added and missing clusters in position order.
//
// Besides the proximity pairs, the first heads of both sides are paired when
// either of them has no candidate, and the last heads are always paired.
func CorrelateSectionHeads(c *Cluster, proximity int) ([]*Cluster, error) {
	if proximity < 0 {
		return nil, errors.NewValidation("proximity", "must not be negative")
	}
	curr := cloneProxies(c.Current)
	rev := cloneProxies(c.Revision)
	if len(curr) == 0 && len(rev) == 0 {
		return nil, errors.NewInvariant("section heads", "cluster has no items")
	}

	// cand[side][i] lists candidate indices on the other side, in order.
	cand := [2][][]int{make([][]int, len(curr)), make([][]int, len(rev))}
	link := func(i, j int) {
		if !slices.Contains(cand[ir.Current][i], j) {
			cand[ir.Current][i] = append(cand[ir.Current][i], j)
			cand[ir.Revision][j] = append(cand[ir.Revision][j], i)
		}
	}
	for i, cp := range curr {
		for j, rp := range rev {
			if abs(int(cp.Range.Min)-int(rp.Range.Min)) <= proximity {
				link(i, j)
			}
		}
	}
	if len(curr) > 0 && len(rev) > 0 {
		if len(cand[ir.Current][0]) == 0 || len(cand[ir.Revision][0]) == 0 {
			link(0, 0)
		}
		link(len(curr)-1, len(rev)-1)
	}
	for side := range cand {
		for _, l := range cand[side] {
			slices.Sort(l)
		}
	}

	lists := [2][]*Proxy{curr, rev}
	used := [2]bitset{newBitset(len(curr)), newBitset(len(rev))}
	heads := [2]int{}
	var out []*Cluster
	for {
		for side := range heads {
			for heads[side] < len(lists[side]) && used[side].has(heads[side]) {
				heads[side]++
			}
		}
		hasCurr := heads[ir.Current] < len(curr)
		hasRev := heads[ir.Revision] < len(rev)
		if !hasCurr && !hasRev {
			break
		}

		side := ir.Current
		switch {
		case !hasCurr:
			side = ir.Revision
		case hasRev && rev[heads[ir.Revision]].Range.Min < curr[heads[ir.Current]].Range.Min:
			side = ir.Revision
		}
		i := heads[side]
		used[side].set(i)

		nc := newCluster()
		nc.add(lists[side][i])
		other := side.Other()
		for _, j := range cand[side][i] {
			if !used[other].has(j) {
				used[other].set(j)
				nc.add(lists[other][j])
				break
			}
		}
		if err := nc.classify(); err != nil {
			return nil, err
		}
		out = append(out, nc)
	}

	assignInsertIndices(out, curr, rev)
	SortClusters(out)
	return out, nil
}

func cloneProxies(items []*Proxy) []*Proxy {
	out := make([]*Proxy, len(items))
	for i, p := range items {
		cp := *p
		out[i] = &cp
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
