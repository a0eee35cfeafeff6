// Package hnsw implements the approximate nearest-neighbor index C5 uses
// once a tenant's vector count crosses min_vectors_for_ann: a hierarchical
// navigable small-world graph over cosine distance, with a linear-scan
// fallback below that threshold.
package hnsw

import (
	"container/heap"
	"math"
	"math/rand"
	"sync"

	cferrors "contentfp/errors"
)

const stage = "hnsw"

// Config governs graph construction and search.
type Config struct {
	M                 int
	EfConstruction    int
	EfSearch          int
	MinVectorsForANN  int
	Seed              int64
}

// DefaultConfig returns the parameters named in the spec: M=16 (doubled at
// layer 0), ef_construction=200, ef_search=50.
func DefaultConfig() Config {
	return Config{M: 16, EfConstruction: 200, EfSearch: 50, MinVectorsForANN: 1000, Seed: 1}
}

type node struct {
	id     string
	vector []float32
	links  [][]int // links[layer] = neighbor arena indices
}

// Index is an HNSW graph plus a flat store used below MinVectorsForANN.
type Index struct {
	mu      sync.RWMutex
	cfg     Config
	nodes   []*node
	idByKey map[string]int
	entry   int
	maxLayer int
	rng     *rand.Rand
	levelMult float64
}

// New constructs an empty Index.
func New(cfg Config) *Index {
	if cfg.M <= 0 {
		cfg.M = 16
	}
	if cfg.EfConstruction <= 0 {
		cfg.EfConstruction = 200
	}
	if cfg.EfSearch <= 0 {
		cfg.EfSearch = 50
	}
	return &Index{
		cfg:       cfg,
		idByKey:   make(map[string]int),
		entry:     -1,
		maxLayer:  -1,
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		levelMult: 1.0 / math.Log(float64(cfg.M)),
	}
}

// Len returns the number of vectors currently indexed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.nodes)
}

func (idx *Index) randomLevel() int {
	level := int(math.Floor(-math.Log(idx.rng.Float64()) * idx.levelMult))
	return level
}

func cosineDistance(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}

// Insert adds or replaces the vector for id.
func (idx *Index) Insert(id string, vector []float32) error {
	if len(vector) == 0 {
		return cferrors.New(stage, cferrors.InvalidConfig, "cannot insert an empty vector")
	}
	idx.mu.Lock()
	defer idx.mu.Unlock()

	if existing, ok := idx.idByKey[id]; ok {
		idx.nodes[existing].vector = vector
		return nil
	}

	level := idx.randomLevel()
	n := &node{id: id, vector: vector, links: make([][]int, level+1)}
	newIdx := len(idx.nodes)
	idx.nodes = append(idx.nodes, n)
	idx.idByKey[id] = newIdx

	if idx.entry == -1 {
		idx.entry = newIdx
		idx.maxLayer = level
		return nil
	}

	cur := idx.entry
	for l := idx.maxLayer; l > level; l-- {
		cur = idx.greedyClosest(cur, vector, l)
	}

	for l := min(level, idx.maxLayer); l >= 0; l-- {
		candidates := idx.searchLayer(vector, cur, idx.cfg.EfConstruction, l)
		m := idx.cfg.M
		if l == 0 {
			m *= 2
		}
		neighbors := idx.selectNeighbors(vector, candidates, m)
		n.links[l] = neighbors
		for _, nb := range neighbors {
			idx.addLink(nb, newIdx, l, m)
		}
		if len(candidates) > 0 {
			cur = candidates[0].id
		}
	}

	if level > idx.maxLayer {
		idx.maxLayer = level
		idx.entry = newIdx
	}
	return nil
}

func (idx *Index) addLink(from, to, layer, maxM int) {
	n := idx.nodes[from]
	for len(n.links) <= layer {
		n.links = append(n.links, nil)
	}
	n.links[layer] = append(n.links[layer], to)
	if len(n.links[layer]) > maxM {
		vec := n.vector
		candidates := make([]candidate, 0, len(n.links[layer]))
		for _, nb := range n.links[layer] {
			candidates = append(candidates, candidate{id: nb, dist: cosineDistance(vec, idx.nodes[nb].vector)})
		}
		n.links[layer] = idx.selectNeighbors(vec, candidates, maxM)
	}
}

type candidate struct {
	id   int
	dist float64
}

func (idx *Index) greedyClosest(start int, query []float32, layer int) int {
	cur := start
	curDist := cosineDistance(query, idx.nodes[cur].vector)
	for {
		improved := false
		if layer < len(idx.nodes[cur].links) {
			for _, nb := range idx.nodes[cur].links[layer] {
				d := cosineDistance(query, idx.nodes[nb].vector)
				if d < curDist {
					curDist = d
					cur = nb
					improved = true
				}
			}
		}
		if !improved {
			return cur
		}
	}
}

// searchLayer returns up to ef candidates at layer, sorted by ascending distance.
func (idx *Index) searchLayer(query []float32, entry int, ef int, layer int) []candidate {
	visited := map[int]bool{entry: true}
	entryDist := cosineDistance(query, idx.nodes[entry].vector)

	candidatesHeap := &minHeap{{id: entry, dist: entryDist}}
	resultHeap := &maxHeap{{id: entry, dist: entryDist}}

	for candidatesHeap.Len() > 0 {
		c := heap.Pop(candidatesHeap).(candidate)
		if c.dist > (*resultHeap)[0].dist && resultHeap.Len() >= ef {
			break
		}
		if layer >= len(idx.nodes[c.id].links) {
			continue
		}
		for _, nb := range idx.nodes[c.id].links[layer] {
			if visited[nb] {
				continue
			}
			visited[nb] = true
			d := cosineDistance(query, idx.nodes[nb].vector)
			if resultHeap.Len() < ef || d < (*resultHeap)[0].dist {
				heap.Push(candidatesHeap, candidate{id: nb, dist: d})
				heap.Push(resultHeap, candidate{id: nb, dist: d})
				if resultHeap.Len() > ef {
					heap.Pop(resultHeap)
				}
			}
		}
	}

	out := make([]candidate, resultHeap.Len())
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(resultHeap).(candidate)
	}
	return out
}

// selectNeighbors applies a diversity heuristic: among candidates, keep a
// neighbor only if it is closer to query than to every neighbor already
// selected (Malkov & Yashunin's heuristic selection), capped at m.
func (idx *Index) selectNeighbors(query []float32, candidates []candidate, m int) []int {
	sorted := append([]candidate(nil), candidates...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j].dist < sorted[j-1].dist; j-- {
			sorted[j], sorted[j-1] = sorted[j-1], sorted[j]
		}
	}

	var selected []candidate
	for _, c := range sorted {
		if len(selected) >= m {
			break
		}
		diverse := true
		for _, s := range selected {
			if cosineDistance(idx.nodes[c.id].vector, idx.nodes[s.id].vector) < c.dist {
				diverse = false
				break
			}
		}
		if diverse {
			selected = append(selected, c)
		}
	}
	// Backfill with closest remaining candidates if the heuristic pruned
	// too aggressively and left room under m.
	if len(selected) < m {
		seen := make(map[int]bool, len(selected))
		for _, s := range selected {
			seen[s.id] = true
		}
		for _, c := range sorted {
			if len(selected) >= m {
				break
			}
			if !seen[c.id] {
				selected = append(selected, c)
				seen[c.id] = true
			}
		}
	}

	ids := make([]int, len(selected))
	for i, s := range selected {
		ids[i] = s.id
	}
	return ids
}

// Result is one search hit.
type Result struct {
	ID       string
	Distance float64
}

// Search returns up to k nearest neighbors of query. Below MinVectorsForANN
// it falls back to a linear scan (the graph isn't worth traversing yet);
// above it, it performs a standard HNSW greedy-descent-then-searchLayer walk.
func (idx *Index) Search(query []float32, k int) []Result {
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	if len(idx.nodes) == 0 || k <= 0 {
		return nil
	}

	if len(idx.nodes) < idx.cfg.MinVectorsForANN || idx.entry == -1 {
		return idx.linearScan(query, k)
	}

	cur := idx.entry
	for l := idx.maxLayer; l > 0; l-- {
		cur = idx.greedyClosest(cur, query, l)
	}
	candidates := idx.searchLayer(query, cur, max(idx.cfg.EfSearch, k), 0)
	if len(candidates) > k {
		candidates = candidates[:k]
	}
	out := make([]Result, len(candidates))
	for i, c := range candidates {
		out[i] = Result{ID: idx.nodes[c.id].id, Distance: c.dist}
	}
	return out
}

func (idx *Index) linearScan(query []float32, k int) []Result {
	candidates := make([]candidate, len(idx.nodes))
	for i, n := range idx.nodes {
		candidates[i] = candidate{id: i, dist: cosineDistance(query, n.vector)}
	}
	for i := 1; i < len(candidates); i++ {
		for j := i; j > 0 && candidates[j].dist < candidates[j-1].dist; j-- {
			candidates[j], candidates[j-1] = candidates[j-1], candidates[j]
		}
	}
	if k > len(candidates) {
		k = len(candidates)
	}
	out := make([]Result, k)
	for i := 0; i < k; i++ {
		out[i] = Result{ID: idx.nodes[candidates[i].id].id, Distance: candidates[i].dist}
	}
	return out
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
