package ge

import (
	"github.com/petar/GoLLRB/llrb"
)

type famer struct {
	Individual
	key string
}

func (f1 famer) Less(than llrb.Item) bool {
	f2 := than.(famer)
	if f1.Fitness != f2.Fitness {
		return f1.Fitness < f2.Fitness
	}
	return f1.key < f2.key
}

// HallOfFame keeps the best distinct genomes seen during a search, ordered
// by fitness.
type HallOfFame struct {
	size int
	tree *llrb.LLRB
	seen map[string]bool
}

func NewHallOfFame(size int) *HallOfFame {
	if size < 1 {
		size = 1
	}
	return &HallOfFame{size: size, tree: llrb.New(), seen: map[string]bool{}}
}

// Add records ind and reports whether it is a member afterwards.  Genomes
// already present are ignored.
func (h *HallOfFame) Add(ind Individual) bool {
	key := string(ind.Genome)
	if h.seen[key] {
		return false
	}

	ind.Genome = append([]byte{}, ind.Genome...)
	h.tree.InsertNoReplace(famer{ind, key})
	h.seen[key] = true
	for h.tree.Len() > h.size {
		worst := h.tree.DeleteMax().(famer)
		delete(h.seen, worst.key)
		if worst.key == key {
			return false
		}
	}
	return true
}

func (h *HallOfFame) Len() int { return h.tree.Len() }

func (h *HallOfFame) Best() (Individual, bool) {
	if h.tree.Len() == 0 {
		return Individual{}, false
	}
	return h.tree.Min().(famer).Individual, true
}

// Members returns the hall of fame from best to worst.
func (h *HallOfFame) Members() []Individual {
	members := make([]Individual, 0, h.tree.Len())
	if h.tree.Len() == 0 {
		return members
	}
	h.tree.AscendGreaterOrEqual(h.tree.Min(), func(i llrb.Item) bool {
		members = append(members, i.(famer).Individual)
		return true
	})
	return members
}
