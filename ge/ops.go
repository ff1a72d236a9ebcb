package ge

// offspring produces one new individual from pop, which must be sorted.  The
// operator is chosen at random in proportion to its configured weight.
func (e *Engine) offspring(pop []Individual) Individual {
	total := e.cfg.Crossover + e.cfg.Mutation + e.cfg.Reproduction
	x := e.rng.Float64() * total
	switch {
	case x < e.cfg.Crossover:
		a, b := e.tournament(pop), e.tournament(pop)
		return Individual{Genome: e.crossover(a.Genome, b.Genome)}
	case x < e.cfg.Crossover+e.cfg.Mutation:
		return Individual{Genome: e.mutate(e.tournament(pop).Genome)}
	}
	return Individual{Genome: append([]byte{}, e.tournament(pop).Genome...)}
}

// tournament returns the fittest of Tournament individuals drawn with
// replacement.
func (e *Engine) tournament(pop []Individual) Individual {
	best := pop[e.rng.Intn(len(pop))]
	for i := 1; i < e.cfg.Tournament; i++ {
		if c := pop[e.rng.Intn(len(pop))]; c.Fitness < best.Fitness {
			best = c
		}
	}
	return best
}

// crossover joins a head of a with a tail of b, each cut at an independent
// random point.  The child keeps at least one codon of a and is truncated to
// MaxGenomeLen.
func (e *Engine) crossover(a, b []byte) []byte {
	i := 1 + e.rng.Intn(len(a))
	j := e.rng.Intn(len(b) + 1)
	child := make([]byte, 0, i+len(b)-j)
	child = append(child, a[:i]...)
	child = append(child, b[j:]...)
	if len(child) > e.cfg.MaxGenomeLen {
		child = child[:e.cfg.MaxGenomeLen]
	}
	return child
}

// mutate returns a copy of g with each codon replaced by a random one with
// probability 1/len(g).  At least one codon always changes.
func (e *Engine) mutate(g []byte) []byte {
	child := append([]byte{}, g...)
	rate := 1 / float64(len(child))
	changed := false
	for i := range child {
		if e.rng.Float64() < rate {
			changed = e.replace(child, i) || changed
		}
	}
	for !changed {
		changed = e.replace(child, e.rng.Intn(len(child)))
	}
	return child
}

func (e *Engine) replace(g []byte, i int) bool {
	c := byte(e.rng.Intn(256))
	if c == g[i] {
		return false
	}
	g[i] = c
	return true
}

func (e *Engine) randomGenome() []byte {
	g := make([]byte, e.cfg.GenomeLen)
	for i := range g {
		g[i] = byte(e.rng.Intn(256))
	}
	return g
}
