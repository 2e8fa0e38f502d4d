package vectorstore

import (
	"math"
	"sort"
)

// CosineSimilarity returns the cosine of the angle between a and b, or 0 when
// either vector has zero length.
func CosineSimilarity(a, b []float32) float64 {
	var dot, na, nb float64
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		ai := float64(a[i])
		bi := float64(b[i])
		dot += ai * bi
		na += ai * ai
		nb += bi * bi
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// MaxMarginalRelevance picks up to k candidate positions. The first pick is
// the candidate most similar to the query; each later pick maximizes
//
//	lambda*sim(query, c) - (1-lambda)*max(sim(c, selected))
//
// Ties go to the lower position, so the result is deterministic.
func MaxMarginalRelevance(query []float32, candidates [][]float32, lambda float64, k int) []int {
	limit := min(k, len(candidates))
	if limit <= 0 {
		return []int{}
	}

	toQuery := make([]float64, len(candidates))
	best := 0
	for i, c := range candidates {
		toQuery[i] = CosineSimilarity(query, c)
		if toQuery[i] > toQuery[best] {
			best = i
		}
	}

	selected := []int{best}
	picked := make([]bool, len(candidates))
	picked[best] = true

	// redundancy[i] is max similarity of candidate i to anything selected so far.
	redundancy := make([]float64, len(candidates))
	for i, c := range candidates {
		redundancy[i] = CosineSimilarity(c, candidates[best])
	}

	for len(selected) < limit {
		next := -1
		bestScore := math.Inf(-1)
		for i := range candidates {
			if picked[i] {
				continue
			}
			score := lambda*toQuery[i] - (1-lambda)*redundancy[i]
			if score > bestScore {
				bestScore = score
				next = i
			}
		}

		selected = append(selected, next)
		picked[next] = true
		for i, c := range candidates {
			if !picked[i] {
				redundancy[i] = math.Max(redundancy[i], CosineSimilarity(c, candidates[next]))
			}
		}
	}

	return selected
}

// topBySimilarity returns the positions of the n vectors most similar to
// query, best first, with ties broken by position.
func topBySimilarity(query []float32, vectors [][]float32, n int) []int {
	idx := make([]int, len(vectors))
	scores := make([]float64, len(vectors))
	for i, v := range vectors {
		idx[i] = i
		scores[i] = CosineSimilarity(query, v)
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return scores[idx[a]] > scores[idx[b]]
	})
	if n < len(idx) {
		idx = idx[:n]
	}
	return idx
}
