package services

import "github.com/intervsched/scheduler/internal/scheduling/domain"

// EnumeratePermutations returns all stage orderings consistent with
// is_fixed: a stage marked fixed stays at its original index while the
// remaining stages permute over the remaining indices. Emission order is
// deterministic (lexicographic on the permutation of non-fixed indices).
func EnumeratePermutations(stages []domain.Stage) [][]domain.Stage {
	n := len(stages)
	fixedAt := make(map[int]domain.Stage, n)
	freeIdx := make([]int, 0, n)
	for i, st := range stages {
		if st.IsFixed {
			fixedAt[i] = st
		} else {
			freeIdx = append(freeIdx, i)
		}
	}

	free := make([]domain.Stage, 0, len(freeIdx))
	for _, i := range freeIdx {
		free = append(free, stages[i])
	}

	var perms [][]domain.Stage
	permuteIndices(len(free), func(order []int) {
		result := make([]domain.Stage, n)
		for i, st := range fixedAt {
			result[i] = st
		}
		for slot, pos := range order {
			result[freeIdx[slot]] = free[pos]
		}
		perms = append(perms, result)
	})
	return perms
}

// permuteIndices calls emit once per permutation of [0, n) in lexicographic
// order, including the single empty/identity permutation when n == 0.
func permuteIndices(n int, emit func(order []int)) {
	order := make([]int, n)
	used := make([]bool, n)
	for i := range order {
		order[i] = -1
	}
	var rec func(depth int)
	rec = func(depth int) {
		if depth == n {
			out := make([]int, n)
			copy(out, order)
			emit(out)
			return
		}
		for v := 0; v < n; v++ {
			if used[v] {
				continue
			}
			used[v] = true
			order[depth] = v
			rec(depth + 1)
			used[v] = false
		}
	}
	rec(0)
}
