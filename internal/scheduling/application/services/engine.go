package services

import (
	"runtime"
	"sync"
	"time"

	"github.com/intervsched/scheduler/internal/scheduling/domain"
)

// Engine runs the full solver core pipeline end to end: normalize, enumerate
// stage orderings, search each ordering's model concurrently, rank the
// pooled results into a response, then enrich each kept schedule with
// shadow/reverse_shadow observers (spec.md §4, §5).
type Engine struct{}

// NewEngine constructs a solver core Engine. It holds no state; one Engine
// can be shared across concurrent Solve calls.
func NewEngine() *Engine {
	return &Engine{}
}

// Solve runs one request through the full pipeline.
func (e *Engine) Solve(req domain.Request) (domain.Response, error) {
	problem, err := Normalize(req)
	if err != nil {
		return domain.Response{}, err
	}

	permutations := EnumeratePermutations(problem.Stages)
	quota := 1
	if n := len(permutations); n > 0 {
		quota = problem.Config.TopKSolutions / n
		if quota < 1 {
			quota = 1
		}
	}
	budget := time.Duration(2*problem.Config.MaxTimeSeconds) * time.Second

	results := make([]permutationResult, len(permutations))

	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	if workers > len(permutations) {
		workers = len(permutations)
	}

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				ordered := permutations[idx]
				model := BuildModel(problem, ordered)
				results[idx] = permutationResult{stages: ordered, result: Solve(model, quota, budget)}
			}
		}()
	}
	for i := range permutations {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	resp := Rank(results, problem.Config.TopKSolutions, problem.Epoch)
	for key, sched := range resp.Schedules {
		enriched := Enrich(problem, sched.Events)
		sched.Events = enriched
		resp.Schedules[key] = sched
	}
	return resp, nil
}
