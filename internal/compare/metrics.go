package compare

import (
	"encoding/json"
	"math"
	"sort"
	"strings"

	"github.com/nidhogg/echoes/internal/agent"
)

// Result is the outcome of a single comparison query for one model. Failed
// queries carry an "Error: ..." answer and zeroed metrics so aggregation
// counts them against the model.
type Result struct {
	Query          string        `json:"query"`
	Answer         string        `json:"answer"`
	Metrics        agent.Metrics `json:"metrics"`
	TestCase       TestCase      `json:"test_case"`
	ReasoningTrace []agent.Step  `json:"reasoning_trace,omitempty"`
}

// TimeStats summarizes execution times in seconds, rounded to 2 decimals.
type TimeStats struct {
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	Stdev  float64 `json:"stdev"`
}

// TokenStats summarizes total token estimates per query.
type TokenStats struct {
	Total  int `json:"total"`
	Mean   int `json:"mean"`
	Median int `json:"median"`
	Min    int `json:"min"`
	Max    int `json:"max"`
}

// CostStats summarizes estimated USD costs, rounded to 6 decimals.
type CostStats struct {
	Total  float64 `json:"total"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
}

// StepStats summarizes reasoning step counts per query.
type StepStats struct {
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	Min    int     `json:"min"`
	Max    int     `json:"max"`
}

// Aggregates bundles the per-model statistics over a result set.
type Aggregates struct {
	ExecutionTime TimeStats  `json:"execution_time"`
	Tokens        TokenStats `json:"tokens"`
	Cost          CostStats  `json:"cost"`
	Steps         StepStats  `json:"steps"`
}

// ModelSummary is one model's entry in a comparison.
type ModelSummary struct {
	NumQueries  int         `json:"num_queries"`
	Metrics     *Aggregates `json:"metrics,omitempty"`
	SuccessRate float64     `json:"success_rate"`
}

// Best names the winning model per dimension.
type Best struct {
	Fastest        string `json:"fastest_model"`
	Cheapest       string `json:"cheapest_model"`
	MostSuccessful string `json:"most_successful"`
}

// Comparison holds per-model summaries plus the cross-model winners.
type Comparison struct {
	Models map[string]*ModelSummary
	Best   *Best
}

// MarshalJSON flattens the comparison into one object keyed by model name
// with the winners under "best".
func (c *Comparison) MarshalJSON() ([]byte, error) {
	out := make(map[string]interface{}, len(c.Models)+1)
	for name, summary := range c.Models {
		out[name] = summary
	}
	if c.Best != nil {
		out["best"] = c.Best
	}
	return json.Marshal(out)
}

// AggregateResults computes the statistics bundle for one model's results.
// Returns nil when there are no results to aggregate.
func AggregateResults(results []Result) *Aggregates {
	if len(results) == 0 {
		return nil
	}

	times := make([]float64, 0, len(results))
	tokens := make([]int, 0, len(results))
	costs := make([]float64, 0, len(results))
	steps := make([]int, 0, len(results))
	for _, r := range results {
		times = append(times, r.Metrics.ExecutionTimeSeconds)
		tokens = append(tokens, r.Metrics.EstimatedTokens.Total)
		costs = append(costs, r.Metrics.EstimatedCostUSD)
		steps = append(steps, r.Metrics.NumSteps)
	}

	tokensF := toFloats(tokens)
	stepsF := toFloats(steps)
	minTime, maxTime := minMax(times)
	minTokens, maxTokens := minMaxInt(tokens)
	minCost, maxCost := minMax(costs)
	minSteps, maxSteps := minMaxInt(steps)

	return &Aggregates{
		ExecutionTime: TimeStats{
			Total:  round2(sum(times)),
			Mean:   round2(mean(times)),
			Median: round2(median(times)),
			Min:    round2(minTime),
			Max:    round2(maxTime),
			Stdev:  round2(sampleStdev(times)),
		},
		Tokens: TokenStats{
			Total:  sumInt(tokens),
			Mean:   int(mean(tokensF)),
			Median: int(median(tokensF)),
			Min:    minTokens,
			Max:    maxTokens,
		},
		Cost: CostStats{
			Total:  round6(sum(costs)),
			Mean:   round6(mean(costs)),
			Median: round6(median(costs)),
			Min:    round6(minCost),
			Max:    round6(maxCost),
		},
		Steps: StepStats{
			Mean:   round1(mean(stepsF)),
			Median: median(stepsF),
			Min:    minSteps,
			Max:    maxSteps,
		},
	}
}

// SuccessRate is the percentage of results whose answer is non-empty and
// free of error text, rounded to 1 decimal.
func SuccessRate(results []Result) float64 {
	if len(results) == 0 {
		return 0
	}
	succeeded := 0
	for _, r := range results {
		if isSuccess(r.Answer) {
			succeeded++
		}
	}
	return round1(float64(succeeded) / float64(len(results)) * 100)
}

func isSuccess(answer string) bool {
	if answer == "" {
		return false
	}
	return !strings.Contains(strings.ToLower(answer), "error")
}

// CompareModels builds the cross-model comparison. The models slice fixes
// the tie-break order for the winners; models with no results are summarized
// with nil metrics and skipped when picking winners.
func CompareModels(models []string, results map[string][]Result) *Comparison {
	cmp := &Comparison{Models: make(map[string]*ModelSummary, len(models))}
	for _, model := range models {
		rs := results[model]
		cmp.Models[model] = &ModelSummary{
			NumQueries:  len(rs),
			Metrics:     AggregateResults(rs),
			SuccessRate: SuccessRate(rs),
		}
	}

	best := &Best{}
	var bestTime, bestCost, bestRate float64
	for _, model := range models {
		s := cmp.Models[model]
		if s.Metrics == nil {
			continue
		}
		if best.Fastest == "" || s.Metrics.ExecutionTime.Mean < bestTime {
			best.Fastest, bestTime = model, s.Metrics.ExecutionTime.Mean
		}
		if best.Cheapest == "" || s.Metrics.Cost.Total < bestCost {
			best.Cheapest, bestCost = model, s.Metrics.Cost.Total
		}
		if best.MostSuccessful == "" || s.SuccessRate > bestRate {
			best.MostSuccessful, bestRate = model, s.SuccessRate
		}
	}
	if best.Fastest != "" {
		cmp.Best = best
	}
	return cmp
}

func toFloats(vals []int) []float64 {
	out := make([]float64, len(vals))
	for i, v := range vals {
		out[i] = float64(v)
	}
	return out
}

func sum(vals []float64) float64 {
	var total float64
	for _, v := range vals {
		total += v
	}
	return total
}

func sumInt(vals []int) int {
	var total int
	for _, v := range vals {
		total += v
	}
	return total
}

func mean(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	return sum(vals) / float64(len(vals))
}

func median(vals []float64) float64 {
	if len(vals) == 0 {
		return 0
	}
	sorted := make([]float64, len(vals))
	copy(sorted, vals)
	sort.Float64s(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid]
	}
	return (sorted[mid-1] + sorted[mid]) / 2
}

// sampleStdev is the n-1 standard deviation, 0 when fewer than two samples.
func sampleStdev(vals []float64) float64 {
	if len(vals) < 2 {
		return 0
	}
	m := mean(vals)
	var ss float64
	for _, v := range vals {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(vals)-1))
}

func minMax(vals []float64) (float64, float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func minMaxInt(vals []int) (int, int) {
	if len(vals) == 0 {
		return 0, 0
	}
	lo, hi := vals[0], vals[0]
	for _, v := range vals[1:] {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round6(v float64) float64 { return math.Round(v*1e6) / 1e6 }
