package metrics

import "math"

// z95 is the two-sided normal quantile for a 95% interval.
const z95 = 1.96

// Stats summarizes one scalar field across several runs.
type Stats struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	// StdDev is the population standard deviation.
	StdDev float64 `json:"std_dev"`
	// Low95 and High95 bound the mean using the sample standard deviation.
	// They equal Mean when Count < 2.
	Low95  float64 `json:"ci95_low"`
	High95 float64 `json:"ci95_high"`
}

// accumulator is Welford's running mean and sum of squared deviations.
type accumulator struct {
	n        int
	mean, m2 float64
	min, max float64
}

func (a *accumulator) add(v float64) {
	a.n++
	if a.n == 1 {
		a.min, a.max = v, v
	} else {
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
	}
	d := v - a.mean
	a.mean += d / float64(a.n)
	a.m2 += d * (v - a.mean)
}

func (a *accumulator) stats() Stats {
	s := Stats{Count: a.n, Mean: a.mean, Min: a.min, Max: a.max, Low95: a.mean, High95: a.mean}
	if a.n == 0 {
		return s
	}
	s.StdDev = math.Sqrt(a.m2 / float64(a.n))
	if a.n > 1 {
		margin := z95 * math.Sqrt(a.m2/float64(a.n-1)) / math.Sqrt(float64(a.n))
		s.Low95, s.High95 = a.mean-margin, a.mean+margin
	}
	return s
}

// summarize returns Stats for values. An empty slice yields the zero Stats.
func summarize(values []float64) Stats {
	var a accumulator
	for _, v := range values {
		a.add(v)
	}
	return a.stats()
}

// Aggregate computes Stats for every scalar field present in at least one
// of evals. Runs that lack a field do not count towards it.
func Aggregate(evals []*Evaluation) map[Field]Stats {
	acc := make(map[Field]*accumulator)
	for _, ev := range evals {
		if ev == nil {
			continue
		}
		for _, f := range ScalarFields {
			v, ok := ev.Scalar(f)
			if !ok {
				continue
			}
			a := acc[f]
			if a == nil {
				a = &accumulator{}
				acc[f] = a
			}
			a.add(v)
		}
	}

	out := make(map[Field]Stats, len(acc))
	for f, a := range acc {
		out[f] = a.stats()
	}
	return out
}
