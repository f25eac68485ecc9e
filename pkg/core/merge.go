package core

// Merge reduces local extrema into the global pair. The reduction is
// associative and commutative, so input order never matters.
func Merge(locals []LocalExtrema) (GlobalExtrema, error) {
	var acc Accumulator
	for _, l := range locals {
		acc.Add(l)
	}
	return acc.Result()
}

// Accumulator merges local extrema incrementally as they arrive.
// The zero value is ready to use. It is not safe for concurrent use.
type Accumulator struct {
	global GlobalExtrema
	count  int
}

func (a *Accumulator) Add(l LocalExtrema) {
	if a.count == 0 {
		a.global = GlobalExtrema(l)
	} else {
		a.global.Min = min(a.global.Min, l.Min)
		a.global.Max = max(a.global.Max, l.Max)
	}
	a.count++
}

// Count returns how many local results were added.
func (a *Accumulator) Count() int {
	return a.count
}

func (a *Accumulator) Result() (GlobalExtrema, error) {
	if a.count == 0 {
		return GlobalExtrema{}, NewReduceError(ErrIncompleteCollection, NoPartition, "no local extrema to merge")
	}
	return a.global, nil
}
