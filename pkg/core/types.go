package core

// Group is a named sequence of lap times (seconds), typically one driver.
type Group struct {
	Name    string
	Samples []float64
}

// Dataset is an ordered collection of groups. For distribution it is
// flattened into a single sequence in group order.
type Dataset struct {
	Groups []Group
}

func NewDataset(groups ...Group) Dataset {
	return Dataset{Groups: groups}
}

// Len returns the total number of samples across all groups.
func (d Dataset) Len() int {
	n := 0
	for _, g := range d.Groups {
		n += len(g.Samples)
	}
	return n
}

// Flatten concatenates all groups into a freshly allocated slice.
func (d Dataset) Flatten() []float64 {
	samples := make([]float64, 0, d.Len())
	for _, g := range d.Groups {
		samples = append(samples, g.Samples...)
	}
	return samples
}

// Partition is a disjoint view of the dataset owned by exactly one worker
// or task while its local extrema are computed. Samples must not be mutated.
type Partition struct {
	Index   int
	Name    string
	Samples []float64
}

// LocalExtrema is the (min, max) pair of a single partition.
type LocalExtrema struct {
	Min float64
	Max float64
}

// GlobalExtrema is the (min, max) pair over all partitions.
type GlobalExtrema struct {
	Min float64
	Max float64
}

// LocalResult is what a transport hands back for one dispatched partition:
// either the partition's extrema or the error the worker hit.
type LocalResult struct {
	Partition int
	Extrema   LocalExtrema
	Err       error
}
