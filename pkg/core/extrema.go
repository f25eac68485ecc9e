package core

// ComputeLocalExtrema scans samples once, seeding min and max with the
// first element. An empty input is an error, never a ±Inf pair.
func ComputeLocalExtrema(samples []float64) (LocalExtrema, error) {
	if len(samples) == 0 {
		return LocalExtrema{}, NewReduceError(ErrEmptyPartition, NoPartition, "")
	}

	ext := LocalExtrema{Min: samples[0], Max: samples[0]}
	for _, s := range samples[1:] {
		if s < ext.Min {
			ext.Min = s
		}
		if s > ext.Max {
			ext.Max = s
		}
	}
	return ext, nil
}

// Extrema computes the partition's local extrema, tagging errors with the
// partition index.
func (p Partition) Extrema() (LocalExtrema, error) {
	if len(p.Samples) == 0 {
		return LocalExtrema{}, NewReduceError(ErrEmptyPartition, p.Index, "%s", p.Name)
	}
	return ComputeLocalExtrema(p.Samples)
}

// Compute runs Extrema and packs the outcome as a LocalResult.
func (p Partition) Compute() LocalResult {
	ext, err := p.Extrema()
	return LocalResult{Partition: p.Index, Extrema: ext, Err: err}
}
