package core

func referenceDataset() Dataset {
	return NewDataset(
		Group{Name: "driver-a", Samples: []float64{85.34, 84.95, 85.11, 92.34, 84.88, 85.05, 84.99, 86.12, 90.50, 85.21}},
		Group{Name: "driver-b", Samples: []float64{84.75, 84.91, 85.88, 84.82, 91.60, 85.15, 84.79, 85.33, 89.98, 85.01}},
		Group{Name: "driver-c", Samples: []float64{86.10, 85.55, 85.43, 84.92, 88.88, 85.67, 93.10, 85.29, 86.04, 85.77}},
	)
}

func sequence(n int) []float64 {
	samples := make([]float64, n)
	for i := range samples {
		samples[i] = float64(i)
	}
	return samples
}
