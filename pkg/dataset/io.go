package dataset

import (
	"bufio"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/nemanja-m/lapreduce/pkg/core"
)

const (
	DefaultBufferSize = 1024 * 1024 // 1MB
)

// FindFiles expands doublestar patterns (e.g. "laps/**/*.txt") into the
// regular files they match, sorted and without duplicates.
func FindFiles(patterns ...string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
		}
		for _, name := range matches {
			info, err := os.Lstat(name)
			if err != nil {
				continue
			}
			if info.Mode().IsRegular() {
				files = append(files, name)
			}
		}
	}
	slices.Sort(files)
	return slices.Compact(files), nil
}

// ReadSamples parses lap times from a file. Values are separated by commas
// or whitespace; blank lines and lines starting with '#' are skipped.
func ReadSamples(filePath string) ([]float64, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), DefaultBufferSize)

	var samples []float64
	for lineNo := 1; scanner.Scan(); lineNo++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		fields := strings.FieldsFunc(line, func(r rune) bool {
			return r == ',' || r == ';' || r == ' ' || r == '\t'
		})
		for _, field := range fields {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("%s:%d: invalid lap time %q", filePath, lineNo, field)
			}
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf("%s:%d: lap time must be finite, got %q", filePath, lineNo, field)
			}
			samples = append(samples, v)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return samples, nil
}

// Load builds a dataset with one group per matched file, named after the
// file without its extension.
func Load(patterns ...string) (core.Dataset, error) {
	files, err := FindFiles(patterns...)
	if err != nil {
		return core.Dataset{}, err
	}
	if len(files) == 0 {
		return core.Dataset{}, fmt.Errorf("no files matched: %s", strings.Join(patterns, ", "))
	}

	groups := make([]core.Group, 0, len(files))
	for _, file := range files {
		samples, err := ReadSamples(file)
		if err != nil {
			return core.Dataset{}, err
		}
		name := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		groups = append(groups, core.Group{Name: name, Samples: samples})
	}
	return core.NewDataset(groups...), nil
}
