// SPDX-License-Identifier: MIT

// Spec document generators for storm traffic. Every document is distinct in
// content so each carries a distinct digest until deliberately repeated.
package main

import (
	"fmt"
	"math/rand"
)

// minimalSpec returns a valid TrainMLModel spec. name feeds the identifiers
// so two calls with different names never share a digest.
func minimalSpec(name string, k int) []byte {
	return []byte(fmt.Sprintf(`definitions:
  datasets:
    d_%[1]s:
      format: AIRR
      params:
        path: data/%[1]s/
        metadata_file: data/%[1]s/metadata.csv
  encodings:
    e_%[1]s:
      KmerFrequency:
        k: %[2]d
  ml_methods:
    m_%[1]s: LogisticRegression
  reports:
    rep_%[1]s: SequenceLengthDistribution
instructions:
  inst_%[1]s:
    type: TrainMLModel
    dataset: d_%[1]s
    labels: [signal_disease]
    settings:
      - encoding: e_%[1]s
        ml_method: m_%[1]s
    assessment:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    selection:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    optimization_metric: balanced_accuracy
    metrics: [accuracy]
    reports: [rep_%[1]s]
`, name, k))
}

// brokenSpec returns an invalid document. variant selects which invariant
// it violates; every variant must draw at least one validation error.
func brokenSpec(name string, variant int) []byte {
	switch variant % 3 {
	case 0:
		// settings reference an encoding that is never defined
		return []byte(fmt.Sprintf(`definitions:
  datasets:
    d_%[1]s:
      format: AIRR
      params:
        path: data/%[1]s/
  encodings:
    e_%[1]s:
      KmerFrequency:
        k: 3
  ml_methods:
    m_%[1]s: LogisticRegression
instructions:
  inst_%[1]s:
    type: TrainMLModel
    dataset: d_%[1]s
    labels: [signal_disease]
    settings:
      - encoding: no_such_encoding
        ml_method: m_%[1]s
    assessment:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    selection:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    optimization_metric: balanced_accuracy
    metrics: [accuracy]
`, name))
	case 1:
		// training_percentage outside (0, 1)
		return []byte(fmt.Sprintf(`definitions:
  datasets:
    d_%[1]s:
      format: AIRR
      params:
        path: data/%[1]s/
  encodings:
    e_%[1]s:
      KmerFrequency:
        k: 3
  ml_methods:
    m_%[1]s: LogisticRegression
instructions:
  inst_%[1]s:
    type: TrainMLModel
    dataset: d_%[1]s
    labels: [signal_disease]
    settings:
      - encoding: e_%[1]s
        ml_method: m_%[1]s
    assessment:
      split_strategy: random
      split_count: 1
      training_percentage: 1.5
    selection:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    optimization_metric: balanced_accuracy
    metrics: [accuracy]
`, name))
	default:
		// split_count must be a positive integer
		return []byte(fmt.Sprintf(`definitions:
  datasets:
    d_%[1]s:
      format: AIRR
      params:
        path: data/%[1]s/
  encodings:
    e_%[1]s:
      KmerFrequency:
        k: 3
  ml_methods:
    m_%[1]s: LogisticRegression
instructions:
  inst_%[1]s:
    type: TrainMLModel
    dataset: d_%[1]s
    labels: [signal_disease]
    settings:
      - encoding: e_%[1]s
        ml_method: m_%[1]s
    assessment:
      split_strategy: random
      split_count: 0
      training_percentage: 0.7
    selection:
      split_strategy: random
      split_count: 1
      training_percentage: 0.7
    optimization_metric: balanced_accuracy
    metrics: [accuracy]
`, name))
	}
}

// specCase pairs a document with the verdict the daemon must reach.
type specCase struct {
	Name      string
	Doc       []byte
	WantValid bool
}

// buildCorpus generates size valid documents plus size/4 broken ones, in a
// deterministic order for the given rng.
func buildCorpus(rng *rand.Rand, size int) []specCase {
	corpus := make([]specCase, 0, size+size/4)
	for i := 0; i < size; i++ {
		name := fmt.Sprintf("v%d", i)
		corpus = append(corpus, specCase{
			Name:      name,
			Doc:       minimalSpec(name, 1+rng.Intn(8)),
			WantValid: true,
		})
	}
	for i := 0; i < size/4; i++ {
		name := fmt.Sprintf("b%d", i)
		corpus = append(corpus, specCase{
			Name:      name,
			Doc:       brokenSpec(name, i),
			WantValid: false,
		})
	}
	rng.Shuffle(len(corpus), func(i, j int) {
		corpus[i], corpus[j] = corpus[j], corpus[i]
	})
	return corpus
}
