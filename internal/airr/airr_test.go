// SPDX-License-Identifier: MIT

package airr

import (
	"testing"
)

func TestParseRegionType(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    RegionType
		wantErr bool
	}{
		{"canonical", "IMGT_CDR3", RegionIMGTCDR3, false},
		{"lowercase", "imgt_junction", RegionIMGTJunction, false},
		{"padded", "  FULL_SEQUENCE ", RegionFullSequence, false},
		{"unknown", "CDR3", "", true},
		{"empty", "", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseRegionType(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseMetric(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Metric
		wantErr bool
	}{
		{"accuracy", "accuracy", MetricAccuracy, false},
		{"uppercase tolerated", "BALANCED_ACCURACY", MetricBalancedAccuracy, false},
		{"auc", "auc", MetricAUC, false},
		{"pasted zero-width space", "\u200bf1_micro\u200b", MetricF1Micro, false},
		{"leading BOM", "\ufeffrecall", MetricRecall, false},
		{"unknown", "mcc", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseMetric(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestMetricsCoverConstants(t *testing.T) {
	for _, m := range Metrics() {
		if !Metric(m).IsValid() {
			t.Errorf("listed metric %q does not validate", m)
		}
	}
}

func TestSplitStrategy(t *testing.T) {
	got, err := ParseSplitStrategy("Random")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != SplitRandom {
		t.Errorf("got %q, want %q", got, SplitRandom)
	}
	if !got.RequiresTrainingPercentage() {
		t.Error("random split should require a training percentage")
	}

	kf, err := ParseSplitStrategy("k_fold")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if kf.RequiresTrainingPercentage() {
		t.Error("k_fold split should not require a training percentage")
	}

	if _, err := ParseSplitStrategy("bootstrap"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestParseSearchStrategy(t *testing.T) {
	got, err := ParseSearchStrategy("gridsearch")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != SearchGridSearch {
		t.Errorf("expected canonical spelling, got %q", got)
	}
	if _, err := ParseSearchStrategy("RandomSearch"); err == nil {
		t.Error("expected error for unsupported strategy")
	}
}

func TestParseInstructionType(t *testing.T) {
	got, err := ParseInstructionType("TrainMLModel")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != InstructionTrainMLModel {
		t.Errorf("got %q", got)
	}
	if _, err := ParseInstructionType("ExploratoryAnalysis"); err == nil {
		t.Error("expected error for unsupported instruction type")
	}
}

func TestParseOutputFormat(t *testing.T) {
	got, err := ParseOutputFormat("html")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != OutputHTML {
		t.Errorf("expected canonical HTML, got %q", got)
	}
	if _, err := ParseOutputFormat("PDF"); err == nil {
		t.Error("expected error for unsupported format")
	}
}

func TestParseSequenceEncoding(t *testing.T) {
	got, err := ParseSequenceEncoding("CONTINUOUS_KMER")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != EncodingContinuousKmer {
		t.Errorf("got %q", got)
	}
	if _, err := ParseSequenceEncoding("skipgram"); err == nil {
		t.Error("expected error for unknown encoding")
	}
}

func TestParseSequenceType(t *testing.T) {
	got, err := ParseSequenceType("Amino_Acid")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != SequenceAminoAcid {
		t.Errorf("got %q", got)
	}
	if _, err := ParseSequenceType("protein"); err == nil {
		t.Error("expected error for unknown sequence type")
	}
}
