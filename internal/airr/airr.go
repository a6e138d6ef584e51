// SPDX-License-Identifier: MIT

// Package airr defines the shared vocabulary used throughout analysis
// specifications: sequence region tags, metric names, splitting and search
// strategies. Every enum offers the same surface: typed constants, IsValid,
// String and a case-insensitive Parse.
package airr

import (
	"fmt"
	"strings"

	"github.com/airrkit/airrspec/internal/normalize"
)

// RegionType tags the receptor sequence region an import extracts.
type RegionType string

const (
	RegionIMGTCDR3     RegionType = "IMGT_CDR3"
	RegionIMGTJunction RegionType = "IMGT_JUNCTION"
	RegionFullSequence RegionType = "FULL_SEQUENCE"
)

// RegionTypes lists all valid region type values.
func RegionTypes() []string {
	return []string{
		string(RegionIMGTCDR3),
		string(RegionIMGTJunction),
		string(RegionFullSequence),
	}
}

// IsValid checks if the region type is valid
func (r RegionType) IsValid() bool {
	switch r {
	case RegionIMGTCDR3, RegionIMGTJunction, RegionFullSequence:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (r RegionType) String() string {
	return string(r)
}

// ParseRegionType parses a string into a RegionType, ignoring case.
func ParseRegionType(s string) (RegionType, error) {
	r := RegionType(normalize.Upper(s))
	if !r.IsValid() {
		return "", fmt.Errorf("unknown region type %q (allowed: %s)", s, strings.Join(RegionTypes(), ", "))
	}
	return r, nil
}

// SequenceType distinguishes amino acid from nucleotide sequence handling.
type SequenceType string

const (
	SequenceAminoAcid  SequenceType = "amino_acid"
	SequenceNucleotide SequenceType = "nucleotide"
)

// SequenceTypes lists all valid sequence type values.
func SequenceTypes() []string {
	return []string{string(SequenceAminoAcid), string(SequenceNucleotide)}
}

// IsValid checks if the sequence type is valid
func (s SequenceType) IsValid() bool {
	switch s {
	case SequenceAminoAcid, SequenceNucleotide:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (s SequenceType) String() string {
	return string(s)
}

// ParseSequenceType parses a string into a SequenceType, ignoring case.
func ParseSequenceType(raw string) (SequenceType, error) {
	s := SequenceType(normalize.Token(raw))
	if !s.IsValid() {
		return "", fmt.Errorf("unknown sequence type %q (allowed: %s)", raw, strings.Join(SequenceTypes(), ", "))
	}
	return s, nil
}

// SequenceEncoding names the k-mer decomposition applied to sequences.
type SequenceEncoding string

const (
	EncodingContinuousKmer     SequenceEncoding = "continuous_kmer"
	EncodingGappedKmer         SequenceEncoding = "gapped_kmer"
	EncodingIMGTContinuousKmer SequenceEncoding = "imgt_continuous_kmer"
	EncodingIdentity           SequenceEncoding = "identity"
)

// SequenceEncodings lists all valid sequence encoding values.
func SequenceEncodings() []string {
	return []string{
		string(EncodingContinuousKmer),
		string(EncodingGappedKmer),
		string(EncodingIMGTContinuousKmer),
		string(EncodingIdentity),
	}
}

// IsValid checks if the sequence encoding is valid
func (e SequenceEncoding) IsValid() bool {
	switch e {
	case EncodingContinuousKmer, EncodingGappedKmer, EncodingIMGTContinuousKmer, EncodingIdentity:
		return true
	default:
		return false
	}
}

// String returns the string representation
func (e SequenceEncoding) String() string {
	return string(e)
}

// ParseSequenceEncoding parses a string into a SequenceEncoding, ignoring case.
func ParseSequenceEncoding(raw string) (SequenceEncoding, error) {
	e := SequenceEncoding(normalize.Token(raw))
	if !e.IsValid() {
		return "", fmt.Errorf("unknown sequence encoding %q (allowed: %s)", raw, strings.Join(SequenceEncodings(), ", "))
	}
	return e, nil
}
