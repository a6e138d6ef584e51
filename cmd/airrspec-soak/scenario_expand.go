// SPDX-License-Identifier: MIT

// Expand fixpoint scenario: expansion must be deterministic, idempotent,
// produce a document that validates, and reject unparseable input.
package main

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// runExpandFixpoint executes the expansion invariant checks.
func runExpandFixpoint(cfg Config, client *SpecClient) ScenarioResult {
	result := ScenarioResult{
		Name:         "expand_fixpoint",
		Pass:         true,
		Observations: make(map[string]int64),
		Failures:     []Failure{},
	}

	doc := minimalSpec("fixpoint", 1+cfg.rng.Intn(8))

	// ===================
	// Phase 1: Expand and check the digest header
	// ===================
	fmt.Println("[EXP] Phase 1: expand minimal document")
	first := client.Expand(doc)
	if first.Error != nil || first.HTTPStatus != 200 {
		result.Failures = append(result.Failures, Failure{
			Time:    time.Now(),
			RuleID:  "EXPAND_FAILED",
			Message: fmt.Sprintf("expand of valid document failed: status=%d err=%v", first.HTTPStatus, first.Error),
		})
		result.Pass = false
		return result
	}
	result.Observations["expanded_bytes"] = int64(len(first.Body))

	sum := sha256.Sum256(doc)
	if want := hex.EncodeToString(sum[:]); first.Digest != want {
		result.Failures = append(result.Failures, Failure{
			Time:    time.Now(),
			RuleID:  "DIGEST_MISMATCH",
			Message: fmt.Sprintf("X-Spec-Digest %q does not match request content digest %q", first.Digest, want),
		})
		result.Pass = false
	}

	// ===================
	// Phase 2: The expansion must validate and expand to itself
	// ===================
	fmt.Println("[EXP] Phase 2: validate and re-expand the expansion")
	check := client.Validate(first.Body)
	if check.Error != nil || check.HTTPStatus != 200 || !check.Valid {
		result.Failures = append(result.Failures, Failure{
			Time:    time.Now(),
			RuleID:  "EXPANSION_INVALID",
			Message: fmt.Sprintf("expanded document failed validation: status=%d valid=%v errors=%v err=%v", check.HTTPStatus, check.Valid, check.Errors, check.Error),
		})
		result.Pass = false
	}

	second := client.Expand(first.Body)
	if second.Error != nil || second.HTTPStatus != 200 {
		result.Failures = append(result.Failures, Failure{
			Time:    time.Now(),
			RuleID:  "REEXPAND_FAILED",
			Message: fmt.Sprintf("expand of expanded document failed: status=%d err=%v", second.HTTPStatus, second.Error),
		})
		result.Pass = false
	} else if !bytes.Equal(first.Body, second.Body) {
		result.Failures = append(result.Failures, Failure{
			Time:    time.Now(),
			RuleID:  "EXPAND_NOT_IDEMPOTENT",
			Message: fmt.Sprintf("expand(expand(doc)) differs from expand(doc): %d vs %d bytes", len(second.Body), len(first.Body)),
		})
		result.Pass = false
	}

	// ===================
	// Phase 3: Determinism across repeated submissions
	// ===================
	fmt.Println("[EXP] Phase 3: repeat expansion")
	repeat := client.Expand(doc)
	if repeat.Error != nil || repeat.HTTPStatus != 200 {
		result.Failures = append(result.Failures, Failure{
			Time:    time.Now(),
			RuleID:  "REPEAT_EXPAND_FAILED",
			Message: fmt.Sprintf("repeat expand failed: status=%d err=%v", repeat.HTTPStatus, repeat.Error),
		})
		result.Pass = false
	} else if !bytes.Equal(first.Body, repeat.Body) {
		result.Failures = append(result.Failures, Failure{
			Time:    time.Now(),
			RuleID:  "EXPAND_NOT_DETERMINISTIC",
			Message: "identical submissions produced different expansions",
		})
		result.Pass = false
	}

	// ===================
	// Phase 4: Unparseable input is a client error, never a 500
	// ===================
	fmt.Println("[EXP] Phase 4: malformed document")
	malformed := client.Expand([]byte("definitions: [unbalanced"))
	result.Observations["malformed_status"] = int64(malformed.HTTPStatus)
	if malformed.Error != nil || malformed.HTTPStatus != 400 {
		result.Failures = append(result.Failures, Failure{
			Time:    time.Now(),
			RuleID:  "MALFORMED_NOT_REJECTED",
			Message: fmt.Sprintf("malformed document: status=%d err=%v, want 400", malformed.HTTPStatus, malformed.Error),
		})
		result.Pass = false
	}

	fmt.Printf("[EXP] Done: pass=%v\n", result.Pass)
	return result
}
