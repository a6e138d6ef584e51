// SPDX-License-Identifier: MIT

// Validate storm scenario: fan a corpus of valid and broken documents at
// POST /v1/validate and check every verdict, then repeat the corpus and
// check the cache serves the second pass.
package main

import (
	"fmt"
	"sync"
	"time"
)

// runValidateStorm executes the validation traffic scenario.
func runValidateStorm(cfg Config, prom *PromClient, client *SpecClient) ScenarioResult {
	result := ScenarioResult{
		Name:         "validate_storm",
		Pass:         true,
		Observations: make(map[string]int64),
		Failures:     []Failure{},
	}

	corpus := buildCorpus(cfg.rng, cfg.CorpusSize)
	fmt.Printf("[VAL] Corpus: %d documents (%d broken), inflight=%d\n",
		len(corpus), len(corpus)-cfg.CorpusSize, cfg.MaxInflight)

	// ===================
	// Phase 1: First pass - every verdict must match document content
	// ===================
	fmt.Println("[VAL] Phase 1: first pass")
	first := fanOut(cfg.MaxInflight, corpus, client)

	var mismatches, serverErrors int
	for i, res := range first {
		c := corpus[i]
		if res.Error != nil {
			result.Failures = append(result.Failures, Failure{
				Time:    time.Now(),
				RuleID:  "VALIDATE_REQUEST_ERROR",
				Message: fmt.Sprintf("doc %s: %v", c.Name, res.Error),
			})
			result.Pass = false
			continue
		}
		if res.HTTPStatus >= 500 {
			serverErrors++
			result.Failures = append(result.Failures, Failure{
				Time:    time.Now(),
				RuleID:  "VALIDATE_5XX",
				Message: fmt.Sprintf("doc %s: status %d", c.Name, res.HTTPStatus),
			})
			result.Pass = false
			continue
		}
		if res.Valid != c.WantValid {
			mismatches++
			rule := "VALID_SPEC_REJECTED"
			if !c.WantValid {
				rule = "INVALID_SPEC_ACCEPTED"
			}
			result.Failures = append(result.Failures, Failure{
				Time:    time.Now(),
				RuleID:  rule,
				Message: fmt.Sprintf("doc %s: valid=%v want %v errors=%v", c.Name, res.Valid, c.WantValid, res.Errors),
			})
			result.Pass = false
		}
		if !c.WantValid && len(res.Errors) == 0 && res.Valid == c.WantValid {
			result.Failures = append(result.Failures, Failure{
				Time:    time.Now(),
				RuleID:  "ERRORS_MISSING",
				Message: fmt.Sprintf("doc %s: invalid verdict with empty error list", c.Name),
			})
			result.Pass = false
		}
	}
	result.Observations["first_pass_docs"] = int64(len(corpus))
	result.Observations["verdict_mismatches"] = int64(mismatches)
	result.Observations["server_errors"] = int64(serverErrors)

	// ===================
	// Phase 2: Repeat pass - identical digests must come from the cache
	// ===================
	fmt.Println("[VAL] Phase 2: repeat pass")
	second := fanOut(cfg.MaxInflight, corpus, client)

	var cachedCount, flips int
	for i, res := range second {
		if res.Error != nil || res.HTTPStatus != 200 {
			continue
		}
		if res.Cached {
			cachedCount++
		}
		if first[i].Error == nil && first[i].HTTPStatus == 200 && res.Valid != first[i].Valid {
			flips++
			result.Failures = append(result.Failures, Failure{
				Time:    time.Now(),
				RuleID:  "VERDICT_FLIP",
				Message: fmt.Sprintf("doc %s: verdict changed between identical submissions", corpus[i].Name),
			})
			result.Pass = false
		}
	}
	result.Observations["repeat_cached"] = int64(cachedCount)
	result.Observations["verdict_flips"] = int64(flips)

	if cfg.ExpectCache && cachedCount < len(corpus) {
		result.Failures = append(result.Failures, Failure{
			Time:    time.Now(),
			RuleID:  "CACHE_MISS_ON_REPEAT",
			Message: fmt.Sprintf("only %d/%d repeated documents were served from cache", cachedCount, len(corpus)),
		})
		result.Pass = false
	}

	// Cross-check the daemon's own counters. Scrapes lag, so give the hit
	// counter a scrape interval to catch up before reading the delta.
	hitsMetric := prom.Metric("airrspec_cache_hits_total")
	if err := prom.WaitForAtLeast(fmt.Sprintf("sum(increase(%s[5m]))", hitsMetric), float64(cachedCount), 30*time.Second); err != nil {
		fmt.Printf("[VAL] Warning: cache hit counter not confirmed via Prometheus: %v\n", err)
	}
	hitDelta, _ := prom.QueryDelta(hitsMetric, "5m")
	result.Observations["prom_cache_hits_delta"] = int64(hitDelta)

	fmt.Printf("[VAL] Done: mismatches=%d cached=%d/%d flips=%d pass=%v\n",
		mismatches, cachedCount, len(corpus), flips, result.Pass)

	return result
}

// fanOut posts every document with at most inflight requests running at
// once. Results are returned in corpus order.
func fanOut(inflight int, corpus []specCase, client *SpecClient) []ValidateResult {
	results := make([]ValidateResult, len(corpus))
	sem := make(chan struct{}, inflight)
	var wg sync.WaitGroup

	for i := range corpus {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			results[i] = client.Validate(corpus[i].Doc)
		}(i)
	}
	wg.Wait()
	return results
}
