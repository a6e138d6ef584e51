// SPDX-License-Identifier: MIT

package api

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/airrkit/airrspec/internal/cache"
	"github.com/airrkit/airrspec/internal/log"
	"github.com/airrkit/airrspec/internal/metrics"
	"github.com/airrkit/airrspec/internal/spec"
	"github.com/airrkit/airrspec/internal/telemetry"
	"github.com/airrkit/airrspec/internal/validate"
)

// HeaderSpecDigest carries the content digest of the document a response
// refers to.
const HeaderSpecDigest = "X-Spec-Digest"

// ValidationResponse is the body returned by POST /v1/validate.
type ValidationResponse struct {
	Digest   string   `json:"digest"`
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
	Cached   bool     `json:"cached"`
}

// handleValidate implements POST /v1/validate. The raw request body is the
// YAML document; results are cached by content digest.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api.validate")

	body, ok := s.readSpecBody(w, r)
	if !ok {
		return
	}
	digest := specDigest(body)

	if cached, hit := s.cache.Get(digest); hit {
		metrics.IncCacheHit()
		logger.Debug().
			Str(log.FieldEvent, "validate.cache_hit").
			Str(log.FieldChecksum, digest).
			Msg("serving cached validation result")
		writeJSON(w, r, http.StatusOK, validationResponse(cached, true))
		return
	}
	metrics.IncCacheMiss()

	ctx, span := telemetry.StartSpan(r.Context(), "airrspec.validate", telemetry.SpecAttributes(digest, "")...)
	defer span.End()

	start := time.Now()
	result, err := s.checkSpec(body, digest)
	if err != nil {
		metrics.RecordValidation(metrics.OutcomeError, time.Since(start).Seconds())
		logger.Error().Err(err).Str(log.FieldChecksum, digest).Msg("validator failed")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}

	outcome := metrics.OutcomeInvalid
	if result.Valid {
		outcome = metrics.OutcomeValid
	}
	metrics.RecordValidation(outcome, time.Since(start).Seconds())
	telemetry.EmitValidationObs(ctx, digest, outcome, len(result.Errors), len(result.Warnings))

	s.cache.Set(digest, result, s.snap.App.Cache.TTL)

	logger.Info().
		Str(log.FieldEvent, "validate.checked").
		Str(log.FieldChecksum, digest).
		Str(log.FieldOutcome, outcome).
		Int("errors", len(result.Errors)).
		Int("warnings", len(result.Warnings)).
		Msg("spec validated")

	writeJSON(w, r, http.StatusOK, validationResponse(result, false))
}

// handleExpand implements POST /v1/expand. The response body is the expanded
// YAML document; validation findings for the same digest are cached alongside
// it so a later validate call on identical content is free.
func (s *Server) handleExpand(w http.ResponseWriter, r *http.Request) {
	logger := log.WithComponentFromContext(r.Context(), "api.expand")

	body, ok := s.readSpecBody(w, r)
	if !ok {
		return
	}
	digest := specDigest(body)

	if cached, hit := s.cache.Get(digest); hit && len(cached.Expanded) > 0 {
		metrics.IncCacheHit()
		logger.Debug().
			Str(log.FieldEvent, "expand.cache_hit").
			Str(log.FieldChecksum, digest).
			Msg("serving cached expansion")
		writeExpanded(w, digest, cached.Expanded)
		return
	}
	metrics.IncCacheMiss()

	ctx, span := telemetry.StartSpan(r.Context(), "airrspec.expand", telemetry.SpecAttributes(digest, "")...)
	defer span.End()

	start := time.Now()

	doc, err := spec.Parse(body, s.parseOptions()...)
	if err != nil {
		metrics.RecordExpansion(metrics.OutcomeError, time.Since(start).Seconds())
		RespondError(w, r, http.StatusBadRequest, ErrSpecParseFailed, err.Error())
		return
	}

	expanded, err := spec.Expand(doc)
	if err != nil {
		metrics.RecordExpansion(metrics.OutcomeError, time.Since(start).Seconds())
		logger.Error().Err(err).Str(log.FieldChecksum, digest).Msg("expansion failed")
		RespondError(w, r, http.StatusUnprocessableEntity, ErrExpansionFailed, err.Error())
		return
	}

	out, err := expanded.Marshal()
	if err != nil {
		metrics.RecordExpansion(metrics.OutcomeError, time.Since(start).Seconds())
		logger.Error().Err(err).Str(log.FieldChecksum, digest).Msg("marshalling expanded document failed")
		RespondError(w, r, http.StatusInternalServerError, ErrInternalServer)
		return
	}

	changes := spec.Diff(doc, expanded)

	// One digest maps to one complete cache entry, so validation findings are
	// computed here too rather than caching a bare expansion.
	result, err := s.checkSpec(body, digest)
	if err == nil {
		result.Expanded = out
		s.cache.Set(digest, result, s.snap.App.Cache.TTL)
	}

	metrics.RecordExpansion(metrics.OutcomeSuccess, time.Since(start).Seconds())
	telemetry.EmitExpansionObs(ctx, digest, metrics.OutcomeSuccess, len(changes.Changes))

	logger.Info().
		Str(log.FieldEvent, "expand.completed").
		Str(log.FieldChecksum, digest).
		Int("changes", len(changes.Changes)).
		Msg("spec expanded")

	writeExpanded(w, digest, out)
}

// readSpecBody slurps the request body, honoring the MaxBytesReader cap
// installed by the router.
func (s *Server) readSpecBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			RespondError(w, r, http.StatusRequestEntityTooLarge, ErrSpecTooLarge)
			return nil, false
		}
		RespondError(w, r, http.StatusBadRequest, ErrSpecParseFailed, err.Error())
		return nil, false
	}
	if len(body) == 0 {
		RespondError(w, r, http.StatusBadRequest, ErrSpecParseFailed, "request body is empty")
		return nil, false
	}
	return body, true
}

// specDigest returns the canonical content digest for a raw spec document.
func specDigest(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// parseOptions derives parse options from the runtime snapshot. Environment
// expansion stays off unless the operator enabled it.
func (s *Server) parseOptions() []spec.ParseOption {
	if s.snap.Runtime.ExpandEnvVars {
		return []spec.ParseOption{spec.WithEnvExpansion()}
	}
	return nil
}

// checkSpec parses and validates one document, returning the cacheable
// result. A nil error with result.Valid == false means the document failed
// validation; a non-nil error means the checker itself broke.
func (s *Server) checkSpec(body []byte, digest string) (cache.Result, error) {
	result := cache.Result{Digest: digest, CheckedAt: time.Now().UTC()}

	doc, err := spec.Parse(body, s.parseOptions()...)
	if err != nil {
		result.Errors = []string{err.Error()}
		return result, nil
	}

	warnings, err := spec.Validate(doc)
	if err != nil {
		var verr validate.ValidationError
		if !errors.As(err, &verr) {
			return cache.Result{}, err
		}
		for _, e := range verr.Errors() {
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %s", e.Field, e.Message))
		}
	} else {
		result.Valid = true
	}
	for _, wrn := range warnings {
		result.Warnings = append(result.Warnings, wrn.String())
	}
	return result, nil
}

func validationResponse(res cache.Result, cached bool) ValidationResponse {
	return ValidationResponse{
		Digest:   res.Digest,
		Valid:    res.Valid,
		Errors:   res.Errors,
		Warnings: res.Warnings,
		Cached:   cached,
	}
}

// writeExpanded sends the expanded YAML along with its content digest.
func writeExpanded(w http.ResponseWriter, digest string, out []byte) {
	w.Header().Set("Content-Type", "application/yaml")
	w.Header().Set(HeaderSpecDigest, digest)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}
