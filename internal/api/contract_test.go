// SPDX-License-Identifier: MIT

package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/getkin/kin-openapi/openapi3"
	"github.com/getkin/kin-openapi/openapi3filter"
	"github.com/getkin/kin-openapi/routers/legacy"
	"github.com/stretchr/testify/require"
)

var (
	openapiOnce sync.Once
	openapiDoc  *openapi3.T
	openapiErr  error
)

func loadOpenAPIDoc(t *testing.T) *openapi3.T {
	t.Helper()
	openapiOnce.Do(func() {
		loader := openapi3.NewLoader()
		loader.IsExternalRefsAllowed = true
		doc, err := loader.LoadFromFile("openapi.yaml")
		if err != nil {
			openapiErr = err
			return
		}
		if err := doc.Validate(context.Background()); err != nil {
			openapiErr = err
			return
		}
		openapiDoc = doc
	})
	if openapiErr != nil {
		t.Fatalf("openapi load failed: %v", openapiErr)
	}
	return openapiDoc
}

func validateOpenAPIResponse(t *testing.T, doc *openapi3.T, req *http.Request, rr *httptest.ResponseRecorder, opts *openapi3filter.Options) {
	t.Helper()
	router, err := legacy.NewRouter(doc)
	require.NoError(t, err, "openapi router init")

	route, pathParams, err := router.FindRoute(req)
	require.NoError(t, err, "openapi route lookup")

	input := &openapi3filter.ResponseValidationInput{
		RequestValidationInput: &openapi3filter.RequestValidationInput{
			Request:    req,
			PathParams: pathParams,
			Route:      route,
		},
		Status:  rr.Code,
		Header:  rr.Header(),
		Options: opts,
	}
	input.SetBodyBytes(rr.Body.Bytes())

	require.NoError(t, openapi3filter.ValidateResponse(context.Background(), input), "openapi response validation")
}

func serveForContract(t *testing.T, h http.Handler, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestContract_Health(t *testing.T) {
	_, h := newTestServer(t, nil)
	doc := loadOpenAPIDoc(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := serveForContract(t, h, req)
	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr, nil)

	reqVerbose := httptest.NewRequest(http.MethodGet, "/healthz?verbose=true", nil)
	rrVerbose := serveForContract(t, h, reqVerbose)
	require.Equal(t, http.StatusOK, rrVerbose.Code)
	validateOpenAPIResponse(t, doc, reqVerbose, rrVerbose, nil)
}

func TestContract_Ready(t *testing.T) {
	_, h := newTestServer(t, nil)
	doc := loadOpenAPIDoc(t)

	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rr := serveForContract(t, h, req)
	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr, nil)
}

func TestContract_Validate(t *testing.T) {
	_, h := newTestServer(t, nil)
	doc := loadOpenAPIDoc(t)

	req := newAuthedRequest(t, http.MethodPost, "/v1/validate", validSpecYAML)
	rr := serveForContract(t, h, req)
	require.Equal(t, http.StatusOK, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr, nil)

	reqInvalid := newAuthedRequest(t, http.MethodPost, "/v1/validate", invalidSpecYAML)
	rrInvalid := serveForContract(t, h, reqInvalid)
	require.Equal(t, http.StatusOK, rrInvalid.Code)
	validateOpenAPIResponse(t, doc, reqInvalid, rrInvalid, nil)
}

func TestContract_ValidateUnauthorized(t *testing.T) {
	_, h := newTestServer(t, nil)
	doc := loadOpenAPIDoc(t)

	req := httptest.NewRequest(http.MethodPost, "/v1/validate", strings.NewReader(validSpecYAML))
	rr := serveForContract(t, h, req)
	require.Equal(t, http.StatusUnauthorized, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr, nil)
}

func TestContract_ValidateEmptyBody(t *testing.T) {
	_, h := newTestServer(t, nil)
	doc := loadOpenAPIDoc(t)

	req := newAuthedRequest(t, http.MethodPost, "/v1/validate", "")
	rr := serveForContract(t, h, req)
	require.Equal(t, http.StatusBadRequest, rr.Code)
	validateOpenAPIResponse(t, doc, req, rr, nil)
}

func TestContract_Expand(t *testing.T) {
	_, h := newTestServer(t, nil)
	doc := loadOpenAPIDoc(t)

	req := newAuthedRequest(t, http.MethodPost, "/v1/expand", validSpecYAML)
	rr := serveForContract(t, h, req)
	require.Equal(t, http.StatusOK, rr.Code)
	// The expanded document is YAML; the contract covers status, headers
	// and content type only.
	validateOpenAPIResponse(t, doc, req, rr, &openapi3filter.Options{
		ExcludeResponseBody: true,
	})
}

func TestContract_Library(t *testing.T) {
	h, rootID := newLibraryTestServer(t)
	doc := loadOpenAPIDoc(t)

	reqRescan := newAuthedRequest(t, http.MethodPost, "/v1/library/roots/"+rootID+"/rescan", "")
	rrRescan := serveForContract(t, h, reqRescan)
	require.Equal(t, http.StatusOK, rrRescan.Code)
	validateOpenAPIResponse(t, doc, reqRescan, rrRescan, nil)

	reqRoots := newAuthedRequest(t, http.MethodGet, "/v1/library/roots", "")
	rrRoots := serveForContract(t, h, reqRoots)
	require.Equal(t, http.StatusOK, rrRoots.Code)
	validateOpenAPIResponse(t, doc, reqRoots, rrRoots, nil)

	reqList := newAuthedRequest(t, http.MethodGet, "/v1/library?limit=10", "")
	rrList := serveForContract(t, h, reqList)
	require.Equal(t, http.StatusOK, rrList.Code)
	validateOpenAPIResponse(t, doc, reqList, rrList, nil)

	reqItems := newAuthedRequest(t, http.MethodGet, "/v1/library/roots/"+rootID+"/items", "")
	rrItems := serveForContract(t, h, reqItems)
	require.Equal(t, http.StatusOK, rrItems.Code)
	validateOpenAPIResponse(t, doc, reqItems, rrItems, nil)

	listing := decodeListing(t, rrList.Body.Bytes())
	require.NotEmpty(t, listing.Items)
	reqItem := newAuthedRequest(t, http.MethodGet, "/v1/library/"+listing.Items[0].Digest, "")
	rrItem := serveForContract(t, h, reqItem)
	require.Equal(t, http.StatusOK, rrItem.Code)
	validateOpenAPIResponse(t, doc, reqItem, rrItem, nil)
}

func TestContract_LibraryNotFound(t *testing.T) {
	h, _ := newLibraryTestServer(t)
	doc := loadOpenAPIDoc(t)

	reqItem := newAuthedRequest(t, http.MethodGet, "/v1/library/"+strings.Repeat("0", 64), "")
	rrItem := serveForContract(t, h, reqItem)
	require.Equal(t, http.StatusNotFound, rrItem.Code)
	validateOpenAPIResponse(t, doc, reqItem, rrItem, nil)

	reqRescan := newAuthedRequest(t, http.MethodPost, "/v1/library/roots/nope/rescan", "")
	rrRescan := serveForContract(t, h, reqRescan)
	require.Equal(t, http.StatusNotFound, rrRescan.Code)
	validateOpenAPIResponse(t, doc, reqRescan, rrRescan, nil)
}
