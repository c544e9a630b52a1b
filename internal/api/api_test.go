// Fitline - Virtual Try-On Recommendation Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fitline

package api

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/tomtom215/fitline/internal/catalog"
	"github.com/tomtom215/fitline/internal/models"
	"github.com/tomtom215/fitline/internal/recommend"
	"github.com/tomtom215/fitline/internal/visual"
)

type fakeEngine struct {
	lastReq  recommend.Request
	lastKind models.InteractionKind
	err      error
}

func (f *fakeEngine) Recommend(_ context.Context, req recommend.Request) (*recommend.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &recommend.Response{
		UserID:  req.UserID,
		Results: []recommend.RecommendationResult{{ItemID: "a", Score: 0.9, Reason: "Trending this week", Strategy: recommend.StrategyTrending}},
	}, nil
}

func (f *fakeEngine) RecordInteraction(_ context.Context, userID, itemID string, kind models.InteractionKind) (*models.Interaction, error) {
	f.lastKind = kind
	return &models.Interaction{ID: "ix-1", UserID: userID, ItemID: itemID, Kind: kind}, f.err
}

func (f *fakeEngine) AddWardrobeItem(_ context.Context, userID, itemID, category string) (*models.WardrobeItem, error) {
	return &models.WardrobeItem{UserID: userID, ItemID: itemID, Category: category}, f.err
}

func (f *fakeEngine) StyleProfile(_ context.Context, userID string) (*models.StyleProfile, error) {
	return models.NewStyleProfile(userID), f.err
}

type fakeVisual struct {
	added []string
}

func (f *fakeVisual) SimilarByImage(_ context.Context, _ image.Image, k int, _ string) ([]models.SimilarItem, error) {
	return []models.SimilarItem{{ItemID: "b", Score: 0.8}}[:min(k, 1)], nil
}

func (f *fakeVisual) SimilarByItemID(_ context.Context, itemID string, _ int, _ string) ([]models.SimilarItem, error) {
	if itemID != "known" {
		return nil, visual.ErrItemNotIndexed
	}
	return []models.SimilarItem{{ItemID: "c", Score: 0.7}}, nil
}

func (f *fakeVisual) AddItem(_ context.Context, itemID string, _ image.Image, _ models.ItemMetadata) error {
	f.added = append(f.added, itemID)
	return nil
}

func (f *fakeVisual) Len() int { return len(f.added) }

type fakeCatalog struct {
	lastList catalog.ListQuery
}

func (f *fakeCatalog) Resolve(context.Context, string) (models.CatalogItem, error) {
	return models.CatalogItem{}, catalog.ErrItemNotFound
}

func (f *fakeCatalog) SearchByAttributes(context.Context, catalog.AttributeQuery) ([]models.CatalogItem, error) {
	return nil, nil
}

func (f *fakeCatalog) List(_ context.Context, q catalog.ListQuery) ([]models.CatalogItem, error) {
	f.lastList = q
	return []models.CatalogItem{{ID: "a", Name: "Tee", Category: "top"}}, nil
}

type testServer struct {
	engine  *fakeEngine
	visual  *fakeVisual
	catalog *fakeCatalog
	handler http.Handler
}

func newTestServer(t *testing.T, withVisual bool, checks ...ReadinessCheck) *testServer {
	t.Helper()
	ts := &testServer{engine: &fakeEngine{}, visual: &fakeVisual{}, catalog: &fakeCatalog{}}
	var vs VisualSearcher
	if withVisual {
		vs = ts.visual
	}
	h := NewHandler(ts.engine, vs, ts.catalog, HandlerConfig{RequestTimeout: time.Second, MaxUploadBytes: 1 << 20}, checks...)
	mwCfg := DefaultMiddlewareConfig()
	mwCfg.RateLimitDisabled = true
	ts.handler = NewRouter(h, NewMiddleware(mwCfg)).Setup()
	return ts
}

func (ts *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, models.APIResponse) {
	t.Helper()
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	var body models.APIResponse
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("decode response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, body
}

func pngBytes(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 10, B: 10, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}
	return buf.Bytes()
}

func multipartBody(t *testing.T, fields map[string]string, image []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("WriteField: %v", err)
		}
	}
	if image != nil {
		part, err := mw.CreateFormFile("image", "item.png")
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write(image); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, true)
	rec, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health/live", nil))
	if rec.Code != http.StatusOK || body.Status != "success" {
		t.Errorf("live = %d %q, want 200 success", rec.Code, body.Status)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("response should carry a request id")
	}

	failing := newTestServer(t, true, ReadinessCheck{Name: "catalog", Check: func(context.Context) error {
		return errors.New("connection refused")
	}})
	rec, body = failing.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/health/ready", nil))
	if rec.Code != http.StatusServiceUnavailable || body.Status != "not_ready" {
		t.Errorf("ready = %d %q, want 503 not_ready", rec.Code, body.Status)
	}
}

func TestRecommendations(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		engineErr  error
		wantStatus int
		wantCode   string
	}{
		{"defaults", "", nil, http.StatusOK, ""},
		{"all params", "?limit=5&category=top&exclude_tried=true", nil, http.StatusOK, ""},
		{"non-numeric limit", "?limit=ten", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"negative limit", "?limit=-1", nil, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"bad bool", "?exclude_tried=maybe", nil, http.StatusBadRequest, ErrCodeBadRequest},
		{"invalid user", "", recommend.ErrInvalidUser, http.StatusBadRequest, ErrCodeBadRequest},
		{"timeout", "", context.DeadlineExceeded, http.StatusGatewayTimeout, ErrCodeTimeout},
		{"internal", "", errors.New("disk on fire"), http.StatusInternalServerError, ErrCodeInternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, true)
			ts.engine.err = tt.engineErr
			rec, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/u1/recommendations"+tt.query, nil))
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if tt.wantCode != "" && (body.Error == nil || body.Error.Code != tt.wantCode) {
				t.Errorf("error = %+v, want code %s", body.Error, tt.wantCode)
			}
			if tt.wantStatus == http.StatusInternalServerError && strings.Contains(rec.Body.String(), "disk on fire") {
				t.Error("internal error details should not leak")
			}
		})
	}

	ts := newTestServer(t, true)
	ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/u1/recommendations?limit=5&category=top&exclude_tried=1", nil))
	want := recommend.Request{UserID: "u1", Limit: 5, Category: "top", ExcludeTried: true}
	if ts.engine.lastReq != want {
		t.Errorf("engine request = %+v, want %+v", ts.engine.lastReq, want)
	}
}

func TestRecordInteraction(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantKind   models.InteractionKind
	}{
		{"tryon", `{"item_id":"a","kind":"tryon"}`, http.StatusAccepted, models.KindTryOn},
		{"alias", `{"item_id":"a","kind":"try-on"}`, http.StatusAccepted, models.KindTryOn},
		{"unknown kind", `{"item_id":"a","kind":"wishlist"}`, http.StatusBadRequest, ""},
		{"missing kind", `{"item_id":"a"}`, http.StatusBadRequest, ""},
		{"unknown field", `{"item_id":"a","kind":"view","extra":1}`, http.StatusBadRequest, ""},
		{"not json", `kind=view`, http.StatusBadRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, true)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/u1/interactions", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			rec, _ := ts.do(t, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if ts.engine.lastKind != tt.wantKind {
				t.Errorf("kind = %q, want %q", ts.engine.lastKind, tt.wantKind)
			}
		})
	}
}

func TestAddWardrobeItem(t *testing.T) {
	ts := newTestServer(t, true)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/users/u1/wardrobe", strings.NewReader(`{"item_id":"jeans-1","category":"bottom"}`))
	rec, body := ts.do(t, req)
	if rec.Code != http.StatusCreated || body.Status != "success" {
		t.Errorf("status = %d %q, want 201 success", rec.Code, body.Status)
	}

	req = httptest.NewRequest(http.MethodPost, "/api/v1/users/u1/wardrobe", strings.NewReader(`{"category":"bottom"}`))
	if rec, _ := ts.do(t, req); rec.Code != http.StatusBadRequest {
		t.Errorf("missing item_id status = %d, want 400", rec.Code)
	}
}

func TestStyleProfile(t *testing.T) {
	ts := newTestServer(t, true)
	rec, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/users/u1/style-profile", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	data, ok := body.Data.(map[string]interface{})
	if !ok || data["user_id"] != "u1" {
		t.Errorf("data = %v, want profile of u1", body.Data)
	}
}

func TestSimilarByImage(t *testing.T) {
	img := pngBytes(t)
	var strip bytes.Buffer
	if err := png.Encode(&strip, image.NewRGBA(image.Rect(0, 0, 4000, 2))); err != nil {
		t.Fatalf("png.Encode: %v", err)
	}

	t.Run("raw body", func(t *testing.T) {
		ts := newTestServer(t, true)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/visual/similar?k=3", bytes.NewReader(img))
		req.Header.Set("Content-Type", "image/png")
		rec, body := ts.do(t, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
		}
		data := body.Data.(map[string]interface{})
		if data["count"] != float64(1) {
			t.Errorf("count = %v, want 1", data["count"])
		}
	})

	t.Run("multipart", func(t *testing.T) {
		ts := newTestServer(t, true)
		b, ct := multipartBody(t, nil, img)
		req := httptest.NewRequest(http.MethodPost, "/api/v1/visual/similar", b)
		req.Header.Set("Content-Type", ct)
		if rec, _ := ts.do(t, req); rec.Code != http.StatusOK {
			t.Errorf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
		}
	})

	tests := []struct {
		name       string
		query      string
		body       []byte
		visual     bool
		wantStatus int
		wantCode   string
	}{
		{"not an image", "", []byte("hello"), true, http.StatusBadRequest, ErrCodeInvalidImage},
		{"empty body", "", nil, true, http.StatusBadRequest, ErrCodeBadRequest},
		{"elongated image", "", strip.Bytes(), true, http.StatusBadRequest, ErrCodeInvalidImage},
		{"k zero", "?k=0", img, true, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"too large", "", bytes.Repeat([]byte{1}, 2<<20), true, http.StatusRequestEntityTooLarge, ErrCodeTooLarge},
		{"disabled", "", img, false, http.StatusServiceUnavailable, ErrCodeVisualDisabled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := newTestServer(t, tt.visual)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/visual/similar"+tt.query, bytes.NewReader(tt.body))
			rec, body := ts.do(t, req)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body.String())
			}
			if body.Error == nil || body.Error.Code != tt.wantCode {
				t.Errorf("error = %+v, want code %s", body.Error, tt.wantCode)
			}
		})
	}
}

func TestSimilarByItem(t *testing.T) {
	ts := newTestServer(t, true)
	rec, _ := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/visual/items/known/similar?k=2", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("known item status = %d, want 200", rec.Code)
	}
	rec, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/visual/items/missing/similar", nil))
	if rec.Code != http.StatusNotFound || body.Error == nil || body.Error.Code != ErrCodeNotFound {
		t.Errorf("missing item = %d %+v, want 404 NOT_FOUND", rec.Code, body.Error)
	}
}

func TestIndexItem(t *testing.T) {
	ts := newTestServer(t, true)
	b, ct := multipartBody(t, map[string]string{"item_id": "new-1", "name": "Red Tee", "category": "top", "price": "19.5"}, pngBytes(t))
	req := httptest.NewRequest(http.MethodPost, "/api/v1/visual/items", b)
	req.Header.Set("Content-Type", ct)
	rec, _ := ts.do(t, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body.String())
	}
	if len(ts.visual.added) != 1 || ts.visual.added[0] != "new-1" {
		t.Errorf("added = %v, want [new-1]", ts.visual.added)
	}

	b, ct = multipartBody(t, map[string]string{"item_id": "new-2", "price": "cheap"}, pngBytes(t))
	req = httptest.NewRequest(http.MethodPost, "/api/v1/visual/items", b)
	req.Header.Set("Content-Type", ct)
	if rec, _ := ts.do(t, req); rec.Code != http.StatusBadRequest {
		t.Errorf("bad price status = %d, want 400", rec.Code)
	}
}

func TestListCatalog(t *testing.T) {
	ts := newTestServer(t, true)
	rec, _ := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/items?sort=price&order=desc&limit=10&offset=20&category=top", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (%s)", rec.Code, rec.Body.String())
	}
	q := ts.catalog.lastList
	if q.SortField != catalog.FieldPrice || !q.Desc || q.Limit != 10 || q.Offset != 20 || q.Filters[catalog.FieldCategory] != "top" {
		t.Errorf("list query = %+v", q)
	}

	for _, query := range []string{"?sort=popularity", "?material=wool", "?order=sideways", "?limit=5000"} {
		t.Run(query, func(t *testing.T) {
			if rec, _ := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/catalog/items"+query, nil)); rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestRateLimit(t *testing.T) {
	h := NewHandler(&fakeEngine{}, nil, &fakeCatalog{}, HandlerConfig{})
	mw := NewMiddleware(MiddlewareConfig{RateLimitRequests: 1, RateLimitWindow: time.Minute})
	router := NewRouter(h, mw).Setup()

	codes := make([]int, 2)
	for i := range codes {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/u1/style-profile", nil))
		codes[i] = rec.Code
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Errorf("codes = %v, want [200 429]", codes)
	}
}

func TestRoutingErrors(t *testing.T) {
	ts := newTestServer(t, true)
	rec, body := ts.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/nothing", nil))
	if rec.Code != http.StatusNotFound || body.Status != "error" {
		t.Errorf("unknown route = %d %q, want 404 error", rec.Code, body.Status)
	}
	if rec, _ := ts.do(t, httptest.NewRequest(http.MethodGet, "/metrics", nil)); rec.Code != http.StatusOK {
		t.Errorf("/metrics status = %d, want 200", rec.Code)
	}
}
