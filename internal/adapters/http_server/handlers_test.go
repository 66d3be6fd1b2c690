package httpserver_test

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpserver "listing_intake/internal/adapters/http_server"
	"listing_intake/internal/app"
	"listing_intake/internal/domain"
)

type memRepo struct {
	mu   sync.Mutex
	rows map[string]domain.Listing
}

func (m *memRepo) Insert(ctx context.Context, l domain.Listing) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[l.ID] = l
	return nil
}

func (m *memRepo) Update(ctx context.Context, l domain.Listing) error { return m.Insert(ctx, l) }

func (m *memRepo) Get(ctx context.Context, id string) (domain.Listing, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	l, ok := m.rows[id]
	if !ok {
		return domain.Listing{}, domain.ErrNotFound
	}
	l.Details = l.Details.Clone()
	return l, nil
}

type memAssets struct{ got []domain.Asset }

func (m *memAssets) Upload(ctx context.Context, a domain.Asset) (domain.StoredAsset, error) {
	m.got = append(m.got, a)
	return domain.StoredAsset{SecureURL: "https://cdn.test/" + a.Filename}, nil
}

func newServer(t *testing.T) (http.Handler, *memAssets) {
	t.Helper()
	repo := &memRepo{rows: map[string]domain.Listing{}}
	assets := &memAssets{}
	s := httpserver.New()
	s.MountHandlers(&httpserver.Handlers{
		Cmd:            app.NewListingService(repo, nil, assets),
		Q:              app.NewQueryService(repo, nil, time.Minute),
		MaxUploadBytes: 1 << 20,
	})
	return s.Mux(), assets
}

func do(h http.Handler, method, path, ctype string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if ctype != "" {
		req.Header.Set("Content-Type", ctype)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func urlencoded(kv ...string) []byte {
	v := url.Values{}
	for i := 0; i+1 < len(kv); i += 2 {
		v.Add(kv[i], kv[i+1])
	}
	return []byte(v.Encode())
}

const formCT = "application/x-www-form-urlencoded"

func TestCreateThenGetListing(t *testing.T) {
	h, _ := newServer(t)

	rr := do(h, http.MethodPost, "/v1/listings", formCT, urlencoded(
		"title", "Lagoon", "category", "RESORT",
		"resort[resortType]", "VILLA", "resort[roomType]", "Suite", "resort[capacity]", "4",
		"resort[amenities][0]", "pool", "resort[amenities][1]", "spa",
	))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	loc := rr.Header().Get("Location")
	require.True(t, strings.HasPrefix(loc, "/v1/listings/"))

	var created domain.Listing
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, 4, created.Details["capacity"])
	assert.Equal(t, []any{"pool", "spa"}, created.Details["amenities"])

	got := do(h, http.MethodGet, loc, "", nil)
	require.Equal(t, http.StatusOK, got.Code)
	etag := got.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req := httptest.NewRequest(http.MethodGet, loc, nil)
	req.Header.Set("If-None-Match", etag)
	cached := httptest.NewRecorder()
	h.ServeHTTP(cached, req)
	assert.Equal(t, http.StatusNotModified, cached.Code)
}

func TestCreateValidationProblem(t *testing.T) {
	h, _ := newServer(t)
	rr := do(h, http.MethodPost, "/v1/listings", formCT, urlencoded(
		"title", "Lagoon", "category", "RESORT",
		"resort[resortType]", "VILLA", "resort[capacity]", "4",
	))
	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	var p struct {
		Category string `json:"category"`
		Errors   []struct {
			Field   string `json:"field"`
			Message string `json:"message"`
		} `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &p))
	assert.Equal(t, "RESORT", p.Category)
	require.Len(t, p.Errors, 1)
	assert.Equal(t, "roomType", p.Errors[0].Field)
}

func TestCreatePathConflictIsBadRequest(t *testing.T) {
	h, _ := newServer(t)
	rr := do(h, http.MethodPost, "/v1/listings", formCT, urlencoded(
		"title", "x", "category", "RESORT",
		"resort[amenities][0]", "pool", "resort[amenities][x]", "spa",
	))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestCreateFromJSONBody(t *testing.T) {
	h, _ := newServer(t)
	body := `{"title":"Corner Shop","category":"CONVENIENCE_SERVICE","basePrice":1500,
	  "convenience":{"serviceType":"LAUNDRY","serviceDescription":"Wash and fold","features":"pickup, ironing"}}`
	rr := do(h, http.MethodPost, "/v1/listings", "application/json", []byte(body))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var l domain.Listing
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &l))
	assert.Equal(t, []any{"pickup", "ironing"}, l.Details["serviceFeatures"])
	require.NotNil(t, l.BasePrice)
	assert.Equal(t, 1500, *l.BasePrice)
}

func TestCreateMultipartWithMenuPDF(t *testing.T) {
	h, assets := newServer(t)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range map[string]string{
		"title":                       "Chez",
		"category":                    "FINE_DINING",
		"dining[diningType]":          "FINE",
		"dining[menuItems][0][name]":  "Jollof",
		"dining[menuItems][0][price]": "2500",
	} {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("dining[menuPdf]", "menu.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4"))
	require.NoError(t, mw.Close())

	rr := do(h, http.MethodPost, "/v1/listings", mw.FormDataContentType(), buf.Bytes())
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	require.Len(t, assets.got, 1)
	assert.Equal(t, "menus", assets.got[0].Folder)

	var l domain.Listing
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &l))
	assert.Equal(t, "https://cdn.test/menu.pdf", l.Details["menuPdfUrl"])
}

func TestUpdateListing(t *testing.T) {
	h, _ := newServer(t)
	rr := do(h, http.MethodPost, "/v1/listings", formCT, urlencoded(
		"title", "Lagoon", "category", "RESORT",
		"resort[resortType]", "VILLA", "resort[roomType]", "Suite", "resort[capacity]", "4",
	))
	require.Equal(t, http.StatusCreated, rr.Code)
	loc := rr.Header().Get("Location")

	up := do(h, http.MethodPatch, loc, formCT, urlencoded("resort[capacity]", "6"))
	require.Equal(t, http.StatusOK, up.Code, up.Body.String())
	var l domain.Listing
	require.NoError(t, json.Unmarshal(up.Body.Bytes(), &l))
	assert.Equal(t, 6, l.Details["capacity"])
	assert.Equal(t, "Suite", l.Details["roomType"])

	conflict := do(h, http.MethodPatch, loc, formCT, urlencoded("category", "CAR_RENTAL"))
	assert.Equal(t, http.StatusConflict, conflict.Code)

	missing := do(h, http.MethodPatch, "/v1/listings/nope", formCT, urlencoded("title", "x"))
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestUnsupportedMediaType(t *testing.T) {
	h, _ := newServer(t)
	rr := do(h, http.MethodPost, "/v1/listings", "text/plain", []byte("hi"))
	assert.Equal(t, http.StatusUnsupportedMediaType, rr.Code)
}

func TestGetMissingListing(t *testing.T) {
	h, _ := newServer(t)
	rr := do(h, http.MethodGet, "/v1/listings/none", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestUnknownRouteIsProblem(t *testing.T) {
	h, _ := newServer(t)
	rr := do(h, http.MethodGet, "/v2/nothing", "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "application/problem+json", rr.Header().Get("Content-Type"))

	rr = do(h, http.MethodDelete, "/v1/listings/abc", "", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)
}
