package resultsapi

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap/zaptest"

	"github.com/verte-zerg/epulse/internal/model"
	"github.com/verte-zerg/epulse/internal/store"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type memStore struct {
	mu        sync.Mutex
	results   []model.Result
	appendErr error
}

func (m *memStore) AppendResult(_ context.Context, r model.Result) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.appendErr != nil {
		return m.appendErr
	}
	m.results = append(m.results, r)
	return nil
}

func (m *memStore) ListResults(_ context.Context, _ int) ([]model.Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]model.Result(nil), m.results...), nil
}

var fixedNow = time.UnixMilli(1_760_000_000_000)

func post(t *testing.T, h http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, ResultsPath, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateResult(t *testing.T) {
	st := &memStore{}
	h := NewServer(st, zaptest.NewLogger(t), WithServerClock(func() time.Time { return fixedNow })).Handler()

	rec := post(t, h, `{"id":"r1","wpm":42,"accuracy":97,"textLength":44,"duration":12.5,"errorKeys":{"e":1}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, createResponse{Success: true, ID: "r1"}, resp)

	want := []model.Result{{
		ID: "r1", WPM: 42, Accuracy: 97, TextLength: 44, Duration: 12.5,
		Timestamp: fixedNow.UnixMilli(), ErrorKeys: map[string]int{"e": 1},
	}}
	if diff := cmp.Diff(want, st.results); diff != "" {
		t.Fatalf("stored results mismatch (-want +got):\n%s", diff)
	}
}

func TestCreateResultKeepsTimestamp(t *testing.T) {
	st := &memStore{}
	h := NewServer(st, nil).Handler()

	rec := post(t, h, `{"id":"r1","wpm":42,"accuracy":97,"timestamp":1234}`)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, st.results, 1)
	assert.Equal(t, int64(1234), st.results[0].Timestamp)
}

func TestCreateResultValidation(t *testing.T) {
	cases := map[string]string{
		"missing id":       `{"wpm":42,"accuracy":97}`,
		"empty id":         `{"id":"","wpm":42,"accuracy":97}`,
		"missing wpm":      `{"id":"r1","accuracy":97}`,
		"missing accuracy": `{"id":"r1","wpm":42}`,
		"string wpm":       `{"id":"r1","wpm":"fast","accuracy":97}`,
		"malformed json":   `{"id":`,
		"not an object":    `[1,2,3]`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			st := &memStore{}
			rec := post(t, NewServer(st, nil).Handler(), body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Empty(t, st.results)
		})
	}
}

func TestCreateResultStorageFailure(t *testing.T) {
	st := &memStore{appendErr: errors.New("disk full")}
	rec := post(t, NewServer(st, zaptest.NewLogger(t)).Handler(), `{"id":"r1","wpm":42,"accuracy":97}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestListResultsNewestFirst(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := NewServer(db, zaptest.NewLogger(t)).Handler()
	for _, body := range []string{
		`{"id":"old","wpm":30,"accuracy":90,"timestamp":1000}`,
		`{"id":"new","wpm":50,"accuracy":95,"timestamp":3000}`,
		`{"id":"mid","wpm":40,"accuracy":92,"timestamp":2000}`,
	} {
		require.Equal(t, http.StatusOK, post(t, h, body).Code)
	}

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ResultsPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var got []model.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	ids := make([]string, len(got))
	for i, r := range got {
		ids[i] = r.ID
	}
	assert.Equal(t, []string{"new", "mid", "old"}, ids)
}

func TestCreateResultRepeatedID(t *testing.T) {
	db, err := store.Open(filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	h := NewServer(db, zaptest.NewLogger(t)).Handler()
	body := `{"id":"r1","wpm":42,"accuracy":97,"timestamp":1000}`
	require.Equal(t, http.StatusOK, post(t, h, body).Code)
	rec := post(t, h, body)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, createResponse{Success: true, ID: "r1"}, resp)

	n, err := db.CountResults(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestListResultsEmpty(t *testing.T) {
	rec := httptest.NewRecorder()
	NewServer(&memStore{}, nil).Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, ResultsPath, nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestServeShutsDownOnCancel(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- Serve(ctx, ln, NewServer(&memStore{}, zaptest.NewLogger(t)))
	}()

	resp, err := http.Post("http://"+ln.Addr().String()+ResultsPath, "application/json",
		strings.NewReader(`{"id":"r1","wpm":42,"accuracy":97}`))
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
	http.DefaultClient.CloseIdleConnections()
}
