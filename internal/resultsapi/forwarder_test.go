package resultsapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/verte-zerg/epulse/internal/model"
)

func TestForwardPostsToEndpoint(t *testing.T) {
	st := &memStore{}
	srv := httptest.NewServer(NewServer(st, nil).Handler())
	defer srv.Close()

	f := NewForwarder(model.ForwardConfig{URL: srv.URL + ResultsPath}, nil)
	r := model.Result{ID: "r1", WPM: 42, Accuracy: 97, Timestamp: 1234, TextLength: 44, Duration: 12.5}
	f.Forward(r)
	f.Close()

	got, err := st.ListResults(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []model.Result{r}, got)
}

func TestForwardUsesInjectedClient(t *testing.T) {
	st := &memStore{}
	srv := httptest.NewTLSServer(NewServer(st, nil).Handler())
	defer srv.Close()

	f := NewForwarder(model.ForwardConfig{URL: srv.URL + ResultsPath}, nil, WithHTTPClient(srv.Client()))
	r := model.Result{ID: "tls", WPM: 30, Accuracy: 91, Timestamp: 99}
	require.NoError(t, f.Post(context.Background(), r))
	f.Close()

	got, err := st.ListResults(context.Background(), 0)
	require.NoError(t, err)
	assert.Equal(t, []model.Result{r}, got)
}

func TestForwardFailureIsLoggedOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	f := NewForwarder(model.ForwardConfig{URL: srv.URL}, zap.New(core))
	f.Forward(model.Result{ID: "r1", WPM: 42, Accuracy: 97})
	f.Close()

	entries := logs.FilterMessage("forwarding result").All()
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0].ContextMap()["error"], "500")
}

func TestForwardDropsWhenSaturated(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		<-release
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	core, logs := observer.New(zapcore.WarnLevel)
	f := NewForwarder(model.ForwardConfig{URL: srv.URL, MaxInFlight: 1}, zap.New(core))
	f.Forward(model.Result{ID: "first"})
	f.Forward(model.Result{ID: "second"})
	close(release)
	f.Close()

	assert.Equal(t, 1, logs.FilterMessage("forward queue full, dropping result").Len())
	assert.Zero(t, logs.FilterMessage("forwarding result").Len())
}

func TestPostHonorsContext(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	f := NewForwarder(model.ForwardConfig{URL: srv.URL}, nil)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	err := f.Post(ctx, model.Result{ID: "r1"})
	f.Close()
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
