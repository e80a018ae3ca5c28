package webserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/repuls-community/repulsbot/src/store"
)

type fakeStore struct {
	forced store.Forced
}

func (f *fakeStore) GetForcedVideo() store.Forced { return f.forced }

type fakePublisher struct {
	url string
}

func (f *fakePublisher) CurrentFeatured(ctx context.Context) (string, time.Time, bool) {
	if f.url == "" {
		return "", time.Time{}, false
	}
	return f.url, time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC), true
}

func get(t *testing.T, handler http.Handler, path, token string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	return w
}

func TestHealthz(t *testing.T) {
	g := New(Config{Store: &fakeStore{}, Publisher: &fakePublisher{}})
	w := get(t, g, "/healthz", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestFeaturedRequiresToken(t *testing.T) {
	g := New(Config{Token: "secret", Store: &fakeStore{}, Publisher: &fakePublisher{}})

	assert.Equal(t, http.StatusUnauthorized, get(t, g, "/api/featured", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(t, g, "/api/featured", "wrong").Code)
	assert.Equal(t, http.StatusOK, get(t, g, "/api/featured", "secret").Code)
}

func TestFeaturedReportsState(t *testing.T) {
	st := &fakeStore{forced: store.Forced{
		State:     store.ForcedActive,
		MessageID: "11",
		Deadline:  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
	}}
	g := New(Config{Store: st, Publisher: &fakePublisher{url: "https://youtu.be/livevideo01"}})

	w := get(t, g, "/api/featured", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Forced struct {
			State     string `json:"state"`
			MessageID string `json:"message_id"`
			Deadline  string `json:"deadline"`
		} `json:"forced"`
		Website struct {
			VideoURL string `json:"video_url"`
		} `json:"website"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "active", body.Forced.State)
	assert.Equal(t, "11", body.Forced.MessageID)
	assert.Equal(t, "2026-09-01T00:00:00Z", body.Forced.Deadline)
	assert.Equal(t, "https://youtu.be/livevideo01", body.Website.VideoURL)
}

func TestFeaturedOmitsWebsiteWhenUnreachable(t *testing.T) {
	g := New(Config{Store: &fakeStore{}, Publisher: &fakePublisher{}})

	w := get(t, g, "/api/featured", "")
	require.Equal(t, http.StatusOK, w.Code)

	var body map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Contains(t, body, "forced")
	assert.NotContains(t, body, "website")
}
