package inat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeImage(t *testing.T, name string, data []byte) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(p, data, 0o644))
	return p
}

func ptr(f float64) *float64 { return &f }

func TestScoreImage_Success(t *testing.T) {
	t.Parallel()

	img := writeImage(t, "frog.jpg", []byte("jpeg-bytes"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/computervision/score_image", r.URL.Path)
		assert.Equal(t, "20979", r.URL.Query().Get("taxon_id"))
		assert.Equal(t, "test-token", r.Header.Get("Authorization"))
		assert.Equal(t, DefaultUserAgent, r.Header.Get("User-Agent"))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "frog.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, "jpeg-bytes", string(data))

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(ScoreResponse{
			TotalResults: 1,
			Results: []Result{{
				CombinedScore: ptr(0.92),
				Taxon: Taxon{
					ID:                  24230,
					Name:                "Lithobates catesbeianus",
					PreferredCommonName: "American Bullfrog",
				},
			}},
		})
	}))
	defer srv.Close()

	client := NewClient("test-token", WithBaseURL(srv.URL))
	got, err := client.ScoreImage(context.Background(), img)

	require.NoError(t, err)
	require.Len(t, got.Results, 1)
	assert.Equal(t, "Lithobates catesbeianus", got.Results[0].Taxon.Name)
	assert.Equal(t, "American Bullfrog", got.Results[0].Taxon.PreferredCommonName)
	assert.InDelta(t, 0.92, got.Results[0].EffectiveScore(), 1e-9)
}

func TestScoreImage_CustomTaxonAndUserAgent(t *testing.T) {
	t.Parallel()

	img := writeImage(t, "toad.png", []byte("png"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "42", r.URL.Query().Get("taxon_id"))
		assert.Equal(t, "custom-agent", r.Header.Get("User-Agent"))
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithTaxonID(42), WithUserAgent("custom-agent"))
	got, err := client.ScoreImage(context.Background(), img)

	require.NoError(t, err)
	assert.Empty(t, got.Results)
}

func TestScoreImage_ServerError(t *testing.T) {
	t.Parallel()

	img := writeImage(t, "frog.jpg", []byte("x"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`internal error`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	_, err := client.ScoreImage(context.Background(), img)

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, StatusCode(err))
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "internal error")
}

func TestScoreImage_Unauthorized(t *testing.T) {
	t.Parallel()

	img := writeImage(t, "frog.jpg", []byte("x"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient("bad", WithBaseURL(srv.URL))
	_, err := client.ScoreImage(context.Background(), img)

	require.Error(t, err)
	assert.Equal(t, http.StatusUnauthorized, StatusCode(err))
}

func TestScoreImage_NoRetry(t *testing.T) {
	t.Parallel()

	img := writeImage(t, "frog.jpg", []byte("x"))

	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	_, err := client.ScoreImage(context.Background(), img)

	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestScoreImage_MalformedJSON(t *testing.T) {
	t.Parallel()

	img := writeImage(t, "frog.jpg", []byte("x"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not json`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL))
	_, err := client.ScoreImage(context.Background(), img)

	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
	assert.Contains(t, err.Error(), "unmarshal")
}

func TestScoreImage_MissingFile(t *testing.T) {
	t.Parallel()

	client := NewClient("k", WithBaseURL("http://127.0.0.1:0"))
	_, err := client.ScoreImage(context.Background(), filepath.Join(t.TempDir(), "nope.jpg"))

	require.Error(t, err)
	assert.Contains(t, err.Error(), "open image")
}

func TestScoreImage_Timeout(t *testing.T) {
	t.Parallel()

	img := writeImage(t, "frog.jpg", []byte("x"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"results":[]}`))
	}))
	defer srv.Close()

	client := NewClient("k", WithBaseURL(srv.URL), WithTimeout(20*time.Millisecond))
	_, err := client.ScoreImage(context.Background(), img)

	require.Error(t, err)
	assert.Equal(t, 0, StatusCode(err))
}

func TestScoreImage_ContextCancellation(t *testing.T) {
	t.Parallel()

	img := writeImage(t, "frog.jpg", []byte("x"))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := NewClient("k", WithBaseURL(srv.URL))
	_, err := client.ScoreImage(ctx, img)

	require.Error(t, err)
}

func TestEffectiveScore(t *testing.T) {
	t.Parallel()

	assert.InDelta(t, 0.5, Result{CombinedScore: ptr(0.5), Score: ptr(0.9)}.EffectiveScore(), 1e-9)
	assert.InDelta(t, 0.9, Result{Score: ptr(0.9)}.EffectiveScore(), 1e-9)
	assert.InDelta(t, 0.0, Result{}.EffectiveScore(), 1e-9)
}

func TestStatusError_Message(t *testing.T) {
	t.Parallel()

	err := &StatusError{StatusCode: 429}
	assert.Equal(t, "inat: 429 Too Many Requests", err.Error())
	assert.Equal(t, 0, StatusCode(nil))
}
