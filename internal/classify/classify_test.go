package classify

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/frogsort/internal/model"
	"github.com/sells-group/frogsort/pkg/inat"
)

func ptr(f float64) *float64 { return &f }

type stubClient struct {
	resp *inat.ScoreResponse
	err  error
	path string
}

func (s *stubClient) ScoreImage(_ context.Context, imagePath string) (*inat.ScoreResponse, error) {
	s.path = imagePath
	return s.resp, s.err
}

func response(score float64, taxon inat.Taxon) *inat.ScoreResponse {
	return &inat.ScoreResponse{Results: []inat.Result{{CombinedScore: ptr(score), Taxon: taxon}}}
}

var bullfrog = inat.Taxon{
	Name:                "Lithobates catesbeianus",
	PreferredCommonName: "American Bullfrog",
	EnglishCommonName:   "Bullfrog",
}

func TestFromResponse_EmptyResults(t *testing.T) {
	t.Parallel()

	want := model.Classification{
		CommonName:     "Unknown Frog",
		ScientificName: "Unknown",
		Score:          0.0,
		Confidence:     model.ConfidenceLow,
		FolderName:     "unknown",
	}
	assert.Equal(t, want, FromResponse(&inat.ScoreResponse{}, MinScore))
	assert.Equal(t, want, FromResponse(nil, MinScore))
}

func TestFromResponse_HighConfidence(t *testing.T) {
	t.Parallel()

	got := FromResponse(response(0.8734, bullfrog), MinScore)
	assert.Equal(t, "American Bullfrog", got.CommonName)
	assert.Equal(t, "Lithobates catesbeianus", got.ScientificName)
	assert.InDelta(t, 0.873, got.Score, 1e-9)
	assert.Equal(t, model.ConfidenceHigh, got.Confidence)
	assert.Equal(t, "american_bullfrog", got.FolderName)
}

func TestFromResponse_Threshold(t *testing.T) {
	t.Parallel()

	t.Run("at threshold is accepted", func(t *testing.T) {
		t.Parallel()
		got := FromResponse(response(0.10, bullfrog), MinScore)
		assert.Equal(t, "American Bullfrog", got.CommonName)
		assert.Equal(t, "american_bullfrog", got.FolderName)
		assert.Equal(t, model.ConfidenceLow, got.Confidence)
	})

	t.Run("below threshold is demoted", func(t *testing.T) {
		t.Parallel()
		got := FromResponse(response(0.0999, bullfrog), MinScore)
		assert.Equal(t, "Unknown Frog", got.CommonName)
		assert.Equal(t, "Lithobates catesbeianus", got.ScientificName)
		assert.Equal(t, "unknown", got.FolderName)
		assert.Equal(t, model.ConfidenceLow, got.Confidence)
		assert.InDelta(t, 0.1, got.Score, 1e-9)
	})
}

func TestFromResponse_ConfidenceBuckets(t *testing.T) {
	t.Parallel()

	tests := []struct {
		score   float64
		want    model.Confidence
		rounded float64
	}{
		{0.6, model.ConfidenceHigh, 0.6},
		{0.59999, model.ConfidenceMedium, 0.6},
		{0.59, model.ConfidenceMedium, 0.59},
		{0.3, model.ConfidenceMedium, 0.3},
		{0.29999, model.ConfidenceLow, 0.3},
		{0.29, model.ConfidenceLow, 0.29},
	}
	for _, tt := range tests {
		got := FromResponse(response(tt.score, bullfrog), MinScore)
		// Buckets use the raw score even when the stored score rounds up.
		assert.Equal(t, tt.want, got.Confidence, "score %v", tt.score)
		assert.InDelta(t, tt.rounded, got.Score, 1e-9, "score %v", tt.score)
	}
}

func TestFromResponse_CommonNameFallback(t *testing.T) {
	t.Parallel()

	t.Run("english name", func(t *testing.T) {
		t.Parallel()
		got := FromResponse(response(0.7, inat.Taxon{Name: "Hyla cinerea", EnglishCommonName: "Green Treefrog"}), MinScore)
		assert.Equal(t, "Green Treefrog", got.CommonName)
		assert.Equal(t, "green_treefrog", got.FolderName)
	})

	t.Run("scientific name", func(t *testing.T) {
		t.Parallel()
		got := FromResponse(response(0.7, inat.Taxon{Name: "Anura"}), MinScore)
		assert.Equal(t, "Anura", got.CommonName)
		assert.Equal(t, "anura", got.FolderName)
	})

	t.Run("nothing named", func(t *testing.T) {
		t.Parallel()
		got := FromResponse(response(0.7, inat.Taxon{}), MinScore)
		assert.Equal(t, "Unknown", got.CommonName)
		assert.Equal(t, "Unknown", got.ScientificName)
		assert.Equal(t, "unknown", got.FolderName)
	})
}

func TestFromResponse_ScoreFallback(t *testing.T) {
	t.Parallel()

	resp := &inat.ScoreResponse{Results: []inat.Result{{Score: ptr(0.45), Taxon: bullfrog}}}
	got := FromResponse(resp, MinScore)
	assert.InDelta(t, 0.45, got.Score, 1e-9)
	assert.Equal(t, model.ConfidenceMedium, got.Confidence)
}

func TestFromResponse_TopResultOnly(t *testing.T) {
	t.Parallel()

	resp := &inat.ScoreResponse{Results: []inat.Result{
		{CombinedScore: ptr(0.4), Taxon: bullfrog},
		{CombinedScore: ptr(0.9), Taxon: inat.Taxon{Name: "Hyla cinerea", PreferredCommonName: "Green Treefrog"}},
	}}
	got := FromResponse(resp, MinScore)
	assert.Equal(t, "American Bullfrog", got.CommonName)
}

func TestClassify(t *testing.T) {
	t.Parallel()

	stub := &stubClient{resp: response(0.9, bullfrog)}
	c := New(stub)

	got, err := c.Classify(context.Background(), "/in/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, "/in/a.jpg", stub.path)
	assert.Equal(t, "american_bullfrog", got.FolderName)
}

func TestClassify_WithMinScore(t *testing.T) {
	t.Parallel()

	c := New(&stubClient{resp: response(0.2, bullfrog)}, WithMinScore(0.5))
	got, err := c.Classify(context.Background(), "a.jpg")
	require.NoError(t, err)
	assert.True(t, got.IsUnknown())
}

func TestClassify_PropagatesStatus(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	img := filepath.Join(dir, "c.jpg")
	require.NoError(t, os.WriteFile(img, []byte("x"), 0o644))

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := NewFromToken("token", []inat.Option{inat.WithBaseURL(srv.URL)})
	require.NoError(t, err)

	_, err = c.Classify(context.Background(), img)
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, inat.StatusCode(err))
}

func TestClassify_GenericError(t *testing.T) {
	t.Parallel()

	c := New(&stubClient{err: errors.New("boom")})
	_, err := c.Classify(context.Background(), "a.jpg")
	require.Error(t, err)
	assert.Equal(t, 0, inat.StatusCode(err))
	assert.Contains(t, err.Error(), "boom")
}

func TestNewFromToken_MissingCredential(t *testing.T) {
	t.Parallel()

	_, err := NewFromToken("", nil)
	assert.ErrorIs(t, err, ErrMissingCredential)
}
