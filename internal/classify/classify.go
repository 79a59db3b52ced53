// Package classify maps iNaturalist vision suggestions onto species
// classifications used by the sorter.
package classify

import (
	"context"
	"errors"

	"github.com/rotisserie/eris"

	"github.com/sells-group/frogsort/internal/model"
	"github.com/sells-group/frogsort/internal/sanitize"
	"github.com/sells-group/frogsort/pkg/inat"
)

// MinScore is the lowest combined score accepted as a species match.
const MinScore = 0.10

// ErrMissingCredential is returned when no iNaturalist token is configured.
var ErrMissingCredential = errors.New("classify: missing iNaturalist API token")

// Classifier identifies the species shown in an image.
type Classifier interface {
	Classify(ctx context.Context, imagePath string) (model.Classification, error)
}

// INatClassifier classifies images through the iNaturalist vision API.
type INatClassifier struct {
	client   inat.Client
	minScore float64
}

// Option configures an INatClassifier.
type Option func(*INatClassifier)

// WithMinScore overrides the acceptance threshold.
func WithMinScore(s float64) Option {
	return func(c *INatClassifier) {
		c.minScore = s
	}
}

// New wraps an iNaturalist client.
func New(client inat.Client, opts ...Option) *INatClassifier {
	c := &INatClassifier{client: client, minScore: MinScore}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromToken builds a classifier backed by a fresh iNaturalist client. It
// fails with ErrMissingCredential before any request when token is empty.
func NewFromToken(token string, clientOpts []inat.Option, opts ...Option) (*INatClassifier, error) {
	if token == "" {
		return nil, ErrMissingCredential
	}
	return New(inat.NewClient(token, clientOpts...), opts...), nil
}

// Classify scores the image and maps the top suggestion.
func (c *INatClassifier) Classify(ctx context.Context, imagePath string) (model.Classification, error) {
	resp, err := c.client.ScoreImage(ctx, imagePath)
	if err != nil {
		return model.Classification{}, eris.Wrap(err, "classify: score image")
	}
	return FromResponse(resp, c.minScore), nil
}

// FromResponse converts a score response into a classification. The service
// orders results by confidence, so only the first is considered. A top score
// below minScore keeps the scientific name but is routed to the unknown folder.
func FromResponse(resp *inat.ScoreResponse, minScore float64) model.Classification {
	if resp == nil || len(resp.Results) == 0 {
		return model.UnknownClassification()
	}

	top := resp.Results[0]
	score := top.EffectiveScore()

	scientific := top.Taxon.Name
	if scientific == "" {
		scientific = model.UnknownScientificName
	}

	if score < minScore {
		return model.Classification{
			CommonName:     model.UnknownCommonName,
			ScientificName: scientific,
			Score:          model.RoundScore(score),
			Confidence:     model.ConfidenceLow,
			FolderName:     model.UnknownFolder,
		}
	}

	common := firstNonEmpty(top.Taxon.PreferredCommonName, top.Taxon.EnglishCommonName, scientific)
	folder := sanitize.FolderName(common)
	if folder == "" {
		folder = model.UnknownFolder
	}
	return model.Classification{
		CommonName:     common,
		ScientificName: scientific,
		Score:          model.RoundScore(score),
		Confidence:     model.ConfidenceFor(score),
		FolderName:     folder,
	}
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
