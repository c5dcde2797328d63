package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/sitepulse/sitepulse/internal/httpcall"
)

// NA is the sentinel written for every attempted-but-unavailable value.
const NA = "n/a"

// PlaceholderPhotoURL is reported when a place has no photo.
const PlaceholderPhotoURL = "https://via.placeholder.com/400x300?text=No+Photo"

// Review concatenation limits.
const (
	maxReviews     = 5
	maxReviewRunes = 200
)

// BusinessSnapshot is the normalized directory result for one domain.
// String fields hold the value or NA.
type BusinessSnapshot struct {
	Name                string
	Category            string
	Rating              string
	ReviewCount         string
	ConcatenatedReviews string
	PhotoURL            string
	Latitude            string
	Longitude           string

	// Found is false when the text search produced no place, or any step
	// failed and defaults were substituted.
	Found bool
}

// DefaultBusiness returns the all-NA snapshot every failure path degrades to.
func DefaultBusiness() BusinessSnapshot {
	return BusinessSnapshot{
		Name:                NA,
		Category:            NA,
		Rating:              NA,
		ReviewCount:         NA,
		ConcatenatedReviews: NA,
		PhotoURL:            PlaceholderPhotoURL,
		Latitude:            NA,
		Longitude:           NA,
	}
}

// Places queries a Google Places-style business directory.
type Places struct {
	exec     *httpcall.Executor
	endpoint string
	key      string
}

// NewPlaces returns a directory adapter calling endpoint with key.
func NewPlaces(exec *httpcall.Executor, endpoint, key string) *Places {
	return &Places{exec: exec, endpoint: strings.TrimRight(endpoint, "/"), key: key}
}

// Lookup resolves query (typically the bare domain name) to a business
// snapshot. Protocol: text search for a place ID, then a details fetch.
// No search hit short-circuits to defaults without a details call; any
// error likewise degrades to defaults rather than failing the pipeline.
func (p *Places) Lookup(ctx context.Context, query string) BusinessSnapshot {
	snap := DefaultBusiness()

	placeID, err := p.search(ctx, query)
	if err != nil {
		slog.Warn("source: place search failed", "query", query, "err", err)
		return snap
	}
	if placeID == "" {
		slog.Debug("source: no place found", "query", query)
		return snap
	}

	det, err := p.details(ctx, placeID)
	if err != nil {
		slog.Warn("source: place details failed", "query", query, "err", err)
		return snap
	}

	if det.Name != "" {
		snap.Name = det.Name
	}
	if len(det.Types) > 0 {
		snap.Category = det.Types[0]
	}
	if det.Rating != nil {
		snap.Rating = strconv.FormatFloat(*det.Rating, 'f', 1, 64)
	}
	if det.UserRatingsTotal != nil {
		snap.ReviewCount = strconv.Itoa(*det.UserRatingsTotal)
	}
	snap.ConcatenatedReviews = concatReviews(det.Reviews)
	if len(det.Photos) > 0 && det.Photos[0].PhotoReference != "" {
		// The key is deliberately left out of the stored URL; consumers
		// append their own when fetching the photo.
		snap.PhotoURL = fmt.Sprintf("%s/photo?maxwidth=400&photo_reference=%s",
			p.endpoint, url.QueryEscape(det.Photos[0].PhotoReference))
	}
	if det.Geometry.Location.Lat != nil {
		snap.Latitude = strconv.FormatFloat(*det.Geometry.Location.Lat, 'f', -1, 64)
	}
	if det.Geometry.Location.Lng != nil {
		snap.Longitude = strconv.FormatFloat(*det.Geometry.Location.Lng, 'f', -1, 64)
	}
	snap.Found = true
	return snap
}

type placeSearchResponse struct {
	Results []struct {
		PlaceID string `json:"place_id"`
	} `json:"results"`
	Status string `json:"status"`
}

type placeDetailsResponse struct {
	Result placeDetails `json:"result"`
	Status string       `json:"status"`
}

type placeDetails struct {
	Name             string        `json:"name"`
	Types            []string      `json:"types"`
	Rating           *float64      `json:"rating"`
	UserRatingsTotal *int          `json:"user_ratings_total"`
	Reviews          []placeReview `json:"reviews"`
	Photos           []struct {
		PhotoReference string `json:"photo_reference"`
	} `json:"photos"`
	Geometry struct {
		Location struct {
			Lat *float64 `json:"lat"`
			Lng *float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

// search returns the opaque place ID for query, or "" when nothing matched.
func (p *Places) search(ctx context.Context, query string) (string, error) {
	q := url.Values{}
	q.Set("query", query)
	q.Set("key", p.key)

	var out placeSearchResponse
	if err := p.getJSON(ctx, p.endpoint+"/textsearch/json?"+q.Encode(), &out); err != nil {
		return "", err
	}
	if len(out.Results) == 0 {
		return "", nil
	}
	return out.Results[0].PlaceID, nil
}

func (p *Places) details(ctx context.Context, placeID string) (*placeDetails, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", "name,rating,user_ratings_total,reviews,photos,geometry,types")
	q.Set("key", p.key)

	var out placeDetailsResponse
	if err := p.getJSON(ctx, p.endpoint+"/details/json?"+q.Encode(), &out); err != nil {
		return nil, err
	}
	return &out.Result, nil
}

func (p *Places) getJSON(ctx context.Context, u string, v any) error {
	resp, err := p.exec.Get(ctx, u)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

type placeReview struct {
	Text string `json:"text"`
}

// concatReviews joins the first maxReviews review texts, each truncated to
// maxReviewRunes runes with a trailing ellipsis. Empty input, or input
// whose texts are all empty, yields NA.
func concatReviews(reviews []placeReview) string {
	if len(reviews) > maxReviews {
		reviews = reviews[:maxReviews]
	}
	var parts []string
	for _, r := range reviews {
		text := strings.TrimSpace(r.Text)
		if text == "" {
			continue
		}
		if runes := []rune(text); len(runes) > maxReviewRunes {
			text = string(runes[:maxReviewRunes]) + "..."
		}
		parts = append(parts, text)
	}
	if len(parts) == 0 {
		return NA
	}
	return strings.Join(parts, ", ")
}
