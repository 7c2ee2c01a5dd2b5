// Spotify client-credentials lookups.
//
// Response types based on https://developer.spotify.com/documentation/web-api/reference/
package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trax/internal/shared"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/time/rate"
)

const (
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"
)

// AudioFeatures is the slice of Spotify's track analysis used for mood
// bucketing.
type AudioFeatures struct {
	Energy       float64 `json:"energy"`
	Valence      float64 `json:"valence"`
	Danceability float64 `json:"danceability"`
	Acousticness float64 `json:"acousticness"`
	Tempo        float64 `json:"tempo"`
}

// SpotifyClient reads artist genres and audio features through the
// client-credentials flow, which needs no user login.
type SpotifyClient struct {
	config     *clientcredentials.Config
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
}

// NewSpotifyClient builds a client for the given app credentials.
func NewSpotifyClient(clientID, clientSecret string, logger *log.Logger) (*SpotifyClient, error) {
	if clientID == "" {
		return nil, fmt.Errorf("missing client_id in credentials")
	}

	if clientSecret == "" {
		return nil, fmt.Errorf("missing client_secret in credentials")
	}

	if logger == nil {
		logger = log.Default()
	}

	return &SpotifyClient{
		config: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     spotifyTokenURL,
		},
		limiter: rate.NewLimiter(rate.Limit(10), 1),
		logger:  logger,
	}, nil
}

// Authenticate prepares the token-refreshing HTTP client. The actual
// token fetch happens lazily on the first request.
func (s *SpotifyClient) Authenticate(ctx context.Context) {
	s.httpClient = s.config.Client(ctx)
}

// doRequest performs an authenticated GET against the Spotify API.
func (s *SpotifyClient) doRequest(ctx context.Context, endpoint string, result any) error {
	if s.httpClient == nil {
		return fmt.Errorf("not authenticated: call Authenticate first")
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spotifyBaseURL+endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s", shared.ErrNoMatch, endpoint)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: spotify status %d", shared.ErrAPIRequest, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

type spotifySearchResponse struct {
	Tracks struct {
		Items []struct {
			ID      string `json:"id"`
			Artists []struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"artists"`
		} `json:"items"`
	} `json:"tracks"`
}

// searchTrack finds the best track match and returns its ID and the
// primary artist's ID.
func (s *SpotifyClient) searchTrack(ctx context.Context, artist, title string) (trackID, artistID string, err error) {
	query := url.Values{
		"q":     {fmt.Sprintf("artist:%s track:%s", artist, title)},
		"type":  {"track"},
		"limit": {"1"},
	}

	var response spotifySearchResponse
	if err := s.doRequest(ctx, "/search?"+query.Encode(), &response); err != nil {
		return "", "", err
	}

	if len(response.Tracks.Items) == 0 {
		return "", "", fmt.Errorf("%w: no spotify track for %s - %s", shared.ErrNoMatch, artist, title)
	}

	item := response.Tracks.Items[0]
	if len(item.Artists) > 0 {
		artistID = item.Artists[0].ID
	}

	return item.ID, artistID, nil
}

// ArtistGenres returns the genres Spotify lists for the track's primary
// artist.
func (s *SpotifyClient) ArtistGenres(ctx context.Context, artist, title string) ([]string, error) {
	_, artistID, err := s.searchTrack(ctx, artist, title)
	if err != nil {
		return nil, err
	}

	if artistID == "" {
		return nil, fmt.Errorf("%w: track match has no artist", shared.ErrNoMatch)
	}

	var response struct {
		Genres []string `json:"genres"`
	}

	if err := s.doRequest(ctx, "/artists/"+artistID, &response); err != nil {
		return nil, err
	}

	return response.Genres, nil
}

// TrackFeatures returns audio features for the best track match.
func (s *SpotifyClient) TrackFeatures(ctx context.Context, artist, title string) (*AudioFeatures, error) {
	trackID, _, err := s.searchTrack(ctx, artist, title)
	if err != nil {
		return nil, err
	}

	var features AudioFeatures
	if err := s.doRequest(ctx, "/audio-features/"+trackID, &features); err != nil {
		return nil, err
	}

	return &features, nil
}

// moodFromFeatures buckets the valence/energy plane into canonical
// moods. Strongly acoustic tracks short-circuit to their own label.
func moodFromFeatures(features *AudioFeatures) string {
	if features.Acousticness >= 0.7 {
		return "acoustic"
	}

	switch {
	case features.Valence >= 0.5 && features.Energy >= 0.5:
		if features.Danceability >= 0.7 {
			return "party"
		}

		return "happy"
	case features.Energy >= 0.5:
		return "aggressive"
	case features.Valence >= 0.5:
		return "relaxed"
	default:
		return "sad"
	}
}
