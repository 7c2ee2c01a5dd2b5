package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/trax/internal/shared"
	"golang.org/x/time/rate"
)

const (
	lastfmBaseURL      = "https://ws.audioscrobbler.com/2.0/"
	musicbrainzBaseURL = "https://musicbrainz.org/ws/2"

	// MusicBrainz requires an identifying User-Agent with contact info.
	userAgent = "trax/0.1.0 ( https://github.com/desertthunder/trax )"

	// tagLimit caps how many top tags feed the vote, matching what the
	// Last.fm web UI surfaces.
	tagLimit = 15

	defaultMaxRetries = 3
	defaultRetryDelay = time.Second
)

// Result is one resolved lookup value and the tier that produced it.
type Result struct {
	Value  string
	Source string
}

// Lookup tier names as they appear in Result.Source.
const (
	SourceLastFM       = "lastfm"
	SourceLastFMArtist = "lastfm-artist"
	SourceMusicBrainz  = "musicbrainz"
	SourceSpotify      = "spotify"
)

// tagCount is a folksonomy tag with its vote weight.
type tagCount struct {
	Name  string
	Count int
}

// mapWeightedTags scores canonical values by summed tag counts and
// returns the winner, or "" when nothing maps.
func mapWeightedTags(tags []tagCount, vocabulary map[string]string) string {
	scores := make(map[string]float64)
	for _, tag := range tags {
		if canonical, ok := vocabulary[strings.ToLower(strings.TrimSpace(tag.Name))]; ok {
			scores[canonical] += float64(tag.Count)
		}
	}

	return topScore(scores)
}

// mapNames scores canonical values one vote per name.
func mapNames(names []string, vocabulary map[string]string) string {
	scores := make(map[string]float64)
	for _, name := range names {
		if canonical, ok := vocabulary[strings.ToLower(strings.TrimSpace(name))]; ok {
			scores[canonical]++
		}
	}

	return topScore(scores)
}

// topScore picks the highest-scoring value, breaking ties alphabetically
// so results stay stable across runs.
func topScore(scores map[string]float64) string {
	var best string
	var bestScore float64

	first := true
	for value, score := range scores {
		if first || score > bestScore || (score == bestScore && value < best) {
			best, bestScore, first = value, score, false
		}
	}

	return best
}

// Client resolves genres and moods through the tiered lookup chain.
type Client struct {
	httpClient *http.Client
	logger     *log.Logger

	lastfmKey string
	spotify   *SpotifyClient

	lastfmLimiter *rate.Limiter
	mbLimiter     *rate.Limiter

	maxRetries int
	retryDelay time.Duration

	mu   sync.Mutex
	memo map[string]memoEntry
}

// memoEntry caches a chain outcome for one artist+title pair. Misses are
// cached too; asking every service again for the same track buys nothing
// within a run.
type memoEntry struct {
	result Result
	miss   bool
}

// NewClient builds a lookup client. An empty Last.fm key skips its
// tiers, and a nil spotify client skips those.
func NewClient(lastfmKey string, spotify *SpotifyClient, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.Default()
	}

	return &Client{
		httpClient:    http.DefaultClient,
		logger:        logger,
		lastfmKey:     lastfmKey,
		spotify:       spotify,
		lastfmLimiter: rate.NewLimiter(rate.Limit(5), 1),
		mbLimiter:     rate.NewLimiter(rate.Limit(1), 1),
		maxRetries:    defaultMaxRetries,
		retryDelay:    defaultRetryDelay,
		memo:          make(map[string]memoEntry),
	}
}

// Genre resolves a canonical genre for the track, trying Last.fm track
// tags, Last.fm artist tags, MusicBrainz recording tags, and Spotify
// artist genres in that order. Returns ErrNoMatch when every tier comes
// up empty.
func (c *Client) Genre(ctx context.Context, artist, title string) (Result, error) {
	if artist == "" || title == "" {
		return Result{}, fmt.Errorf("%w: artist and title required", shared.ErrNoMatch)
	}

	key := memoKey("genre", artist, title)
	if entry, ok := c.recall(key); ok {
		return c.replay(entry, "genre", artist, title)
	}

	hit := func(value, source string) (Result, error) {
		result := Result{Value: value, Source: source}
		c.remember(key, memoEntry{result: result})
		return result, nil
	}

	cleanArtist := CleanArtist(artist)
	cleanTitle := CleanTitle(title)

	if c.lastfmKey != "" {
		tags, err := c.lastfmTrackTags(ctx, cleanArtist, cleanTitle)
		if err != nil {
			c.logger.Debug("last.fm track tags unavailable", "artist", cleanArtist, "title", cleanTitle, "error", err)
		} else if genre := mapWeightedTags(tags, tagToGenre); genre != "" {
			return hit(genre, SourceLastFM)
		}

		tags, err = c.lastfmArtistTags(ctx, cleanArtist)
		if err != nil {
			c.logger.Debug("last.fm artist tags unavailable", "artist", cleanArtist, "error", err)
		} else if genre := mapWeightedTags(tags, tagToGenre); genre != "" {
			return hit(genre, SourceLastFMArtist)
		}
	}

	names, err := c.musicbrainzTags(ctx, cleanArtist, cleanTitle)
	if err != nil {
		c.logger.Debug("musicbrainz tags unavailable", "artist", cleanArtist, "title", cleanTitle, "error", err)
	} else if genre := mapNames(names, tagToGenre); genre != "" {
		return hit(genre, SourceMusicBrainz)
	}

	if c.spotify != nil {
		genres, err := c.spotify.ArtistGenres(ctx, cleanArtist, cleanTitle)
		if err != nil {
			c.logger.Debug("spotify genres unavailable", "artist", cleanArtist, "error", err)
		} else if genre := mapNames(genres, tagToGenre); genre != "" {
			return hit(genre, SourceSpotify)
		}
	}

	c.remember(key, memoEntry{miss: true})
	return Result{}, fmt.Errorf("%w: genre for %s - %s", shared.ErrNoMatch, artist, title)
}

// Mood resolves a canonical mood for the track. The chain mirrors Genre
// minus the artist-tag tier, with Spotify audio features as the last
// resort.
func (c *Client) Mood(ctx context.Context, artist, title string) (Result, error) {
	if artist == "" || title == "" {
		return Result{}, fmt.Errorf("%w: artist and title required", shared.ErrNoMatch)
	}

	key := memoKey("mood", artist, title)
	if entry, ok := c.recall(key); ok {
		return c.replay(entry, "mood", artist, title)
	}

	hit := func(value, source string) (Result, error) {
		result := Result{Value: value, Source: source}
		c.remember(key, memoEntry{result: result})
		return result, nil
	}

	cleanArtist := CleanArtist(artist)
	cleanTitle := CleanTitle(title)

	if c.lastfmKey != "" {
		tags, err := c.lastfmTrackTags(ctx, cleanArtist, cleanTitle)
		if err != nil {
			c.logger.Debug("last.fm track tags unavailable", "artist", cleanArtist, "title", cleanTitle, "error", err)
		} else if mood := mapWeightedTags(tags, tagToMood); mood != "" {
			return hit(mood, SourceLastFM)
		}
	}

	names, err := c.musicbrainzTags(ctx, cleanArtist, cleanTitle)
	if err != nil {
		c.logger.Debug("musicbrainz tags unavailable", "artist", cleanArtist, "title", cleanTitle, "error", err)
	} else if mood := mapNames(names, tagToMood); mood != "" {
		return hit(mood, SourceMusicBrainz)
	}

	if c.spotify != nil {
		features, err := c.spotify.TrackFeatures(ctx, cleanArtist, cleanTitle)
		if err != nil {
			c.logger.Debug("spotify features unavailable", "artist", cleanArtist, "title", cleanTitle, "error", err)
		} else if mood := moodFromFeatures(features); mood != "" {
			return hit(mood, SourceSpotify)
		}
	}

	c.remember(key, memoEntry{miss: true})
	return Result{}, fmt.Errorf("%w: mood for %s - %s", shared.ErrNoMatch, artist, title)
}

func memoKey(kind, artist, title string) string {
	return kind + "\x00" + artist + "\x00" + title
}

func (c *Client) recall(key string) (memoEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.memo[key]
	return entry, ok
}

func (c *Client) remember(key string, entry memoEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.memo[key] = entry
}

func (c *Client) replay(entry memoEntry, kind, artist, title string) (Result, error) {
	if entry.miss {
		return Result{}, fmt.Errorf("%w: %s for %s - %s", shared.ErrNoMatch, kind, artist, title)
	}

	return entry.result, nil
}

// lastfmTagsResponse covers track.getTopTags and artist.getTopTags.
// Last.fm reports API errors inside a 200 body.
type lastfmTagsResponse struct {
	TopTags struct {
		Tags []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tag"`
	} `json:"toptags"`
	Error   int    `json:"error"`
	Message string `json:"message"`
}

func (c *Client) lastfmTrackTags(ctx context.Context, artist, title string) ([]tagCount, error) {
	params := url.Values{
		"method":  {"track.gettoptags"},
		"artist":  {artist},
		"track":   {title},
		"api_key": {c.lastfmKey},
		"format":  {"json"},
	}

	return c.lastfmTags(ctx, params)
}

func (c *Client) lastfmArtistTags(ctx context.Context, artist string) ([]tagCount, error) {
	params := url.Values{
		"method":  {"artist.gettoptags"},
		"artist":  {artist},
		"api_key": {c.lastfmKey},
		"format":  {"json"},
	}

	return c.lastfmTags(ctx, params)
}

func (c *Client) lastfmTags(ctx context.Context, params url.Values) ([]tagCount, error) {
	var response lastfmTagsResponse
	if err := c.getJSON(ctx, c.lastfmLimiter, lastfmBaseURL+"?"+params.Encode(), &response); err != nil {
		return nil, err
	}

	if response.Error != 0 {
		return nil, fmt.Errorf("%w: last.fm error %d: %s", shared.ErrNoMatch, response.Error, response.Message)
	}

	tags := make([]tagCount, 0, len(response.TopTags.Tags))
	for _, tag := range response.TopTags.Tags {
		if len(tags) == tagLimit {
			break
		}

		tags = append(tags, tagCount{Name: tag.Name, Count: tag.Count})
	}

	return tags, nil
}

type musicbrainzSearchResponse struct {
	Recordings []struct {
		ID   string `json:"id"`
		Tags []struct {
			Name  string `json:"name"`
			Count int    `json:"count"`
		} `json:"tags"`
	} `json:"recordings"`
}

// musicbrainzTags searches for the recording and returns the tag names
// on the best match.
func (c *Client) musicbrainzTags(ctx context.Context, artist, title string) ([]string, error) {
	query := fmt.Sprintf(`artist:%q AND recording:%q`, artist, title)
	params := url.Values{
		"query": {query},
		"limit": {"1"},
		"fmt":   {"json"},
	}

	var response musicbrainzSearchResponse
	if err := c.getJSON(ctx, c.mbLimiter, musicbrainzBaseURL+"/recording?"+params.Encode(), &response); err != nil {
		return nil, err
	}

	if len(response.Recordings) == 0 {
		return nil, fmt.Errorf("%w: no recordings for %s - %s", shared.ErrNoMatch, artist, title)
	}

	var names []string
	for _, tag := range response.Recordings[0].Tags {
		if tag.Name != "" {
			names = append(names, tag.Name)
		}
	}

	return names, nil
}

// getJSON performs a rate-limited GET and decodes the body into result.
// Transport failures retry with exponential backoff; API rejections and
// decode errors return immediately.
func (c *Client) getJSON(ctx context.Context, limiter *rate.Limiter, rawURL string, result any) error {
	var lastErr error

	delay := c.retryDelay
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(delay):
				delay *= 2
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := limiter.Wait(ctx); err != nil {
			return err
		}

		lastErr = c.fetchJSON(ctx, rawURL, result)
		if lastErr == nil || !isNetworkError(lastErr) {
			return lastErr
		}

		c.logger.Debug("network error during lookup", "attempt", attempt, "error", lastErr)
	}

	return fmt.Errorf("%w: %v", shared.ErrLookupUnavailable, lastErr)
}

func (c *Client) fetchJSON(ctx context.Context, rawURL string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d from %s", shared.ErrAPIRequest, resp.StatusCode, req.URL.Host)
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// isNetworkError reports whether err is a transport-level failure worth
// retrying. http.Client wraps those in *url.Error.
func isNetworkError(err error) bool {
	var urlErr *url.Error
	return errors.As(err, &urlErr)
}
