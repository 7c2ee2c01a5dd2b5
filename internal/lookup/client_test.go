package lookup

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/desertthunder/trax/internal/shared"
	"golang.org/x/time/rate"
)

// routeTripper serves canned responses keyed by URL substring and
// records every request it sees.
type routeTripper struct {
	mu     sync.Mutex
	routes []route
	calls  []string
}

type route struct {
	match  string
	status int
	body   string
	err    error
}

func (rt *routeTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rawURL := req.URL.String()
	rt.calls = append(rt.calls, rawURL)

	for _, r := range rt.routes {
		if !strings.Contains(rawURL, r.match) {
			continue
		}

		if r.err != nil {
			return nil, r.err
		}

		status := r.status
		if status == 0 {
			status = http.StatusOK
		}

		return &http.Response{
			StatusCode: status,
			Body:       io.NopCloser(strings.NewReader(r.body)),
			Header:     make(http.Header),
		}, nil
	}

	return &http.Response{
		StatusCode: http.StatusNotFound,
		Body:       io.NopCloser(strings.NewReader("{}")),
		Header:     make(http.Header),
	}, nil
}

func (rt *routeTripper) callCount() int {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	return len(rt.calls)
}

func (rt *routeTripper) sawURL(substr string) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	for _, u := range rt.calls {
		if strings.Contains(u, substr) {
			return true
		}
	}

	return false
}

func newTestClient(t *testing.T, routes []route) (*Client, *routeTripper) {
	t.Helper()

	tripper := &routeTripper{routes: routes}
	client := NewClient("test_api_key", nil, nil)
	client.httpClient = &http.Client{Transport: tripper}
	client.retryDelay = time.Millisecond
	client.lastfmLimiter = rate.NewLimiter(rate.Inf, 1)
	client.mbLimiter = rate.NewLimiter(rate.Inf, 1)

	return client, tripper
}

func newTestSpotify(t *testing.T, tripper *routeTripper) *SpotifyClient {
	t.Helper()

	spotify, err := NewSpotifyClient("test_client_id", "test_client_secret", nil)
	if err != nil {
		t.Fatalf("failed to create spotify client: %v", err)
	}

	spotify.httpClient = &http.Client{Transport: tripper}
	spotify.limiter = rate.NewLimiter(rate.Inf, 1)

	return spotify
}

const (
	lastfmTechnoBody = `{"toptags":{"tag":[{"count":100,"name":"Techno"},{"count":40,"name":"electronic"},{"count":500,"name":"seen live"}]}}`
	lastfmEmptyBody  = `{"toptags":{"tag":[]}}`
	lastfmErrorBody  = `{"error":6,"message":"Track not found"}`
	mbHouseBody      = `{"recordings":[{"id":"r1","tags":[{"count":3,"name":"house"},{"count":1,"name":"house music"},{"count":1,"name":"dubstep"}]}]}`
	mbEmptyBody      = `{"recordings":[]}`
)

func TestGenreLookupChain(t *testing.T) {
	t.Run("Last FM Track Tags Win", func(t *testing.T) {
		client, tripper := newTestClient(t, []route{
			{match: "track.gettoptags", body: lastfmTechnoBody},
		})

		result, err := client.Genre(context.Background(), "Charlotte de Witte", "Doppler")
		if err != nil {
			t.Fatalf("expected genre, got error %v", err)
		}

		if result.Value != "Techno" || result.Source != SourceLastFM {
			t.Errorf("expected Techno from lastfm, got %q from %q", result.Value, result.Source)
		}

		if tripper.sawURL("musicbrainz") {
			t.Error("chain should stop at the first hit")
		}
	})

	t.Run("Falls Back To Artist Tags", func(t *testing.T) {
		client, _ := newTestClient(t, []route{
			{match: "track.gettoptags", body: lastfmEmptyBody},
			{match: "artist.gettoptags", body: `{"toptags":{"tag":[{"count":80,"name":"deep house"}]}}`},
		})

		result, err := client.Genre(context.Background(), "Lane 8", "Brightest Lights")
		if err != nil {
			t.Fatalf("expected genre, got error %v", err)
		}

		if result.Value != "Deep House" || result.Source != SourceLastFMArtist {
			t.Errorf("expected Deep House from artist tags, got %q from %q", result.Value, result.Source)
		}
	})

	t.Run("Falls Back To MusicBrainz", func(t *testing.T) {
		client, tripper := newTestClient(t, []route{
			{match: "track.gettoptags", body: lastfmErrorBody},
			{match: "artist.gettoptags", body: lastfmEmptyBody},
			{match: "musicbrainz.org", body: mbHouseBody},
		})

		result, err := client.Genre(context.Background(), "Kerri Chandler", "Rain")
		if err != nil {
			t.Fatalf("expected genre, got error %v", err)
		}

		if result.Value != "House" || result.Source != SourceMusicBrainz {
			t.Errorf("expected House from musicbrainz, got %q from %q", result.Value, result.Source)
		}

		if !tripper.sawURL("artist.gettoptags") {
			t.Error("artist tier should run before musicbrainz")
		}
	})

	t.Run("Spotify Is The Last Tier", func(t *testing.T) {
		tripper := &routeTripper{routes: []route{
			{match: "track.gettoptags", body: lastfmEmptyBody},
			{match: "artist.gettoptags", body: lastfmEmptyBody},
			{match: "musicbrainz.org", body: mbEmptyBody},
			{match: "/v1/search", body: `{"tracks":{"items":[{"id":"t1","artists":[{"id":"a1","name":"Cosmic Gate"}]}]}}`},
			{match: "/v1/artists/a1", body: `{"genres":["trance","uplifting trance"]}`},
		}}

		client, _ := newTestClient(t, tripper.routes)
		client.spotify = newTestSpotify(t, tripper)
		client.httpClient = &http.Client{Transport: tripper}

		result, err := client.Genre(context.Background(), "Cosmic Gate", "Exploration of Space")
		if err != nil {
			t.Fatalf("expected genre, got error %v", err)
		}

		if result.Value != "Trance" || result.Source != SourceSpotify {
			t.Errorf("expected Trance from spotify, got %q from %q", result.Value, result.Source)
		}
	})

	t.Run("No Match Anywhere", func(t *testing.T) {
		client, tripper := newTestClient(t, []route{
			{match: "track.gettoptags", body: lastfmEmptyBody},
			{match: "artist.gettoptags", body: lastfmEmptyBody},
			{match: "musicbrainz.org", body: mbEmptyBody},
		})

		_, err := client.Genre(context.Background(), "Unknown", "Nothing")
		if !errors.Is(err, shared.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}

		before := tripper.callCount()
		if _, err := client.Genre(context.Background(), "Unknown", "Nothing"); !errors.Is(err, shared.ErrNoMatch) {
			t.Fatalf("expected memoized ErrNoMatch, got %v", err)
		}

		if tripper.callCount() != before {
			t.Error("repeated lookup should be answered from memory")
		}
	})

	t.Run("Hits Are Memoized", func(t *testing.T) {
		client, tripper := newTestClient(t, []route{
			{match: "track.gettoptags", body: lastfmTechnoBody},
		})

		first, err := client.Genre(context.Background(), "Adam Beyer", "Your Mind")
		if err != nil {
			t.Fatalf("expected genre, got error %v", err)
		}

		before := tripper.callCount()
		second, err := client.Genre(context.Background(), "Adam Beyer", "Your Mind")
		if err != nil {
			t.Fatalf("expected memoized genre, got error %v", err)
		}

		if second != first {
			t.Errorf("memoized result %+v differs from original %+v", second, first)
		}

		if tripper.callCount() != before {
			t.Error("memoized lookup should not touch the network")
		}
	})

	t.Run("Missing API Key Skips Last FM", func(t *testing.T) {
		client, tripper := newTestClient(t, []route{
			{match: "musicbrainz.org", body: mbHouseBody},
		})
		client.lastfmKey = ""

		result, err := client.Genre(context.Background(), "Kerri Chandler", "Rain")
		if err != nil {
			t.Fatalf("expected genre, got error %v", err)
		}

		if result.Source != SourceMusicBrainz {
			t.Errorf("expected musicbrainz source, got %q", result.Source)
		}

		if tripper.sawURL("audioscrobbler") {
			t.Error("last.fm should not be queried without an API key")
		}
	})

	t.Run("Rejects Empty Input", func(t *testing.T) {
		client, tripper := newTestClient(t, nil)

		if _, err := client.Genre(context.Background(), "", "Title"); !errors.Is(err, shared.ErrNoMatch) {
			t.Errorf("expected ErrNoMatch for empty artist, got %v", err)
		}

		if tripper.callCount() != 0 {
			t.Error("empty input should not reach the network")
		}
	})

	t.Run("Cleans Metadata Before Querying", func(t *testing.T) {
		client, tripper := newTestClient(t, []route{
			{match: "track.gettoptags", body: lastfmTechnoBody},
		})

		if _, err := client.Genre(context.Background(), "Drake ft. Rihanna", "Take Care (Remix)"); err != nil {
			t.Fatalf("expected genre, got error %v", err)
		}

		if !tripper.sawURL("artist=Drake&") || tripper.sawURL("Rihanna") {
			t.Error("artist should be cleaned to the primary name before querying")
		}

		if !tripper.sawURL("track=Take+Care") || tripper.sawURL("Remix") {
			t.Error("title should be cleaned of the remix parenthetical")
		}
	})
}

func TestMoodLookupChain(t *testing.T) {
	t.Run("Last FM Tags Win", func(t *testing.T) {
		client, _ := newTestClient(t, []route{
			{match: "track.gettoptags", body: `{"toptags":{"tag":[{"count":60,"name":"uplifting"},{"count":10,"name":"sad"}]}}`},
		})

		result, err := client.Mood(context.Background(), "Above & Beyond", "Sun & Moon")
		if err != nil {
			t.Fatalf("expected mood, got error %v", err)
		}

		if result.Value != "happy" || result.Source != SourceLastFM {
			t.Errorf("expected happy from lastfm, got %q from %q", result.Value, result.Source)
		}
	})

	t.Run("No Artist Tag Tier", func(t *testing.T) {
		client, tripper := newTestClient(t, []route{
			{match: "track.gettoptags", body: lastfmEmptyBody},
			{match: "musicbrainz.org", body: `{"recordings":[{"id":"r1","tags":[{"count":5,"name":"death metal"}]}]}`},
		})

		result, err := client.Mood(context.Background(), "Gojira", "Flying Whales")
		if err != nil {
			t.Fatalf("expected mood, got error %v", err)
		}

		if result.Value != "aggressive" || result.Source != SourceMusicBrainz {
			t.Errorf("expected aggressive from musicbrainz, got %q from %q", result.Value, result.Source)
		}

		if tripper.sawURL("artist.gettoptags") {
			t.Error("mood chain has no artist-tag tier")
		}
	})

	t.Run("Spotify Features As Last Resort", func(t *testing.T) {
		tripper := &routeTripper{routes: []route{
			{match: "track.gettoptags", body: lastfmEmptyBody},
			{match: "musicbrainz.org", body: mbEmptyBody},
			{match: "/v1/search", body: `{"tracks":{"items":[{"id":"t9","artists":[{"id":"a9","name":"Ólafur Arnalds"}]}]}}`},
			{match: "/v1/audio-features/t9", body: `{"energy":0.2,"valence":0.3,"danceability":0.3,"acousticness":0.9,"tempo":72}`},
		}}

		client, _ := newTestClient(t, tripper.routes)
		client.spotify = newTestSpotify(t, tripper)
		client.httpClient = &http.Client{Transport: tripper}

		result, err := client.Mood(context.Background(), "Ólafur Arnalds", "Near Light")
		if err != nil {
			t.Fatalf("expected mood, got error %v", err)
		}

		if result.Value != "acoustic" || result.Source != SourceSpotify {
			t.Errorf("expected acoustic from spotify, got %q from %q", result.Value, result.Source)
		}
	})
}

// flakyTripper fails the first N requests at the transport level, then
// serves the body.
type flakyTripper struct {
	mu       sync.Mutex
	failures int
	calls    int
	body     string
}

func (f *flakyTripper) RoundTrip(*http.Request) (*http.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls++
	if f.calls <= f.failures {
		return nil, errors.New("connection reset by peer")
	}

	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(strings.NewReader(f.body)),
		Header:     make(http.Header),
	}, nil
}

func (f *flakyTripper) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.calls
}

func TestLookupRetry(t *testing.T) {
	t.Run("Recovers After Transient Failures", func(t *testing.T) {
		tripper := &flakyTripper{failures: 2, body: lastfmTechnoBody}
		client, _ := newTestClient(t, nil)
		client.httpClient = &http.Client{Transport: tripper}

		result, err := client.Genre(context.Background(), "Amelie Lens", "Higher")
		if err != nil {
			t.Fatalf("expected recovery, got error %v", err)
		}

		if result.Value != "Techno" {
			t.Errorf("expected Techno, got %q", result.Value)
		}

		if tripper.callCount() != 3 {
			t.Errorf("expected 3 attempts, got %d", tripper.callCount())
		}
	})

	t.Run("Gives Up After Max Retries", func(t *testing.T) {
		tripper := &flakyTripper{failures: 1000}
		client, _ := newTestClient(t, nil)
		client.httpClient = &http.Client{Transport: tripper}

		_, err := client.Genre(context.Background(), "Amelie Lens", "Higher")
		if !errors.Is(err, shared.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch after exhausted tiers, got %v", err)
		}

		// Three tiers, each making maxRetries+1 attempts.
		want := 3 * (defaultMaxRetries + 1)
		if tripper.callCount() != want {
			t.Errorf("expected %d attempts, got %d", want, tripper.callCount())
		}
	})

	t.Run("API Errors Are Not Retried", func(t *testing.T) {
		client, tripper := newTestClient(t, []route{
			{match: "track.gettoptags", status: http.StatusInternalServerError, body: "boom"},
			{match: "artist.gettoptags", status: http.StatusInternalServerError, body: "boom"},
			{match: "musicbrainz.org", status: http.StatusInternalServerError, body: "boom"},
		})

		_, err := client.Genre(context.Background(), "Amelie Lens", "Higher")
		if !errors.Is(err, shared.ErrNoMatch) {
			t.Fatalf("expected ErrNoMatch, got %v", err)
		}

		if tripper.callCount() != 3 {
			t.Errorf("expected one attempt per tier, got %d", tripper.callCount())
		}
	})
}

func TestSpotifyClient(t *testing.T) {
	t.Run("Requires Credentials", func(t *testing.T) {
		if _, err := NewSpotifyClient("", "secret", nil); err == nil {
			t.Error("expected error for missing client_id")
		}

		if _, err := NewSpotifyClient("id", "", nil); err == nil {
			t.Error("expected error for missing client_secret")
		}
	})

	t.Run("Requires Authentication", func(t *testing.T) {
		spotify, err := NewSpotifyClient("id", "secret", nil)
		if err != nil {
			t.Fatalf("failed to create client: %v", err)
		}

		if _, err := spotify.ArtistGenres(context.Background(), "Artist", "Title"); err == nil ||
			!strings.Contains(err.Error(), "not authenticated") {
			t.Errorf("expected authentication error, got %v", err)
		}
	})

	t.Run("Artist Genres", func(t *testing.T) {
		tripper := &routeTripper{routes: []route{
			{match: "/v1/search", body: `{"tracks":{"items":[{"id":"t1","artists":[{"id":"a1","name":"Bicep"}]}]}}`},
			{match: "/v1/artists/a1", body: `{"genres":["electronica","uk dance"]}`},
		}}

		spotify := newTestSpotify(t, tripper)
		genres, err := spotify.ArtistGenres(context.Background(), "Bicep", "Glue")
		if err != nil {
			t.Fatalf("expected genres, got error %v", err)
		}

		if len(genres) != 2 || genres[0] != "electronica" {
			t.Errorf("unexpected genres %v", genres)
		}
	})

	t.Run("No Track Match", func(t *testing.T) {
		tripper := &routeTripper{routes: []route{
			{match: "/v1/search", body: `{"tracks":{"items":[]}}`},
		}}

		spotify := newTestSpotify(t, tripper)
		if _, err := spotify.TrackFeatures(context.Background(), "Nobody", "Nothing"); !errors.Is(err, shared.ErrNoMatch) {
			t.Errorf("expected ErrNoMatch, got %v", err)
		}
	})
}

func TestMoodFromFeatures(t *testing.T) {
	cases := []struct {
		name     string
		features AudioFeatures
		want     string
	}{
		{"Acoustic Override", AudioFeatures{Acousticness: 0.8, Valence: 0.9, Energy: 0.9}, "acoustic"},
		{"Party", AudioFeatures{Valence: 0.7, Energy: 0.8, Danceability: 0.8}, "party"},
		{"Happy", AudioFeatures{Valence: 0.7, Energy: 0.8, Danceability: 0.3}, "happy"},
		{"Aggressive", AudioFeatures{Valence: 0.2, Energy: 0.8}, "aggressive"},
		{"Relaxed", AudioFeatures{Valence: 0.7, Energy: 0.3}, "relaxed"},
		{"Sad", AudioFeatures{Valence: 0.2, Energy: 0.2}, "sad"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := moodFromFeatures(&tc.features); got != tc.want {
				t.Errorf("moodFromFeatures(%+v) = %q, want %q", tc.features, got, tc.want)
			}
		})
	}
}
