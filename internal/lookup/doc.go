// Package lookup resolves genres and moods for tracks from online tag
// databases.
//
// # Lookup Tiers
//
// Each resolution walks a fixed chain and stops at the first hit:
//
//  1. Last.fm track top-tags, weighted by listener count
//  2. Last.fm artist top-tags (genre only)
//  3. MusicBrainz recording search tags
//  4. Spotify artist genres and audio features, when credentials exist
//
// Freeform tags map onto canonical vocabularies: a DJ-oriented genre
// table and seven broad moods. Tags outside both vocabularies are
// ignored, so one obscure folksonomy entry never outvotes real genres.
//
// # Politeness
//
// Every service gets its own rate limiter (MusicBrainz allows one
// request per second, Last.fm five). Transport failures retry with
// exponential backoff; API-level rejections do not. Identical
// artist+title pairs within a process are answered from memory, which
// matters because batch runs hit the same compilation artists over and
// over.
package lookup
