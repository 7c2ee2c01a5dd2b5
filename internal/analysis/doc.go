// Package analysis turns audio files into library metadata: energy levels,
// mood tags, genres, Mixed In Key data, and loudness measurements.
//
// # External Tools
//
// Heavy signal processing stays outside the process. Three wrappers shell
// out and parse structured output:
//
//   - [EssentiaExtractor] : tempo, RMS, spectral centroid, and mood class
//     probabilities from essentia_streaming_extractor_music JSON
//   - [Prober] : file tags and duration from ffprobe JSON, including the
//     TXXX frames Mixed In Key writes
//   - [LoudnessMeter] : integrated LUFS via ffmpeg's loudnorm filter, plus
//     the two-pass normalization that rewrites files to a target loudness
//
// Each wrapper takes its binary path from configuration so tool upgrades
// and Homebrew-vs-system installs stay a config edit.
//
// # Processors
//
// One ItemProcessor implementation per task type adapts these tools to the
// batch engine. Every processor consults the fingerprint cache first and
// writes fresh values back, so re-running a task only pays for files that
// changed since the last run.
package analysis
