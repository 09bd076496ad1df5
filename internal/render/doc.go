// Package render is the slideshow core: it advances the playback position
// on a timer, fetches photo bytes through a TTL cache, composes them onto a
// fixed-aspect canvas with orientation-aware fill strategies, and memoizes
// the encoded frame for repeat polls.
package render
