// Package metadata fetches publishable metadata for discovered videos.
//
// YouTubeSource calls videos.list on the YouTube Data API with an API key.
// Calls run through a circuit breaker that opens after five consecutive
// failures; an unknown video does not count as a failure. Scraper is the
// backup path: it reads the public watch page and recovers the title,
// channel, description and a few keyword tags.
package metadata
