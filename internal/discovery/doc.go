// Package discovery finds new videos to track.
//
// FeedSource polls each configured channel's public Atom feed (paced with a
// token-bucket limiter) and returns at most max_entries entries per channel.
// The video id is the text after the last "=" of the entry link, falling
// back to the yt:videoId extension. YTDLP resolves a single URL supplied by
// hand through `yt-dlp --dump-json --no-download` with a 30 second limit.
package discovery
