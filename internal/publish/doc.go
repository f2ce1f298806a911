// Package publish uploads finished videos to YouTube.
//
// Uploader sends the video with a resumable videos.insert (category and
// privacy from config), retries 500/502/503/504 responses up to
// upload_retries times with 2, 4, 8... second backoff, then sets the
// thumbnail. A thumbnail failure is only logged. Credentials come from an
// installed-app client secrets file plus a saved OAuth token; refreshed
// tokens are written back to the token file.
package publish
