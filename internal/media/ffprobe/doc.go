// Package ffprobe asks ffprobe for the duration and first video stream of a
// clip. The edit stage uses the result to place the cut and to scale the
// complement clip to the source resolution.
package ffprobe
