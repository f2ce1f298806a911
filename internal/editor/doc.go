// Package editor wraps the three-step ffmpeg edit applied to videos of the
// designated channel.
//
// Steps, each with the same fixed codec, preset, CRF, frame rate and audio
// settings:
//
//  1. cut the source to its duration minus the configured trim;
//  2. re-encode the complement clip, scaled and padded to the source
//     resolution;
//  3. concatenate both with the concat filter into a temporary file.
//
// Temporary files live next to the source and carry the process id. The
// edited file replaces the original with a single rename once it is fully
// written, so a failed edit never touches the original.
package editor
