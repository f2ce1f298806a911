// Package textutil provides the title normalization rules every matching
// decision in reelpipe is built on, plus filename sanitizing.
//
// Two normalization paths exist and must stay distinct:
//   - Normalize/NormalizeStem produce whitespace-delimited tokens, either all
//     of them (ModeFilename) or only the significant ones longer than two
//     characters (ModeSignificant), optionally cut to the first N words.
//   - Fuse collapses a title into one string with punctuation, spaces,
//     underscores, and dashes removed, for containment, prefix, and
//     position-ratio comparisons.
//
// Both paths truncate at the first parenthesis, strip combining marks after
// Unicode decomposition, and lowercase. All functions are pure.
package textutil
