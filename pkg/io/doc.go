// Package io reads and writes the files around a batch run.
//
// # Overview
//
// Batch files describe a list of profiles together with layout and render
// settings. They can be written in TOML, YAML or JSON; the format is picked
// from the file extension:
//
//	[layout]
//	axis = "y"
//	spacing = 650
//
//	[[profile]]
//	a = 164.44
//	b = 252.22
//	c = 30
//	d = 70
//	h = 250
//	n = 10
//
// Use [Load] to decode a file at a path or [Decode] to decode from any
// io.Reader. Decoding is strict: unknown keys are reported as
// errors.ErrCodeInvalidFormat so a typo in a batch file does not silently
// fall back to a default. [Encode] writes a value back out in any of the
// three formats.
//
// # Output Files
//
// [WriteFileAtomic] publishes one drawing through a temporary file and a
// rename, so readers never observe a half-written file. A [Batch] does the
// same for a set of files: nothing appears in the directory until every file
// has been written, and a failed commit restores what was there before.
// [PruneDir] and [CleanDir] remove earlier drawings from an output directory.
package io
