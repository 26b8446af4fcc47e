// Package sqlite implements driven.VectorIndex on a single SQLite file
// through the pure-Go modernc.org/sqlite driver.
//
// Each row holds a chunk id, its text, its metadata as a JSON object and
// its vector as packed little-endian float32s. The schema lives in
// migrations/ and is applied with golang-migrate when the store opens.
//
// Metadata filters run in SQL via json_extract; ranking by cosine
// distance happens in Go over the filtered rows. ReplaceAll runs in one
// transaction, and WAL mode lets concurrent queries keep reading the old
// rows until it commits.
package sqlite
