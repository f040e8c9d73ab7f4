// Package publish uploads the gold artifacts to an S3-compatible bucket.
//
// Objects are written under the configured prefix with the base name of the
// local file, so a new run overwrites the previous artifacts.
package publish
