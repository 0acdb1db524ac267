// Package update manages the gateway's on-disk update metadata.
//
// The layout under the update directory is:
//
//	current_version.txt            sole source of the running version
//	staged.kv                      metadata for a downloaded, unapplied package
//	staging/*.pkg                  downloaded package blobs
//	history/applied_<ms>.kv        metadata of applied updates
//
// All writes go through a .tmp sibling followed by rename so a crash never
// leaves a half-written file. Version strings are compared with SemVer 2.0
// precedence.
package update
