// Package build runs site builds.
//
// A full build parses every post once to populate the metadata index, then
// renders posts on a pool of workers that share the build cache and a
// read-only metadata snapshot. Results are merged on the calling goroutine,
// which is the only writer of the cache and the index. Site-wide outputs
// (pages, listings, feeds, sitemap, search and assets) follow.
package build
