// Package pipeline builds and supervises the external-process chain that
// turns a GeoParquet file into a PMTiles archive.
//
// The chain is strictly linear, 2 to 4 stages: optional reprojection,
// optional extraction, GeoJSONSeq conversion, and tile building. All stages
// are spawned together and coupled stdout-to-stdin with kernel pipes, so
// feature data streams through without ever being materialized on disk and
// memory stays bounded regardless of input size.
//
// Files:
//   - build.go:  stage argument vectors (never shell strings)
//   - exec.go:   process lifecycle, pipe wiring, teardown on failure
//   - result.go: per-stage state machine and run outcome
//   - runner.go: top-level validate / plan / execute / report flow
package pipeline
