// Package dataset streams graph datasets and produces bounded, uniformly
// random snapshots of their contents. A Source adapter exposes a node
// stream and an edge stream (with optional per-record properties) for a
// concrete on-disk format; the Scanner consumes any Source in a single
// pass, tracking the maximum observed identifier and maintaining reservoir
// samples of nodes and edges.
package dataset
