// Package boxset holds per-frame bounding boxes for one source: the ground
// truth or a single tracker's output.
//
// Records arrive as flat comma-separated lines
//
//	frame, identity, x, y, width, height, confidence, class_id, visibility
//
// and are grouped by frame into an immutable BoxSet. A BoxSet is built once
// at load time and is safe to share read-only between goroutines.
package boxset
