// Package server implements the MCP (Model Context Protocol) server for the
// detection tile solver.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Image information:
//   - image_load: Load a capture and get metadata
//   - image_dimensions: Get width and height
//
// Grid:
//   - tiles_labels: List the label table
//   - tiles_grid_layout: Tile rectangles and click points
//   - tiles_grid_overlay: Draw the grid over a capture
//   - tiles_crop_tile: Extract one tile
//   - tiles_compare: Find tiles that changed between two captures
//
// Detections:
//   - tiles_render: Draw a detection batch over a capture
//   - tiles_target_label: Read the target label from the instruction banner
//
// Attempts:
//   - tiles_new_attempt, tiles_end_attempt: Manage activation state
//   - tiles_solve: Match detections to tiles and activate them
//
// # Attempts
//
// Each attempt owns one activation state. Solve passes naming the same
// attempt run one at a time and never activate a tile twice. A pass without
// an attempt id uses a fresh state that is discarded afterwards.
//
// # Error Handling
//
// Argument errors are returned with code -32602, unknown methods with
// -32601, and other tool failures with -32000. Per-tile activation failures
// do not fail tiles_solve; they are listed in its result.
package server
