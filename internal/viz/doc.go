// Package viz renders a fiber and its traced ray path in the terminal.
//
//   - [Canvas]: braille sub-pixel canvas with per-cell colour
//   - [Projection]: aspect-preserving world to canvas mapping
//   - [Model]: Bubble Tea live view driven by a [sim.Context]
//   - Theme selection with 5 built-in color schemes
//
// # Key Bindings
//
//	←/→   - Steer the input (keyboard fallback)
//	↑/↓   - Fine steering
//	Space - Pause/Resume
//	T     - Cycle color themes
//	S     - Save a snapshot
//	?     - Show help overlay
//
// Mouse clicks and drags across the canvas set the input directly.
package viz
