// Package solver maps detections onto the 4x4 challenge grid and activates
// the tiles covered by the target object.
//
// A Controller owns no state between calls. The caller creates one State
// per challenge attempt and passes it to every pass of that attempt; a tile
// marked in the State is never activated again. Activation side effects go
// through the Activator interface, so the same pass can drive a real screen,
// an element hit-test map, or a recording plan.
package solver
