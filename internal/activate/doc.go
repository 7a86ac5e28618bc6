// Package activate provides the Activator implementations used by the
// solver: a recording plan, a hit-test against the element rectangles of
// the challenge surface, and real mouse clicks on Windows.
package activate
