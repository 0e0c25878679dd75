// Package retention prunes aged derived rows and on-disk screenshot
// files, and implements the guarded fresh-reset sequence that returns a
// deployment to an empty state.
package retention
