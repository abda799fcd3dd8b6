// Package service orchestrates the matching engine for hosting
// processes.
//
// It provides the API demo drivers and background jobs use for
// placing, cancelling, and querying orders, plus the structured
// logging the engine itself is not allowed to do.
package service
