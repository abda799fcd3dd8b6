// Package orderbook implements the in-memory matching engine for a
// single instrument. It maintains two price-ordered B-trees for the
// bid and ask sides, matches incoming limit and market orders against
// resting liquidity under price-time priority, and serves point-in-time
// market-data queries.
//
// The book operates as a multiple-reader / single-writer system: one
// RWMutex guards the whole instance, every write command runs as one
// indivisible critical section, and read queries share the lock and
// observe consistent snapshots. Orders, trades, and price levels are
// reachable only through the owning book and carry no locking of their
// own.
package orderbook
