// Package compat scores how well catalog products fit together.
//
// A pair of products earns 10 points per shared chain and 10 points per
// shared supported asset, each dimension capped at 30, for a pair score in
// [0, 60]. A stack score is the rounded mean of every pair score and is
// classified into a Tier.
//
// Everything here is pure and deterministic: set operations preserve the
// order of the first operand and never depend on map iteration order.
package compat
