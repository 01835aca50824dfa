// Package review orchestrates review point state: lazy materialization,
// status derivation against the schedule rule chain, the explicit
// complete/exempt/unmark transitions, and bulk status refresh.
//
// The pure derivation lives in internal/domain/schedule; this package wires
// it to the stores and owns the policy around partial failure: reads degrade
// to unknown status, writes surface their errors.
package review
