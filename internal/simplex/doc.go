// Package simplex is a dense two-phase primal simplex solver for the small
// stage relaxations built by package linear. It reports primal values and
// row duals; duals are read from the reduced-cost row under each row's
// initial unit column, signed against the original right-hand side.
//
// Bland's rule is used throughout, so the solver terminates on degenerate
// problems at the price of speed. Stage relaxations here are tens of rows,
// which keeps that trade irrelevant in practice.
package simplex
