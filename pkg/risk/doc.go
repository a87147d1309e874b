// Package risk implements the risk measures used when aggregating duals into
// cuts.
//
// A risk measure maps the nominal probabilities p over realized objective
// values z to a modified vector q of equal length and unit sum. The
// risk-neutral Expectation is the identity; the risk-averse measures shift
// mass toward outcomes that are worse for the subproblem's optimization
// sense, which is passed explicitly so each measure serves both Minimize and
// Maximize.
//
// Supported measures:
//
//   - Expectation: q = p
//   - WorstCase: all mass on the single worst outcome
//   - AVaR(beta): average value-at-risk over the worst beta tail
//   - EAVaR(lambda, beta): lambda*Expectation + (1-lambda)*AVaR(beta)
//
// Every measure returns q = p unchanged for a single-support-point
// distribution.
package risk
