// Package config provides the solve-invocation settings for the SDDP engine.
//
// Settings is an immutable snapshot constructed once per solve call: hard
// iteration and wall-clock caps, the Monte-Carlo simulation schedule, the
// bound-stalling thresholds, the cut-selection cadence, and the serial
// versus asynchronous execution flag.
//
// Configuration sources, highest priority first:
//
//  1. Programmatic construction (tests, library users)
//  2. YAML files loaded through Load (viper: file + SDDP_* environment)
//  3. Default values
//
// All values are validated before any solving begins: schedule ordering
// (min <= max, positive step), confidence level inside (0, 1), nonnegative
// tolerances, and a positive worker count in asynchronous mode. Violations
// surface as *core.ValidationError.
package config
