// Package analyzer turns a trainee's session history into the dashboard
// analytics: criterion averages, weakest and strongest criterion, score
// trend, recurring errors and the filtered progress series.
//
// Every function is pure. Results carry a Status so callers can tell an
// empty history apart from a real zero.
package analyzer
