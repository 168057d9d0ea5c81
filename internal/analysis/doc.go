// Package analysis extracts signals from recorded run diagnostics.
//
//   - [Series]: one named column of a stats trace
//   - [PowerSpectrum] and [DominantPeriod]: oscillations in a trace
//   - [DecayRate]: exponential decay fitted to a trace
//
// A dye trace with no emitters decays roughly like exp(-dye_diss·dt) per
// step once advection has smoothed the initial splat:
//
//	rate, _ := analysis.DecayRate(analysis.Series(stats, "max_dye"))
package analysis
