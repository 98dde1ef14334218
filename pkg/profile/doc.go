// Package profile computes the closed outline of a single sawtooth profile.
//
// # Overview
//
// A sawtooth profile is the cut line of a stair stringer: a run of identical
// triangular teeth (the steps) sitting on a baseline, optionally preceded by a
// short left stub and followed by a right stub, closed off by a horizontal top
// edge at the total height. Six numbers describe it, stored in [Params]:
//
//   - a (Rise): length of the riser segment of each tooth
//   - b (Run): length of the tread segment of each tooth
//   - c (RightExcess): extra tread length after the last apex
//   - d (LeftExcess): length of the left stub before the first riser
//   - h (Height): total height of the closing top edge
//   - n (Teeth): number of teeth
//
// # Construction
//
// [Construct] turns a Params into an immutable [Outline]. The tooth angle is
// angleA = atan(a/b); risers point along (sin A, cos A) and treads along
// (cos A, -sin A), so every apex sits at the same height sin(B)*a above the
// baseline. Vertices are emitted in a fixed order:
//
//	A, B          left stub (only when d != 0)
//	C0, C0', C1   apex, valley, apex, ... (n apexes, n-1 valleys)
//	D             right stub end (omitted when c == 0; D is then the last apex)
//	E, F          top-right and top-left closing vertices at y = h
//
// The resulting ring is counter-clockwise, so the right-hand normal of every
// edge points out of the material. The annotate package relies on this to
// place dimension lines outside the profile.
//
//	o, err := profile.Construct(profile.Params{
//	    Rise: 164.44, Run: 252.22, RightExcess: 30, LeftExcess: 70,
//	    Height: 250, Teeth: 10,
//	})
//
// # Degenerate Input
//
// Parameters that cannot produce a polygon (zero rise or run, a vanishing
// sin(angleB), a top edge at or below the apexes) are rejected with an error
// whose code is errors.ErrCodeDegenerate. Callers building a batch use that
// code to skip the profile and continue with the next one.
//
// # Tooth Policy
//
// Shop drawings sometimes count a missing stub as an extra tooth. Pass
// [WithToothPolicy]([ToothCompensate]) to add one tooth for each zero stub;
// the default [ToothNominal] generates exactly n teeth.
package profile
