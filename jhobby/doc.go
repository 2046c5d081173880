// Package jhobby computes Hobby splines through knots in the plane. The
// cross sections of revolution shapes are given as closed Hobby splines.
/*

Spline interpolation by Hobby's algorithm results in aesthetically pleasing
curves superior to "normal" spline interpolation. The primary source of
information for "Hobby-splines" is:

   Smooth, Easy to Compute Interpolating Splines -- John D. Hobby
   Computer Science Dept. Stanford University
   Report No. STAN-CS-85-1047, Jan 1985

The practical algorithm is explained in

   Computers & Typesetting, Vol. B & D.

Usage

Clients build a skeleton path of knots, optionally with tensions and fixed
directions, then solve it:

   path := jhobby.Open().Knot(P(0,0)).Knot(P(2,3)).Tension(1.4, 1.4).Knot(P(5,3)).
      DirKnot(P(3,-1), P(-1,0)).Cycle()
   spline, err := jhobby.Solve(path)

Solving sets up one linear equation per knot for the departure angles
(mock curvature continuity, or a boundary condition) and hands the system
to the linear equation solver of package polyn. The resulting Spline is a
chain of cubic Bézier segments; Spline.Point evaluates it with a single
parameter running once around the curve.

A section in the context of DNA nanostructures is closed: helices sit on
the boundary of the section at equal arc-length distances, see package
curve.

BSD License

Copyright (c) Norbert Pillmayer

All rights reserved.

Please refer to the license file for more information.
*/
package jhobby
