// Package relax builds linear relaxations of bilinear products z = x*y
// inside a host mixed integer model.
//
// Two constructions are provided. McCormick adds the four inequality convex
// envelope of the product over the box given by the bounds of x and y:
//
//	z >= xlb*y + ylb*x - xlb*ylb
//	z >= xub*y + yub*x - xub*yub
//	z <= xlb*y + yub*x - xlb*yub
//	z <= xub*y + ylb*x - xub*ylb
//
// Incremental partitions the box and encodes a piecewise relaxation over
// the cells with segment weights delta_1, delta_2, delta_3 and binary
// selectors z_bin; finer partitions give tighter relaxations and one
// segment degenerates to the McCormick region exactly.
//
// Builders validate all inputs before touching the host model: on error the
// model is exactly as it was. The returned FormulationInfo names every
// variable and constraint group added, so a caller can remove a formulation
// when it re-partitions.
package relax
