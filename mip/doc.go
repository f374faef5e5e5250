// Package mip provides an in memory representation of mixed integer linear
// programs: typed variable and constraint handles, sparse rows stored in
// compressed form, bound tracking, feasibility evaluation and a compact
// binary serialization.
//
// A Model is append mostly. Removing a variable or a constraint tombstones
// it; Compact reclaims the space and invalidates outstanding handles.
// Construction is not safe for concurrent use; read only evaluation of a
// built model is.
package mip
