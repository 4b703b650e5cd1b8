// Package mip defines the contract between model builders and mixed-integer
// solvers.
//
// A Model collects variables, linear constraints, indicator constraints, one
// objective and named KPI expressions. Builders only talk to Model; a Solver
// implementation (see infra/solver) turns a Model into a Solution. Models are
// plain values with no process-wide state, so independent models can be built
// and solved concurrently.
package mip
