// Package infra contains technical adapters such as the branch-and-bound
// backend, metrics exporters and run history stores. These packages should
// depend only on the interfaces defined in the core packages.
package infra
