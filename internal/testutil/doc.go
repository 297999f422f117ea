// Package testutil builds throwaway sites on disk and asserts on their
// generated output.
package testutil
