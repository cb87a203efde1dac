// Package memory provides in-process stores for local runs and tests.
package memory
