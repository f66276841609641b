// Package testutil holds in-memory stand-ins for tracks, sinks and UI controls
// shared by the package tests.
package testutil
