//go:build unix

package app

import (
	"os"
	"syscall"
)

func terminateSignals() []os.Signal { return []os.Signal{os.Interrupt, syscall.SIGTERM} }

// A closed terminal is the closest thing to a hidden page.
func hangupSignals() []os.Signal { return []os.Signal{syscall.SIGHUP} }
