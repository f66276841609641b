//go:build !unix

package app

import "os"

func terminateSignals() []os.Signal { return []os.Signal{os.Interrupt} }

func hangupSignals() []os.Signal { return nil }
