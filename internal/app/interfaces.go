//go:generate mockgen -source=interfaces.go -destination=interface_mock.go -package=app
package app

import "io"

type (
	// StreamOpener opens the recorded event stream named on the command line.
	StreamOpener interface {
		Open(path string) (io.ReadCloser, error)
	}
)
