//go:build !cgo

package window

import (
	"context"
	"errors"
)

// Run is unavailable without cgo.
func Run(_ context.Context, _ Runner, _ Options) error {
	return errors.New("window mode requires cgo (build/run with CGO_ENABLED=1)")
}
