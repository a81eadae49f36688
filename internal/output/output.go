package output

import (
	"context"

	"github.com/crimson-sun/aspectflow/internal/model"
)

// Output defines the interface for entity sequence destinations.
type Output interface {
	Write(ctx context.Context, seq model.EntitySequence) error
	Close() error
}

// Aborter is implemented by outputs that hold results until Close and can
// release them without committing anything.
type Aborter interface {
	Abort() error
}

// Abort discards whatever out has not yet delivered and releases it. Outputs
// without an Abort method are closed instead, since what they wrote has
// already left the process.
func Abort(out Output) error {
	if a, ok := out.(Aborter); ok {
		return a.Abort()
	}
	return out.Close()
}
