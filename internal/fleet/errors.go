package fleet

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for the operation taxonomy. Callers classify with
// errors.Is and wrap with %w to add context.
var (
	// ErrNotFound reports an unknown peer name.
	ErrNotFound = errors.New("not found")

	// ErrDuplicate reports a peer name or IP collision.
	ErrDuplicate = errors.New("already exists")

	// ErrExhausted reports that the VPN network has no free host address.
	ErrExhausted = errors.New("no free address in network")

	// ErrPermission reports a privileged operation attempted without
	// elevation. Nothing is touched when this is returned.
	ErrPermission = errors.New("permission denied")

	// ErrExternalTool reports a missing collaborator binary or a non-zero
	// exit from one.
	ErrExternalTool = errors.New("external tool failure")

	// ErrDetection reports that the WAN interface could not be derived
	// from the default route.
	ErrDetection = errors.New("detection failed")
)

// ValidationError aggregates every problem found in a state so the operator
// can fix them in one pass instead of replaying the command per issue.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("state invalid, refusing to apply:\n- %s",
		strings.Join(e.Problems, "\n- "))
}
