package humanoid

import (
	"context"
	"time"
)

// ElementState describes the readiness an element must reach before a
// locate call reports it. The strings align with common automation
// terminology ("actionable" in the glossary sense).
type ElementState string

const (
	StatePresent   ElementState = "present"
	StateVisible   ElementState = "visible"
	StateClickable ElementState = "clickable"
)

// ElementHandle is an opaque reference to a located element, owned by the
// locator that produced it. The engine never inspects driver internals; it
// only reads the precomputed target point for pointer motion and passes the
// handle back to driver primitives.
type ElementHandle struct {
	// ID identifies the element within the owning driver session.
	ID string
	// Target is the suggested interaction point in viewport coordinates.
	Target Vector2D
}

// ControlKey constants for control characters used during typing.
// Standard ASCII control characters, translated by the Executor.
type ControlKey = string

const (
	KeyBackspace ControlKey = "\b"
	KeyEnter     ControlKey = "\r"
	KeyTab       ControlKey = "\t"
	KeyEscape    ControlKey = "\x1b"
)

// Locator resolves a selector against the live page. Implementations must
// be side effect free so the wait engine can invoke them repeatedly.
// A nil handle with a nil error means "not yet present".
type Locator interface {
	Locate(ctx context.Context, selector string, state ElementState) (*ElementHandle, error)
}

// Executor defines the contract for the underlying browser-control surface.
// The engine only sequences and paces calls to these primitives, never
// reimplements them. This interface is the cornerstone of the package's
// testability: tests substitute a recording mock for the CDP adapter.
type Executor interface {
	// Sleep pauses execution, respecting context cancellation.
	Sleep(ctx context.Context, d time.Duration) error

	// SendKey sends a single key (a character or a ControlKey) to the element.
	SendKey(ctx context.Context, handle *ElementHandle, key string) error

	// MovePointer moves the pointer to viewport coordinates.
	MovePointer(ctx context.Context, x, y float64) error

	// PressPointer presses the primary button at the current position.
	PressPointer(ctx context.Context, x, y float64) error

	// ReleasePointer releases the primary button at the current position.
	ReleasePointer(ctx context.Context, x, y float64) error

	// ScrollBy applies an incremental scroll delta.
	ScrollBy(ctx context.Context, dx, dy float64) error

	// TouchMove emits a touch-move event at viewport coordinates.
	TouchMove(ctx context.Context, x, y float64) error
}
