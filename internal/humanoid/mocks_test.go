package humanoid

import (
	"context"
	"sync"
	"time"
)

// mockExecutor records every driver primitive and advances a fake clock on
// Sleep, so timing-sensitive tests run without wall time.
type mockExecutor struct {
	mu  sync.Mutex
	now time.Time

	sleeps    []time.Duration
	keys      []string
	moves     []Vector2D
	presses   []Vector2D
	releases  []Vector2D
	scrolls   []Vector2D
	touches   []Vector2D
	touchEnds int

	// failOn maps a primitive name to the (1-based) call number that
	// should fail with failErr. Zero means never.
	failOn  map[string]int
	failErr error
}

func newMockExecutor() *mockExecutor {
	return &mockExecutor{
		now:    time.Unix(1700000000, 0),
		failOn: map[string]int{},
	}
}

func (m *mockExecutor) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

func (m *mockExecutor) shouldFail(op string, count int) error {
	if n, ok := m.failOn[op]; ok && n == count {
		return m.failErr
	}
	return nil
}

func (m *mockExecutor) Sleep(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = m.now.Add(d)
	m.sleeps = append(m.sleeps, d)
	return nil
}

func (m *mockExecutor) SendKey(ctx context.Context, handle *ElementHandle, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys = append(m.keys, key)
	return m.shouldFail("sendKey", len(m.keys))
}

func (m *mockExecutor) MovePointer(ctx context.Context, x, y float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.moves = append(m.moves, Vector2D{X: x, Y: y})
	return m.shouldFail("movePointer", len(m.moves))
}

func (m *mockExecutor) PressPointer(ctx context.Context, x, y float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.presses = append(m.presses, Vector2D{X: x, Y: y})
	return m.shouldFail("pressPointer", len(m.presses))
}

func (m *mockExecutor) ReleasePointer(ctx context.Context, x, y float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.releases = append(m.releases, Vector2D{X: x, Y: y})
	return m.shouldFail("releasePointer", len(m.releases))
}

func (m *mockExecutor) ScrollBy(ctx context.Context, dx, dy float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scrolls = append(m.scrolls, Vector2D{X: dx, Y: dy})
	return m.shouldFail("scrollBy", len(m.scrolls))
}

func (m *mockExecutor) TouchMove(ctx context.Context, x, y float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touches = append(m.touches, Vector2D{X: x, Y: y})
	return m.shouldFail("touchMove", len(m.touches))
}

func (m *mockExecutor) EndTouch(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.touchEnds++
	return nil
}

// mockLocator scripts when an element becomes available.
type mockLocator struct {
	mu    sync.Mutex
	calls int

	// resolveOnCall is the (1-based) poll at which the handle appears.
	// 0 resolves immediately; a negative value never resolves.
	resolveOnCall int
	handle        *ElementHandle
	err           error

	// visibleOnCall gates StateVisible separately when positive, for
	// scroll-into-view tests.
	visibleOnCall int
	visibleCalls  int
}

func (m *mockLocator) Locate(ctx context.Context, selector string, state ElementState) (*ElementHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	if state == StateVisible && m.visibleOnCall > 0 {
		m.visibleCalls++
		if m.visibleCalls < m.visibleOnCall {
			return nil, nil
		}
		return m.handle, nil
	}
	if m.resolveOnCall < 0 {
		return nil, nil
	}
	if m.resolveOnCall > 0 && m.calls < m.resolveOnCall {
		return nil, nil
	}
	return m.handle, nil
}

func (m *mockLocator) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// recordingSink captures telemetry records for assertions.
type recordingSink struct {
	mu      sync.Mutex
	records []ActionResult
}

func (s *recordingSink) Record(r ActionResult) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

func (s *recordingSink) all() []ActionResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]ActionResult(nil), s.records...)
}
