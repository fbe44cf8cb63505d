package scenario

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xkilldash9x/marionette/internal/humanoid"
)

type call struct {
	op       string
	selector string
	text     string
	url      string
}

// recorderActor captures dispatched operations and can fail a named op.
type recorderActor struct {
	calls  []call
	failOp string
	err    error
}

func (r *recorderActor) record(op, selector, text string) (humanoid.ActionResult, error) {
	r.calls = append(r.calls, call{op: op, selector: selector, text: text})
	if op == r.failOp {
		return humanoid.ActionResult{Err: r.err}, r.err
	}
	return humanoid.ActionResult{}, nil
}

func (r *recorderActor) Type(ctx context.Context, selector, text string, profile humanoid.TimingProfile) (humanoid.ActionResult, error) {
	return r.record("type", selector, text)
}

func (r *recorderActor) Click(ctx context.Context, selector string, profile humanoid.TimingProfile, opts ...humanoid.ClickOption) (humanoid.ActionResult, error) {
	return r.record("click", selector, "")
}

func (r *recorderActor) ScrollBy(ctx context.Context, delta humanoid.Vector2D, profile humanoid.TimingProfile) (humanoid.ActionResult, error) {
	return r.record("scroll", "", "")
}

func (r *recorderActor) ScrollIntoView(ctx context.Context, selector string, profile humanoid.TimingProfile) (humanoid.ActionResult, error) {
	return r.record("scroll_into_view", selector, "")
}

func (r *recorderActor) Hover(ctx context.Context, selector string, dwell humanoid.TimingProfile) (humanoid.ActionResult, error) {
	return r.record("hover", selector, "")
}

func (r *recorderActor) TouchGesture(ctx context.Context, points []humanoid.Vector2D, profile humanoid.TimingProfile) (humanoid.ActionResult, error) {
	return r.record("touch", "", "")
}

func (r *recorderActor) CognitivePause(ctx context.Context, mean, stdDev time.Duration) error {
	_, err := r.record("pause", "", "")
	return err
}

type recorderNav struct {
	urls []string
	err  error
}

func (n *recorderNav) Navigate(url string) error {
	n.urls = append(n.urls, url)
	return n.err
}

func writeScenario(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleScenario = `
name: login flow
steps:
  - op: navigate
    url: https://example.test/login
  - op: type
    selector: "#user"
    text: alice
  - op: pause
    dwell: very_short
  - op: click
    selector: "#submit"
  - op: scroll
    dy: 400
  - op: hover
    selector: "#menu"
  - op: touch
    points: [[100, 500], [100, 200]]
`

func TestLoadParsesScenario(t *testing.T) {
	path := writeScenario(t, sampleScenario)

	sc, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "login flow", sc.Name)
	require.Len(t, sc.Steps, 7)
	assert.Equal(t, "navigate", sc.Steps[0].Op)
	assert.Equal(t, "#user", sc.Steps[1].Selector)
	assert.Equal(t, [][2]float64{{100, 500}, {100, 200}}, sc.Steps[6].Points)
}

func TestLoadRejectsBadScenarios(t *testing.T) {
	testCases := []struct {
		name    string
		content string
	}{
		{"empty steps", "name: empty\nsteps: []\n"},
		{"unknown op", "steps:\n  - op: teleport\n"},
		{"navigate without url", "steps:\n  - op: navigate\n"},
		{"type without text", "steps:\n  - op: type\n    selector: \"#x\"\n"},
		{"click without selector", "steps:\n  - op: click\n"},
		{"scroll without delta", "steps:\n  - op: scroll\n"},
		{"touch without points", "steps:\n  - op: touch\n"},
		{"not yaml", "{{{"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Load(writeScenario(t, tc.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRunDispatchesInOrder(t *testing.T) {
	sc, err := Load(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	actor := &recorderActor{}
	nav := &recorderNav{}
	runner := NewRunner(actor, nav, humanoid.DefaultConfig(), nil)

	require.NoError(t, runner.Run(context.Background(), sc))

	assert.Equal(t, []string{"https://example.test/login"}, nav.urls)
	ops := make([]string, len(actor.calls))
	for i, c := range actor.calls {
		ops[i] = c.op
	}
	assert.Equal(t, []string{"type", "pause", "click", "scroll", "hover", "touch"}, ops)
	assert.Equal(t, "alice", actor.calls[0].text)
}

func TestRunStopsAtFirstFailure(t *testing.T) {
	sc, err := Load(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	actor := &recorderActor{failOp: "click", err: errors.New("element vanished")}
	runner := NewRunner(actor, &recorderNav{}, humanoid.DefaultConfig(), nil)

	err = runner.Run(context.Background(), sc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "step 4 (click)")
	assert.ErrorIs(t, err, actor.err)

	last := actor.calls[len(actor.calls)-1]
	assert.Equal(t, "click", last.op, "nothing runs past the failed step")
}

func TestRunHonorsContextCancellation(t *testing.T) {
	sc, err := Load(writeScenario(t, sampleScenario))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	actor := &recorderActor{}
	runner := NewRunner(actor, &recorderNav{}, humanoid.DefaultConfig(), nil)
	require.ErrorIs(t, runner.Run(ctx, sc), context.Canceled)
	assert.Empty(t, actor.calls)
}
