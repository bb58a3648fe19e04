package cdn

// State is the load state of an image.
type State int

const (
	StateLoading State = iota
	StateLoaded
	StateError
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateLoaded:
		return "loaded"
	case StateError:
		return "error"
	default:
		return "unknown"
	}
}

// Loader tracks which URL an image should be loaded from. It starts at the
// size-optimised variant and on each failure falls back first to the
// de-suffixed URL, then to the original src, then gives up.
//
// Loader is not safe for concurrent use.
type Loader struct {
	original string
	current  string
	state    State
	tried    map[string]struct{}

	OnLoad  func()
	OnError func()
}

// NewLoader returns a loader for src displayed at size.
func NewLoader(src, size string) *Loader {
	first := Optimize(src, size)
	return &Loader{
		original: src,
		current:  first,
		state:    StateLoading,
		tried:    map[string]struct{}{first: {}},
	}
}

// Src is the URL to load next.
func (l *Loader) Src() string { return l.current }

// Original is the src the loader was created with.
func (l *Loader) Original() string { return l.original }

// State returns the current state.
func (l *Loader) State() State { return l.state }

// Fail records that Src failed to load and advances to the next candidate,
// or to StateError when none remain. Calls after a terminal state are no-ops.
func (l *Loader) Fail() State {
	if l.state != StateLoading {
		return l.state
	}
	if HasSizeSuffix(l.current) {
		if next := Deoptimize(l.current); l.advance(next) {
			return l.state
		}
	}
	if l.current != l.original && l.advance(l.original) {
		return l.state
	}
	l.state = StateError
	if l.OnError != nil {
		l.OnError()
	}
	return l.state
}

// Succeed records that Src loaded.
func (l *Loader) Succeed() State {
	if l.state != StateLoading {
		return l.state
	}
	l.state = StateLoaded
	if l.OnLoad != nil {
		l.OnLoad()
	}
	return l.state
}

func (l *Loader) advance(next string) bool {
	if next == "" || next == l.current {
		return false
	}
	if _, seen := l.tried[next]; seen {
		return false
	}
	l.tried[next] = struct{}{}
	l.current = next
	return true
}

// Chain lists every URL a loader for src would try, in order, assuming each
// one fails. The browser-side fallback script walks this list.
func Chain(src, size string) []string {
	l := NewLoader(src, size)
	chain := []string{l.Src()}
	for l.Fail() == StateLoading {
		chain = append(chain, l.Src())
	}
	return chain
}
