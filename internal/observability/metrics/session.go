package metrics

import (
	"maps"
	"time"

	obserrors "github.com/vijayaragavaan2065/faculty-pulse-view/internal/observability/errors"
	"github.com/vijayaragavaan2065/faculty-pulse-view/internal/observability/statsd"
)

// Result constants for metric tagging.
const (
	ResultSuccess = "success"
	ResultError   = "error"
	ResultNoop    = "noop"
)

// Transition names emitted by the session core.
const (
	TransitionLogin     = "login"
	TransitionLogout    = "logout"
	TransitionRefresh   = "refresh"
	TransitionRehydrate = "rehydrate"
	TransitionExpire    = "expire"
)

// SessionMetric captures one session transition for metric emission.
type SessionMetric struct {
	Transition string
	Result     string
	Role       string
	Duration   time.Duration
	Err        error
}

// EmitSessionTransition emits standardised session transition metrics.
func EmitSessionTransition(sink statsd.Sink, in SessionMetric) {
	if sink == nil {
		return
	}

	tags := map[string]string{
		"transition": in.Transition,
		"result":     in.Result,
	}
	if in.Role != "" {
		tags["role"] = in.Role
	}
	if in.Err != nil && in.Result == ResultError {
		if class := obserrors.Classify(in.Err); class != "" {
			tags["error_class"] = class
		}
	}

	sink.Count("session."+in.Transition, 1, tags)

	if in.Duration > 0 {
		sink.Timing("session.duration", in.Duration, CloneTags(tags))
	}
}

// EmitSessionState sets the session.authenticated gauge: 1 with a role tag
// while signed in, 0 otherwise.
func EmitSessionState(sink statsd.Sink, authenticated bool, role string) {
	if sink == nil {
		return
	}
	if !authenticated {
		sink.Gauge("session.authenticated", 0, nil)
		return
	}
	var tags map[string]string
	if role != "" {
		tags = map[string]string{"role": role}
	}
	sink.Gauge("session.authenticated", 1, tags)
}

// ResultFor maps an operation error to a result tag.
func ResultFor(err error) string {
	if err != nil {
		return ResultError
	}
	return ResultSuccess
}

// CloneTags creates a shallow copy of a tag map.
func CloneTags(src map[string]string) map[string]string {
	if len(src) == 0 {
		return nil
	}
	return maps.Clone(src)
}
