package http

import (
	"sort"
	"strings"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
	"github.com/fabriziosalmi/nexus-taskqueue/pkg/service"
	"github.com/pkg/errors"
)

// TaskBuilder validates the submitted params and returns a runnable task
// body. Builders run on the request path, so validation errors surface as
// 400s before anything is enqueued.
type TaskBuilder func(params models.Params) (service.TaskFunc, error)

// Registry maps the task kinds accepted by POST /tasks onto builders.
type Registry struct {
	builders map[string]TaskBuilder
}

func NewRegistry() *Registry {
	return &Registry{builders: make(map[string]TaskBuilder)}
}

// Register adds a kind. Registering an existing kind replaces its builder.
func (r *Registry) Register(kind string, builder TaskBuilder) {
	r.builders[kind] = builder
}

// Kinds lists the registered kinds in sorted order.
func (r *Registry) Kinds() []string {
	kinds := make([]string, 0, len(r.builders))
	for kind := range r.builders {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}

// Build resolves kind and invokes its builder with the given params.
func (r *Registry) Build(kind string, params models.Params) (service.TaskFunc, error) {
	builder, ok := r.builders[kind]
	if !ok {
		return nil, errors.Errorf("unknown task kind %q, registered kinds: %s", kind, strings.Join(r.Kinds(), ", "))
	}
	return builder(params)
}
