package http

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/fabriziosalmi/nexus-taskqueue/pkg/models"
	"github.com/fabriziosalmi/nexus-taskqueue/pkg/service"
	"github.com/pkg/errors"
)

// NewBuiltinRegistry returns a registry preloaded with the stock workloads.
// They are deliberately simple: each one sleeps, burns CPU, simulates IO or
// echoes its input while honouring cancellation and reporting progress.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	r.Register("sleep", buildSleepTask)
	r.Register("cpu_intensive", buildCPUTask)
	r.Register("io_intensive", buildIOTask)
	r.Register("custom", buildCustomTask)
	return r
}

// floatParam reads a numeric parameter, tolerating the types JSON decoding
// can produce for numbers.
func floatParam(params models.Params, key string, def float64) (float64, error) {
	v, ok := params[key]
	if !ok || v == nil {
		return def, nil
	}
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case int64:
		return float64(n), nil
	case json.Number:
		return n.Float64()
	default:
		return 0, errors.Errorf("parameter %q must be a number", key)
	}
}

func buildSleepTask(params models.Params) (service.TaskFunc, error) {
	seconds, err := floatParam(params, "duration_seconds", 1)
	if err != nil {
		return nil, err
	}
	if seconds <= 0 || seconds > 3600 {
		return nil, errors.New("duration_seconds must be between 0 and 3600")
	}
	total := time.Duration(seconds * float64(time.Second))

	return func(ctx context.Context, tc service.TaskContext) (service.TaskResult, error) {
		const steps = 20
		step := total / steps
		for i := 1; i <= steps; i++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(step):
			}
			tc.Progress.Update(100*float64(i)/steps, fmt.Sprintf("slept %s of %s", time.Duration(i)*step, total))
		}
		return map[string]interface{}{"slept_seconds": seconds}, nil
	}, nil
}

func buildCPUTask(params models.Params) (service.TaskFunc, error) {
	iterations, err := floatParam(params, "iterations", 1_000_000)
	if err != nil {
		return nil, err
	}
	if iterations < 1 || iterations > 1_000_000_000 {
		return nil, errors.New("iterations must be between 1 and 1000000000")
	}
	n := int(iterations)

	return func(ctx context.Context, tc service.TaskContext) (service.TaskResult, error) {
		var sum float64
		checkEvery := n/100 + 1
		for i := 0; i < n; i++ {
			sum += math.Sqrt(float64(i))
			if i%checkEvery == 0 {
				if err := ctx.Err(); err != nil {
					return nil, err
				}
				tc.Progress.Update(100*float64(i)/float64(n), "")
			}
		}
		return map[string]interface{}{"iterations": n, "checksum": sum}, nil
	}, nil
}

func buildIOTask(params models.Params) (service.TaskFunc, error) {
	steps, err := floatParam(params, "steps", 10)
	if err != nil {
		return nil, err
	}
	if steps < 1 || steps > 1000 {
		return nil, errors.New("steps must be between 1 and 1000")
	}
	delayMS, err := floatParam(params, "step_delay_ms", 100)
	if err != nil {
		return nil, err
	}
	if delayMS < 0 || delayMS > 60_000 {
		return nil, errors.New("step_delay_ms must be between 0 and 60000")
	}
	count := int(steps)
	delay := time.Duration(delayMS * float64(time.Millisecond))

	return func(ctx context.Context, tc service.TaskContext) (service.TaskResult, error) {
		for i := 1; i <= count; i++ {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
			tc.Progress.Update(100*float64(i)/float64(count), fmt.Sprintf("completed io step %d/%d", i, count))
		}
		return map[string]interface{}{"steps": count}, nil
	}, nil
}

// buildCustomTask echoes the caller-supplied data back as the task result,
// preserving its submitted type.
func buildCustomTask(params models.Params) (service.TaskFunc, error) {
	data := params["data"]

	return func(ctx context.Context, tc service.TaskContext) (service.TaskResult, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tc.Progress.Update(100, "echoed custom data")
		return map[string]interface{}{"data": data}, nil
	}, nil
}
