package recurring

import (
	"fmt"
	"strings"
	"time"

	"github.com/SMI/metacat/pkg/loop"
)

func ParsePolicy(s string) (Policy, error) {
	typ, param, ok := strings.Cut(s, ":")
	switch typ {
	case "once":
		if ok {
			return nil, fmt.Errorf("once policy does not take parameters: %s", s)
		}
		return Once(), nil
	case "forever":
		if !ok || param == "" {
			return Forever(0), nil
		}

		cooldown, err := time.ParseDuration(param)
		if err != nil {
			return nil, fmt.Errorf(`failed to parse: %s as "forever:COOLDOWN": %w`, s, err)
		}
		return Forever(cooldown), nil
	}
	return nil, fmt.Errorf("unknown policy name: %s (should be one of -- once|forever)", typ)
}

// Policy for task rerun behavior.
// How the policy behaves depends on the implementation of Next() method.
type Policy interface {
	Next(err error) loop.Next
	String() string
}

// Run a single pass and stop, with its error if any.
func Once() Policy {
	return once
}

type oncePolicy struct{}

func (oncePolicy) String() string {
	return "once"
}

func (oncePolicy) Next(err error) loop.Next {
	return loop.Break(err)
}

var once = oncePolicy{} // singleton

// Rerun passes until error, waiting cooldown between them.
func Forever(cooldown time.Duration) Policy {
	return forever(cooldown)
}

type forever time.Duration

func (f forever) String() string {
	return fmt.Sprintf("forever:%s", time.Duration(f).String())
}

func (f forever) Next(err error) loop.Next {
	if err != nil {
		return loop.Break(err)
	}
	return loop.Continue(time.Duration(f))
}
