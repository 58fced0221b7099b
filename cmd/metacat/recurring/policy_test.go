package recurring_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SMI/metacat/cmd/metacat/recurring"
	"github.com/SMI/metacat/pkg/loop"
)

func TestParsePolicy(t *testing.T) {
	for name, testcase := range map[string]struct {
		when        string
		then        recurring.Policy
		expectError bool
	}{
		"once means once": {
			when: "once",
			then: recurring.Once(),
		},
		"once:param can not be parsed (it should not take any parameters)": {
			when:        "once:param",
			expectError: true,
		},
		"forever means forever": {
			when: "forever",
			then: recurring.Forever(0),
		},
		"forever:3s means forever with cooldown 3 seconds": {
			when: "forever:3s",
			then: recurring.Forever(3 * time.Second),
		},
		"forever:someday can not be parsed (someday is not time.Duration)": {
			when:        "forever:someday",
			expectError: true,
		},
		"empty string can not be parsed (it is not policy)": {
			when:        "",
			expectError: true,
		},
		"unknown policy can not be parsed (it is not policy)": {
			when:        "???????unknown??????",
			expectError: true,
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, expected := testcase.when, testcase.then
			actual, err := recurring.ParsePolicy(when)

			if testcase.expectError {
				if err == nil {
					t.Fatal("expected error does not occured")
				}
				return
			}

			if err != nil {
				t.Fatal(err)
			}

			if actual != expected {
				t.Errorf("unmatch: (actual, expected) = (%v, %v)", actual, expected)
			}
		})
	}
}

func TestApplied(t *testing.T) {
	t.Run("once breaks after a single pass", func(t *testing.T) {
		passes := 0
		task := recurring.Task(func(context.Context) error {
			passes += 1
			return nil
		})

		_, err := loop.Start(
			context.Background(), struct{}{}, task.Applied(recurring.Once()),
		)
		if err != nil {
			t.Fatal(err)
		}
		if passes != 1 {
			t.Errorf("task runs %d times (expected: 1)", passes)
		}
	})

	t.Run("forever breaks with the error of a failed pass", func(t *testing.T) {
		expectedErr := errors.New("fake error")
		passes := 0
		task := recurring.Task(func(context.Context) error {
			passes += 1
			if 3 <= passes {
				return expectedErr
			}
			return nil
		})

		_, err := loop.Start(
			context.Background(), struct{}{}, task.Applied(recurring.Forever(0)),
		)
		if !errors.Is(err, expectedErr) {
			t.Errorf("unexpected error: %v", err)
		}
		if passes != 3 {
			t.Errorf("task runs %d times (expected: 3)", passes)
		}
	})
}
