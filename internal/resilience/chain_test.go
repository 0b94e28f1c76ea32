package resilience

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counting(name string, calls map[string]int, v []int, err error) Strategy[[]int] {
	return Strategy[[]int]{
		Name: name,
		Run: func(context.Context) ([]int, error) {
			calls[name]++
			return v, err
		},
	}
}

func nonEmpty(v []int) bool { return len(v) > 0 }

func TestFallback_PrimarySucceeds(t *testing.T) {
	t.Parallel()
	calls := map[string]int{}

	res := Fallback[[]int]{
		Strategies: []Strategy[[]int]{
			counting("primary", calls, []int{1, 2}, nil),
			counting("secondary", calls, []int{3}, nil),
		},
		Accept: nonEmpty,
	}.Run(context.Background())

	assert.Equal(t, "primary", res.Strategy)
	assert.Equal(t, []int{1, 2}, res.Value)
	assert.False(t, res.Exhausted())
	assert.Equal(t, 0, calls["secondary"])
}

func TestFallback_RejectedValueRunsNextOnce(t *testing.T) {
	t.Parallel()
	calls := map[string]int{}
	var handovers []string

	res := Fallback[[]int]{
		Strategies: []Strategy[[]int]{
			counting("primary", calls, nil, nil),
			counting("secondary", calls, []int{7}, nil),
		},
		Accept: nonEmpty,
		OnFallback: func(from, to string, _ error) {
			handovers = append(handovers, from+"->"+to)
		},
	}.Run(context.Background())

	assert.Equal(t, "secondary", res.Strategy)
	assert.Equal(t, []int{7}, res.Value)
	assert.Equal(t, 1, calls["primary"])
	assert.Equal(t, 1, calls["secondary"])
	assert.Equal(t, []string{"primary->secondary"}, handovers)
	assert.Equal(t, []string{"primary", "secondary"}, res.Attempted)
}

func TestFallback_Exhausted(t *testing.T) {
	t.Parallel()
	calls := map[string]int{}

	res := Fallback[[]int]{
		Strategies: []Strategy[[]int]{
			counting("primary", calls, nil, nil),
			counting("secondary", calls, []int{}, nil),
		},
		Accept: nonEmpty,
	}.Run(context.Background())

	assert.True(t, res.Exhausted())
	assert.Empty(t, res.Value)
	assert.NoError(t, res.Err)
	assert.Equal(t, 1, calls["secondary"])
}

func TestFallback_HandoverFilter(t *testing.T) {
	t.Parallel()
	errUnavailable := errors.New("unavailable")
	errAuth := errors.New("auth")
	onlyUnavailable := func(err error) bool { return errors.Is(err, errUnavailable) }

	calls := map[string]int{}
	res := Fallback[[]int]{
		Strategies: []Strategy[[]int]{
			counting("active", calls, nil, errAuth),
			counting("fallback", calls, []int{1}, nil),
		},
		Handover: onlyUnavailable,
	}.Run(context.Background())

	require.ErrorIs(t, res.Err, errAuth)
	assert.True(t, res.Exhausted())
	assert.Equal(t, 0, calls["fallback"])

	calls = map[string]int{}
	res = Fallback[[]int]{
		Strategies: []Strategy[[]int]{
			counting("active", calls, nil, errUnavailable),
			counting("fallback", calls, []int{1}, nil),
		},
		Handover: onlyUnavailable,
	}.Run(context.Background())

	require.NoError(t, res.Err)
	assert.Equal(t, "fallback", res.Strategy)
	assert.Equal(t, 1, calls["fallback"])
}

func TestFallback_LastErrorKeptWhenExhausted(t *testing.T) {
	t.Parallel()
	first, second := errors.New("first"), errors.New("second")
	calls := map[string]int{}

	res := Fallback[[]int]{
		Strategies: []Strategy[[]int]{
			counting("a", calls, nil, first),
			counting("b", calls, nil, second),
		},
	}.Run(context.Background())

	assert.True(t, res.Exhausted())
	assert.ErrorIs(t, res.Err, second)
}

func TestFallback_StopsOnCanceledContext(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	calls := map[string]int{}

	res := Fallback[[]int]{
		Strategies: []Strategy[[]int]{
			{Name: "a", Run: func(context.Context) ([]int, error) {
				calls["a"]++
				cancel()
				return nil, nil
			}},
			counting("b", calls, []int{1}, nil),
		},
		Accept: nonEmpty,
	}.Run(ctx)

	assert.ErrorIs(t, res.Err, context.Canceled)
	assert.Equal(t, 0, calls["b"])
}
