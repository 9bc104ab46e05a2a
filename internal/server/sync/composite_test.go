package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeExecute_AllStepsSucceed(t *testing.T) {
	var calls []string

	c := NewComposite(nil).
		Add(Step{Type: "a", Forward: func(ctx context.Context) (any, error) {
			calls = append(calls, "a")
			return "ra", nil
		}}).
		Add(Step{Type: "b", Forward: func(ctx context.Context) (any, error) {
			calls = append(calls, "b")
			return "rb", nil
		}})

	res := c.Execute(context.Background())

	require.True(t, res.OK)
	require.NoError(t, res.Err)
	assert.Equal(t, []string{"a", "b"}, calls)
	require.Len(t, res.Completed, 2)
	assert.Equal(t, "ra", res.Completed[0].Result)
	assert.Equal(t, "rb", res.Completed[1].Result)
}

func TestCompositeExecute_RollbackReverseOrder(t *testing.T) {
	var calls []string

	c := NewComposite(nil).
		Add(Step{
			Type:    "a",
			Forward: func(ctx context.Context) (any, error) { return "ra", nil },
			Backward: func(ctx context.Context, result any) error {
				calls = append(calls, "undo-a:"+result.(string))
				return nil
			},
		}).
		Add(Step{
			Type:    "b",
			Forward: func(ctx context.Context) (any, error) { return "rb", nil },
			Backward: func(ctx context.Context, result any) error {
				calls = append(calls, "undo-b:"+result.(string))
				return nil
			},
		}).
		Add(Step{
			Type:    "c",
			Forward: func(ctx context.Context) (any, error) { return nil, errors.New("boom") },
			Backward: func(ctx context.Context, result any) error {
				calls = append(calls, "undo-c")
				return nil
			},
		})

	res := c.Execute(context.Background())

	require.False(t, res.OK)
	require.Error(t, res.Err)
	assert.Contains(t, res.Err.Error(), "step c")
	// The failed step never ran to completion, so only a and b are undone,
	// most recent first, each receiving its own forward result.
	assert.Equal(t, []string{"undo-b:rb", "undo-a:ra"}, calls)
	require.Len(t, res.Completed, 2)
}

func TestCompositeExecute_RollbackErrorsDoNotCascade(t *testing.T) {
	var calls []string

	c := NewComposite(nil).
		Add(Step{
			Type:    "a",
			Forward: func(ctx context.Context) (any, error) { return nil, nil },
			Backward: func(ctx context.Context, result any) error {
				calls = append(calls, "undo-a")
				return nil
			},
		}).
		Add(Step{
			Type:    "b",
			Forward: func(ctx context.Context) (any, error) { return nil, nil },
			Backward: func(ctx context.Context, result any) error {
				calls = append(calls, "undo-b")
				return errors.New("rollback broke")
			},
		}).
		Add(Step{
			Type:    "c",
			Forward: func(ctx context.Context) (any, error) { return nil, errors.New("boom") },
		})

	res := c.Execute(context.Background())

	require.False(t, res.OK)
	// b's rollback error is logged and swallowed; a still gets undone.
	assert.Equal(t, []string{"undo-b", "undo-a"}, calls)
}

func TestCompositeExecute_NilBackwardSkipped(t *testing.T) {
	var undone []string

	c := NewComposite(nil).
		Add(Step{Type: "a", Forward: func(ctx context.Context) (any, error) { return nil, nil }}).
		Add(Step{
			Type:    "b",
			Forward: func(ctx context.Context) (any, error) { return nil, nil },
			Backward: func(ctx context.Context, result any) error {
				undone = append(undone, "b")
				return nil
			},
		}).
		Add(Step{Type: "c", Forward: func(ctx context.Context) (any, error) { return nil, errors.New("boom") }})

	res := c.Execute(context.Background())

	require.False(t, res.OK)
	assert.Equal(t, []string{"b"}, undone)
}

func TestCompositeExecute_StepTimeoutApplied(t *testing.T) {
	c := NewComposite(nil).WithStepTimeout(0).
		Add(Step{Type: "a", Forward: func(ctx context.Context) (any, error) {
			return nil, ctx.Err()
		}})

	res := c.Execute(context.Background())

	require.False(t, res.OK)
	assert.ErrorIs(t, res.Err, context.DeadlineExceeded)
}
