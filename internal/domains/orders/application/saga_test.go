package application

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSaga_CompensatesCompletedStepsInReverse(t *testing.T) {
	var trail []string
	step := func(name string, fail bool) Step {
		return funcStep{
			name: name,
			execute: func(context.Context) error {
				if fail {
					return errors.New(name + " failed")
				}
				trail = append(trail, "exec:"+name)
				return nil
			},
			compensate: func(context.Context) error {
				trail = append(trail, "undo:"+name)
				return nil
			},
		}
	}
	s := &saga{
		steps:  []Step{step("promo", false), step("stock", false), step("persist", true)},
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	err := s.run(context.Background())
	assert.EqualError(t, err, "persist failed")
	assert.Equal(t, []string{"exec:promo", "exec:stock", "undo:stock", "undo:promo"}, trail)
}
