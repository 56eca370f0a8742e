//go:build !windows

package picker_test

import (
	"context"
	"testing"
	"time"

	"github.com/lambda-feedback/watchdeck/internal/picker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func shPicker(script string) picker.Picker {
	return picker.New(picker.Config{
		Command: "sh",
		Args:    []string{"-c", script},
	}, zap.NewNop())
}

func TestCommandPicker_ReturnsPrintedPath(t *testing.T) {
	p := shPicker(`echo "/tmp/with space"`)

	path, ok, err := p.Pick(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/tmp/with space", path)
}

func TestCommandPicker_ExitOne_IsCancel(t *testing.T) {
	p := shPicker(`exit 1`)

	path, ok, err := p.Pick(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
	assert.Empty(t, path)
}

func TestCommandPicker_EmptyOutput_IsCancel(t *testing.T) {
	p := shPicker(`echo`)

	_, ok, err := p.Pick(context.Background())
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestCommandPicker_OtherFailure_IsError(t *testing.T) {
	p := shPicker(`exit 3`)

	_, ok, err := p.Pick(context.Background())
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestCommandPicker_MissingCommand_IsUnavailable(t *testing.T) {
	p := picker.New(picker.Config{Command: "watchdeck-no-such-dialog"}, zap.NewNop())

	_, _, err := p.Pick(context.Background())
	assert.ErrorIs(t, err, picker.ErrPickerUnavailable)
}

func TestCommandPicker_ContextCancelled(t *testing.T) {
	p := shPicker(`sleep 5`)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, ok, err := p.Pick(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.False(t, ok)
}

func TestStaticPicker(t *testing.T) {
	p := picker.StaticPicker{Path: "/tmp/x", OK: true}

	path, ok, err := p.Pick(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "/tmp/x", path)
}
