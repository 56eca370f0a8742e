package worker

import (
	"context"
	"io"
	"time"

	"github.com/stretchr/testify/mock"
)

// MockHandle is a testify mock of Handle.
type MockHandle struct {
	mock.Mock
}

var _ Handle = (*MockHandle)(nil)

// NewMockHandle creates a MockHandle whose expectations are asserted
// when the test finishes.
func NewMockHandle(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockHandle {
	m := &MockHandle{}
	m.Mock.Test(t)

	t.Cleanup(func() { m.AssertExpectations(t) })

	return m
}

type MockHandleExpecter struct {
	mock *mock.Mock
}

func (m *MockHandle) EXPECT() *MockHandleExpecter {
	return &MockHandleExpecter{mock: &m.Mock}
}

func (m *MockHandle) Pid() int {
	return m.Called().Int(0)
}

func (e *MockHandleExpecter) Pid() *mock.Call {
	return e.mock.On("Pid")
}

func (m *MockHandle) Write(ctx context.Context, p []byte) (int, error) {
	args := m.Called(ctx, p)

	if fn, ok := args.Get(0).(func(context.Context, []byte) (int, error)); ok {
		return fn(ctx, p)
	}

	return args.Int(0), args.Error(1)
}

func (e *MockHandleExpecter) Write(ctx, p any) *mock.Call {
	return e.mock.On("Write", ctx, p)
}

func (m *MockHandle) CloseInput() error {
	return m.Called().Error(0)
}

func (e *MockHandleExpecter) CloseInput() *mock.Call {
	return e.mock.On("CloseInput")
}

func (m *MockHandle) Stdout() io.Reader {
	r, _ := m.Called().Get(0).(io.Reader)
	return r
}

func (e *MockHandleExpecter) Stdout() *mock.Call {
	return e.mock.On("Stdout")
}

func (m *MockHandle) Stderr() io.Reader {
	r, _ := m.Called().Get(0).(io.Reader)
	return r
}

func (e *MockHandleExpecter) Stderr() *mock.Call {
	return e.mock.On("Stderr")
}

func (m *MockHandle) Done() <-chan struct{} {
	switch ch := m.Called().Get(0).(type) {
	case chan struct{}:
		return ch
	case <-chan struct{}:
		return ch
	default:
		return nil
	}
}

func (e *MockHandleExpecter) Done() *mock.Call {
	return e.mock.On("Done")
}

func (m *MockHandle) ExitEvent() ExitEvent {
	evt, _ := m.Called().Get(0).(ExitEvent)
	return evt
}

func (e *MockHandleExpecter) ExitEvent() *mock.Call {
	return e.mock.On("ExitEvent")
}

func (m *MockHandle) Terminate(timeout time.Duration) error {
	return m.Called(timeout).Error(0)
}

func (e *MockHandleExpecter) Terminate(timeout any) *mock.Call {
	return e.mock.On("Terminate", timeout)
}

func (m *MockHandle) Kill(timeout time.Duration) error {
	return m.Called(timeout).Error(0)
}

func (e *MockHandleExpecter) Kill(timeout any) *mock.Call {
	return e.mock.On("Kill", timeout)
}

func (m *MockHandle) Close() error {
	return m.Called().Error(0)
}

func (e *MockHandleExpecter) Close() *mock.Call {
	return e.mock.On("Close")
}
