// Package kvmock provides a github.com/golang/mock-style mock of
// kv.Backend, for tests that need to force a specific backend error
// (as opposed to memkv.Faulty, which only rejects whole batch writes
// after a set number of successful ones, for atomicity testing). It is
// hand-written in
// the shape mockgen would generate for the interface, since this
// module does not invoke code generation as part of its build.
package kvmock

import (
	"context"
	"reflect"

	"github.com/golang/mock/gomock"

	"github.com/Barre/compact-log/kv"
)

// MockBackend is a mock of the kv.Backend interface.
type MockBackend struct {
	ctrl     *gomock.Controller
	recorder *MockBackendMockRecorder
}

// MockBackendMockRecorder is the recorder for MockBackend's expectation setup.
type MockBackendMockRecorder struct {
	mock *MockBackend
}

// NewMockBackend constructs a MockBackend.
func NewMockBackend(ctrl *gomock.Controller) *MockBackend {
	m := &MockBackend{ctrl: ctrl}
	m.recorder = &MockBackendMockRecorder{m}
	return m
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockBackend) EXPECT() *MockBackendMockRecorder {
	return m.recorder
}

// Get mocks kv.Backend.Get.
func (m *MockBackend) Get(ctx context.Context, key []byte) ([]byte, bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", ctx, key)
	value, _ := ret[0].([]byte)
	ok, _ := ret[1].(bool)
	err, _ := ret[2].(error)
	return value, ok, err
}

// Get indicates an expected call of Get.
func (mr *MockBackendMockRecorder) Get(ctx, key any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockBackend)(nil).Get), ctx, key)
}

// Write mocks kv.Backend.Write.
func (m *MockBackend) Write(ctx context.Context, batch kv.Batch) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Write", ctx, batch)
	err, _ := ret[0].(error)
	return err
}

// Write indicates an expected call of Write.
func (mr *MockBackendMockRecorder) Write(ctx, batch any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Write", reflect.TypeOf((*MockBackend)(nil).Write), ctx, batch)
}
