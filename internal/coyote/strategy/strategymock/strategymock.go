// Package strategymock provides a hand-maintained mock of
// strategy.ExplorationStrategy, in the shape go.uber.org/mock's mockgen
// would generate from:
//
//	//go:generate mockgen -destination=strategymock.go -package=strategymock . ExplorationStrategy
//
// kept hand-written here since this module does not invoke go:generate as
// part of its build.
package strategymock

import (
	reflect "reflect"

	gomock "go.uber.org/mock/gomock"

	strategy "github.com/pipeline-foundation/coyote-sub000/internal/coyote/strategy"
)

// MockExplorationStrategy is a mock of strategy.ExplorationStrategy.
type MockExplorationStrategy struct {
	ctrl     *gomock.Controller
	recorder *MockExplorationStrategyMockRecorder
}

// MockExplorationStrategyMockRecorder is the mock recorder for
// MockExplorationStrategy.
type MockExplorationStrategyMockRecorder struct {
	mock *MockExplorationStrategy
}

// NewMockExplorationStrategy creates a new mock instance.
func NewMockExplorationStrategy(ctrl *gomock.Controller) *MockExplorationStrategy {
	mock := &MockExplorationStrategy{ctrl: ctrl}
	mock.recorder = &MockExplorationStrategyMockRecorder{mock}

	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockExplorationStrategy) EXPECT() *MockExplorationStrategyMockRecorder {
	return m.recorder
}

// InitializeIteration mocks base method.
func (m *MockExplorationStrategy) InitializeIteration(iteration int, seed int64) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "InitializeIteration", iteration, seed)
}

// InitializeIteration indicates an expected call of InitializeIteration.
func (mr *MockExplorationStrategyMockRecorder) InitializeIteration(iteration, seed any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "InitializeIteration",
		reflect.TypeOf((*MockExplorationStrategy)(nil).InitializeIteration), iteration, seed)
}

// NextOperation mocks base method.
func (m *MockExplorationStrategy) NextOperation(enabled []strategy.Candidate, current int, isYielding bool) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NextOperation", enabled, current, isYielding)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

// NextOperation indicates an expected call of NextOperation.
func (mr *MockExplorationStrategyMockRecorder) NextOperation(enabled, current, isYielding any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NextOperation",
		reflect.TypeOf((*MockExplorationStrategy)(nil).NextOperation), enabled, current, isYielding)
}

// Reset mocks base method.
func (m *MockExplorationStrategy) Reset() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Reset")
}

// Reset indicates an expected call of Reset.
func (mr *MockExplorationStrategyMockRecorder) Reset() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Reset",
		reflect.TypeOf((*MockExplorationStrategy)(nil).Reset))
}

// NextBoolean mocks base method.
func (m *MockExplorationStrategy) NextBoolean() (bool, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NextBoolean")
	ret0, _ := ret[0].(bool)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

// NextBoolean indicates an expected call of NextBoolean.
func (mr *MockExplorationStrategyMockRecorder) NextBoolean() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NextBoolean",
		reflect.TypeOf((*MockExplorationStrategy)(nil).NextBoolean))
}

// NextInteger mocks base method.
func (m *MockExplorationStrategy) NextInteger(max int) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "NextInteger", max)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

// NextInteger indicates an expected call of NextInteger.
func (mr *MockExplorationStrategyMockRecorder) NextInteger(max any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "NextInteger",
		reflect.TypeOf((*MockExplorationStrategy)(nil).NextInteger), max)
}

// StepCount mocks base method.
func (m *MockExplorationStrategy) StepCount() int {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "StepCount")
	ret0, _ := ret[0].(int)

	return ret0
}

// StepCount indicates an expected call of StepCount.
func (mr *MockExplorationStrategyMockRecorder) StepCount() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "StepCount",
		reflect.TypeOf((*MockExplorationStrategy)(nil).StepCount))
}

// MaxStepsReached mocks base method.
func (m *MockExplorationStrategy) MaxStepsReached() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "MaxStepsReached")
	ret0, _ := ret[0].(bool)

	return ret0
}

// MaxStepsReached indicates an expected call of MaxStepsReached.
func (mr *MockExplorationStrategyMockRecorder) MaxStepsReached() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "MaxStepsReached",
		reflect.TypeOf((*MockExplorationStrategy)(nil).MaxStepsReached))
}

// IsFair mocks base method.
func (m *MockExplorationStrategy) IsFair() bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "IsFair")
	ret0, _ := ret[0].(bool)

	return ret0
}

// IsFair indicates an expected call of IsFair.
func (mr *MockExplorationStrategyMockRecorder) IsFair() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "IsFair",
		reflect.TypeOf((*MockExplorationStrategy)(nil).IsFair))
}

// Description mocks base method.
func (m *MockExplorationStrategy) Description() string {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Description")
	ret0, _ := ret[0].(string)

	return ret0
}

// Description indicates an expected call of Description.
func (mr *MockExplorationStrategyMockRecorder) Description() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Description",
		reflect.TypeOf((*MockExplorationStrategy)(nil).Description))
}

var _ strategy.ExplorationStrategy = (*MockExplorationStrategy)(nil)
