package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyweave/internal/ai"
)

// MockTextGenerator is a mock type for the ai.TextGenerator type
type MockTextGenerator struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, prompt, params
func (_m *MockTextGenerator) Generate(ctx context.Context, prompt string, params ai.GenerationParams) (ai.Completion, error) {
	ret := _m.Called(ctx, prompt, params)

	var r0 ai.Completion
	if rf, ok := ret.Get(0).(func(context.Context, string, ai.GenerationParams) ai.Completion); ok {
		r0 = rf(ctx, prompt, params)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(ai.Completion)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string, ai.GenerationParams) error); ok {
		r1 = rf(ctx, prompt, params)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockTextGenerator creates a new instance of MockTextGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockTextGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockTextGenerator {
	m := &MockTextGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ ai.TextGenerator = (*MockTextGenerator)(nil)
