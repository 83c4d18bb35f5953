package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyweave/internal/imagegen"
)

// MockImageGenerator is a mock type for the imagegen.Generator type
type MockImageGenerator struct {
	mock.Mock
}

// Generate provides a mock function with given fields: ctx, prompt
func (_m *MockImageGenerator) Generate(ctx context.Context, prompt string) (imagegen.Image, error) {
	ret := _m.Called(ctx, prompt)

	var r0 imagegen.Image
	if rf, ok := ret.Get(0).(func(context.Context, string) imagegen.Image); ok {
		r0 = rf(ctx, prompt)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(imagegen.Image)
	}

	var r1 error
	if rf, ok := ret.Get(1).(func(context.Context, string) error); ok {
		r1 = rf(ctx, prompt)
	} else {
		r1 = ret.Error(1)
	}

	return r0, r1
}

// NewMockImageGenerator creates a new instance of MockImageGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockImageGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockImageGenerator {
	m := &MockImageGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ imagegen.Generator = (*MockImageGenerator)(nil)
