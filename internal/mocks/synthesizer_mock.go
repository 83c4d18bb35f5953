package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"storyweave/internal/tts"
)

// MockSynthesizer is a mock type for the tts.Synthesizer type
type MockSynthesizer struct {
	mock.Mock
}

// Synthesize provides a mock function with given fields: ctx, text, voiceID
func (_m *MockSynthesizer) Synthesize(ctx context.Context, text string, voiceID string) ([]byte, error) {
	ret := _m.Called(ctx, text, voiceID)

	var r0 []byte
	if rf, ok := ret.Get(0).(func(context.Context, string, string) []byte); ok {
		r0 = rf(ctx, text, voiceID)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).([]byte)
	}

	return r0, ret.Error(1)
}

// NewMockSynthesizer creates a new instance of MockSynthesizer.
func NewMockSynthesizer(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockSynthesizer {
	m := &MockSynthesizer{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ tts.Synthesizer = (*MockSynthesizer)(nil)
