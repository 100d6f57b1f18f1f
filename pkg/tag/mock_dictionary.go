package tag

// Code generated by MockGen-style hand authoring for test-time substitution
// of Dictionary. DO NOT use in production code paths.

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
)

// MockDictionary is a mock of the Dictionary interface, in the shape
// mockgen would produce, for tests that need to control tag resolution
// independently of StandardDictionary (e.g. exercising the Implicit VR
// "unknown tag resolves to UN" rule).
type MockDictionary struct {
	ctrl     *gomock.Controller
	recorder *MockDictionaryMockRecorder
}

// MockDictionaryMockRecorder is the recorder for MockDictionary.
type MockDictionaryMockRecorder struct {
	mock *MockDictionary
}

// NewMockDictionary creates a new mock instance.
func NewMockDictionary(ctrl *gomock.Controller) *MockDictionary {
	mock := &MockDictionary{ctrl: ctrl}
	mock.recorder = &MockDictionaryMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockDictionary) EXPECT() *MockDictionaryMockRecorder {
	return m.recorder
}

// TagByNumber mocks base method.
func (m *MockDictionary) TagByNumber(t Tag) (Info, bool) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TagByNumber", t)
	ret0, _ := ret[0].(Info)
	ret1, _ := ret[1].(bool)
	return ret0, ret1
}

// TagByNumber indicates an expected call of TagByNumber.
func (mr *MockDictionaryMockRecorder) TagByNumber(t interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TagByNumber", reflect.TypeOf((*MockDictionary)(nil).TagByNumber), t)
}

// TagByKeyword mocks base method.
func (m *MockDictionary) TagByKeyword(keyword string) (Info, bool) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "TagByKeyword", keyword)
	ret0, _ := ret[0].(Info)
	ret1, _ := ret[1].(bool)
	return ret0, ret1
}

// TagByKeyword indicates an expected call of TagByKeyword.
func (mr *MockDictionaryMockRecorder) TagByKeyword(keyword interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "TagByKeyword", reflect.TypeOf((*MockDictionary)(nil).TagByKeyword), keyword)
}
