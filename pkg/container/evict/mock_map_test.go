// Copyright 2024 Matrix Origin
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package evict

import (
	reflect "reflect"

	gomock "github.com/golang/mock/gomock"
	hashtable "github.com/matrixorigin/primcoll/pkg/container/hashtable"
)

// MockMap is a mock of hashtable.Map[int64, string].
type MockMap struct {
	ctrl     *gomock.Controller
	recorder *MockMapMockRecorder
}

// MockMapMockRecorder is the mock recorder for MockMap.
type MockMapMockRecorder struct {
	mock *MockMap
}

// NewMockMap creates a new mock instance.
func NewMockMap(ctrl *gomock.Controller) *MockMap {
	mock := &MockMap{ctrl: ctrl}
	mock.recorder = &MockMapMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockMap) EXPECT() *MockMapMockRecorder {
	return m.recorder
}

// Clear mocks base method.
func (m *MockMap) Clear() {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Clear")
}

// Clear indicates an expected call of Clear.
func (mr *MockMapMockRecorder) Clear() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Clear", reflect.TypeOf((*MockMap)(nil).Clear))
}

// ContainsKey mocks base method.
func (m *MockMap) ContainsKey(key int64) bool {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "ContainsKey", key)
	ret0, _ := ret[0].(bool)
	return ret0
}

// ContainsKey indicates an expected call of ContainsKey.
func (mr *MockMapMockRecorder) ContainsKey(key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "ContainsKey", reflect.TypeOf((*MockMap)(nil).ContainsKey), key)
}

// Entries mocks base method.
func (m *MockMap) Entries() *hashtable.EntryIterator[int64, string] {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Entries")
	ret0, _ := ret[0].(*hashtable.EntryIterator[int64, string])
	return ret0
}

// Entries indicates an expected call of Entries.
func (mr *MockMapMockRecorder) Entries() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Entries", reflect.TypeOf((*MockMap)(nil).Entries))
}

// Get mocks base method.
func (m *MockMap) Get(key int64) (string, bool) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Get", key)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(bool)
	return ret0, ret1
}

// Get indicates an expected call of Get.
func (mr *MockMapMockRecorder) Get(key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Get", reflect.TypeOf((*MockMap)(nil).Get), key)
}

// Keys mocks base method.
func (m *MockMap) Keys() *hashtable.KeyIterator[int64, string] {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Keys")
	ret0, _ := ret[0].(*hashtable.KeyIterator[int64, string])
	return ret0
}

// Keys indicates an expected call of Keys.
func (mr *MockMapMockRecorder) Keys() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Keys", reflect.TypeOf((*MockMap)(nil).Keys))
}

// Len mocks base method.
func (m *MockMap) Len() int {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Len")
	ret0, _ := ret[0].(int)
	return ret0
}

// Len indicates an expected call of Len.
func (mr *MockMapMockRecorder) Len() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Len", reflect.TypeOf((*MockMap)(nil).Len))
}

// Put mocks base method.
func (m *MockMap) Put(key int64, value string) (string, bool) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Put", key, value)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(bool)
	return ret0, ret1
}

// Put indicates an expected call of Put.
func (mr *MockMapMockRecorder) Put(key, value interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Put", reflect.TypeOf((*MockMap)(nil).Put), key, value)
}

// Range mocks base method.
func (m *MockMap) Range(fn func(int64, string) bool) {
	m.ctrl.T.Helper()
	m.ctrl.Call(m, "Range", fn)
}

// Range indicates an expected call of Range.
func (mr *MockMapMockRecorder) Range(fn interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Range", reflect.TypeOf((*MockMap)(nil).Range), fn)
}

// Remove mocks base method.
func (m *MockMap) Remove(key int64) (string, bool) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Remove", key)
	ret0, _ := ret[0].(string)
	ret1, _ := ret[1].(bool)
	return ret0, ret1
}

// Remove indicates an expected call of Remove.
func (mr *MockMapMockRecorder) Remove(key interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Remove", reflect.TypeOf((*MockMap)(nil).Remove), key)
}

// Values mocks base method.
func (m *MockMap) Values() *hashtable.ValueIterator[int64, string] {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Values")
	ret0, _ := ret[0].(*hashtable.ValueIterator[int64, string])
	return ret0
}

// Values indicates an expected call of Values.
func (mr *MockMapMockRecorder) Values() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Values", reflect.TypeOf((*MockMap)(nil).Values))
}
