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

package moerr

import "context"

// The collections are called on hot paths without a context at hand.
// These helpers build the same errors against the background context.

func NewInternalErrorNoCtx(msg string, args ...any) *Error {
	return NewInternalError(context.Background(), msg, args...)
}

func NewInvalidArgNoCtx(arg string, val any) *Error {
	return NewInvalidArg(context.Background(), arg, val)
}

func NewIndexOutOfBoundsNoCtx(idx, size int) *Error {
	return NewIndexOutOfBounds(context.Background(), idx, size)
}

func NewBadConfigNoCtx(msg string, args ...any) *Error {
	return NewBadConfig(context.Background(), msg, args...)
}

func NewInvalidStateNoCtx(msg string, args ...any) *Error {
	return NewInvalidState(context.Background(), msg, args...)
}

func NewEmptyCollectionNoCtx(op string) *Error {
	return NewEmptyCollection(context.Background(), op)
}

func NewIllegalStateNoCtx(msg string, args ...any) *Error {
	return NewIllegalState(context.Background(), msg, args...)
}

func NewIterExhaustedNoCtx() *Error {
	return NewIterExhausted(context.Background())
}

func NewNestedIterationNoCtx() *Error {
	return NewNestedIteration(context.Background())
}
