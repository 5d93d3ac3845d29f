/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

package runtime

import (
	"context"
	"testing"
)

func TestInitReturnsSameInstance(t *testing.T) {
	a := Init(context.Background())
	b := Init(context.Background())
	if a != b {
		t.Fatal("Init should return the process-wide singleton on every call")
	}
}

func TestShutdownCancelsContext(t *testing.T) {
	r := Init(context.Background())
	r.Shutdown()

	select {
	case <-r.Context().Done():
	default:
		t.Fatal("expected context to be cancelled after Shutdown")
	}
}

func TestBackendKindIsStable(t *testing.T) {
	r := Init(context.Background())
	first := r.BackendKind()
	second := r.BackendKind()
	if first != second {
		t.Fatalf("backend kind changed across calls: %v vs %v", first, second)
	}
}
