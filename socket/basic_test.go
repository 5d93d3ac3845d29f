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

package socket_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	libsck "github.com/nabbar/natcore/socket"
)

var _ = Describe("Socket Basics", func() {
	Describe("Constants", func() {
		It("has a 32 KiB default buffer size", func() {
			Expect(libsck.DefaultBufferSize).To(Equal(32 * 1024))
		})

		It("uses newline as EOL", func() {
			Expect(libsck.EOL).To(Equal(byte('\n')))
		})
	})

	Describe("ErrorFilter", func() {
		It("returns nil for a nil error", func() {
			Expect(libsck.ErrorFilter(nil)).To(BeNil())
		})

		It("filters the bare closed-network-connection error", func() {
			err := fmt.Errorf("use of closed network connection")
			Expect(libsck.ErrorFilter(err)).To(BeNil())
		})

		It("does not filter a wrapped closed-network-connection message", func() {
			err := fmt.Errorf("read tcp 127.0.0.1:8080->127.0.0.1:54321: use of closed network connection")
			Expect(libsck.ErrorFilter(err)).NotTo(BeNil())
		})

		It("passes through an unrelated error", func() {
			err := fmt.Errorf("connection timeout")
			result := libsck.ErrorFilter(err)
			Expect(result).NotTo(BeNil())
			Expect(result.Error()).To(Equal("connection timeout"))
		})
	})

	Describe("Network", func() {
		It("renders the net package dial string for each stream family", func() {
			Expect(libsck.NetworkTCP.String()).To(Equal("tcp"))
			Expect(libsck.NetworkTCP4.String()).To(Equal("tcp4"))
			Expect(libsck.NetworkTCP6.String()).To(Equal("tcp6"))
			Expect(libsck.NetworkUnix.String()).To(Equal("unix"))
			Expect(libsck.NetworkUnixGram.String()).To(Equal("unixgram"))
		})

		It("flags Unix variants as path-addressed", func() {
			Expect(libsck.NetworkUnix.IsUnix()).To(BeTrue())
			Expect(libsck.NetworkTCP.IsUnix()).To(BeFalse())
		})
	})

	Describe("IsIPv6Literal", func() {
		It("treats a colon-bearing literal as IPv6", func() {
			Expect(libsck.IsIPv6Literal("::1")).To(BeTrue())
			Expect(libsck.IsIPv6Literal("127.0.0.1")).To(BeFalse())
		})
	})

	Describe("ValidateUnixPath", func() {
		It("rejects an empty path", func() {
			Expect(libsck.ValidateUnixPath("")).NotTo(BeNil())
		})

		It("rejects a path over the sun_path limit", func() {
			long := make([]byte, libsck.MaxUnixPathLength+1)
			for i := range long {
				long[i] = 'a'
			}
			Expect(libsck.ValidateUnixPath(string(long))).NotTo(BeNil())
		})

		It("rejects a path containing a NUL byte", func() {
			Expect(libsck.ValidateUnixPath("/tmp/foo\x00bar")).NotTo(BeNil())
		})

		It("accepts an ordinary path", func() {
			Expect(libsck.ValidateUnixPath("/tmp/natcore.sock")).To(BeNil())
		})
	})
})
