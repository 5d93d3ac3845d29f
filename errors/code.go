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

package errors

// Code is a stable numeric identity for every error this module can raise.
// Codes are grouped in blocks of 100, mirroring HTTP-status-style classing
// by range. Most blocks map to a single Kind; the 7xx Unix-path block maps
// its codes to several Kinds (see Code.Kind).
type Code uint16

const (
	CodeUnknown Code = 0

	// Transient / recoverable — block 1xx.
	CodeWouldBlock      Code = 100
	CodeNetworkTimeout  Code = 101
	CodeBufferTooSmall  Code = 102
	CodeFileLocked      Code = 103

	// Peer-closed — block 2xx.
	CodeConnectionClosed      Code = 200
	CodeBrokenPipe            Code = 201
	CodeConnectionResetByPeer Code = 202
	CodeEOF                   Code = 203

	// Protocol / semantic — block 3xx.
	CodeAlertReceived                Code = 300
	CodeInvalidState                 Code = 301
	CodeHandshakeFailed              Code = 302
	CodeCertificateVerificationFailed Code = 303
	CodeInvalidProxyResponse         Code = 304
	CodeNoAcceptableAuthMethod       Code = 305
	CodeAuthenticationFailed         Code = 306
	CodeAuthenticationRequired       Code = 307
	CodeSocks5ConnectionFailed       Code = 308
	CodeUsernameTooLong              Code = 309
	CodePasswordTooLong              Code = 310
	CodeDomainNameTooLong            Code = 311
	CodeTlsNotEnabled                Code = 312
	CodeConflictingIOModes           Code = 313

	// Resource / config — block 4xx.
	CodeOutOfMemory          Code = 400
	CodeInvalidConfiguration Code = 401
	CodeFlowControlTriggered Code = 402
	CodePoolExhausted        Code = 403
	CodeInvalidBufferId      Code = 404
	CodeBufferAlreadyFree    Code = 405
	CodeBufferNotProvided    Code = 406
	CodeInvalidBufferGroup   Code = 407
	CodeMessageTooLong       Code = 408
	CodeClientSocketError    Code = 409
	CodeUnknownHost          Code = 410

	// Timeout — block 5xx.
	CodeTimeoutExecution Code = 500
	CodeTimeoutIdle      Code = 501
	CodeTimeoutConnection Code = 502
	CodeConnectionTimeout Code = 503
	CodeProxyTimeout      Code = 504

	// Output I/O — block 6xx.
	CodeDiskFull                Code = 600
	CodeInsufficientPermissions Code = 601
	CodeDirectoryNotFound       Code = 602
	CodePathTooLong             Code = 603
	CodeInvalidOutputPath       Code = 604
	CodeIsDirectory             Code = 605
	CodeFileSystemError         Code = 606

	// Unix-domain socket path taxonomy — block 7xx.
	CodePathContainsNull       Code = 700
	CodeInvalidPathCharacters  Code = 701
	CodePermissionDenied       Code = 702
	CodeConnectionRefused      Code = 703
	CodeResourceExhausted      Code = 704
	CodePlatformNotSupported   Code = 705
	CodeInvalidOperation       Code = 706
	CodeInvalidPath            Code = 707
)

var codeKind = map[Code]Kind{
	CodeWouldBlock:     KindTransient,
	CodeNetworkTimeout: KindTransient,
	CodeBufferTooSmall: KindTransient,
	CodeFileLocked:     KindTransient,

	CodeConnectionClosed:      KindPeerClosed,
	CodeBrokenPipe:            KindPeerClosed,
	CodeConnectionResetByPeer: KindPeerClosed,
	CodeEOF:                   KindPeerClosed,

	CodeAlertReceived:                 KindProtocol,
	CodeInvalidState:                  KindProtocol,
	CodeHandshakeFailed:               KindProtocol,
	CodeCertificateVerificationFailed: KindProtocol,
	CodeInvalidProxyResponse:          KindProtocol,
	CodeNoAcceptableAuthMethod:        KindProtocol,
	CodeAuthenticationFailed:          KindProtocol,
	CodeAuthenticationRequired:        KindProtocol,
	CodeSocks5ConnectionFailed:        KindProtocol,
	CodeUsernameTooLong:               KindProtocol,
	CodePasswordTooLong:               KindProtocol,
	CodeDomainNameTooLong:             KindProtocol,
	CodeTlsNotEnabled:                 KindProtocol,
	CodeConflictingIOModes:            KindProtocol,

	CodeOutOfMemory:          KindResource,
	CodeInvalidConfiguration: KindResource,
	CodeFlowControlTriggered: KindResource,
	CodePoolExhausted:        KindResource,
	CodeInvalidBufferId:      KindResource,
	CodeBufferAlreadyFree:    KindResource,
	CodeBufferNotProvided:    KindResource,
	CodeInvalidBufferGroup:   KindResource,
	CodeMessageTooLong:       KindResource,
	CodeClientSocketError:    KindResource,
	CodeUnknownHost:          KindResource,

	CodeTimeoutExecution:  KindTimeout,
	CodeTimeoutIdle:       KindTimeout,
	CodeTimeoutConnection: KindTimeout,
	CodeConnectionTimeout: KindTimeout,
	CodeProxyTimeout:      KindTimeout,

	CodeDiskFull:                KindOutputIO,
	CodeInsufficientPermissions: KindOutputIO,
	CodeDirectoryNotFound:       KindOutputIO,
	CodePathTooLong:             KindOutputIO,
	CodeInvalidOutputPath:       KindOutputIO,
	CodeIsDirectory:             KindOutputIO,
	CodeFileSystemError:         KindOutputIO,

	CodePathContainsNull:      KindProtocol,
	CodeInvalidPathCharacters: KindProtocol,
	CodePermissionDenied:      KindResource,
	CodeConnectionRefused:     KindPeerClosed,
	CodeResourceExhausted:     KindResource,
	CodePlatformNotSupported:  KindResource,
	CodeInvalidOperation:      KindResource,
	CodeInvalidPath:           KindProtocol,
}

var codeMessage = map[Code]string{
	CodeWouldBlock:     "would block",
	CodeNetworkTimeout: "network timeout",
	CodeBufferTooSmall: "buffer too small",
	CodeFileLocked:     "file locked",

	CodeConnectionClosed:      "connection closed",
	CodeBrokenPipe:            "broken pipe",
	CodeConnectionResetByPeer: "connection reset by peer",
	CodeEOF:                   "end of file",

	CodeAlertReceived:                 "tls alert received",
	CodeInvalidState:                  "invalid tls state",
	CodeHandshakeFailed:               "tls handshake failed",
	CodeCertificateVerificationFailed: "certificate verification failed",
	CodeInvalidProxyResponse:          "invalid proxy response",
	CodeNoAcceptableAuthMethod:        "no acceptable auth method",
	CodeAuthenticationFailed:          "authentication failed",
	CodeAuthenticationRequired:        "authentication required",
	CodeSocks5ConnectionFailed:        "socks5 connect failed",
	CodeUsernameTooLong:               "username too long",
	CodePasswordTooLong:               "password too long",
	CodeDomainNameTooLong:             "domain name too long",
	CodeTlsNotEnabled:                 "tls not enabled",
	CodeConflictingIOModes:            "conflicting io modes",

	CodeOutOfMemory:          "out of memory",
	CodeInvalidConfiguration: "invalid configuration",
	CodeFlowControlTriggered: "flow control triggered",
	CodePoolExhausted:        "buffer pool exhausted",
	CodeInvalidBufferId:      "invalid buffer id",
	CodeBufferAlreadyFree:    "buffer already free",
	CodeBufferNotProvided:    "buffer not provided",
	CodeInvalidBufferGroup:   "invalid buffer group",
	CodeMessageTooLong:       "line too long",
	CodeClientSocketError:    "client socket error",
	CodeUnknownHost:          "unknown host",

	CodeTimeoutExecution:  "execution timeout",
	CodeTimeoutIdle:       "idle timeout",
	CodeTimeoutConnection: "connection timeout",
	CodeConnectionTimeout: "connection timeout",
	CodeProxyTimeout:      "proxy timeout",

	CodeDiskFull:                "disk full",
	CodeInsufficientPermissions: "insufficient permissions",
	CodeDirectoryNotFound:       "directory not found",
	CodePathTooLong:             "path too long",
	CodeInvalidOutputPath:       "invalid output path",
	CodeIsDirectory:             "is a directory",
	CodeFileSystemError:         "file system error",

	CodePathContainsNull:      "path contains null byte",
	CodeInvalidPathCharacters: "invalid path characters",
	CodePermissionDenied:      "permission denied",
	CodeConnectionRefused:     "connection refused",
	CodeResourceExhausted:     "resource exhausted",
	CodePlatformNotSupported:  "platform not supported",
	CodeInvalidOperation:      "invalid operation",
	CodeInvalidPath:           "invalid path",
}

// Kind returns the Kind this Code belongs to.
func (c Code) Kind() Kind {
	if k, ok := codeKind[c]; ok {
		return k
	}
	return KindProtocol
}

// Message returns the default human-readable message for this Code.
func (c Code) Message() string {
	if m, ok := codeMessage[c]; ok {
		return m
	}
	return "unknown error"
}

// Error builds an Error carrying this Code, optionally wrapping parents.
func (c Code) Error(parent ...error) Error {
	return New(c, c.Message(), parent...)
}

// Errorf builds an Error carrying this Code with a formatted message.
func (c Code) Errorf(format string, args ...interface{}) Error {
	return Newf(c, format, args...)
}
