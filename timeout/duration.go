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

package timeout

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration is a time.Duration that also parses and prints a leading
// days component ("5d23h15m13s"), the format the CLI's idle/connect/
// execution timeout flags and the config struct's JSON/YAML/TOML tags
// use. It implements encoding.TextMarshaler/TextUnmarshaler, which
// encoding/json, yaml.v3 and go-toml all fall back to when no
// format-specific marshaler is defined, so one implementation covers
// every tagged encoding the config struct needs.
type Duration time.Duration

// ParseDuration wraps a time.Duration as a Duration, e.g. to carry a
// flag-parsed time.Duration into a Config field.
func ParseDuration(d time.Duration) Duration {
	return Duration(d)
}

// Parse parses a string such as "5d23h15m13s" into a Duration. The
// optional leading "Nd" component is consumed before the remainder is
// handed to time.ParseDuration, so any suffix time.ParseDuration
// accepts (h, m, s, ms, us/µs, ns) may follow it.
func Parse(s string) (Duration, error) {
	s = strings.Trim(s, "\"' ")
	if s == "" {
		return 0, fmt.Errorf("timeout: empty duration string")
	}

	neg := false
	if s[0] == '+' || s[0] == '-' {
		neg = s[0] == '-'
		s = s[1:]
	}

	var days int64
	if i := strings.IndexByte(s, 'd'); i >= 0 {
		n, err := strconv.ParseInt(s[:i], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("timeout: invalid day component %q: %w", s[:i], err)
		}
		days = n
		s = s[i+1:]
	}

	rest := time.Duration(0)
	if s != "" {
		v, err := time.ParseDuration(s)
		if err != nil {
			return 0, err
		}
		rest = v
	} else if days == 0 {
		return 0, fmt.Errorf("timeout: invalid duration string")
	}

	total := time.Duration(days)*24*time.Hour + rest
	if neg {
		total = -total
	}
	return Duration(total), nil
}

// Time returns the time.Duration this Duration wraps.
func (d Duration) Time() time.Duration {
	return time.Duration(d)
}

// String renders the duration in the same "NdNhNmNs" form Parse accepts.
func (d Duration) String() string {
	t := time.Duration(d)
	neg := t < 0
	if neg {
		t = -t
	}

	days := int64(t / (24 * time.Hour))
	rem := t - time.Duration(days)*24*time.Hour

	var s string
	if days > 0 {
		s = fmt.Sprintf("%dd", days)
	}
	if days == 0 || rem != 0 {
		s += rem.String()
	}
	if neg {
		s = "-" + s
	}
	return s
}

// MarshalText implements encoding.TextMarshaler for the config struct's
// JSON/YAML/TOML tags.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for the config
// struct's JSON/YAML/TOML tags.
func (d *Duration) UnmarshalText(b []byte) error {
	v, err := Parse(string(b))
	if err != nil {
		return err
	}
	*d = v
	return nil
}
