// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package flags

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SecondsValue is a duration flag that also accepts a bare number of
// seconds, as older callers pass "--timeout=120".
type SecondsValue struct {
	v time.Duration
}

func NewSecondsValue(d time.Duration) *SecondsValue {
	return &SecondsValue{v: d}
}

func (s *SecondsValue) Set(v string) error {
	if secs, err := strconv.ParseFloat(v, 64); err == nil {
		s.v = time.Duration(secs * float64(time.Second))
		return nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fmt.Errorf("invalid duration %q: use seconds or a duration like 2m", v)
	}
	s.v = d
	return nil
}

func (s *SecondsValue) String() string {
	if s == nil {
		return ""
	}
	return s.v.String()
}

func (s *SecondsValue) Duration() time.Duration {
	return s.v
}

// CommaSliceValue collects comma separated values across repeated flags.
// Values given on the command line replace the defaults.
type CommaSliceValue struct {
	values []string
	set    bool
}

func NewCommaSliceValue(defaults ...string) *CommaSliceValue {
	return &CommaSliceValue{values: append([]string(nil), defaults...)}
}

func (c *CommaSliceValue) Set(v string) error {
	if !c.set {
		c.values = nil
		c.set = true
	}
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			c.values = append(c.values, part)
		}
	}
	return nil
}

func (c *CommaSliceValue) String() string {
	if c == nil {
		return ""
	}
	return strings.Join(c.values, ",")
}

func (c *CommaSliceValue) Values() []string {
	return append([]string(nil), c.values...)
}
