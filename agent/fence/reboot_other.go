// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

//go:build !linux

package fence

import "errors"

func rebootFencer() Fencer {
	return Func(func() error {
		return errors.New("reboot fencing is only supported on linux")
	})
}
