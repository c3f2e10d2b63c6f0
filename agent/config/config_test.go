// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: BUSL-1.1

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	type testCase struct {
		cfg       func() Config
		expectErr []string
	}
	run := func(t *testing.T, tc testCase) {
		err := tc.cfg().Validate()
		if len(tc.expectErr) == 0 {
			require.NoError(t, err)
			return
		}
		require.Error(t, err)
		for _, e := range tc.expectErr {
			require.Contains(t, err.Error(), e)
		}
	}

	cases := map[string]testCase{
		"valid prover": {
			cfg: func() Config {
				c := Default(ModeProver)
				c.GUID = "host-1"
				c.Primary = "/mnt/primary"
				return c
			},
		},
		"missing everything": {
			cfg: func() Config { return Default(ModeProver) },
			expectErr: []string{
				"-guid is required",
				"-primary is required",
			},
		},
		"bad timings": {
			cfg: func() Config {
				return Config{GUID: "h", Primary: "/mnt", Timeout: -time.Second}
			},
			expectErr: []string{
				"-timeout must be positive",
				"-interval must be positive",
			},
		},
		"state ignores interval": {
			cfg: func() Config {
				return Config{Mode: ModeState, GUID: "h", Primary: "/mnt", Timeout: time.Second}
			},
		},
		"guid with separator": {
			cfg: func() Config {
				c := Default(ModeState)
				c.GUID = "../etc"
				c.Primary = "/mnt"
				return c
			},
			expectErr: []string{"path separators"},
		},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			run(t, tc)
		})
	}
}

func TestConfig_Derived(t *testing.T) {
	c := Default(ModeState)
	c.GUID = "abc"
	c.Primary = "/mnt/primary"

	require.Equal(t, ".hb-abc", c.FileName())
	f := c.MountFilter()
	require.Equal(t, "/mnt/primary", f.Prefix)
	require.Equal(t, []string{"nfs", "nfs4"}, f.FSTypes)
	require.Equal(t, "state", c.Mode.String())
	require.Equal(t, "prover", ModeProver.String())
}
