// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package xviper

import (
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DecodeHook is the mapstructure hook used for all configuration in this module.  Durations may be
// written as "4s" or "1500ms", and string lists may be written as comma-separated values.
func DecodeHook() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		mapstructure.StringToTimeDurationHookFunc(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// UnmarshalKey decodes the subtree at key into target using DecodeHook.  A nil Viper, or a missing
// key, leaves target unchanged.
func UnmarshalKey(v *viper.Viper, key string, target interface{}) error {
	if v == nil || !v.IsSet(key) {
		return nil
	}

	return v.UnmarshalKey(key, target, viper.DecodeHook(DecodeHook()))
}
