// SPDX-FileCopyrightText: 2025 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package xviper

import (
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	DefaultFileFlag = "file"
)

// Option is a configuration step applied to a Viper instance
type Option func(*viper.Viper) error

func AddConfigPaths(paths ...string) Option {
	return func(v *viper.Viper) error {
		for _, p := range paths {
			v.AddConfigPath(p)
		}

		return nil
	}
}

func SetEnvPrefix(prefix string) Option {
	return func(v *viper.Viper) error {
		v.SetEnvPrefix(prefix)
		return nil
	}
}

func SetConfigName(name string) Option {
	return func(v *viper.Viper) error {
		v.SetConfigName(name)
		return nil
	}
}

func AutomaticEnv(v *viper.Viper) error {
	v.AutomaticEnv()
	return nil
}

func BindPFlags(fs *pflag.FlagSet) Option {
	return func(v *viper.Viper) error {
		return v.BindPFlags(fs)
	}
}

// BindConfigFile uses the value of the given flag, if set, as the fully-qualified path of the configuration file
func BindConfigFile(fs *pflag.FlagSet, flag string) Option {
	return func(v *viper.Viper) error {
		if f := fs.Lookup(flag); f != nil {
			configFile := f.Value.String()
			if len(configFile) > 0 {
				v.SetConfigFile(configFile)
			}
		}

		return nil
	}
}

// Defaults sets a default for each key.  Defaults have the lowest precedence in Viper.
func Defaults(d map[string]interface{}) Option {
	return func(v *viper.Viper) error {
		for key, value := range d {
			v.SetDefault(key, value)
		}

		return nil
	}
}

// StdOptions applies the standard conventions:  the applicationName is used as the configuration file name,
// the environment prefix, and to generate the paths under /etc and $HOME to look for configuration files.
func StdOptions(applicationName string, fs *pflag.FlagSet) Option {
	return func(v *viper.Viper) error {
		for _, o := range []Option{
			AddConfigPaths(
				fmt.Sprintf("/etc/%s", applicationName),
				fmt.Sprintf("$HOME/.%s", applicationName),
				".",
			),
			SetEnvPrefix(applicationName),
			AutomaticEnv,
			SetConfigName(applicationName),
			BindPFlags(fs),
		} {
			if err := o(v); err != nil {
				return err
			}
		}

		return nil
	}
}

// New creates and configures a Viper instance
func New(o ...Option) (*viper.Viper, error) {
	return Configure(viper.New(), o...)
}

// Configure applies options to an existing Viper instance, stopping at the first error
func Configure(v *viper.Viper, o ...Option) (*viper.Viper, error) {
	if v != nil {
		for _, f := range o {
			if err := f(v); err != nil {
				return nil, err
			}
		}
	}

	return v, nil
}
