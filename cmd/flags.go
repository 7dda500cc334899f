package main

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// bindFlag 明示的に指定されたフラグだけが環境変数より優先される
func bindFlag(v *viper.Viper, key string, f *pflag.Flag) {
	if err := v.BindPFlag(key, f); err != nil {
		panic(err)
	}
}
