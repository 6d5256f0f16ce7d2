// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"io/fs"
	"reflect"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// dotenvErr is reported by Init, which has a logger
var dotenvErr error

// loadDotenv loads the env files, if they exist. Variables already set in
// the environment win.
func loadDotenv(filenames ...string) error {
	err := godotenv.Load(filenames...)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// init viper, set defaults, and bind env vars using the runtimeConfig struct
func init() {
	dotenvErr = loadDotenv()

	typeOf := reflect.TypeOf(runtimeConfig{})
	for i := range typeOf.NumField() {
		field := typeOf.Field(i)
		viperKey, ok := field.Tag.Lookup("viper")
		if !ok {
			panic("Unexpected missing viper tag on Config struct")
		}
		// set default
		if defaultValue, ok := field.Tag.Lookup("default"); ok {
			viper.SetDefault(viperKey, defaultValue)
		}
		// bind env
		if envkey, ok := field.Tag.Lookup("envkey"); ok {
			viper.BindEnv(viperKey, envkey)
		}
	}
	// Auto convert strings to appropriate types (like "true" to boolean)
	viper.AutomaticEnv()
}

// Describe returns the viper key, environment variable, default, and
// description of every config variable, in declaration order.
func Describe() [][4]string {
	typeOf := reflect.TypeOf(runtimeConfig{})
	vars := make([][4]string, 0, typeOf.NumField())
	for i := range typeOf.NumField() {
		tag := typeOf.Field(i).Tag
		vars = append(vars, [4]string{
			tag.Get("viper"),
			tag.Get("envkey"),
			tag.Get("default"),
			tag.Get("description"),
		})
	}
	return vars
}
