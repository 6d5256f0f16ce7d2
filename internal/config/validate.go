// Copyright 2025 Nadrama Pty Ltd
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"reflect"
	"slices"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/nadrama-com/dbsession/internal/session"
	"github.com/refreshjs/puidv7"
	"github.com/spf13/viper"
)

// validatePuidv7 can be used with the validator package
func validatePuidv7(fl validator.FieldLevel) bool {
	_, err := puidv7.Decode(fl.Field().String(), "")
	return err == nil
}

// validateDriver accepts the drivers registered in this build
func validateDriver(fl validator.FieldLevel) bool {
	return slices.Contains(session.Drivers(), fl.Field().String())
}

// use a single instance of Validate, it caches struct info
var (
	validate     *validator.Validate
	validateErr  error
	validateOnce sync.Once
)

func validatorInstance() (*validator.Validate, error) {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		if err := validate.RegisterValidation("puidv7", validatePuidv7); err != nil {
			validateErr = fmt.Errorf("error registering puidv7 validator for config validation: %w", err)
			return
		}
		if err := validate.RegisterValidation("dbdriver", validateDriver); err != nil {
			validateErr = fmt.Errorf("error registering dbdriver validator for config validation: %w", err)
		}
	})
	return validate, validateErr
}

// load parses viper values into a runtimeConfig struct
func load() runtimeConfig {
	config := runtimeConfig{}
	typeOf := reflect.TypeOf(config)
	valueOf := reflect.ValueOf(&config).Elem()
	for i := range typeOf.NumField() {
		field := typeOf.Field(i)
		viperKey, ok := field.Tag.Lookup("viper")
		if !ok {
			panic("Unexpected missing viper tag on Config struct")
		}
		switch valueOf.Field(i).Kind() {
		case reflect.Bool:
			valueOf.Field(i).SetBool(viper.GetBool(viperKey))
		case reflect.String:
			valueOf.Field(i).SetString(viper.GetString(viperKey))
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			valueOf.Field(i).SetInt(viper.GetInt64(viperKey))
		default:
			valueOf.Field(i).Set(reflect.ValueOf(viper.Get(viperKey)))
		}
	}
	return config
}

// Validate validates the config once it has been loaded using runtimeConfig
func (c *Config) Validate() error {
	v, err := validatorInstance()
	if err != nil {
		return err
	}
	err = v.Struct(load())
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}
	msgs := make([]string, 0, len(validationErrs))
	for _, fe := range validationErrs {
		msgs = append(msgs, fmt.Sprintf("%s failed validation on '%s' validator", fe.Field(), fe.Tag()))
	}
	return errors.New(strings.Join(msgs, "\n"))
}
