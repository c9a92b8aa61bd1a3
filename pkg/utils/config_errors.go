package utils

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

// FormatConfigErrors turns validator errors into one error naming the offending env keys.
// cfg is the struct that failed validation; its mapstructure tags give the key names.
func FormatConfigErrors(logger *zap.Logger, err error, cfg interface{}) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	t := reflect.TypeOf(cfg)
	if t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	keys := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		key := fe.StructField()
		if f, ok := t.FieldByName(fe.StructField()); ok {
			if tag := f.Tag.Get("mapstructure"); !IsEmpty(tag) {
				key = "APP_" + tag
			}
		}
		rule := fe.Tag()
		if p := fe.Param(); p != "" {
			rule += "=" + p
		}
		logger.Error("invalid_config_value", zap.String("key", key), zap.String("rule", rule))
		keys = append(keys, fmt.Sprintf("%s (%s)", key, rule))
	}
	return fmt.Errorf("invalid configuration: %s", strings.Join(keys, ", "))
}
