package trustedproxies

import (
	"fmt"
	"reflect"
)

func (c *config) validate() error {
	if c.maxChainLength <= 0 {
		return fmt.Errorf("maxChainLength must be > 0, got %d", c.maxChainLength)
	}
	if isNilLogger(c.logger) {
		return fmt.Errorf("logger cannot be nil")
	}
	if isNilMetrics(c.metrics) {
		return fmt.Errorf("metrics cannot be nil")
	}
	return nil
}

func isNilLogger(logger Logger) bool {
	return isNilInterface(logger)
}

func isNilMetrics(metrics Metrics) bool {
	return isNilInterface(metrics)
}

func isNilInterface(v any) bool {
	if v == nil {
		return true
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Chan, reflect.Func, reflect.Interface, reflect.Map, reflect.Pointer, reflect.Slice:
		return rv.IsNil()
	default:
		return false
	}
}
