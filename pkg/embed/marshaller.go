package luma

import (
	"fmt"
	"math"
	"reflect"

	"github.com/Z2ZATL/Luma-CL/internal/vm"
)

// Marshaller handles conversion between Go and Luma values. Values are
// always copied; nothing on the Luma side aliases Go memory.
type Marshaller struct{}

func NewMarshaller() *Marshaller {
	return &Marshaller{}
}

// ToValue converts a Go value to a Luma value.
func (m *Marshaller) ToValue(val interface{}) (vm.Value, error) {
	if val == nil {
		return vm.NilVal(), nil
	}
	if v, ok := val.(vm.Value); ok {
		return v, nil
	}

	// Unpack interface if it's contained in one
	v := reflect.ValueOf(val)
	if v.Kind() == reflect.Interface {
		v = v.Elem()
	}
	if !v.IsValid() {
		return vm.NilVal(), nil
	}

	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return vm.NumberVal(float64(v.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return vm.NumberVal(float64(v.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return vm.NumberVal(v.Float()), nil
	case reflect.Bool:
		return vm.BoolVal(v.Bool()), nil
	case reflect.String:
		return vm.StringVal(v.String()), nil
	default:
		return vm.NilVal(), fmt.Errorf("cannot convert Go %s to a Luma value", v.Type())
	}
}

// FromValue converts a Luma value to a Go value.
// targetType is optional; if provided, tries to convert to that type.
func (m *Marshaller) FromValue(val vm.Value, targetType reflect.Type) (interface{}, error) {
	if targetType != nil && targetType == reflect.TypeOf(vm.Value{}) {
		return val, nil
	}

	switch val.Type {
	case vm.ValNil:
		return nil, nil
	case vm.ValBool:
		if targetType != nil && targetType.Kind() != reflect.Bool && targetType.Kind() != reflect.Interface {
			return nil, fmt.Errorf("cannot convert Boolean to %s", targetType)
		}
		return val.AsBool(), nil
	case vm.ValString:
		if targetType != nil && targetType.Kind() != reflect.String && targetType.Kind() != reflect.Interface {
			return nil, fmt.Errorf("cannot convert String to %s", targetType)
		}
		return val.AsString(), nil
	case vm.ValNumber:
		return m.numberTo(val.AsNumber(), targetType)
	default:
		return nil, fmt.Errorf("unsupported value type %s", val.Type)
	}
}

func (m *Marshaller) numberTo(n float64, targetType reflect.Type) (interface{}, error) {
	if targetType == nil || targetType.Kind() == reflect.Interface {
		return n, nil
	}

	switch targetType.Kind() {
	case reflect.Float32, reflect.Float64:
		return reflect.ValueOf(n).Convert(targetType).Interface(), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		if n != math.Trunc(n) || math.IsInf(n, 0) {
			return nil, fmt.Errorf("number %s is not an integer", vm.FormatNumber(n))
		}
		out := reflect.New(targetType).Elem()
		if out.OverflowInt(int64(n)) {
			return nil, fmt.Errorf("number %s overflows %s", vm.FormatNumber(n), targetType)
		}
		out.SetInt(int64(n))
		return out.Interface(), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		if n != math.Trunc(n) || n < 0 || math.IsInf(n, 0) {
			return nil, fmt.Errorf("number %s is not an unsigned integer", vm.FormatNumber(n))
		}
		out := reflect.New(targetType).Elem()
		if out.OverflowUint(uint64(n)) {
			return nil, fmt.Errorf("number %s overflows %s", vm.FormatNumber(n), targetType)
		}
		out.SetUint(uint64(n))
		return out.Interface(), nil
	default:
		return nil, fmt.Errorf("cannot convert Number to %s", targetType)
	}
}
