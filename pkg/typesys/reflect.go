package typesys

import (
	"errors"
	"fmt"
	"math/big"
	"reflect"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrUnsupportedGoType is returned when a Go type has no equivalent [Type].
var ErrUnsupportedGoType = errors.New("unsupported Go type")

var (
	timeType    = reflect.TypeFor[time.Time]()
	decimalType = reflect.TypeFor[decimal.Decimal]()
	bigIntType  = reflect.TypeFor[big.Int]()
)

// RegisterStruct registers the Go struct type of v, and every struct it
// refers to, as bean types. Exported fields become readable and writable
// members named after their json tag, or the lower-camel field name.
// Member getters and setters operate on pointers to the struct.
func (r *Registry) RegisterStruct(v any) (*Type, error) {
	rt := reflect.TypeOf(v)
	for rt != nil && rt.Kind() == reflect.Pointer {
		rt = rt.Elem()
	}

	if rt == nil || rt.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %T is not a struct", ErrUnsupportedGoType, v)
	}

	return r.fromGo(rt)
}

func (r *Registry) fromGo(rt reflect.Type) (*Type, error) {
	switch rt {
	case timeType:
		return r.Lookup("Date")
	case decimalType:
		return r.Lookup("BigDecimal")
	case bigIntType:
		return r.Lookup("BigInteger")
	}

	//nolint:exhaustive // Remaining kinds are unsupported.
	switch rt.Kind() {
	case reflect.Pointer:
		return r.fromGo(rt.Elem())
	case reflect.Bool:
		return r.Lookup("boolean")
	case reflect.Int8, reflect.Uint8:
		return r.Lookup("byte")
	case reflect.Int16, reflect.Uint16:
		return r.Lookup("short")
	case reflect.Int, reflect.Int32, reflect.Uint32:
		return r.Lookup("int")
	case reflect.Int64, reflect.Uint, reflect.Uint64:
		return r.Lookup("long")
	case reflect.Float32:
		return r.Lookup("float")
	case reflect.Float64:
		return r.Lookup("double")
	case reflect.String:
		return r.Lookup("String")
	case reflect.Slice, reflect.Array:
		elem, err := r.fromGo(rt.Elem())
		if err != nil {
			return nil, err
		}

		return r.ArrayOf(elem), nil
	case reflect.Interface:
		return r.Lookup("Object")
	case reflect.Struct:
		return r.structFromGo(rt)
	}

	return nil, fmt.Errorf("%w: %s", ErrUnsupportedGoType, rt)
}

func (r *Registry) structFromGo(rt reflect.Type) (*Type, error) {
	if t, err := r.Lookup(rt.Name()); err == nil {
		if !t.IsBean() {
			return nil, fmt.Errorf("%w: %s shadows a built-in type", ErrDuplicateType, rt.Name())
		}

		return t, nil
	}

	t, err := r.DefineBean(rt.Name())
	if err != nil {
		return nil, err
	}

	for i := range rt.NumField() {
		f := rt.Field(i)
		if !f.IsExported() || f.Anonymous {
			continue
		}

		name := memberName(f)
		if name == "-" {
			continue
		}

		ft, err := r.fromGo(f.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s.%s: %w", rt.Name(), f.Name, err)
		}

		index := f.Index

		err = r.AddMember(t, Member{
			Name:     name,
			Type:     ft,
			Readable: true,
			Writable: true,
			Get: func(obj any) (any, error) {
				fv, err := fieldOf(obj, rt, index)
				if err != nil {
					return nil, err
				}

				return fv.Interface(), nil
			},
			Set: func(obj, value any) error {
				fv, err := fieldOf(obj, rt, index)
				if err != nil {
					return err
				}

				vv := reflect.ValueOf(value)
				if !vv.IsValid() {
					fv.Set(reflect.Zero(fv.Type()))
					return nil
				}

				if !vv.Type().AssignableTo(fv.Type()) {
					if !vv.Type().ConvertibleTo(fv.Type()) {
						return fmt.Errorf("set %s: cannot use %s as %s", name, vv.Type(), fv.Type())
					}

					vv = vv.Convert(fv.Type())
				}

				fv.Set(vv)

				return nil
			},
		})
		if err != nil {
			return nil, err
		}
	}

	return t, nil
}

func fieldOf(obj any, rt reflect.Type, index []int) (reflect.Value, error) {
	v := reflect.ValueOf(obj)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Type() != rt {
		return reflect.Value{}, fmt.Errorf("expected *%s, got %T", rt.Name(), obj)
	}

	return v.Elem().FieldByIndex(index), nil
}

func memberName(f reflect.StructField) string {
	if tag, ok := f.Tag.Lookup("json"); ok {
		name, _, _ := strings.Cut(tag, ",")
		if name != "" {
			return name
		}
	}

	runes := []rune(f.Name)
	// Lower the leading run of capitals, keeping the last one of an
	// acronym followed by a lower-case letter ("URLPath" -> "urlPath").
	for i := range runes {
		if !unicode.IsUpper(runes[i]) {
			break
		}

		if i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) {
			break
		}

		runes[i] = unicode.ToLower(runes[i])
	}

	return string(runes)
}
