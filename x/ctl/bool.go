package ctl

import (
	"reflect"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/cockroachdb/errors"
)

type boolPtrMapper struct{}

func (boolPtrMapper) Decode(ctx *kong.DecodeContext, target reflect.Value) error {
	trueVal := true
	falseVal := false

	if ctx.Scan.Peek().Type != kong.FlagValueToken {
		target.Set(reflect.ValueOf(&trueVal))
		return nil
	}

	token := ctx.Scan.Pop()
	switch v := token.Value.(type) {
	case string:
		switch strings.ToLower(v) {
		case "true", "1", "yes":
			target.Set(reflect.ValueOf(&trueVal))
		case "false", "0", "no":
			target.Set(reflect.ValueOf(&falseVal))
		default:
			return errors.Errorf("bool value must be true, 1, yes, false, 0 or no but got %q", v)
		}
	case bool:
		target.Set(reflect.ValueOf(&v))
	default:
		return errors.Errorf("expected bool but got %q (%T)", token.Value, token.Value)
	}
	return nil
}

func (boolPtrMapper) IsBool() bool { return true }

var b bool

// BoolPtrMapper is an option to register a mapper to *bool type flag
var BoolPtrMapper = kong.TypeMapper(reflect.TypeOf(&b), boolPtrMapper{})
