package sassvalue_test

import (
	"testing"

	"github.com/sass-contrib/embedded-host-go/sassvalue"
)

func TestArgListDistinctFromList(t *testing.T) {
	var l sassvalue.Value = sassvalue.List{Items: []sassvalue.Value{sassvalue.String{Text: "a"}}}
	var a sassvalue.Value = sassvalue.ArgList{
		Items:    []sassvalue.Value{sassvalue.String{Text: "a"}},
		Keywords: map[string]sassvalue.Value{"b": sassvalue.Bool{Value: true}},
	}

	if _, ok := l.(sassvalue.ArgList); ok {
		t.Fatal("plain List must not type-assert to ArgList")
	}
	if _, ok := a.(sassvalue.List); ok {
		t.Fatal("ArgList must not type-assert to List")
	}
}

func TestFunctionRefEitherNameOrID(t *testing.T) {
	id := uint32(7)
	ref := sassvalue.FunctionRef{ID: &id}
	if ref.Name != "" {
		t.Fatal("expected zero-value name when ID set")
	}
}
