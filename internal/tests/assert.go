// Package tests holds the assertion helpers shared by the package tests.
package tests

import (
	"errors"
	"reflect"
	"strings"
	"testing"
)

func AssertEqual(t *testing.T, e, g interface{}) {
	t.Helper()
	if !reflect.DeepEqual(e, g) {
		t.Errorf("Expected [%+v], got [%+v]", e, g)
	}
}

func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Errorf("Error occurred [%v]", err)
	}
}

func AssertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if err == nil {
		t.Error("err is nil")
		return
	}
	if !errors.Is(err, target) {
		t.Errorf("error [%v] does not match [%v]", err, target)
	}
}

func AssertErrorContains(t *testing.T, err error, s string) {
	t.Helper()
	if err == nil {
		t.Error("err is nil")
		return
	}
	if !strings.Contains(err.Error(), s) {
		t.Errorf("%q is not included in error %q", s, err.Error())
	}
}

func AssertNotNil(t *testing.T, v interface{}) {
	t.Helper()
	if v == nil {
		t.Fatalf("[%v] was expected to be non-nil", v)
	}
	rv := reflect.ValueOf(v)
	kind := rv.Kind()
	if kind >= reflect.Chan && kind <= reflect.Slice && rv.IsNil() {
		t.Fatalf("[%v] was expected to be non-nil", v)
	}
}
