package ports

import (
	"context"
	"reflect"
	"testing"
	"time"

	"nssplayer/internal/domain"
)

func TestShareHistoryStoreInterface(t *testing.T) {
	typ := reflect.TypeOf((*ShareHistoryStore)(nil)).Elem()

	assertMethod(t, typ, "Insert", []reflect.Type{
		contextType(),
		reflect.TypeOf(domain.ShareRecord{}),
	}, []reflect.Type{errorType()})

	assertMethod(t, typ, "MarkStopped", []reflect.Type{
		contextType(),
		reflect.TypeOf(""),
		reflect.TypeOf(time.Time{}),
		reflect.TypeOf(""),
	}, []reflect.Type{errorType()})

	assertMethod(t, typ, "ListRecent", []reflect.Type{
		contextType(),
		reflect.TypeOf(0),
	}, []reflect.Type{
		reflect.TypeOf([]domain.ShareRecord{}),
		errorType(),
	})
}

func TestAddressResolverInterface(t *testing.T) {
	typ := reflect.TypeOf((*AddressResolver)(nil)).Elem()
	assertMethod(t, typ, "LocalAddress", []reflect.Type{contextType()}, []reflect.Type{
		reflect.TypeOf(""),
		errorType(),
	})
}

func TestMediaSourceInterface(t *testing.T) {
	typ := reflect.TypeOf((*MediaSource)(nil)).Elem()
	assertMethod(t, typ, "Open", []reflect.Type{reflect.TypeOf("")}, []reflect.Type{
		reflect.TypeOf((*MediaFile)(nil)).Elem(),
		errorType(),
	})
}

func assertMethod(t *testing.T, typ reflect.Type, name string, in, out []reflect.Type) {
	t.Helper()
	method, ok := typ.MethodByName(name)
	if !ok {
		t.Fatalf("%s: method %s not found", typ.Name(), name)
	}
	mt := method.Type
	if mt.NumIn() != len(in) {
		t.Fatalf("%s.%s: expected %d params, got %d", typ.Name(), name, len(in), mt.NumIn())
	}
	for i, want := range in {
		if got := mt.In(i); got != want {
			t.Fatalf("%s.%s: param %d = %v, want %v", typ.Name(), name, i, got, want)
		}
	}
	if mt.NumOut() != len(out) {
		t.Fatalf("%s.%s: expected %d results, got %d", typ.Name(), name, len(out), mt.NumOut())
	}
	for i, want := range out {
		if got := mt.Out(i); got != want {
			t.Fatalf("%s.%s: result %d = %v, want %v", typ.Name(), name, i, got, want)
		}
	}
}

func contextType() reflect.Type {
	return reflect.TypeOf((*context.Context)(nil)).Elem()
}

func errorType() reflect.Type {
	return reflect.TypeOf((*error)(nil)).Elem()
}
