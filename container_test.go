package mappable_test

import (
	"testing"

	mappable "github.com/mappable-go/mappable"
)

// widget is an unregistered-by-default domain type used across container
// tests.
type widget struct {
	N int
}

type widgetMapper struct {
	mappable.Base
	field string // tree key, lets tests distinguish replaced mappers
}

func newWidgetMapper(field string) widgetMapper {
	return widgetMapper{Base: mappable.NewBase[widget]("widget"), field: field}
}

func (m widgetMapper) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	w := v.(widget)
	n, err := mappable.ToValue(ctx.Container(), w.N)
	if err != nil {
		return nil, err
	}
	return map[string]any{m.field: n}, nil
}

func (m widgetMapper) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	n, err := mappable.FromValue[int](ctx.Container(), obj[m.field])
	if err != nil {
		return nil, err
	}
	return widget{N: n}, nil
}

func TestUse_ReplacesByBaseType(t *testing.T) {
	c := mappable.NewContainer(newWidgetMapper("n"))

	out, err := mappable.ToMap(c, widget{N: 7})
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if _, ok := out["n"]; !ok {
		t.Fatalf("expected key n, got %v", out)
	}

	c.Use(newWidgetMapper("count"))
	out, err = mappable.ToMap(c, widget{N: 7})
	if err != nil {
		t.Fatalf("encode after replace err: %v", err)
	}
	if _, ok := out["count"]; !ok {
		t.Fatalf("replacement mapper not used: %v", out)
	}
	if len(c.GetAll()) != 1 {
		t.Fatalf("replace must not grow the mapper set: %d", len(c.GetAll()))
	}
}

func TestUnuse_RemovesAndInvalidates(t *testing.T) {
	c := mappable.NewContainer(newWidgetMapper("n"))

	// warm the caches
	if _, err := mappable.ToValue(c, widget{N: 1}); err != nil {
		t.Fatalf("warmup err: %v", err)
	}

	removed := mappable.Unuse[widget](c)
	if removed == nil {
		t.Fatalf("expected the removed mapper back")
	}
	if m := mappable.Unuse[widget](c); m != nil {
		t.Fatalf("second unuse should return nil, got %v", m)
	}

	_, err := mappable.ToValue(c, widget{N: 1})
	if mappable.CodeOf(err) != mappable.CodeUnknownType {
		t.Fatalf("stale cache served a removed mapper: %v", err)
	}
}

func TestUse_ReplacementVisibleThroughCache(t *testing.T) {
	c := mappable.NewContainer(newWidgetMapper("n"))
	if _, err := mappable.ToValue(c, widget{N: 1}); err != nil {
		t.Fatalf("warmup err: %v", err)
	}

	c.Use(newWidgetMapper("count"))
	out, err := mappable.ToMap(c, widget{N: 1})
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if _, ok := out["count"]; !ok {
		t.Fatalf("cached lookup ignored the replacement: %v", out)
	}
}

func TestLink_FederationFallback(t *testing.T) {
	source := mappable.NewContainer(newWidgetMapper("n"))
	c := mappable.NewContainer()

	if _, err := mappable.ToValue(c, widget{N: 1}); mappable.CodeOf(err) != mappable.CodeUnknownType {
		t.Fatalf("expected unknown_type before linking, got %v", err)
	}

	c.Link(source)
	out, err := mappable.ToMap(c, widget{N: 1})
	if err != nil {
		t.Fatalf("linked encode err: %v", err)
	}
	if _, ok := out["n"]; !ok {
		t.Fatalf("unexpected tree: %v", out)
	}

	back, err := mappable.FromMap[widget](c, out)
	if err != nil {
		t.Fatalf("linked decode err: %v", err)
	}
	if back != (widget{N: 1}) {
		t.Fatalf("roundtrip mismatch: %+v", back)
	}
}

func TestUnlink_RemovesFallback(t *testing.T) {
	source := mappable.NewContainer(newWidgetMapper("n"))
	c := mappable.NewContainer()
	c.Link(source)

	if _, err := mappable.ToValue(c, widget{N: 1}); err != nil {
		t.Fatalf("linked encode err: %v", err)
	}

	c.Unlink(source)
	_, err := mappable.ToValue(c, widget{N: 1})
	if mappable.CodeOf(err) != mappable.CodeUnknownType {
		t.Fatalf("expected unknown_type after unlink, got %v", err)
	}
}

func TestLink_Idempotent(t *testing.T) {
	source := mappable.NewContainer(newWidgetMapper("n"))
	c := mappable.NewContainer()
	c.Link(source)
	c.Link(source)
	c.Unlink(source)

	// a duplicate edge would survive the single unlink
	_, err := mappable.ToValue(c, widget{N: 1})
	if mappable.CodeOf(err) != mappable.CodeUnknownType {
		t.Fatalf("duplicate link edge detected: %v", err)
	}
}

func TestOwnMapperPrecedesInherited(t *testing.T) {
	source := mappable.NewContainer(newWidgetMapper("inherited"))
	c := mappable.NewContainer(newWidgetMapper("own"))
	c.Link(source)

	out, err := mappable.ToMap(c, widget{N: 1})
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if _, ok := out["own"]; !ok {
		t.Fatalf("inherited mapper shadowed the own one: %v", out)
	}
}

func TestLinkCycle_ResolutionAndInvalidationTerminate(t *testing.T) {
	a := mappable.NewContainer()
	b := mappable.NewContainer(newWidgetMapper("n"))
	a.Link(b)
	b.Link(a)

	// aggregation across the cycle
	if _, err := mappable.ToValue(a, widget{N: 1}); err != nil {
		t.Fatalf("cyclic resolution err: %v", err)
	}

	// mutation on either side must invalidate both without looping
	b.Use(newWidgetMapper("count"))
	out, err := mappable.ToMap(a, widget{N: 1})
	if err != nil {
		t.Fatalf("post-invalidation encode err: %v", err)
	}
	if _, ok := out["count"]; !ok {
		t.Fatalf("invalidation did not cross the cycle: %v", out)
	}

	_ = mappable.Unuse[widget](b)
	if _, err := mappable.ToValue(a, widget{N: 1}); mappable.CodeOf(err) != mappable.CodeUnknownType {
		t.Fatalf("expected unknown_type after removal, got %v", err)
	}
}

func TestGet_ConsultsInheritedSet(t *testing.T) {
	source := mappable.NewContainer(newWidgetMapper("n"))
	c := mappable.NewContainer()

	if m := mappable.Get[widget](c); m != nil {
		t.Fatalf("expected nil before link, got %v", m)
	}
	c.Link(source)
	if m := mappable.Get[widget](c); m == nil {
		t.Fatalf("expected inherited mapper after link")
	}
}

func TestGlobal_VisibleThroughLink(t *testing.T) {
	// Global starts empty; registration makes the type visible to any
	// container that links it.
	mappable.Global().Use(gadgetMapper{Base: mappable.NewBase[gadget]("gadget")})
	defer mappable.Unuse[gadget](mappable.Global())

	c := mappable.NewContainer()
	c.Link(mappable.Global())
	if m := mappable.Get[gadget](c); m == nil {
		t.Fatalf("expected global mapper through link")
	}
}

type gadget struct{ N int }

type gadgetMapper struct {
	mappable.Base
}

func (m gadgetMapper) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	return map[string]any{"n": v.(gadget).N}, nil
}

func (m gadgetMapper) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	n, err := mappable.FromValue[int](ctx.Container(), obj["n"])
	if err != nil {
		return nil, err
	}
	return gadget{N: n}, nil
}
