package mappable_test

import (
	"testing"

	mappable "github.com/mappable-go/mappable"
)

// Shape is a polymorphic family; circle and square are its concrete members.
type shape interface {
	area() float64
}

type circle struct {
	Radius float64
}

func (c circle) area() float64 { return 3.14159 * c.Radius * c.Radius }

type square struct {
	Side float64
}

func (s square) area() float64 { return s.Side * s.Side }

type circleMapper struct {
	mappable.Base
}

func newCircleMapper() circleMapper {
	return circleMapper{Base: mappable.NewBase[circle]("circle")}
}

func (m circleMapper) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	cv := v.(circle)
	r, err := mappable.ToValue(ctx.Container(), cv.Radius)
	if err != nil {
		return nil, err
	}
	return map[string]any{"radius": r}, nil
}

func (m circleMapper) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	r, err := mappable.FromValue[float64](ctx.Container(), obj["radius"])
	if err != nil {
		return nil, err
	}
	return circle{Radius: r}, nil
}

type squareMapper struct {
	mappable.Base
}

func newSquareMapper() squareMapper {
	return squareMapper{Base: mappable.NewBase[square]("square")}
}

func (m squareMapper) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	sv := v.(square)
	s, err := mappable.ToValue(ctx.Container(), sv.Side)
	if err != nil {
		return nil, err
	}
	return map[string]any{"side": s}, nil
}

func (m squareMapper) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	s, err := mappable.FromValue[float64](ctx.Container(), obj["side"])
	if err != nil {
		return nil, err
	}
	return square{Side: s}, nil
}

// shapeMapper governs the family: IsFor admits any shape, and SubOrSelfFor
// refines to the member mappers.
type shapeMapper struct {
	mappable.Base
	subs map[string]mappable.Mapper
}

func newShapeMapper() shapeMapper {
	return shapeMapper{
		Base: mappable.NewBase[shape]("shape"),
		subs: map[string]mappable.Mapper{
			"circle": newCircleMapper(),
			"square": newSquareMapper(),
		},
	}
}

func (m shapeMapper) IsFor(v any) bool {
	_, ok := v.(shape)
	return ok
}

func (m shapeMapper) SubOrSelfFor(v any) mappable.Mapper {
	switch v.(type) {
	case circle:
		return m.subs["circle"]
	case square:
		return m.subs["square"]
	}
	return m
}

func (m shapeMapper) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	return nil, errNotObject // the family itself never encodes; subs do
}

func (m shapeMapper) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	return nil, errNotObject
}

func shapeContainer() *mappable.Container {
	return mappable.NewContainer(newShapeMapper(), newCircleMapper(), newSquareMapper())
}

func TestDiscriminator_RoundTrip(t *testing.T) {
	c := shapeContainer()

	tree, err := mappable.ToMap[shape](c, circle{Radius: 2})
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if tree[mappable.TypeKey] != "circle" {
		t.Fatalf("expected __type circle, got %v", tree)
	}
	if _, ok := tree["radius"]; !ok {
		t.Fatalf("payload missing: %v", tree)
	}

	back, err := mappable.FromMap[shape](c, tree)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	got, ok := back.(circle)
	if !ok {
		t.Fatalf("expected a circle back, got %T", back)
	}
	if got.Radius != 2 {
		t.Fatalf("radius mismatch: %v", got)
	}
}

func TestDiscriminator_OmittedForExactStaticType(t *testing.T) {
	c := shapeContainer()

	tree, err := mappable.ToMap(c, circle{Radius: 2})
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if _, tagged := tree[mappable.TypeKey]; tagged {
		t.Fatalf("static==dynamic must not embed a discriminator: %v", tree)
	}
}

func TestDiscriminator_PerCallOverride(t *testing.T) {
	c := shapeContainer()

	tree, err := mappable.ToMap(c, circle{Radius: 2}, mappable.IncludeAlways)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if tree[mappable.TypeKey] != "circle" {
		t.Fatalf("forced discriminator missing: %v", tree)
	}

	tree, err = mappable.ToMap[shape](c, circle{Radius: 2}, mappable.IncludeNever)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if _, tagged := tree[mappable.TypeKey]; tagged {
		t.Fatalf("suppressed discriminator present: %v", tree)
	}
}

func TestExactMatchPrecedesPredicate(t *testing.T) {
	// shapeMapper would match a circle via IsFor (and refine to a sub-mapper
	// that writes "radius"), but the exact registration must win. The exact
	// mapper here writes "r", so the winner is observable in the tree.
	c := mappable.NewContainer(newShapeMapper(), terseCircleMapper{Base: mappable.NewBase[circle]("circle-terse")})

	tree, err := mappable.ToMap(c, circle{Radius: 1})
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if _, ok := tree["r"]; !ok {
		t.Fatalf("predicate mapper shadowed the exact one: %v", tree)
	}
}

// terseCircleMapper is an alternative exact mapper for circle with a
// distinguishable wire shape.
type terseCircleMapper struct {
	mappable.Base
}

func (m terseCircleMapper) Encode(v any, ctx mappable.EncodingContext) (any, error) {
	return map[string]any{"r": v.(circle).Radius}, nil
}

func (m terseCircleMapper) Decode(v any, ctx mappable.DecodingContext) (any, error) {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, errNotObject
	}
	r, err := mappable.FromValue[float64](ctx.Container(), obj["r"])
	if err != nil {
		return nil, err
	}
	return circle{Radius: r}, nil
}

func TestRefinement_SubOrSelfFor(t *testing.T) {
	// Only the family mapper is registered; encoding still reaches the
	// dedicated sub-mapper and tags with the member id.
	c := mappable.NewContainer(newShapeMapper())

	tree, err := mappable.ToMap[shape](c, square{Side: 3})
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	if tree[mappable.TypeKey] != "square" {
		t.Fatalf("refinement did not reach the sub-mapper: %v", tree)
	}
	if _, ok := tree["side"]; !ok {
		t.Fatalf("sub-mapper payload missing: %v", tree)
	}
}

func TestDecode_UnresolvedDiscriminator(t *testing.T) {
	c := shapeContainer()

	_, err := mappable.FromMap[shape](c, map[string]any{mappable.TypeKey: "hexagon"})
	var me *mappable.Error
	if !asMapperError(err, &me) {
		t.Fatalf("expected *mappable.Error, got %v", err)
	}
	if me.Code != mappable.CodeUnresolvedType {
		t.Fatalf("expected unresolved_type, got %+v", me)
	}
}

func TestOptions_InheritOptionsPropagates(t *testing.T) {
	c := shapeContainer()
	elems := []any{circle{Radius: 1}}

	// Default: an element statically typed any gets tagged.
	tree, err := mappable.ToSlice(c, elems)
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	obj := tree[0].(map[string]any)
	if obj[mappable.TypeKey] != "circle" {
		t.Fatalf("expected nested discriminator: %v", obj)
	}

	// Suppression only reaches nested calls when inheritance is requested.
	never := false
	tree, err = mappable.ToSlice(c, elems, mappable.EncodeOptions{IncludeTypeID: &never, InheritOptions: true})
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	obj = tree[0].(map[string]any)
	if _, tagged := obj[mappable.TypeKey]; tagged {
		t.Fatalf("inherited suppression ignored: %v", obj)
	}

	tree, err = mappable.ToSlice(c, elems, mappable.EncodeOptions{IncludeTypeID: &never})
	if err != nil {
		t.Fatalf("encode err: %v", err)
	}
	obj = tree[0].(map[string]any)
	if obj[mappable.TypeKey] != "circle" {
		t.Fatalf("non-inherited options must not leak into nested calls: %v", obj)
	}
}

func TestDecode_TreeAlreadySatisfiesTarget(t *testing.T) {
	c := shapeContainer()

	obj := map[string]any{"radius": 2.0}
	got, err := mappable.FromValue[map[string]any](c, obj)
	if err != nil {
		t.Fatalf("decode err: %v", err)
	}
	if got["radius"] != 2.0 {
		t.Fatalf("untagged object should pass through: %v", got)
	}
}
