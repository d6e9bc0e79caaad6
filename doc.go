// Package mappable provides:
//
// - A mapper container: a registry of per-type codecs resolved by value or by type
// - Polymorphic encode/decode through a "__type" discriminator on object values
// - Hierarchical composition: containers link into a cycle-safe resolution graph
// - A stable error model via Error (method, code, hint, preserved cause)
//
// Design policy:
// - Keep only public APIs in the root package; type identity lives in typeid/.
// - Place concrete value codecs under codec/ and register them per container.
// - Prefer black-box testing against public APIs.
//
// Typical usage:
//
//	c := mappable.NewContainer(shapeMapper{}, circleMapper{})
//	tree, err := mappable.ToValue[Shape](c, circle)
//	back, err := mappable.FromValue[Shape](c, tree)
//
//	data, err := mappable.ToJSON[Shape](c, circle)
//	back2, err := mappable.FromJSON[Shape](c, data)
package mappable
