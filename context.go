package mappable

import (
	"github.com/mappable-go/mappable/typeid"
)

// EncodeOptions tunes a single ToValue call.
type EncodeOptions struct {
	// IncludeTypeID forces (true) or suppresses (false) the discriminator.
	// When nil the resolved mapper's policy decides.
	IncludeTypeID *bool
	// InheritOptions makes nested encode calls reuse these options. Without
	// it nested calls run with no options; propagation is explicit, never
	// ambient.
	InheritOptions bool
}

// IncludeAlways / IncludeNever are ready-made option values for the common
// per-call overrides.
var (
	IncludeAlways = EncodeOptions{IncludeTypeID: ptrBool(true)}
	IncludeNever  = EncodeOptions{IncludeTypeID: ptrBool(false)}
)

func ptrBool(b bool) *bool { return &b }

// MappingContext is the per-call bundle handed to equality, hash, and
// stringify implementations. Contexts are immutable; mappers recurse by
// calling back into Container.
type MappingContext struct {
	container *Container
}

// Container returns the container the call entered through.
func (c MappingContext) Container() *Container { return c.container }

// DecodingContext carries the owning container and the resolved type
// arguments of the effective decode target.
type DecodingContext struct {
	MappingContext
	args []typeid.Desc
}

// Args returns the effective type's ordered argument list.
func (c DecodingContext) Args() []typeid.Desc { return c.args }

// Arg returns the i-th argument, or typeid.Any when absent.
func (c DecodingContext) Arg(i int) typeid.Desc {
	if i < 0 || i >= len(c.args) {
		return typeid.Any
	}
	return c.args[i]
}

// EncodingContext carries the owning container, the computed type arguments,
// and the options to propagate into nested calls (nil unless the caller set
// InheritOptions).
type EncodingContext struct {
	MappingContext
	args    []typeid.Desc
	options *EncodeOptions
}

// Args returns the computed type-argument list for this encode call.
func (c EncodingContext) Args() []typeid.Desc { return c.args }

// Arg returns the i-th argument, or typeid.Any when absent.
func (c EncodingContext) Arg(i int) typeid.Desc {
	if i < 0 || i >= len(c.args) {
		return typeid.Any
	}
	return c.args[i]
}

// Options returns the propagated options, or nil when the top-level call did
// not opt into inheritance.
func (c EncodingContext) Options() *EncodeOptions { return c.options }

func newDecodingContext(c *Container, args []typeid.Desc) DecodingContext {
	return DecodingContext{MappingContext: MappingContext{container: c}, args: args}
}

func newEncodingContext(c *Container, args []typeid.Desc, opts *EncodeOptions) EncodingContext {
	ec := EncodingContext{MappingContext: MappingContext{container: c}, args: args}
	if opts != nil && opts.InheritOptions {
		ec.options = opts
	}
	return ec
}
