package lifecycle

import "context"

// Composite groups several steps behind a single registration. Children
// initialize in the order they were given and tear down in reverse, with the
// same fail-fast behavior the Runner applies to top-level steps, so a
// composite is indistinguishable from a flat registration of its children.
type Composite struct {
	name     string
	children []Step
}

// NewComposite creates a composite step with the given children.
func NewComposite(name string, children ...Step) *Composite {
	return &Composite{name: name, children: children}
}

// Name returns the composite's registered name.
func (c *Composite) Name() string { return c.name }

// Steps returns the children in registration order.
func (c *Composite) Steps() []Step {
	out := make([]Step, len(c.children))
	copy(out, c.children)
	return out
}

// Init runs every child's Init in order, stopping at the first error or
// cancellation.
func (c *Composite) Init(ctx context.Context) error {
	for _, child := range c.children {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := child.Init(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Teardown runs the teardown-capable children in reverse order, stopping at
// the first error or cancellation. Children without teardown support are
// skipped.
func (c *Composite) Teardown(ctx context.Context) error {
	for i := len(c.children) - 1; i >= 0; i-- {
		td, ok := AsTeardown(c.children[i])
		if !ok {
			continue
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := td.Teardown(ctx); err != nil {
			return err
		}
	}
	return nil
}
