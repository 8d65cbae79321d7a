package quota

// Chain is an ordered list of model identifiers with a cursor on the
// active model. The cursor only moves forward: once a model is passed it
// is never retried within the same run, even if its day window would
// reset mid-run.
type Chain struct {
	models []string
	cursor int
	done   bool
}

// NewChain creates a chain over the configured model order. The first
// model is active.
func NewChain(models []string) *Chain {
	return &Chain{
		models: models,
		done:   len(models) == 0,
	}
}

// Current returns the active model identifier. Empty when the chain is
// exhausted.
func (c *Chain) Current() string {
	if c.done {
		return ""
	}
	return c.models[c.cursor]
}

// Advance moves the cursor to the next model. It returns false when no
// model remains, which is the terminal condition for a run.
func (c *Chain) Advance() bool {
	if c.done {
		return false
	}
	c.cursor++
	if c.cursor >= len(c.models) {
		c.done = true
		return false
	}
	return true
}

// AllExhausted reports whether the chain has run out of models.
func (c *Chain) AllExhausted() bool {
	return c.done
}

// Models returns the configured model order.
func (c *Chain) Models() []string {
	return c.models
}
