package condition

// Evaluate runs conditions against ctx using op.
//
// An empty list allows. And short-circuits on the first false, Or on the
// first true. Nil entries are skipped.
func Evaluate(op Operator, conditions []Condition, ctx *Context) bool {
	if len(conditions) == 0 {
		return true
	}

	if op == Or {
		evaluated := false
		for _, c := range conditions {
			if c == nil {
				continue
			}
			evaluated = true
			if c.Evaluate(ctx) {
				return true
			}
		}
		// A list made only of nil entries behaves like an empty list.
		return !evaluated
	}

	for _, c := range conditions {
		if c == nil {
			continue
		}
		if !c.Evaluate(ctx) {
			return false
		}
	}
	return true
}

// NotifyStart calls OnPlayStart on every condition in order.
func NotifyStart(conditions []Condition, ctx *Context) {
	for _, c := range conditions {
		if c != nil {
			c.OnPlayStart(ctx)
		}
	}
}

// NotifyStop calls OnPlayStop on every condition in order.
func NotifyStop(conditions []Condition, ctx *Context) {
	for _, c := range conditions {
		if c != nil {
			c.OnPlayStop(ctx)
		}
	}
}
