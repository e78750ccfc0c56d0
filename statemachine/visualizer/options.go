package visualizer

// Options configures the visualization output.
type Options struct {
	// ShowKinds includes each state's catalog kind in its node, when it differs from the name.
	ShowKinds bool

	// Direction controls diagram flow: "TB" (top-bottom) or "LR" (left-right)
	Direction string

	// HighlightPath highlights the states and transitions of an observed path,
	// typically statemachine.Path(machine.History()).
	HighlightPath []string
}

// DefaultOptions returns sensible defaults for visualization.
func DefaultOptions() Options {
	return Options{
		ShowKinds: true,
		Direction: "TB",
	}
}

// WithShowKinds enables/disables kind details.
func (o Options) WithShowKinds(show bool) Options {
	o.ShowKinds = show

	return o
}

// WithDirection sets the diagram direction.
func (o Options) WithDirection(direction string) Options {
	o.Direction = direction

	return o
}

// WithHighlightPath sets the path to highlight.
func (o Options) WithHighlightPath(path []string) Options {
	o.HighlightPath = path

	return o
}
