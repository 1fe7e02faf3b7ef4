package points

// BufferBuilderOption is a functional option for configuring a point-state Buffer.
type BufferBuilderOption func(*buffer)

// WithLabel sets the debug label of the GPU buffer.
//
// Parameters:
//   - label: the buffer label
//
// Returns:
//   - BufferBuilderOption: a function that applies the label to a buffer
func WithLabel(label string) BufferBuilderOption {
	return func(b *buffer) {
		b.label = label
	}
}
