package render

import "go.uber.org/zap"

// StageOption is a functional option applied to the render stage during construction via NewStage.
type StageOption func(*stage)

// WithPointSize sets the sprite edge length in world units. Non-positive values are ignored.
//
// Parameters:
//   - size: the sprite size
//
// Returns:
//   - StageOption: a function that applies the size option
func WithPointSize(size float32) StageOption {
	return func(s *stage) {
		if size > 0 {
			s.params.Size = size
		}
	}
}

// WithColor sets the RGBA sprite color.
//
// Parameters:
//   - color: the sprite color
//
// Returns:
//   - StageOption: a function that applies the color option
func WithColor(color [4]float32) StageOption {
	return func(s *stage) {
		s.params.Color = color
	}
}

// WithSmoothShading draws round sprites when enabled and flat squares otherwise.
//
// Parameters:
//   - enabled: true for round sprites
//
// Returns:
//   - StageOption: a function that applies the shading option
func WithSmoothShading(enabled bool) StageOption {
	return func(s *stage) {
		s.params.SmoothShading = boolToUint32(enabled)
	}
}

// WithLogger sets the logger used by the stage.
func WithLogger(logger *zap.Logger) StageOption {
	return func(s *stage) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func boolToUint32(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}
