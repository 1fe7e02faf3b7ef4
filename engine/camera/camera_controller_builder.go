package camera

import "github.com/Carmen-Shannon/oxy-lorenz/common"

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*freeFlyController)

// WithPosition sets the initial camera position.
//
// Parameters:
//   - pos: world-space position
//
// Returns:
//   - CameraControllerOption: functional option to set the position
func WithPosition(pos common.Vec3) CameraControllerOption {
	return func(cc *freeFlyController) {
		cc.position = pos
	}
}

// WithDirection sets the initial view direction. Degenerate directions are ignored
// and the default is kept.
//
// Parameters:
//   - dir: the view direction (normalized on use)
//
// Returns:
//   - CameraControllerOption: functional option to set the direction
func WithDirection(dir common.Vec3) CameraControllerOption {
	return func(cc *freeFlyController) {
		if d, err := validDirection(dir, cc.up); err == nil {
			cc.direction = d
		}
	}
}

// WithSpeed sets the translation speed.
//
// Parameters:
//   - speed: world units per second
//
// Returns:
//   - CameraControllerOption: functional option to set the speed
func WithSpeed(speed float32) CameraControllerOption {
	return func(cc *freeFlyController) {
		cc.speed = speed
	}
}

// WithSensitivity sets the mouse sensitivity.
//
// Parameters:
//   - sensitivity: degrees of rotation per pixel of mouse motion
//
// Returns:
//   - CameraControllerOption: functional option to set the sensitivity
func WithSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *freeFlyController) {
		cc.sensitivity = sensitivity
	}
}
