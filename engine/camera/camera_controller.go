package camera

import (
	"errors"
	"sync"

	"github.com/Carmen-Shannon/oxy-lorenz/common"
)

// ErrDegenerateDirection is returned when a view direction is zero, non-finite, or parallel to the up vector.
var ErrDegenerateDirection = errors.New("degenerate camera direction")

// degenerateRightLength is the length below which dir×up is treated as zero.
const degenerateRightLength = 1e-6

// WorldUp is the constant up vector of the free-fly controller.
var WorldUp = common.Vec3{0, 1, 0}

// CameraController owns the camera's positional state and turns raw input into motion.
// The camera reads position and direction from its controller when recomputing matrices.
type CameraController interface {
	// Position returns the camera's world-space position.
	//
	// Returns:
	//   - common.Vec3: world-space camera position
	Position() common.Vec3

	// Direction returns the unit view direction.
	//
	// Returns:
	//   - common.Vec3: the direction the camera faces
	Direction() common.Vec3

	// Up returns the constant world up vector.
	//
	// Returns:
	//   - common.Vec3: the up vector
	Up() common.Vec3

	// SetPosition sets the camera's world-space position directly.
	//
	// Parameters:
	//   - pos: world-space coordinates
	SetPosition(pos common.Vec3)

	// SetDirection sets the view direction. The direction is normalized.
	//
	// Parameters:
	//   - dir: the new view direction
	//
	// Returns:
	//   - error: ErrDegenerateDirection if dir is zero, non-finite or parallel to up
	SetDirection(dir common.Vec3) error

	// HandleKey records a movement key press or release.
	//
	// Parameters:
	//   - code: the GLFW key code
	//   - pressed: true on press, false on release
	//
	// Returns:
	//   - bool: true if the key is a movement key
	HandleKey(code uint32, pressed bool) bool

	// HandleMouseDelta accumulates relative mouse motion until the next Update.
	//
	// Parameters:
	//   - dx, dy: mouse motion in pixels
	HandleMouseDelta(dx, dy float32)

	// Update applies the accumulated mouse rotation and held-key translation, then clears
	// the mouse accumulator. Rotation yaws about up, then pitches about the right vector;
	// a pitch that would carry the direction over a pole is rejected.
	//
	// Parameters:
	//   - dt: elapsed time in seconds, scaling translation
	Update(dt float32)

	// Speed returns the translation speed in world units per second.
	//
	// Returns:
	//   - float32: the speed
	Speed() float32

	// Sensitivity returns the mouse sensitivity in degrees per pixel.
	//
	// Returns:
	//   - float32: the sensitivity
	Sensitivity() float32
}

// freeFlyController is the implementation of CameraController.
type freeFlyController struct {
	mu *sync.Mutex

	position  common.Vec3
	direction common.Vec3
	up        common.Vec3

	speed       float32
	sensitivity float32

	forward, backward, left, right bool
	dx, dy                         float32
}

var _ CameraController = &freeFlyController{}

// NewFreeFlyController creates a free-fly controller. Defaults place the camera at
// (50, 50, 50) looking at the origin with +Y up, moving at 100 units per second with a
// mouse sensitivity of 0.1 degrees per pixel.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewFreeFlyController(options ...CameraControllerOption) CameraController {
	cc := &freeFlyController{
		mu:          &sync.Mutex{},
		position:    common.Vec3{50, 50, 50},
		direction:   common.Normalize3(common.Vec3{-1, -1, -1}),
		up:          WorldUp,
		speed:       100,
		sensitivity: 0.1,
	}
	for _, opt := range options {
		opt(cc)
	}
	return cc
}

func (cc *freeFlyController) Position() common.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.position
}

func (cc *freeFlyController) Direction() common.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.direction
}

func (cc *freeFlyController) Up() common.Vec3 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.up
}

func (cc *freeFlyController) SetPosition(pos common.Vec3) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.position = pos
}

func (cc *freeFlyController) SetDirection(dir common.Vec3) error {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	d, err := validDirection(dir, cc.up)
	if err != nil {
		return err
	}
	cc.direction = d
	return nil
}

func (cc *freeFlyController) HandleKey(code uint32, pressed bool) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	switch code {
	case common.KeyW, common.KeyUp:
		cc.forward = pressed
	case common.KeyS, common.KeyDown:
		cc.backward = pressed
	case common.KeyA, common.KeyLeft:
		cc.left = pressed
	case common.KeyD, common.KeyRight:
		cc.right = pressed
	default:
		return false
	}
	return true
}

func (cc *freeFlyController) HandleMouseDelta(dx, dy float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.dx += dx
	cc.dy += dy
}

func (cc *freeFlyController) Update(dt float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()

	if cc.dx != 0 || cc.dy != 0 {
		cc.direction = rotate(cc.direction, cc.up, cc.dx, cc.dy, cc.sensitivity)
	}
	cc.dx, cc.dy = 0, 0

	step := cc.speed * dt
	forward := common.Scale3(cc.direction, step)
	right := common.Scale3(common.Normalize3(common.Cross3(cc.direction, cc.up)), step)
	if cc.forward {
		cc.position = common.Add3(cc.position, forward)
	}
	if cc.backward {
		cc.position = common.Sub3(cc.position, forward)
	}
	if cc.right {
		cc.position = common.Add3(cc.position, right)
	}
	if cc.left {
		cc.position = common.Sub3(cc.position, right)
	}
}

func (cc *freeFlyController) Speed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speed
}

func (cc *freeFlyController) Sensitivity() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.sensitivity
}

// rotate yaws dir about up by -dx·sens degrees, then pitches it about normalize(dir×up)
// by -dy·sens degrees. The pitch is kept only if the right vector does not flip sign
// (old·new ≥ 0, with an exactly-zero product allowed) and does not vanish. A rejected
// pitch snaps the vertical component to ±1 before renormalizing.
func rotate(dir, up common.Vec3, dx, dy, sens float32) common.Vec3 {
	dir = common.RotateAxis(dir, up, common.Radians(-dx*sens))

	oldRight := common.Cross3(dir, up)
	pitched := common.RotateAxis(dir, common.Normalize3(oldRight), common.Radians(-dy*sens))
	newRight := common.Cross3(pitched, up)

	if common.Length3(newRight) >= degenerateRightLength && common.Dot3(oldRight, newRight) >= 0 {
		dir = pitched
	} else if dir[1] >= 0 {
		dir[1] = 1
	} else {
		dir[1] = -1
	}
	return common.Normalize3(dir)
}

// ValidateDirection normalizes dir for use as a free-fly view direction.
//
// Parameters:
//   - dir: the candidate direction
//
// Returns:
//   - common.Vec3: the unit direction
//   - error: ErrDegenerateDirection if dir is zero, non-finite, or parallel to WorldUp
func ValidateDirection(dir common.Vec3) (common.Vec3, error) {
	return validDirection(dir, WorldUp)
}

func validDirection(dir, up common.Vec3) (common.Vec3, error) {
	if !common.IsFinite3(dir) || common.Length3(dir) == 0 {
		return dir, ErrDegenerateDirection
	}
	d := common.Normalize3(dir)
	if common.Length3(common.Cross3(d, up)) < degenerateRightLength {
		return dir, ErrDegenerateDirection
	}
	return d, nil
}
