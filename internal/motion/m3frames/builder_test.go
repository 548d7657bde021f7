package m3frames

import (
	"errors"
	"testing"
	"time"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r3"
)

// standingPose returns a frontal, camera-facing standing pose. Positions
// are normalized image coordinates (y grows downward). Overrides replace
// individual landmarks before frame construction.
func standingPose(t *testing.T, schema m1pose.Schema, ts time.Time, overrides map[string]m1pose.Landmark) *m1pose.PoseFrame {
	t.Helper()
	base := map[string][3]float64{
		m1pose.LeftShoulder:  {0.60, 0.30, 0},
		m1pose.RightShoulder: {0.40, 0.30, 0},
		m1pose.LeftElbow:     {0.62, 0.42, 0},
		m1pose.RightElbow:    {0.38, 0.42, 0},
		m1pose.LeftWrist:     {0.63, 0.54, 0},
		m1pose.RightWrist:    {0.37, 0.54, 0},
		m1pose.LeftHip:       {0.57, 0.55, 0},
		m1pose.RightHip:      {0.43, 0.55, 0},
		m1pose.LeftKnee:      {0.56, 0.75, 0},
		m1pose.RightKnee:     {0.44, 0.75, 0},
		m1pose.LeftAnkle:     {0.56, 0.92, 0},
		m1pose.RightAnkle:    {0.44, 0.92, 0},
		m1pose.LeftIndex:     {0.635, 0.58, -0.05},
		m1pose.RightIndex:    {0.365, 0.58, -0.05},
	}
	lms := make([]m1pose.Landmark, 0, schema.PointCount())
	for _, name := range schema.Names() {
		lm := m1pose.Landmark{Name: name, X: 0.5, Y: 0.2, Visibility: 1.0}
		if p, ok := base[name]; ok {
			lm.X, lm.Y, lm.Z = p[0], p[1], p[2]
		}
		if o, ok := overrides[name]; ok {
			o.Name = name
			lm = o
		}
		lms = append(lms, lm)
	}
	frame, err := m1pose.NewPoseFrame(schema, ts, lms, 1.0)
	require.NoError(t, err)
	return frame
}

func assertOrthonormal(t *testing.T, f AnatomicalFrame) {
	t.Helper()
	const tol = 1e-9
	assert.InDelta(t, 1.0, r3.Norm(f.XAxis), tol, "x axis unit length")
	assert.InDelta(t, 1.0, r3.Norm(f.YAxis), tol, "y axis unit length")
	assert.InDelta(t, 1.0, r3.Norm(f.ZAxis), tol, "z axis unit length")
	assert.InDelta(t, 0.0, r3.Dot(f.XAxis, f.YAxis), tol, "x·y")
	assert.InDelta(t, 0.0, r3.Dot(f.YAxis, f.ZAxis), tol, "y·z")
	assert.InDelta(t, 0.0, r3.Dot(f.XAxis, f.ZAxis), tol, "x·z")
	// Right-handed: X = Y × Z.
	cross := r3.Cross(f.YAxis, f.ZAxis)
	assert.InDelta(t, 0.0, r3.Norm(r3.Sub(cross, f.XAxis)), tol, "right-handedness")
}

func TestThoraxFrameOrthonormal(t *testing.T) {
	frame := standingPose(t, m1pose.SchemaBlazePose33, time.Unix(10, 0), nil)
	b := NewBuilder(0.5)

	thorax, err := b.ThoraxFrame(frame)
	require.NoError(t, err)
	assertOrthonormal(t, thorax)

	// Y must point up the trunk: image y grows downward, so up is -Y.
	assert.Less(t, thorax.YAxis.Y, 0.0)
	// Z points to the subject's right, which appears at image -X.
	assert.Less(t, thorax.ZAxis.X, 0.0)
	assert.Equal(t, 1.0, thorax.Confidence)
}

func TestPelvisAndGlobalFrames(t *testing.T) {
	frame := standingPose(t, m1pose.SchemaBlazePose33, time.Unix(10, 0), nil)
	b := NewBuilder(0.5)

	pelvis, err := b.PelvisFrame(frame)
	require.NoError(t, err)
	assertOrthonormal(t, pelvis)
	assert.InDelta(t, 0.5, pelvis.Origin.X, 1e-9, "pelvis origin at mid-hip")
	assert.InDelta(t, 0.55, pelvis.Origin.Y, 1e-9)

	global, err := b.GlobalFrame(frame)
	require.NoError(t, err)
	assertOrthonormal(t, global)
}

func TestHumerusAndForearmFrames(t *testing.T) {
	frame := standingPose(t, m1pose.SchemaBlazePose33, time.Unix(10, 0), nil)
	b := NewBuilder(0.5)

	thorax, err := b.ThoraxFrame(frame)
	require.NoError(t, err)

	humerus, err := b.HumerusFrame(frame, m1pose.SideLeft, thorax)
	require.NoError(t, err)
	assertOrthonormal(t, humerus)
	// Arm hangs down: proximal humerus axis points up (-Y in image space).
	assert.Less(t, humerus.YAxis.Y, 0.0)

	forearm, err := b.ForearmFrame(frame, m1pose.SideLeft)
	require.NoError(t, err)
	assertOrthonormal(t, forearm)
}

func TestForearmRequiresHandTopology(t *testing.T) {
	frame := standingPose(t, m1pose.SchemaMoveNet17, time.Unix(10, 0), nil)
	b := NewBuilder(0.5)

	_, err := b.ForearmFrame(frame, m1pose.SideLeft)
	require.Error(t, err)
	assert.True(t, errors.Is(err, m1pose.ErrSchemaUnsupported), "got %v", err)
}

func TestLowVisibilityRejected(t *testing.T) {
	frame := standingPose(t, m1pose.SchemaMoveNet17, time.Unix(10, 0), map[string]m1pose.Landmark{
		m1pose.LeftHip: {X: 0.57, Y: 0.55, Visibility: 0.3},
	})
	b := NewBuilder(0.5)

	_, err := b.ThoraxFrame(frame)
	require.Error(t, err)
	assert.True(t, errors.Is(err, m1pose.ErrInsufficientLandmarks), "got %v", err)
}

func TestDegenerateGeometryRejected(t *testing.T) {
	// Both shoulders at the same point: the shoulder line vanishes and the
	// basis cannot be completed.
	frame := standingPose(t, m1pose.SchemaMoveNet17, time.Unix(10, 0), map[string]m1pose.Landmark{
		m1pose.LeftShoulder:  {X: 0.5, Y: 0.30, Visibility: 1},
		m1pose.RightShoulder: {X: 0.5, Y: 0.30, Visibility: 1},
	})
	b := NewBuilder(0.5)

	_, err := b.ThoraxFrame(frame)
	require.Error(t, err)
	assert.True(t, errors.Is(err, m1pose.ErrDegenerateGeometry), "got %v", err)
}

func TestFrameConfidenceNeverExceedsWeakestInput(t *testing.T) {
	frame := standingPose(t, m1pose.SchemaMoveNet17, time.Unix(10, 0), map[string]m1pose.Landmark{
		m1pose.RightHip: {X: 0.43, Y: 0.55, Visibility: 0.6},
	})
	b := NewBuilder(0.5)

	thorax, err := b.ThoraxFrame(frame)
	require.NoError(t, err)
	assert.Equal(t, 0.6, thorax.Confidence)

	humerus, err := b.HumerusFrame(frame, m1pose.SideLeft, thorax)
	require.NoError(t, err)
	assert.LessOrEqual(t, humerus.Confidence, thorax.Confidence,
		"derived confidence must not exceed the parent frame's")
}
