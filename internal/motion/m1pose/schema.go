package m1pose

// Schema identifies the landmark topology produced by a pose-estimation
// model: point count, naming, and ordering.
type Schema string

const (
	// SchemaMoveNet17 is the 17-point COCO topology (MoveNet, PoseNet).
	SchemaMoveNet17 Schema = "movenet-17"
	// SchemaBlazePose33 is the 33-point BlazePose topology.
	SchemaBlazePose33 Schema = "blazepose-33"
)

// Landmark names shared across schemas. Side-specific names are built
// with LandmarkForSide rather than spelled out at call sites.
const (
	Nose          = "nose"
	LeftEye       = "left_eye"
	RightEye      = "right_eye"
	LeftEar       = "left_ear"
	RightEar      = "right_ear"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"

	// BlazePose-only points used for forearm roll reference.
	LeftIndex  = "left_index"
	RightIndex = "right_index"
	LeftPinky  = "left_pinky"
	RightPinky = "right_pinky"
)

// moveNet17Names is the canonical COCO keypoint ordering.
var moveNet17Names = []string{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow,
	LeftWrist, RightWrist, LeftHip, RightHip,
	LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// blazePose33Names is the BlazePose full-body ordering.
var blazePose33Names = []string{
	Nose,
	"left_eye_inner", LeftEye, "left_eye_outer",
	"right_eye_inner", RightEye, "right_eye_outer",
	LeftEar, RightEar,
	"mouth_left", "mouth_right",
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftPinky, RightPinky,
	LeftIndex, RightIndex,
	"left_thumb", "right_thumb",
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
	"left_heel", "right_heel",
	"left_foot_index", "right_foot_index",
}

var schemaNames = map[Schema][]string{
	SchemaMoveNet17:   moveNet17Names,
	SchemaBlazePose33: blazePose33Names,
}

var schemaIndex = func() map[Schema]map[string]int {
	out := make(map[Schema]map[string]int, len(schemaNames))
	for s, names := range schemaNames {
		idx := make(map[string]int, len(names))
		for i, n := range names {
			idx[n] = i
		}
		out[s] = idx
	}
	return out
}()

// Known reports whether s is a recognized landmark topology.
func (s Schema) Known() bool {
	_, ok := schemaNames[s]
	return ok
}

// PointCount returns the number of landmarks in the topology, or 0 for
// an unknown schema.
func (s Schema) PointCount() int {
	return len(schemaNames[s])
}

// Names returns the canonical landmark ordering for the schema. The
// returned slice must not be mutated.
func (s Schema) Names() []string {
	return schemaNames[s]
}

// Index returns the position of a named landmark within the topology.
func (s Schema) Index(name string) (int, bool) {
	idx, ok := schemaIndex[s]
	if !ok {
		return 0, false
	}
	i, ok := idx[name]
	return i, ok
}

// Has reports whether the topology includes the named landmark.
func (s Schema) Has(name string) bool {
	_, ok := s.Index(name)
	return ok
}

// HasZ reports whether the topology provides meaningful depth estimates.
// MoveNet's 17-point output is purely 2D; rules that need depth must
// reject evaluation under it rather than trusting zeroed z values.
func (s Schema) HasZ() bool {
	return s == SchemaBlazePose33
}

// Side identifies body laterality for side-scoped segments and joints.
type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

// Opposite returns the contralateral side.
func (s Side) Opposite() Side {
	if s == SideLeft {
		return SideRight
	}
	return SideLeft
}

// LandmarkForSide builds the side-qualified landmark name for a base
// point, e.g. LandmarkForSide(SideLeft, "shoulder") == "left_shoulder".
func LandmarkForSide(side Side, base string) string {
	return string(side) + "_" + base
}
