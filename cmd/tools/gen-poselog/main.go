// Command gen-poselog generates a synthetic pose log for testing replay:
// a camera-facing subject performing slow elbow-flexion repetitions with
// per-landmark gaussian jitter.
package main

import (
	"flag"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/kinemetric/motion.report/internal/motion/m1pose"
	"github.com/kinemetric/motion.report/internal/poselog"
)

var (
	output  = flag.String("o", "sample.poselog", "output path")
	frames  = flag.Int("n", 300, "number of frames")
	fps     = flag.Float64("fps", 30, "frames per second")
	periodS = flag.Float64("period", 4, "seconds per flexion repetition")
	jitter  = flag.Float64("jitter", 0.002, "per-landmark positional noise (normalized units)")
	seed    = flag.Int64("seed", 1, "random seed")
)

// base is the neutral standing pose in normalized image coordinates.
// The subject faces the camera, so their left side has larger X.
var base = map[string][2]float64{
	m1pose.Nose:          {0.50, 0.10},
	m1pose.LeftEye:       {0.52, 0.09},
	m1pose.RightEye:      {0.48, 0.09},
	m1pose.LeftEar:       {0.55, 0.10},
	m1pose.RightEar:      {0.45, 0.10},
	m1pose.LeftShoulder:  {0.62, 0.28},
	m1pose.RightShoulder: {0.38, 0.28},
	m1pose.LeftElbow:     {0.66, 0.44},
	m1pose.RightElbow:    {0.34, 0.44},
	m1pose.LeftWrist:     {0.68, 0.60},
	m1pose.RightWrist:    {0.32, 0.60},
	m1pose.LeftHip:       {0.58, 0.55},
	m1pose.RightHip:      {0.42, 0.55},
	m1pose.LeftKnee:      {0.58, 0.75},
	m1pose.RightKnee:     {0.42, 0.75},
	m1pose.LeftAnkle:     {0.58, 0.93},
	m1pose.RightAnkle:    {0.42, 0.93},
}

func main() {
	flag.Parse()

	f, err := os.Create(*output)
	if err != nil {
		log.Fatalf("failed to create output: %v", err)
	}
	defer f.Close()

	rng := rand.New(rand.NewSource(*seed))
	w := poselog.NewWriter(f)
	t0 := time.Now().UTC()
	interval := time.Duration(float64(time.Second) / *fps)
	forearmLen := 0.16

	for i := 0; i < *frames; i++ {
		ts := t0.Add(time.Duration(i) * interval)

		// Flexion sweeps 0..~130 degrees and back once per period: the
		// right wrist orbits the elbow while everything else holds still.
		phase := 2 * math.Pi * float64(i) / (*periodS * *fps)
		flexion := 65 * (1 - math.Cos(phase)) // degrees
		theta := flexion * math.Pi / 180

		landmarks := make([]m1pose.Landmark, 0, len(base))
		for _, name := range m1pose.SchemaMoveNet17.Names() {
			c := base[name]
			x, y := c[0], c[1]
			if name == m1pose.RightWrist {
				ex, ey := base[m1pose.RightElbow][0], base[m1pose.RightElbow][1]
				// Straight arm hangs down; flexion swings the forearm up
				// and laterally away from the body.
				x = ex - forearmLen*math.Sin(theta)
				y = ey + forearmLen*math.Cos(theta)
			}
			landmarks = append(landmarks, m1pose.Landmark{
				Name:       name,
				X:          x + rng.NormFloat64()*(*jitter),
				Y:          y + rng.NormFloat64()*(*jitter),
				Visibility: 0.9 + 0.1*rng.Float64(),
			})
		}

		frame, err := m1pose.NewPoseFrame(m1pose.SchemaMoveNet17, ts, landmarks, 0.95)
		if err != nil {
			log.Fatalf("frame %d invalid: %v", i, err)
		}
		if err := w.Write(frame); err != nil {
			log.Fatalf("write frame %d: %v", i, err)
		}
		if (i+1)%100 == 0 {
			log.Printf("%d/%d frames", i+1, *frames)
		}
	}
	if err := w.Flush(); err != nil {
		log.Fatalf("flush: %v", err)
	}
	log.Printf("✓ Created: %s", *output)
}
