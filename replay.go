package main

import (
	"context"
	"errors"
	"io"
	"log"
	"time"

	"github.com/kinemetric/motion.report/internal/motion/pipeline"
	"github.com/kinemetric/motion.report/internal/poselog"
	"github.com/kinemetric/motion.report/internal/timeutil"
)

// maxReplaySleep caps pacing gaps so a log with a recording pause does
// not stall the replay for the full wall-clock gap.
const maxReplaySleep = 2 * time.Second

// runReplay feeds decoded frames through the pipeline until the log is
// exhausted or ctx is cancelled. With realtime set, it sleeps between
// frames to reproduce the original capture cadence. Per-frame rejections
// are logged and skipped; decode errors end the replay.
func runReplay(ctx context.Context, dec *poselog.Decoder, p *pipeline.Pipeline, clock timeutil.Clock, realtime bool) (int, error) {
	var processed int
	var lastTS time.Time

	for {
		select {
		case <-ctx.Done():
			return processed, ctx.Err()
		default:
		}

		frame, err := dec.Next()
		if errors.Is(err, io.EOF) {
			return processed, nil
		}
		if err != nil {
			return processed, err
		}

		if realtime && !lastTS.IsZero() {
			gap := frame.Timestamp.Sub(lastTS)
			if gap > maxReplaySleep {
				gap = maxReplaySleep
			}
			if gap > 0 {
				clock.Sleep(gap)
			}
		}
		lastTS = frame.Timestamp

		if _, err := p.ProcessFrame(frame); err != nil {
			log.Printf("frame dropped: %v", err)
			continue
		}
		processed++
	}
}
