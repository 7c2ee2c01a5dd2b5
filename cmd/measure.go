package main

import (
	"context"

	"github.com/desertthunder/trax/internal/models"
	"github.com/urfave/cli/v3"
)

// Measure computes integrated LUFS for library tracks without touching
// the audio data.
func (r *Runner) Measure(ctx context.Context, cmd *cli.Command) error {
	return r.runBatchTask(ctx, cmd, models.TaskMeasure)
}

// Normalize rewrites audio files toward the target loudness. Unlike the
// analysis tasks this modifies files in place, so batches are small and
// --backup keeps a copy of each original.
func (r *Runner) Normalize(ctx context.Context, cmd *cli.Command) error {
	if !cmd.Bool("backup") {
		r.writePlain("⚠ Normalization rewrites audio files in place. Pass --backup to keep originals.\n\n")
	}

	return r.runBatchTask(ctx, cmd, models.TaskNormalize)
}
