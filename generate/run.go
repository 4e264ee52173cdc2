package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	cli "github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"silk/source"
	"silk/state"
)

// Run is action of "generate" command.
func Run(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("generate")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no input source has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	dst, err := destination(cmd.Args().Get(1))
	if err != nil {
		return err
	}
	if cmd.Args().Len() > 2 {
		log.Warn("Malformed command line, too many destinations", zap.Strings("ignoring", cmd.Args().Slice()[2:]))
	}

	env.Overwrite = cmd.Bool("overwrite")
	if cmd.IsSet("workers") {
		env.Cfg.Output.Workers = int(cmd.Int("workers"))
	}
	snap := cmd.String("snapshot")
	if snap == "" {
		snap = env.Cfg.Output.Snapshot
	}

	if err := env.PrepareWorkDir(); err != nil {
		return err
	}
	tracer := env.Tracer()

	log.Info("Processing starting", zap.String("source", src), zap.String("destination", dst))
	defer func(start time.Time) {
		log.Info("Processing completed", zap.Duration("elapsed", time.Since(start)))
	}(time.Now())

	out, err := Generate(ctx, env.Cfg, Request{
		Extractor:   source.NewFileExtractor(src, log),
		Destination: dst,
		Snapshot:    snap,
		Document:    cmd.String("html"),
		Overwrite:   env.Overwrite,
		Tracer:      tracer,
		Name:        env.Cfg.Output.Name,
		Session:     env.Session.String(),
	}, log)

	if path := tracer.Flush(); path != "" {
		log.Debug("Compilation trace written", zap.String("path", path))
	}
	if err != nil {
		return err
	}

	for _, f := range out.Files {
		if err := env.Rpt.StoreCopy(filepath.Join("output", filepath.Base(f)), f); err != nil {
			log.Warn("Unable to store output in report", zap.String("file", f), zap.Error(err))
		}
	}
	if out.Partial > 0 {
		log.Warn("Some styles were only partially resolved", zap.Int("count", out.Partial))
	}
	return nil
}

// MergeSnapshots is action of "merge" command.
func MergeSnapshots(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("merge")

	if cmd.Args().Len() < 2 {
		return errors.New("destination and at least one snapshot are required")
	}
	dst, err := filepath.Abs(cmd.Args().Get(0))
	if err != nil {
		return err
	}
	if _, err := os.Stat(dst); err == nil {
		if !cmd.Bool("overwrite") {
			return fmt.Errorf("destination snapshot already exists: %s", dst)
		}
		log.Warn("Overwriting existing snapshot", zap.String("file", dst))
		if err := os.Remove(dst); err != nil {
			return fmt.Errorf("unable to remove existing snapshot: %w", err)
		}
	}

	_, err = Merge(env.Cfg, dst, cmd.Args().Slice()[1:], log)
	return err
}

// Critical is action of "critical" command.
func Critical(ctx context.Context, cmd *cli.Command) (err error) {
	if err := ctx.Err(); err != nil {
		return err
	}

	env := state.EnvFromContext(ctx)
	log := env.Log.Named("critical")

	src := cmd.Args().Get(0)
	if len(src) == 0 {
		return errors.New("no stylesheet has been specified")
	}
	if src, err = filepath.Abs(src); err != nil {
		return err
	}
	var dst string
	if cmd.Args().Len() > 1 {
		if dst, err = filepath.Abs(cmd.Args().Get(1)); err != nil {
			return err
		}
	}

	files, _, err := Split(env.Cfg, SplitRequest{
		Stylesheet:  src,
		Destination: dst,
		Document:    cmd.String("html"),
		Overwrite:   cmd.Bool("overwrite"),
		Layered:     cmd.Bool("layered"),
	}, log)
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := env.Rpt.StoreCopy(filepath.Join("output", filepath.Base(f)), f); err != nil {
			log.Warn("Unable to store output in report", zap.String("file", f), zap.Error(err))
		}
	}
	return nil
}

func destination(arg string) (string, error) {
	if len(arg) == 0 {
		dir, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("unable to get working directory: %w", err)
		}
		return dir, nil
	}
	return filepath.Abs(arg)
}
