package main

import (
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pravsels/ksim"
	"github.com/pravsels/ksim/acnet"
	"github.com/pravsels/ksim/encoding/gif"
	"github.com/pravsels/ksim/encoding/mjpeg"
	"github.com/pravsels/ksim/env"
	"github.com/pravsels/ksim/rollout"
)

var (
	envCheckpoint string
	envSeconds    float64
	envGif        string
	envMJPEG      string
)

var envCmd = &cobra.Command{
	Use:   "env [RUN_DIR]",
	Short: "Watch a policy drive the environment",
	Long: `env rolls a single environment and renders every frame. With no run
directory the actions come from a zero-mean dummy policy, which is
useful for checking a robot before training.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runEnv,
}

func init() {
	fs := envCmd.Flags()
	fs.StringVar(&envCheckpoint, "checkpoint", "best.gob", "checkpoint file inside the run directory")
	fs.Float64Var(&envSeconds, "seconds", 10, "seconds to run")
	fs.StringVar(&envGif, "gif", "env.gif", "animated gif output path")
	fs.StringVar(&envMJPEG, "mjpeg", "", "serve the frames as an mjpeg stream on this address instead")
	rootCmd.AddCommand(envCmd)
}

func runEnv(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	task, err := buildTask(ctx)
	if err != nil {
		return err
	}

	var policy rollout.Inferer = ksim.Dummy{ActionDim: task.ActionDim()}
	if len(args) == 1 {
		conf, err := ksim.LoadConfig(filepath.Join(args[0], "config.yml"))
		if err != nil {
			return err
		}
		nn, ck, err := ksim.LoadCheckpoint(filepath.Join(args[0], envCheckpoint), conf.Net)
		if err != nil {
			return err
		}
		log.Printf("playing checkpoint from epoch %d", ck.Epoch)
		if policy, err = acnet.Infer(nn); err != nil {
			return err
		}
	}

	var enc env.OutputEncoder
	if envMJPEG != "" {
		menc := mjpeg.NewEncoder(1024, 768)
		go serveStream(menc, envMJPEG)
		enc = menc
	} else {
		f, err := os.Create(envGif)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		genc := gif.NewGifEncoder(1024, 768)
		genc.Writer = f
		enc = genc
	}

	steps := int(envSeconds/float64(task.CtrlDt) + 0.5)
	if err := rollout.RunPolicy(ctx, task, policy, seed, steps, enc); err != nil {
		return err
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	if envMJPEG != "" {
		log.Println("rollout finished, the stream keeps serving the last frame; ctrl-c to exit")
		<-ctx.Done()
		return nil
	}
	log.Printf("wrote %s", envGif)
	return nil
}
