package main

import (
	"context"
	"log"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pravsels/ksim"
	"github.com/pravsels/ksim/acnet"
	"github.com/pravsels/ksim/encoding/gif"
	"github.com/pravsels/ksim/encoding/mjpeg"
)

var (
	trainConfig     string
	trainName       string
	trainEpochs     int
	trainNumEnvs    int
	trainRollout    float64
	trainEvalSecs   float64
	trainUpdates    int
	trainGamma      float64
	trainLambda     float64
	trainRunDir     string
	trainRender     int
	trainCheckpoint int
	trainResume     string

	trainHidden      int
	trainDepth       int
	trainBatchSize   int
	trainClip        float32
	trainEntropyCoef float32
	trainLR          float64
	trainMaxGradNorm float64

	trainGif   string
	trainMJPEG string
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a walking policy with PPO",
	RunE:  runTrain,
}

func init() {
	fs := trainCmd.Flags()
	fs.StringVar(&trainConfig, "config", "", "YAML config file; explicitly set flags still win")
	fs.StringVar(&trainName, "name", "humanoid_walking", "run name")
	fs.IntVar(&trainEpochs, "epochs", 100, "training epochs")
	fs.IntVar(&trainNumEnvs, "num-envs", 8, "parallel environments")
	fs.Float64Var(&trainRollout, "rollout-seconds", 20, "seconds of experience per env per epoch")
	fs.Float64Var(&trainEvalSecs, "eval-seconds", 5, "seconds per env in eval rollouts")
	fs.IntVar(&trainUpdates, "update-epochs", 4, "PPO passes over each rollout")
	fs.Float64Var(&trainGamma, "gamma", 0.97, "discount factor")
	fs.Float64Var(&trainLambda, "lam", 0.95, "GAE lambda")
	fs.StringVar(&trainRunDir, "run-dir", "runs", "directory run artifacts go under")
	fs.IntVar(&trainRender, "render-every", 10, "render a rollout every n epochs, 0 disables")
	fs.IntVar(&trainCheckpoint, "checkpoint-every", 10, "checkpoint every n epochs, 0 disables")
	fs.StringVar(&trainResume, "resume", "", "checkpoint file to resume from")

	fs.IntVar(&trainHidden, "hidden", 64, "MLP width")
	fs.IntVar(&trainDepth, "depth", 5, "hidden layers per network head")
	fs.IntVar(&trainBatchSize, "batch-size", 32, "PPO minibatch size")
	fs.Float32Var(&trainClip, "clip", 0.3, "PPO clip range")
	fs.Float32Var(&trainEntropyCoef, "entropy-coef", 0.001, "entropy bonus coefficient")
	fs.Float64Var(&trainLR, "lr", 1e-4, "Adam learning rate")
	fs.Float64Var(&trainMaxGradNorm, "max-grad-norm", 0.5, "gradient clipping norm")

	fs.StringVar(&trainGif, "gif", "", "write rendered rollouts to this animated gif")
	fs.StringVar(&trainMJPEG, "mjpeg", "", "serve rendered rollouts as an mjpeg stream on this address")
	trainCmd.MarkFlagsMutuallyExclusive("gif", "mjpeg")

	rootCmd.AddCommand(trainCmd)
}

func runTrain(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	task, err := buildTask(ctx)
	if err != nil {
		return err
	}

	conf := ksim.DefaultConfig(trainName)
	if trainConfig != "" {
		if conf, err = ksim.LoadConfig(trainConfig); err != nil {
			return err
		}
	}
	fs := cmd.Flags()
	if conf.Name == "" || fs.Changed("name") {
		conf.Name = trainName
	}
	if fs.Changed("seed") {
		conf.Seed = seed
	}
	if fs.Changed("epochs") {
		conf.Epochs = trainEpochs
	}
	if fs.Changed("num-envs") {
		conf.NumEnvs = trainNumEnvs
	}
	if fs.Changed("rollout-seconds") {
		conf.RolloutSeconds = trainRollout
	}
	if fs.Changed("eval-seconds") {
		conf.EvalSeconds = trainEvalSecs
	}
	if fs.Changed("update-epochs") {
		conf.UpdateEpochs = trainUpdates
	}
	if fs.Changed("gamma") {
		conf.Gamma = trainGamma
	}
	if fs.Changed("lam") {
		conf.Lambda = trainLambda
	}
	if fs.Changed("run-dir") {
		conf.RunDir = trainRunDir
	}
	if fs.Changed("render-every") {
		conf.RenderEvery = trainRender
	}
	if fs.Changed("checkpoint-every") {
		conf.CheckpointEvery = trainCheckpoint
	}

	nc := conf.Net
	if nc.Hidden == 0 {
		nc = acnet.DefaultConf(task.InputDim(), task.ActionDim())
	}
	if fs.Changed("hidden") {
		nc.Hidden = trainHidden
	}
	if fs.Changed("depth") {
		nc.Depth = trainDepth
	}
	if fs.Changed("batch-size") {
		nc.BatchSize = trainBatchSize
	}
	if fs.Changed("clip") {
		nc.Clip = trainClip
	}
	if fs.Changed("entropy-coef") {
		nc.EntropyCoef = trainEntropyCoef
	}
	if fs.Changed("lr") {
		nc.LearningRate = trainLR
	}
	if fs.Changed("max-grad-norm") {
		nc.MaxGradNorm = trainMaxGradNorm
	}
	conf.Net = nc

	switch {
	case trainGif != "":
		f, err := os.Create(trainGif)
		if err != nil {
			return errors.WithStack(err)
		}
		defer f.Close()
		enc := gif.NewGifEncoder(1024, 768)
		enc.Writer = f
		conf.OutputEncoder = enc
	case trainMJPEG != "":
		enc := mjpeg.NewEncoder(1024, 768)
		go serveStream(enc, trainMJPEG)
		conf.OutputEncoder = enc
	}

	trainer, err := ksim.New(task, conf)
	if err != nil {
		return err
	}
	defer trainer.Close()

	if trainResume != "" {
		if err := trainer.Load(trainResume); err != nil {
			return err
		}
		log.Printf("resuming from %s at epoch %d", trainResume, trainer.Epoch())
	}

	log.Printf("training %s on %s, artifacts under %s", conf.Name, task.Model.Name, trainer.RunDir())
	if err := trainer.Learn(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			log.Println("interrupted, saving checkpoint")
			return trainer.Save(filepath.Join(trainer.RunDir(), "interrupted.gob"))
		}
		return err
	}

	set, err := trainer.Eval(ctx)
	if err != nil {
		return err
	}
	log.Println("final eval:")
	printSummary(set)
	return trainer.Save(filepath.Join(trainer.RunDir(), "final.gob"))
}
