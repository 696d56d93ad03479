package main

import (
	"context"

	"github.com/pravsels/ksim/env"
	"github.com/pravsels/ksim/physics/lite"
	"github.com/pravsels/ksim/robot"
)

var (
	robotName         string
	seed              int64
	useMITActuators   bool
	physicsDt         float32
	ctrlDt            float32
	cmdXScale         float32
	cmdYScale         float32
	maxEpisodeSeconds float32
)

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&robotName, "robot", "default_humanoid", "robot to load: the builtin humanoid or a registry name")
	pf.Int64Var(&seed, "seed", 42, "base random seed")
	pf.BoolVar(&useMITActuators, "mit-actuators", true, "drive joints with position commands through the MIT actuator model instead of raw torques")
	pf.Float32Var(&physicsDt, "dt", 0.005, "physics timestep in seconds")
	pf.Float32Var(&ctrlDt, "ctrl-dt", 0.02, "control interval in seconds")
	pf.Float32Var(&cmdXScale, "cmd-x-scale", 0, "forward velocity command scale")
	pf.Float32Var(&cmdYScale, "cmd-y-scale", 0, "lateral velocity command scale")
	pf.Float32Var(&maxEpisodeSeconds, "max-episode-seconds", 20, "episode length cap in seconds")
}

func loadRobot(ctx context.Context) (*robot.Description, *robot.Metadata, error) {
	if robotName == "default_humanoid" {
		return robot.DefaultHumanoid(), robot.DefaultHumanoidMetadata(), nil
	}
	return robot.NewFetcher().Fetch(ctx, robotName)
}

// buildTask compiles the selected robot and wires the walking task around
// it: actuator force observations, a planar velocity command, the six
// walking reward terms and the fall terminations.
func buildTask(ctx context.Context) (*env.Task, error) {
	desc, meta, err := loadRobot(ctx)
	if err != nil {
		return nil, err
	}
	model, err := desc.Compile(meta)
	if err != nil {
		return nil, err
	}

	var act env.Actuator = env.TorqueActuators{}
	if useMITActuators {
		if act, err = env.NewMITPositionActuators(model); err != nil {
			return nil, err
		}
	}

	task := &env.Task{
		Name:     "humanoid_walking",
		Model:    model,
		Engine:   lite.New(),
		Actuator: act,
		Observations: []env.Observation{
			env.NewActuatorForceObservation(model, 100, 0),
		},
		Commands: []env.Command{
			&env.LinearVelocityCommand{XScale: cmdXScale, YScale: cmdYScale, SwitchProb: 0.02, ZeroProb: 0.3},
		},
		Rewards: []env.Reward{
			&env.ForwardReward{Scale: 0.2},
			&env.ControlPenalty{Scale: -0.01},
			&env.TerminationPenalty{Scale: -1.0},
			&env.JointVelocityPenalty{Scale: -0.01},
			&env.LinearVelocityZPenalty{Scale: -0.001},
			&env.AngularVelocityXYPenalty{Scale: -0.001},
		},
		Terminations: []env.Termination{
			&env.BadZTermination{Lower: 0.8, Upper: 4.0},
			&env.FastAccelerationTermination{},
			&env.EpisodeLengthTermination{MaxSeconds: maxEpisodeSeconds},
		},
		Resets: []env.Reset{
			&env.RandomJointPositionReset{Scale: 0.01},
			&env.RandomJointVelocityReset{Scale: 0.01},
		},
		Randomizations: []env.Randomization{
			&env.WeightRandomization{Scale: 0.01},
		},
		Dt:     physicsDt,
		CtrlDt: ctrlDt,
	}
	if err := task.Validate(); err != nil {
		return nil, err
	}
	return task, nil
}
