package main

import (
	"fmt"
	"log"
	"math/rand"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/fumitoshi0524/ssgan/dataset"
	"github.com/fumitoshi0524/ssgan/model"
	"github.com/fumitoshi0524/ssgan/ssgan"
)

var runTrain = train

// runOptions are the settings that do not belong to ssgan.Config.
type runOptions struct {
	spec  dataset.SyntheticSpec
	quiet bool
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	root := &cobra.Command{
		Use:          "ssgan",
		Short:        "Semi-supervised GAN fault classifier",
		SilenceUsage: true,
	}
	var cfgFile string
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "optional config file (yaml, json or toml)")
	root.PersistentPreRunE = func(cmd *cobra.Command, _ []string) error {
		v.SetEnvPrefix("SSGAN")
		v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
		v.AutomaticEnv()
		if cfgFile == "" {
			return nil
		}
		v.SetConfigFile(cfgFile)
		return errors.Wrapf(v.ReadInConfig(), "read config %s", cfgFile)
	}
	root.AddCommand(newTrainCmd(v))
	return root
}

func newTrainCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train on synthetic vibration signals and report validation accuracy",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, opts, err := loadConfig(v)
			if err != nil {
				return err
			}
			return runTrain(cmd, cfg, opts)
		},
	}
	def := ssgan.DefaultConfig()
	fs := cmd.Flags()
	fs.Int("batch", def.BatchSize, "batch size")
	fs.Int("epochs", def.Epochs, "training epochs")
	fs.Int("latent", def.LatentDim, "latent noise width")
	fs.Float64("lr", def.LearningRate, "Adam learning rate")
	fs.Float64("beta1", def.Beta1, "Adam beta1")
	fs.Float64("beta2", def.Beta2, "Adam beta2")
	fs.Float64("eps", def.Epsilon, "Adam epsilon")
	fs.Float64("labeled", def.LabeledRate, "fraction of each batch whose labels are used")
	fs.Int("height", def.Height, "signal image height")
	fs.Int("width", def.Width, "signal image width")
	fs.Int64("seed", def.Seed, "random seed")
	fs.Int("workers", def.Workers, "kernel goroutines (0 = GOMAXPROCS)")
	fs.Float64("clip", def.MaxGradNorm, "gradient norm clip (0 disables)")
	fs.String("empty-mask", def.MaskPolicy.String(), "batches without labeled examples: skip or fail")
	fs.Int("classes", 4, "fault classes in the synthetic data")
	fs.Int("train-per-class", 160, "synthetic training signals per class")
	fs.Int("valid-per-class", 40, "synthetic validation signals per class")
	fs.Float64("noise", 0.2, "synthetic noise level")
	fs.Bool("quiet", false, "only print epoch summaries")
	if err := v.BindPFlags(fs); err != nil {
		panic(err)
	}
	return cmd
}

// loadConfig resolves flags, SSGAN_* environment variables and the config
// file, in that order of precedence.
func loadConfig(v *viper.Viper) (ssgan.Config, runOptions, error) {
	cfg := ssgan.DefaultConfig()
	cfg.BatchSize = v.GetInt("batch")
	cfg.Epochs = v.GetInt("epochs")
	cfg.LatentDim = v.GetInt("latent")
	cfg.LearningRate = v.GetFloat64("lr")
	cfg.Beta1 = v.GetFloat64("beta1")
	cfg.Beta2 = v.GetFloat64("beta2")
	cfg.Epsilon = v.GetFloat64("eps")
	cfg.LabeledRate = v.GetFloat64("labeled")
	cfg.Height = v.GetInt("height")
	cfg.Width = v.GetInt("width")
	cfg.Seed = v.GetInt64("seed")
	cfg.Workers = v.GetInt("workers")
	cfg.MaxGradNorm = v.GetFloat64("clip")
	policy, err := ssgan.ParseMaskPolicy(v.GetString("empty-mask"))
	if err != nil {
		return cfg, runOptions{}, err
	}
	cfg.MaskPolicy = policy
	opts := runOptions{
		spec: dataset.SyntheticSpec{
			Classes:       v.GetInt("classes"),
			TrainPerClass: v.GetInt("train-per-class"),
			ValidPerClass: v.GetInt("valid-per-class"),
			Height:        cfg.Height,
			Width:         cfg.Width,
			Noise:         v.GetFloat64("noise"),
		},
		quiet: v.GetBool("quiet"),
	}
	return cfg, opts, cfg.Validate()
}

func train(cmd *cobra.Command, cfg ssgan.Config, opts runOptions) error {
	out := cmd.OutOrStdout()
	data, err := dataset.Synthetic(rand.New(rand.NewSource(cfg.Seed+1)), opts.spec)
	if err != nil {
		return errors.Wrap(err, "synthetic data")
	}

	spec := model.DefaultSpec(cfg.Height, cfg.Width, cfg.LatentDim, opts.spec.Classes)
	rng := rand.New(rand.NewSource(cfg.Seed))
	g, err := model.NewGenerator(spec, rng)
	if err != nil {
		return errors.Wrap(err, "generator")
	}
	d, err := model.NewDiscriminator(spec, rng)
	if err != nil {
		return errors.Wrap(err, "discriminator")
	}

	var reporter ssgan.Reporter = ssgan.NewLogReporter(log.New(out, "", log.LstdFlags))
	if opts.quiet {
		reporter = epochsOnly{reporter}
	}
	trainer, err := ssgan.NewTrainer(cfg, g, d, ssgan.WithReporter(reporter))
	if err != nil {
		return errors.Wrap(err, "trainer")
	}
	hist, err := trainer.Train(data)
	if err != nil {
		return errors.Wrap(err, "train")
	}

	images, err := data.ValidInputs().Reshape(data.ValidInputs().Dim(0), 1, cfg.Height, cfg.Width)
	if err != nil {
		return errors.Wrap(err, "validation images")
	}
	cm, err := ssgan.Evaluate(d, images, data.ValidLabels())
	if err != nil {
		return errors.Wrap(err, "evaluate")
	}

	last, _ := hist.Last()
	fmt.Fprintf(out, "trained %d epochs: D loss %.4f G loss %.4f mean batch accuracy %.2f%%\n",
		hist.Len(), last.DLoss, last.GLoss, last.Accuracy*100)
	fmt.Fprintf(out, "final validation accuracy: %.2f%%\n", cm.Accuracy()*100)
	fmt.Fprint(out, cm)
	return nil
}

type epochsOnly struct {
	ssgan.Reporter
}

func (epochsOnly) Batch(ssgan.BatchRecord, int, int) {}
