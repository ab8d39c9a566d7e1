package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/fumitoshi0524/ssgan/ssgan"
)

var tinyArgs = []string{
	"train", "--epochs", "1", "--batch", "6", "--latent", "4",
	"--height", "4", "--width", "4", "--classes", "3",
	"--train-per-class", "5", "--valid-per-class", "2", "--workers", "1",
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestTrainCommandReportsValidation(t *testing.T) {
	out, err := run(t, append(tinyArgs, "--quiet")...)
	if err != nil {
		t.Fatalf("train: %v\n%s", err, out)
	}
	for _, want := range []string{"after epoch 1/1", "trained 1 epochs", "final validation accuracy"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "batch evaluated") {
		t.Fatalf("quiet run printed batch progress:\n%s", out)
	}
}

func TestTrainCommandRejectsBadConfig(t *testing.T) {
	if _, err := run(t, append(tinyArgs, "--labeled", "1.5")...); !errors.Is(err, ssgan.ErrConfig) {
		t.Fatalf("expected ErrConfig, got %v", err)
	}
	if _, err := run(t, append(tinyArgs, "--empty-mask", "maybe")...); !errors.Is(err, ssgan.ErrConfig) {
		t.Fatalf("expected ErrConfig for policy, got %v", err)
	}
	if _, err := run(t, append(tinyArgs, "--eps", "-1")...); !errors.Is(err, ssgan.ErrConfig) {
		t.Fatalf("expected ErrConfig for negative eps, got %v", err)
	}
}

func TestConfigPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ssgan.yaml")
	file := "epochs: 7\nbatch: 12\nlabeled: 0.25\nempty-mask: fail\neps: 1e-5\n"
	if err := os.WriteFile(path, []byte(file), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("SSGAN_BATCH", "24")

	var cfg ssgan.Config
	var opts runOptions
	runTrain = func(_ *cobra.Command, c ssgan.Config, o runOptions) error {
		cfg, opts = c, o
		return nil
	}
	t.Cleanup(func() { runTrain = train })

	if _, err := run(t, "train", "--config", path, "--epochs", "3", "--classes", "5"); err != nil {
		t.Fatalf("train: %v", err)
	}
	if cfg.Epochs != 3 {
		t.Fatalf("flag should win over file, epochs = %d", cfg.Epochs)
	}
	if cfg.BatchSize != 24 {
		t.Fatalf("env should win over file, batch = %d", cfg.BatchSize)
	}
	if cfg.LabeledRate != 0.25 || cfg.MaskPolicy != ssgan.FailOnEmptyMask {
		t.Fatalf("file values not applied: rate %v policy %v", cfg.LabeledRate, cfg.MaskPolicy)
	}
	if cfg.Epsilon != 1e-5 {
		t.Fatalf("file epsilon not applied: %v", cfg.Epsilon)
	}
	if cfg.LatentDim != ssgan.DefaultConfig().LatentDim {
		t.Fatalf("default latent dim lost: %d", cfg.LatentDim)
	}
	if opts.spec.Classes != 5 || opts.spec.Height != cfg.Height {
		t.Fatalf("unexpected synthetic spec %+v", opts.spec)
	}
}

func TestMissingConfigFile(t *testing.T) {
	if _, err := run(t, "train", "--config", filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}
