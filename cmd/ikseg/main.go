package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teatak/ikseg/config"
	"github.com/teatak/ikseg/dictionary"
	"github.com/teatak/ikseg/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ikseg",
		Short: "Dictionary-driven Chinese text segmentation",
		Long: `ikseg segments Chinese and mixed-script text against a set of word lists.

Examples:
  ikseg cut 南京市长江大桥            # max-word segmentation
  ikseg cut --smart 南京市长江大桥    # one path per ambiguous region
  ikseg batch -i text.txt -o corpus.txt
  ikseg clean -i words.txt -o words.dic
  ikseg discover -i text.txt --threshold 5

Every flag can also be set with an IKSEG_ environment variable,
e.g. IKSEG_DICT_DIR=/etc/ikseg.`,
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringP("config", "c", config.DefaultFileName, "configuration file")
	flags.String("dict-dir", "", "directory dictionary paths are relative to")
	flags.Bool("smart", false, "smart mode: one disambiguated path per region")
	flags.Bool("lowercase", true, "lowercase letters before matching")
	flags.Int("buffer-size", config.DefaultBufferSize, "runes scanned per round")
	flags.String("log-level", "", "debug, info, warn or error")
	for _, name := range []string{"config", "dict-dir", "smart", "lowercase", "buffer-size", "log-level"} {
		_ = viper.BindPFlag(name, flags.Lookup(name))
	}
	viper.SetEnvPrefix("IKSEG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	root.AddCommand(newCutCommand(), newBatchCommand(), newCleanCommand(), newDiscoverCommand())
	return root
}

// loadConfig reads the configuration file and applies flag and environment
// overrides on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(viper.GetString("config"))
	if err != nil {
		return nil, err
	}
	if viper.IsSet("dict-dir") {
		cfg.DictDir = viper.GetString("dict-dir")
	}
	if viper.IsSet("smart") {
		cfg.UseSmart = viper.GetBool("smart")
	}
	if viper.IsSet("lowercase") {
		cfg.EnableLowercase = viper.GetBool("lowercase")
	}
	if viper.IsSet("buffer-size") {
		cfg.BufferSize = viper.GetInt("buffer-size")
	}
	if viper.IsSet("log-level") {
		cfg.Logging.Level = viper.GetString("log-level")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadService loads the dictionaries for a one-shot command.
func loadService(ctx context.Context, cfg *config.Config) (*dictionary.Service, logging.Logger, error) {
	logger := logging.New(cfg.Logging)
	svc, err := dictionary.NewService(ctx, cfg, dictionary.WithLogger(logging.WithComponent(logger, "dictionary")))
	if err != nil {
		return nil, logger, fmt.Errorf("load dictionaries: %w", err)
	}
	return svc, logger, nil
}

// openInput opens path for reading; "-" is the command's stdin.
func openInput(cmd *cobra.Command, path string) (io.ReadCloser, error) {
	if path == "-" {
		return io.NopCloser(cmd.InOrStdin()), nil
	}
	return os.Open(path)
}

// createOutput creates path for writing; "-" is the command's stdout.
func createOutput(cmd *cobra.Command, path string) (io.WriteCloser, error) {
	if path == "-" {
		return nopWriteCloser{cmd.OutOrStdout()}, nil
	}
	return os.Create(path)
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
