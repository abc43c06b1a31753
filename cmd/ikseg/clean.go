package main

import (
	"bytes"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/teatak/ikseg/dictionary"
	"github.com/teatak/ikseg/logging"
	"github.com/teatak/ikseg/wordlist"
)

func newCleanCommand() *cobra.Command {
	var input, output, feedback string
	var opts wordlist.CleanOptions
	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Normalize, dedupe and sort a word list",
		Long: `clean rewrites a word list in the form the dictionary loader reads.

Entries are normalized (full-width folded, lowercased), entries containing
punctuation and duplicates are dropped, and the rest is sorted. Lists with a
frequency column can be pruned with --ratio. With --feedback, words that
cross a boundary of a hand-segmented line ("南京市 长江大桥") are removed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.New(logging.Config{Level: viper.GetString("log-level")})

			in, err := openInput(cmd, input)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			data, err := io.ReadAll(in)
			in.Close()
			if err != nil {
				return fmt.Errorf("read input: %w", err)
			}

			if feedback != "" {
				lines, err := dictionary.ReadWordFile(feedback)
				if err != nil {
					return fmt.Errorf("read feedback: %w", err)
				}
				words, err := wordlist.Read(bytes.NewReader(data), nil)
				if err != nil {
					return err
				}
				texts := make([]string, len(words))
				for i, w := range words {
					texts[i] = w.Text
				}
				opts.Remove = wordlist.Interference(texts, lines)
				logger.Info("%d words interfere with feedback", len(opts.Remove))
			}

			out, err := createOutput(cmd, output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer out.Close()

			stats, err := wordlist.Clean(bytes.NewReader(data), out, opts)
			if err != nil {
				return err
			}
			logger.Info("Cleaned %d -> %d words (punctuation %d, duplicates %d, pruned %d, removed %d)",
				stats.Read, stats.Written, stats.Punctuation, stats.Duplicates, stats.Pruned, stats.Removed)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "input word list, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output word list, - for stdout")
	cmd.Flags().StringVar(&feedback, "feedback", "", "file of hand-segmented lines")
	cmd.Flags().Float64Var(&opts.Ratio, "ratio", 0, "prune a word when Freq(longer)/Freq(word) >= ratio; 0 disables")
	cmd.Flags().BoolVar(&opts.KeepFreq, "keep-freq", false, "keep the frequency column")
	return cmd
}
