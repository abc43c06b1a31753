package main

import (
	"bufio"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/teatak/ikseg/wordlist"
)

func newDiscoverCommand() *cobra.Command {
	var input, output string
	opts := wordlist.DefaultDiscoverOptions()
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List frequent n-grams of a text that the dictionary lacks",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, logger, err := loadService(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			opts.Known = svc.Current().Contains

			in, err := openInput(cmd, input)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer in.Close()
			words, err := wordlist.Discover(in, opts)
			if err != nil {
				return err
			}

			out, err := createOutput(cmd, output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer out.Close()
			writer := bufio.NewWriter(out)
			for _, w := range words {
				fmt.Fprintf(writer, "%s %d\n", w.Text, w.Freq)
			}
			if err := writer.Flush(); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			logger.Info("Discovered %d candidate words", len(words))
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "input text file, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output word list, - for stdout")
	cmd.Flags().IntVar(&opts.Threshold, "threshold", opts.Threshold, "minimum occurrences")
	cmd.Flags().IntVar(&opts.MaxGram, "max-gram", opts.MaxGram, "longest n-gram counted")
	return cmd
}
