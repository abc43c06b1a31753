package main

import (
	"bufio"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teatak/ikseg/segmenter"
)

func newBatchCommand() *cobra.Command {
	var input, output, sep string
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Segment a file line by line into a space-separated corpus",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, logger, err := loadService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			in, err := openInput(cmd, input)
			if err != nil {
				return fmt.Errorf("open input: %w", err)
			}
			defer in.Close()
			out, err := createOutput(cmd, output)
			if err != nil {
				return fmt.Errorf("create output: %w", err)
			}
			defer out.Close()
			writer := bufio.NewWriter(out)

			seg := segmenter.New(svc, nil, segmenter.OptionsFromConfig(cfg))
			scanner := bufio.NewScanner(in)
			scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)
			count := 0
			for scanner.Scan() {
				line := strings.TrimSpace(scanner.Text())
				if line == "" {
					continue
				}
				seg.Reset(strings.NewReader(line))
				lexemes, err := collect(seg)
				if err != nil {
					return err
				}
				fmt.Fprintln(writer, strings.Join(segmenter.Texts(lexemes), sep))
				count++
				if count%1000 == 0 {
					logger.Info("Processed %d lines...", count)
				}
			}
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("read input: %w", err)
			}
			if err := writer.Flush(); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			logger.Info("Done. Processed %d lines. Saved to %s", count, output)
			return nil
		},
	}
	cmd.Flags().StringVarP(&input, "input", "i", "-", "input text file, - for stdin")
	cmd.Flags().StringVarP(&output, "output", "o", "-", "output corpus file, - for stdout")
	cmd.Flags().StringVar(&sep, "sep", " ", "token separator")
	return cmd
}
