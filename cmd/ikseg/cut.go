package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/teatak/ikseg/segmenter"
)

func newCutCommand() *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "cut [text...]",
		Short: "Segment the given text, or each line of stdin",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			svc, _, err := loadService(cmd.Context(), cfg)
			if err != nil {
				return err
			}

			seg := segmenter.New(svc, nil, segmenter.OptionsFromConfig(cfg))
			out := cmd.OutOrStdout()
			process := func(text string) error {
				seg.Reset(strings.NewReader(text))
				lexemes, err := collect(seg)
				if err != nil {
					return err
				}
				return printLexemes(out, lexemes, asJSON)
			}

			if len(args) > 0 {
				return process(strings.Join(args, " "))
			}

			fmt.Fprintln(os.Stderr, "Enter text to segment (Ctrl+D to exit):")
			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				text := scanner.Text()
				if strings.TrimSpace(text) == "" {
					continue
				}
				if err := process(text); err != nil {
					return err
				}
			}
			return scanner.Err()
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print lexemes as JSON")
	return cmd
}

// collect drains seg.
func collect(seg *segmenter.Segmenter) ([]segmenter.Lexeme, error) {
	var out []segmenter.Lexeme
	for {
		l, err := seg.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, l)
	}
}

func printLexemes(w io.Writer, lexemes []segmenter.Lexeme, asJSON bool) error {
	if !asJSON {
		_, err := fmt.Fprintln(w, strings.Join(segmenter.Texts(lexemes), " / "))
		return err
	}
	if lexemes == nil {
		lexemes = []segmenter.Lexeme{}
	}
	return json.NewEncoder(w).Encode(lexemes)
}
