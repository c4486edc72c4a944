// Copyright (c) Elliot Nunn
// Licensed under the MIT license

// Command tokzip is a thin cobra-based front end over zipengine: list
// an archive's entries, or extract a subset of them matching a glob.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/cobra"

	"github.com/nunnzip/tokzip/internal/zipengine"
	"github.com/nunnzip/tokzip/tokenizer"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		slog.Error("tokzip", "error", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "tokzip",
		Short: "tokzip - stream ZIP archives without fully buffering them",
	}
	root.AddCommand(newListCommand())
	root.AddCommand(newExtractCommand())
	return root
}

func newListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list <archive.zip>",
		Short: "List every entry in an archive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			tok, closeFn, err := openFileTokenizer(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			out := cmd.OutOrStdout()
			filter := func(ctx context.Context, entry *zipengine.Entry) (zipengine.FilterResult, error) {
				fmt.Fprintf(out, "%12d  %s\n", entry.UncompressedSize, entry.Name)
				return zipengine.FilterResult{}, nil
			}
			return zipengine.New(tok).Unzip(cmd.Context(), filter)
		},
	}
}

func newExtractCommand() *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "extract <archive.zip> [glob]",
		Short: "Extract entries matching glob (default **) into a directory",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "**"
			if len(args) == 2 {
				pattern = args[1]
			}
			if outDir == "" {
				outDir = "."
			}
			if err := os.MkdirAll(outDir, 0o755); err != nil {
				return fmt.Errorf("tokzip: creating output directory: %w", err)
			}

			tok, closeFn, err := openFileTokenizer(args[0])
			if err != nil {
				return err
			}
			defer closeFn()

			filter := func(ctx context.Context, entry *zipengine.Entry) (zipengine.FilterResult, error) {
				ok, err := doublestar.Match(pattern, entry.Name)
				if err != nil {
					return zipengine.FilterResult{}, err
				}
				if !ok {
					return zipengine.FilterResult{}, nil
				}
				name := entry.Name
				return zipengine.FilterResult{Handler: func(ctx context.Context, r io.Reader) error {
					return extractOne(outDir, name, r)
				}}, nil
			}
			return zipengine.New(tok).Unzip(cmd.Context(), filter)
		},
	}
	cmd.Flags().StringVarP(&outDir, "output-dir", "o", "", "directory to extract into (default: current directory)")
	return cmd
}

// extractOne writes r to dir/name, creating any intermediate
// directories the entry's name implies. A name containing ".." is
// rejected rather than allowed to escape dir.
func extractOne(dir, name string, r io.Reader) error {
	if strings.Contains(name, "..") {
		return fmt.Errorf("tokzip: refusing unsafe entry name %q", name)
	}
	dest := filepath.Join(dir, filepath.FromSlash(name))
	if strings.HasSuffix(name, "/") {
		return os.MkdirAll(dest, 0o755)
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return err
	}
	f, err := os.Create(dest)
	if err != nil {
		return err
	}
	defer f.Close()
	_, err = io.Copy(f, r)
	return err
}

// openFileTokenizer opens path and wraps it in a random-access
// tokenizer sized to the file's length.
func openFileTokenizer(path string) (tokenizer.Tokenizer, func(), error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("tokzip: opening %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("tokzip: stat %s: %w", path, err)
	}
	return tokenizer.NewFile(f, info.Size()), func() { f.Close() }, nil
}
