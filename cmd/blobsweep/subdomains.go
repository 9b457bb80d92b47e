package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/vulnverified/blobsweep/internal/engine"
	"github.com/vulnverified/blobsweep/internal/output"
	"github.com/vulnverified/blobsweep/internal/wordlist"
)

func newSubdomainsCmd(opts *globalOptions) *cobra.Command {
	var (
		base         string
		baseFile     string
		permutations string
	)

	cmd := &cobra.Command{
		Use:   "subdomains",
		Short: "Find Azure platform subdomains for one or more base words",
		Example: "  blobsweep subdomains -b contoso\n" +
			"  blobsweep subdomains --base-file bases.txt -p words.txt",
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if (base == "") == (baseFile == "") {
				return fmt.Errorf("exactly one of --base or --base-file is required")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := newSession(opts)

			raw := []string{base}
			if baseFile != "" {
				var err error
				raw, err = wordlist.Load(baseFile)
				if err != nil {
					return err
				}
				if len(raw) == 0 {
					return fmt.Errorf("no base words in %s", baseFile)
				}
			}

			bases := make([]string, 0, len(raw))
			for _, b := range raw {
				clean, err := s.sanitizeBase(b)
				if err != nil {
					return err
				}
				bases = append(bases, clean)
			}

			words, err := wordlist.Load(permutations)
			if err != nil {
				return err
			}

			rs, err := s.stages("")
			if err != nil {
				return err
			}

			cfg := engine.SubdomainConfig{
				Bases:        bases,
				Permutations: words,
				Workers:      opts.threads,
			}

			result, err := engine.RunSubdomains(ctx, cfg, rs.Resolver, s.sink, s.progress)
			if err != nil {
				return err
			}
			s.finish(ctx)

			if opts.jsonOutput {
				return output.WriteSubdomainJSON(os.Stdout, result)
			}

			output.WriteSubdomainTable(os.Stdout, result, opts.noColor)
			output.WriteSubdomainSummary(os.Stdout, result, opts.noColor)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&base, "base", "b", "", "Base word, e.g. a company name")
	f.StringVar(&baseFile, "base-file", "", "File with one base word per line")
	f.StringVarP(&permutations, "permutations", "p", "", "Permutation wordlist (default: built-in)")

	return cmd
}
