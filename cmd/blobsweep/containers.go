package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/vulnverified/blobsweep/internal/choose"
	"github.com/vulnverified/blobsweep/internal/engine"
	"github.com/vulnverified/blobsweep/internal/output"
	"github.com/vulnverified/blobsweep/internal/wordlist"
)

const bingKeyEnv = "BING_API_KEY"

func newContainersCmd(opts *globalOptions) *cobra.Command {
	var (
		base         string
		permutations string
		folders      string
		bingKey      string
	)

	cmd := &cobra.Command{
		Use:   "containers",
		Short: "Find storage accounts and publicly listable blob containers",
		Example: "  blobsweep containers -b contoso\n" +
			"  blobsweep containers -b contoso -p words.txt -f folders.txt -k $BING_API_KEY",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			s := newSession(opts)

			if base != "" {
				clean, err := s.sanitizeBase(base)
				if err != nil {
					return err
				}
				base = clean
			}

			words, err := wordlist.Load(permutations)
			if err != nil {
				return err
			}
			dirs, err := wordlist.Load(folders)
			if err != nil {
				return err
			}

			if bingKey == "" {
				bingKey = os.Getenv(bingKeyEnv)
			}

			rs, err := s.stages(bingKey)
			if err != nil {
				return err
			}

			stages := engine.Stages{
				Resolver: rs.Resolver,
				Prober:   rs.Prober,
				Selector: &choose.Stdio{In: os.Stdin, Out: os.Stderr},
				Sink:     s.sink,
			}
			// A nil *recon.Bing must not become a non-nil interface.
			if rs.Search != nil {
				stages.Search = rs.Search
			}

			cfg := engine.Config{
				Base:         base,
				Permutations: words,
				Folders:      dirs,
				Workers:      opts.threads,
			}

			result, err := engine.Run(ctx, cfg, stages, s.progress)
			if err != nil {
				return err
			}
			s.finish(ctx)

			if opts.jsonOutput {
				return output.WriteJSON(os.Stdout, result)
			}

			output.WriteContainerTable(os.Stdout, result, opts.noColor)
			output.WriteContainerSummary(os.Stdout, result, opts.noColor)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVarP(&base, "base", "b", "", "Base word for storage account names, e.g. a company name")
	f.StringVarP(&permutations, "permutations", "p", "", "Permutation wordlist (default: built-in)")
	f.StringVarP(&folders, "folders", "f", "", "Container name wordlist (default: built-in)")
	f.StringVarP(&bingKey, "bing-key", "k", "", "Bing Web Search API key (env "+bingKeyEnv+")")

	return cmd
}
