package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tendant/resizor-go/pkg/resizor"
	"github.com/tendant/resizor-go/pkg/resizor/config"
)

type rootFlags struct {
	configFile string
	host       string
	apiVersion string
	accessKey  string
	secretKey  string
	timeout    time.Duration
	verbose    bool
}

type repoKey struct{}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	root := &cobra.Command{
		Use:   "resizor",
		Short: "Manage images on a Resizor account",
		Long: `resizor lists, fetches, uploads and deletes images on a Resizor account.

Settings come from an optional config file, then RESIZOR_* environment variables,
then command-line flags, in increasing order of precedence.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			repo, err := buildRepository(cmd, flags)
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), repoKey{}, repo))
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&flags.configFile, "config", "", "path to a YAML/JSON/TOML config file")
	pf.StringVar(&flags.host, "host", "", "service base URL")
	pf.StringVar(&flags.apiVersion, "api-version", "", "API version path segment")
	pf.StringVar(&flags.accessKey, "access-key", "", "account access key")
	pf.StringVar(&flags.secretKey, "secret-key", "", "account secret key")
	pf.DurationVar(&flags.timeout, "timeout", 0, "per-request timeout")
	pf.BoolVarP(&flags.verbose, "verbose", "v", false, "log each request")

	root.AddCommand(newListCmd(), newFindCmd(), newDeleteCmd(), newStoreCmd())
	return root
}

func buildRepository(cmd *cobra.Command, flags *rootFlags) (*resizor.ImageRepository, error) {
	// WithFile applies the environment on top of the file
	var opts []config.Option
	if flags.configFile != "" {
		opts = append(opts, config.WithFile(flags.configFile))
	} else {
		opts = append(opts, config.WithEnv())
	}

	if cmd.Flags().Changed("host") {
		opts = append(opts, config.WithHost(flags.host))
	}
	if cmd.Flags().Changed("api-version") {
		opts = append(opts, config.WithAPIVersion(flags.apiVersion))
	}
	if cmd.Flags().Changed("access-key") || cmd.Flags().Changed("secret-key") {
		opts = append(opts, func(c *config.ClientConfig) error {
			if flags.accessKey != "" {
				c.AccessKey = flags.accessKey
			}
			if flags.secretKey != "" {
				c.SecretKey = flags.secretKey
			}
			return nil
		})
	}
	if cmd.Flags().Changed("timeout") {
		opts = append(opts, config.WithTimeout(flags.timeout))
	}

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	level := slog.LevelInfo
	if flags.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	return cfg.BuildRepository(resizor.WithLogger(logger))
}

func repositoryFromContext(ctx context.Context) *resizor.ImageRepository {
	repo, _ := ctx.Value(repoKey{}).(*resizor.ImageRepository)
	return repo
}
