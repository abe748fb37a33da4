package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/gvbind/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the render cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached layouts and artifacts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, err := c.newCache(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer cc.Close()

			clearer, ok := cc.(cache.Clearer)
			if !ok {
				printInfo("Caching is disabled, nothing to clear")
				return nil
			}
			if err := clearer.Clear(cmd.Context()); err != nil {
				return fmt.Errorf("clear cache: %w", err)
			}

			printSuccess("Cache cleared")
			printDetail("Backend: %s", c.cacheLocation(cc))
			return nil
		},
	}
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print where the cache lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch c.Config.Cache.Backend {
			case backendRedis:
				fmt.Fprintf(cmd.OutOrStdout(), "redis://%s/%d (prefix %q)\n", c.Config.Cache.RedisAddr, c.Config.Cache.RedisDB, c.Config.Cache.Prefix)
			case backendNone:
				fmt.Fprintln(cmd.OutOrStdout(), "caching disabled")
			default:
				dir := c.Config.Cache.Dir
				if dir == "" {
					var err error
					if dir, err = cacheDir(); err != nil {
						return fmt.Errorf("get cache dir: %w", err)
					}
				}
				fmt.Fprintln(cmd.OutOrStdout(), dir)
			}
			return nil
		},
	}
}

func (c *CLI) cacheLocation(cc cache.Cache) string {
	if fc, ok := cc.(*cache.FileCache); ok {
		return "file " + fc.Dir()
	}
	return c.Config.Cache.Backend + " " + c.Config.Cache.RedisAddr
}
