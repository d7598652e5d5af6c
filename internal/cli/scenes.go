package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/roboplan/internal/scene"
)

// ScenesOptions holds flags for the scenes command.
type ScenesOptions struct {
	*RootOptions
	Catalog string
}

// SceneInfo describes one catalog entry.
type SceneInfo struct {
	Key         string   `json:"key"`
	Description string   `json:"description,omitempty"`
	Default     bool     `json:"default"`
	Objects     []string `json:"objects"`
}

// NewScenesCommand creates the scenes command.
func NewScenesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScenesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scenes",
		Short: "List available scenes",
		Long: `List the scenes in the catalog, in definition order.

Uses the built-in catalog unless --catalog (or the config file) names one.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScenes(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Catalog, "catalog", "", "scene catalog file (.cue, .yaml)")

	return cmd
}

func runScenes(opts *ScenesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := loadConfig(opts.RootOptions, &PlannerFlags{Catalog: opts.Catalog})
	if err != nil {
		return commandError(formatter, ErrCodeConfig, "invalid configuration", err)
	}
	resolver, err := loadResolver(cfg)
	if err != nil {
		return commandError(formatter, ErrCodeCatalog, "failed to load scene catalog", err)
	}

	infos := sceneInfos(resolver.Catalog())

	if opts.Format == "json" {
		return formatter.Success(infos)
	}

	for _, info := range infos {
		line := fmt.Sprintf("%-10s %s", info.Key, info.Description)
		if info.Default {
			line += " (default)"
		}
		fmt.Fprintln(formatter.Writer, strings.TrimRight(line, " "))
		formatter.VerboseLog("  objects: %s", strings.Join(info.Objects, ", "))
	}
	return nil
}

// sceneInfos summarizes the catalog in definition order.
func sceneInfos(catalog *scene.Catalog) []SceneInfo {
	infos := make([]SceneInfo, 0, catalog.Len())
	for _, key := range catalog.Keys() {
		s, _ := catalog.Lookup(key)
		infos = append(infos, SceneInfo{
			Key:         key,
			Description: s.Description,
			Default:     key == catalog.DefaultKey(),
			Objects:     s.ObjectNames(),
		})
	}
	return infos
}
