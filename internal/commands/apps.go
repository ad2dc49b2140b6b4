package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/bassista/go_sam/internal/app"
	"github.com/bassista/go_sam/internal/repository"
	"github.com/bassista/go_sam/internal/view"
)

type appsOptions struct {
	filter string
	icons  bool
}

func addApps(topLevel *cobra.Command) {
	oo := &appsOptions{}
	cmd := &cobra.Command{
		Use:   "apps",
		Short: "Update the app catalog and print the owned apps",
		Example: `
sam apps
sam apps --filter portal --icons
`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Shutdown()
			return listApps(cmd.Context(), a, oo, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&oo.filter, "filter", "f", "", "only apps whose name contains this text")
	cmd.Flags().BoolVar(&oo.icons, "icons", false, "show the cached icon path of each app")
	topLevel.AddCommand(cmd)
}

// listApps runs the same catalog update as the service does at startup, then
// prints one row per owned app. A catalog failure is not fatal.
func listApps(ctx context.Context, a *app.App, oo *appsOptions, out io.Writer) error {
	if err := a.Catalog.UpdateNameDatabase(ctx); err != nil {
		_, _ = fmt.Fprintf(out, "warning: app catalog not updated: %v\n", err)
	}
	owned, err := a.Client.OwnedApps(ctx)
	if err != nil {
		return fmt.Errorf("cannot list owned apps: %w", err)
	}
	repository.SortAppIDs(owned)

	bold := color.New(color.Bold).SprintFunc()
	tbl := uitable.New()
	tbl.Separator = "  "
	if oo.icons {
		tbl.AddRow(bold("APPID"), bold("NAME"), bold("ICON"))
	} else {
		tbl.AddRow(bold("APPID"), bold("NAME"))
	}

	rows := 0
	for _, id := range owned {
		name := a.Catalog.AppName(id)
		if name == "" {
			name = id.String()
		}
		if !view.MatchesFilter(name, oo.filter) {
			continue
		}
		rows++
		if oo.icons {
			icon := a.Catalog.IconPath(id)
			if icon == "" {
				icon = "-"
			}
			tbl.AddRow(id, name, icon)
			continue
		}
		tbl.AddRow(id, name)
	}

	_, _ = fmt.Fprintln(out, tbl)
	_, _ = fmt.Fprintf(out, "%d of %d owned apps\n", rows, len(owned))
	return nil
}
