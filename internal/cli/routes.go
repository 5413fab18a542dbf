package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/roach88/docrest/internal/config"
	"github.com/roach88/docrest/internal/server"
)

// RoutesOptions holds flags for the routes command.
type RoutesOptions struct {
	*RootOptions
	Config string
}

// RouteInfo is one served route.
type RouteInfo struct {
	Method string `json:"method"`
	Path   string `json:"path"`
	Action string `json:"action"`
}

// ResourceInfo describes one registered resource.
type ResourceInfo struct {
	Singular       string `json:"singular"`
	Plural         string `json:"plural"`
	EntityView     string `json:"entity_view"`
	CollectionView string `json:"collection_view"`
	Sort           string `json:"sort,omitempty"`
	EnableXHR      bool   `json:"enable_xhr"`
	SingleView     bool   `json:"single_view"`
}

// RoutesReport is the routes command's success payload.
type RoutesReport struct {
	URLPath   string         `json:"url_path"`
	Routes    []RouteInfo    `json:"routes"`
	Resources []ResourceInfo `json:"resources"`
}

func (r RoutesReport) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "Routes under %s\n", r.URLPath)
	for _, rt := range r.Routes {
		fmt.Fprintf(&b, "  %-7s %-24s %s\n", rt.Method, rt.Path, rt.Action)
	}
	fmt.Fprintf(&b, "\nResources (%d)\n", len(r.Resources))
	for _, res := range r.Resources {
		sort := res.Sort
		if sort == "" {
			sort = "natural"
		}
		fmt.Fprintf(&b, "  %-10s %-10s views=%s,%s xhr=%t single_view=%t sort=%s\n",
			res.Singular, res.Plural, res.EntityView, res.CollectionView,
			res.EnableXHR, res.SingleView, sort)
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// NewRoutesCommand creates the routes command.
func NewRoutesCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RoutesOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "routes",
		Short: "Print the routes and resources a config serves",
		Long: `Print the route table and the registered resources of a config file.

Example:
  docrest routes --config docrest.yaml`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRoutes(opts, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Config, "config", "c", "", "path to config file (required)")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runRoutes(opts *RoutesOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)

	cfg, err := config.Load(opts.Config)
	if err != nil {
		code, details := configFailure(err)
		if outErr := formatter.Error(code, err.Error(), details); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "invalid config", err)
	}

	report, err := buildRoutesReport(cfg)
	if err != nil {
		code, details := configFailure(err)
		if outErr := formatter.Error(code, err.Error(), details); outErr != nil {
			return outErr
		}
		return WrapExitError(ExitFailure, "invalid resources", err)
	}
	return formatter.Success(report)
}

func buildRoutesReport(cfg *config.Config) (RoutesReport, error) {
	svc, err := cfg.NewService(config.MemoryBackend())
	if err != nil {
		return RoutesReport{}, err
	}

	report := RoutesReport{URLPath: svc.URLPath()}
	for _, rt := range server.RouteTable(svc.URLPath()) {
		report.Routes = append(report.Routes, RouteInfo{Method: rt.Method, Path: rt.Path, Action: rt.Action})
	}
	for _, res := range svc.Registry().Resources() {
		report.Resources = append(report.Resources, ResourceInfo{
			Singular:       res.SingularName,
			Plural:         res.PluralName,
			EntityView:     res.EntityView(),
			CollectionView: res.CollectionView(),
			Sort:           res.Sort.String(),
			EnableXHR:      res.EnableXHR,
			SingleView:     res.SingleView,
		})
	}
	return report, nil
}
