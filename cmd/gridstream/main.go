package main

import (
	"context"
	"fmt"
	"image/png"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/gridstream/internal/catalog"
	"github.com/san-kum/gridstream/internal/config"
	"github.com/san-kum/gridstream/internal/logging"
	"github.com/san-kum/gridstream/internal/render"
	"github.com/san-kum/gridstream/internal/server"
	"github.com/san-kum/gridstream/internal/session"
	"github.com/san-kum/gridstream/internal/sim"
	"github.com/san-kum/gridstream/internal/stream"
	"github.com/san-kum/gridstream/internal/telemetry"
	"github.com/san-kum/gridstream/internal/tui"
)

var (
	configFile  string
	addr        string
	catalogFile string
	logLevel    string

	serverURL  string
	steps      int
	params     []string
	sources    []string
	wrap       bool
	noDiag     bool
	schemeFlag string
	fixedNorm  bool

	outFile    string
	renderSize int
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridstream",
		Short: "stream grid simulations to live heatmap clients",
	}

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "run the streaming server",
		RunE:  runServe,
	}
	serveCmd.Flags().StringVar(&configFile, "config", "", "server config file (YAML)")
	serveCmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	serveCmd.Flags().StringVar(&catalogFile, "catalog", "", "catalog overrides file (overrides config)")
	serveCmd.Flags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "print the simulator catalog",
		RunE:  runList,
	}

	watchCmd := &cobra.Command{
		Use:   "watch [simulator]",
		Short: "stream a simulation into the terminal",
		Args:  cobra.ExactArgs(1),
		RunE:  runWatch,
	}
	watchCmd.Flags().StringVar(&serverURL, "url", "ws://localhost:8080/ws", "server websocket URL")
	watchCmd.Flags().IntVar(&steps, "steps", session.DefaultSteps, "number of steps to run")
	watchCmd.Flags().StringArrayVar(&params, "param", nil, "simulator parameter, name=value")
	watchCmd.Flags().StringArrayVar(&sources, "source", nil, "point source, x,y,value")
	watchCmd.Flags().BoolVar(&wrap, "wrap", false, "periodic boundaries")
	watchCmd.Flags().BoolVar(&noDiag, "no-diagonals", false, "orthogonal stencil only")
	watchCmd.Flags().StringVar(&schemeFlag, "scheme", "", "color scheme (heat, ripple, gray)")
	watchCmd.Flags().BoolVar(&fixedNorm, "fixed", false, "fixed normalization instead of per-frame min/max")

	renderCmd := &cobra.Command{
		Use:   "render [simulator]",
		Short: "run a simulation locally and write the final frame as PNG",
		Args:  cobra.ExactArgs(1),
		RunE:  runRender,
	}
	renderCmd.Flags().IntVar(&steps, "steps", 100, "number of steps to run")
	renderCmd.Flags().StringArrayVar(&params, "param", nil, "simulator parameter, name=value")
	renderCmd.Flags().StringArrayVar(&sources, "source", nil, "point source, x,y,value")
	renderCmd.Flags().BoolVar(&wrap, "wrap", false, "periodic boundaries")
	renderCmd.Flags().BoolVar(&noDiag, "no-diagonals", false, "orthogonal stencil only")
	renderCmd.Flags().StringVar(&schemeFlag, "scheme", "", "color scheme (heat, ripple, gray)")
	renderCmd.Flags().BoolVar(&fixedNorm, "fixed", false, "fixed normalization instead of per-frame min/max")
	renderCmd.Flags().StringVarP(&outFile, "out", "o", "frame.png", "output file")
	renderCmd.Flags().IntVar(&renderSize, "size", 800, "canvas container size in pixels")

	rootCmd.AddCommand(serveCmd, listCmd, watchCmd, renderCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Default()
	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return err
		}
		cfg = loaded
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if catalogFile != "" {
		cfg.CatalogPath = catalogFile
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}

	log := logging.New(cfg.LogLevel)

	cat := catalog.Builtin()
	if cfg.CatalogPath != "" {
		if err := cat.LoadOverrides(cfg.CatalogPath); err != nil {
			return err
		}
	}

	hub := stream.NewHub()
	metrics := telemetry.New()
	registry := session.NewRegistry(cat, hub,
		session.WithLogger(log),
		session.WithMetrics(metrics),
		session.WithIdleTimeout(cfg.IdleTimeout.Std()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	go registry.RunJanitor(ctx)

	srv := server.New(cfg, cat, registry, hub, metrics, log)
	return srv.ListenAndServe(ctx)
}

func runList(cmd *cobra.Command, args []string) error {
	cat := catalog.Builtin()
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION")
	for _, e := range cat.List() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", e.ID, e.Name, e.Description)
	}
	return w.Flush()
}

func runWatch(cmd *cobra.Command, args []string) error {
	simID := args[0]
	parameters, err := parseParams(params)
	if err != nil {
		return err
	}
	cond, err := buildConditions(sources, wrap, noDiag)
	if err != nil {
		return err
	}

	client, err := tui.Dial(serverURL)
	if err != nil {
		return err
	}
	defer client.Close()

	scheme := schemeFlag
	if scheme == "" {
		scheme = defaultScheme(simID)
	}
	req := stream.StartRequest{
		SimID:             simID,
		Parameters:        parameters,
		InitialConditions: cond,
		Steps:             steps,
	}
	return tui.Run(client, req, scheme, fixedNorm)
}

func runRender(cmd *cobra.Command, args []string) error {
	simID := args[0]
	parameters, err := parseParams(params)
	if err != nil {
		return err
	}
	cond, err := buildConditions(sources, wrap, noDiag)
	if err != nil {
		return err
	}

	cat := catalog.Builtin()
	adapter, err := cat.New(simID, parameters)
	if err != nil {
		return err
	}
	if err := sim.Apply(adapter, cond); err != nil {
		return err
	}

	useDiagonals, wrapOn := cond.Toggles()
	for i := 0; i < steps; i++ {
		adapter.Step(useDiagonals, wrapOn)
	}

	scheme := schemeFlag
	if scheme == "" {
		scheme = defaultScheme(simID)
	}
	mode := render.ModeDynamic
	if fixedNorm {
		mode = render.ModeFixed
	}
	r := render.New(render.SchemeByName(scheme), mode, renderSize, renderSize)
	img := r.Render(adapter.Grid())

	f, err := os.Create(outFile)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		return err
	}
	fmt.Printf("wrote %s (%d steps of %s)\n", outFile, steps, simID)
	return nil
}

func defaultScheme(simID string) string {
	if e, err := catalog.Builtin().Get(simID); err == nil && e.Scheme != "" {
		return e.Scheme
	}
	return "gray"
}

func parseParams(pairs []string) (map[string]any, error) {
	out := make(map[string]any, len(pairs))
	for _, p := range pairs {
		name, value, ok := strings.Cut(p, "=")
		if !ok {
			return nil, fmt.Errorf("invalid --param %q, want name=value", p)
		}
		out[name] = value
	}
	return out, nil
}

func buildConditions(specs []string, wrap, noDiag bool) (sim.Conditions, error) {
	cond := sim.Conditions{}
	if wrap {
		t := true
		cond.Wrap = &t
	}
	if noDiag {
		f := false
		cond.UseDiagonals = &f
	}
	for _, s := range specs {
		parts := strings.Split(s, ",")
		if len(parts) != 3 {
			return cond, fmt.Errorf("invalid --source %q, want x,y,value", s)
		}
		x, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
		y, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
		v, err3 := strconv.ParseFloat(strings.TrimSpace(parts[2]), 64)
		if err1 != nil || err2 != nil || err3 != nil {
			return cond, fmt.Errorf("invalid --source %q, want x,y,value", s)
		}
		cond.Sources = append(cond.Sources, sim.Source{X: x, Y: y, Value: v})
	}
	return cond, nil
}
