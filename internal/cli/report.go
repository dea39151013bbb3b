package cli

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/scrm/trolley/internal/config"
	"github.com/scrm/trolley/internal/presentation/graph"
	"github.com/scrm/trolley/internal/presentation/tui"
	"github.com/scrm/trolley/internal/runtime"
	"github.com/scrm/trolley/pkg/adapters/eventlog/file"
	"github.com/scrm/trolley/pkg/domain"
)

// RunReport summarizes an event log file. Raw markdown is written when
// plain is set, otherwise it is rendered for the terminal.
func RunReport(path string, plain bool, w io.Writer) error {
	if path == "" {
		path = file.DefaultPath()
	}
	events, err := file.ReadFile(path)
	if err != nil {
		return err
	}

	md := tui.Report(filepath.Base(path), events)
	if plain {
		_, err = fmt.Fprint(w, md)
		return err
	}
	out, err := tui.NewRenderer()(md)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, out)
	return err
}

// RunGraph prints the state diagram of mode.
func RunGraph(mode string, w io.Writer) error {
	m, err := domain.ParseMode(mode)
	if err != nil {
		return err
	}
	_, err = fmt.Fprint(w, graph.GenerateMermaid(runtime.Transitions(m), nil))
	return err
}

// RunConfig prints the effective configuration as YAML.
func RunConfig(path string, w io.Writer) error {
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	data, err := config.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
