package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/thereceipt/receipt-templater/internal/config"
	"github.com/thereceipt/receipt-templater/internal/engine"
	"github.com/thereceipt/receipt-templater/internal/logging"
	"github.com/thereceipt/receipt-templater/internal/prepare"
	"github.com/thereceipt/receipt-templater/internal/printer"
	"github.com/thereceipt/receipt-templater/internal/templatestore"
	"github.com/thereceipt/receipt-templater/internal/validation"
	"github.com/thereceipt/receipt-templater/pkg/receiptformat"
)

type renderFlags struct {
	templateFile string
	dataFile     string
	vars         []string
	paper        string
}

func (f *renderFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.templateFile, "template", "t", "", "template file (.json, .yaml, .toml) instead of a stored template")
	cmd.Flags().StringVarP(&f.dataFile, "data", "d", "", "data record file (.json or .yaml, - for stdin)")
	cmd.Flags().StringArrayVar(&f.vars, "var", nil, "set a data field, key=value (repeatable)")
	cmd.Flags().StringVar(&f.paper, "paper", "", "paper width: 58mm, 80mm or 112mm")
}

// request builds an engine request from the flags. args may hold a stored
// template name.
func (f *renderFlags) request(args []string) (engine.Request, error) {
	var req engine.Request
	switch {
	case f.templateFile != "":
		t, err := receiptformat.ParseFile(f.templateFile)
		if err != nil {
			return req, err
		}
		req.Template = t
	case len(args) > 0:
		req.TemplateName = args[0]
	default:
		return req, fmt.Errorf("a template name or --template file is required")
	}

	data, err := f.data(os.Stdin)
	if err != nil {
		return req, err
	}
	req.Data = data
	return req, nil
}

// data loads the data file and applies --var overrides on top.
func (f *renderFlags) data(stdin io.Reader) (map[string]interface{}, error) {
	data, err := loadData(f.dataFile, stdin)
	if err != nil {
		return nil, err
	}
	for _, kv := range f.vars {
		key, value, ok := strings.Cut(kv, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid --var %q, expected key=value", kv)
		}
		data[key] = parseValue(value)
	}
	return data, nil
}

// loadData reads a data record. An empty path is an empty record.
func loadData(path string, stdin io.Reader) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	if path == "" {
		return data, nil
	}

	var (
		raw []byte
		err error
	)
	if path == "-" {
		raw, err = io.ReadAll(stdin)
	} else {
		raw, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(raw, &data)
	default:
		err = json.Unmarshal(raw, &data)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse data: %w", err)
	}
	return data, nil
}

func parseValue(s string) interface{} {
	switch s {
	case "true":
		return true
	case "false":
		return false
	}
	if n, err := strconv.ParseFloat(s, 64); err == nil {
		return n
	}
	return s
}

// localEngine builds a render-only engine. Stored templates are read from
// the configured template file when stored is set; otherwise the store is
// empty and requests carry their own template.
func localEngine(cfg *config.Config, paper string, stored bool) (*engine.Engine, error) {
	var store templatestore.Repository = templatestore.NewMemoryRepository(nil)
	if stored {
		fs, err := templatestore.NewFileRepository(cfg.Templates.Path)
		if err != nil {
			return nil, err
		}
		store = fs
	}
	loc, err := cfg.Render.Location()
	if err != nil {
		return nil, err
	}
	if paper == "" {
		paper = cfg.Render.PaperWidth
	}
	return engine.New(engine.Options{
		Store: store,
		Preparer: prepare.New(prepare.Options{
			Location:        loc,
			LocalCurrency:   cfg.Render.LocalCurrency,
			ForeignCurrency: cfg.Render.ForeignCurrency,
		}),
		RequiredFields: cfg.Render.RequiredFields,
		PaperWidth:     paper,
		FontPath:       cfg.Render.FontPath,
		Logger:         logging.GetLogger("engine"),
	}), nil
}

func newPreviewCmd(opts *globalOptions) *cobra.Command {
	var (
		flags  renderFlags
		pngOut string
	)
	cmd := &cobra.Command{
		Use:   "preview [template-name]",
		Short: "Render a template locally as text or PNG",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.loadConfig()
			if err != nil {
				return err
			}
			req, err := flags.request(args)
			if err != nil {
				return err
			}
			eng, err := localEngine(cfg, flags.paper, req.Template == nil)
			if err != nil {
				return err
			}
			ctx := context.Background()

			if pngOut != "" {
				png, _, err := eng.PreviewPNG(ctx, req)
				if err != nil {
					return err
				}
				if err := os.WriteFile(pngOut, png, 0644); err != nil {
					return fmt.Errorf("failed to write preview: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Preview written to %s\n", pngOut)
				return nil
			}

			text, doc, err := eng.Preview(ctx, req)
			if err != nil {
				return err
			}
			if err := doc.Outcome.Err(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), receiptBox(text, isTerminal(os.Stdout)))
			return nil
		},
	}
	flags.register(cmd)
	cmd.Flags().StringVar(&pngOut, "png", "", "write a PNG raster preview to this file")
	return cmd
}

func newValidateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <template-file>...",
		Short: "Check template files for structural errors",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.loadConfig(); err != nil {
				return err
			}
			failed := 0
			for _, path := range args {
				err := validateFile(path)
				if err != nil {
					failed++
					fmt.Fprintln(cmd.OutOrStdout(), statusLine(false, path, err.Error()))
					continue
				}
				fmt.Fprintln(cmd.OutOrStdout(), statusLine(true, path, "valid"))
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d templates invalid", failed, len(args))
			}
			return nil
		},
	}
}

func validateFile(path string) error {
	t, err := receiptformat.ParseFile(path)
	if err != nil {
		return err
	}
	return validation.ValidateParsed(t)
}

func newAnalyzeCmd(opts *globalOptions) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "analyze <template-file>",
		Short: "Describe a template's segments and conditionals",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := opts.loadConfig(); err != nil {
				return err
			}
			t, err := receiptformat.ParseFile(args[0])
			if err != nil {
				return err
			}
			a := receiptformat.Analyze(t)
			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(a)
			}
			fmt.Fprint(cmd.OutOrStdout(), renderMarkdown(a.Markdown(), isTerminal(os.Stdout)))
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the analysis as JSON")
	return cmd
}

func newPortsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial ports that may have a printer attached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports := printer.SerialPorts()
			if len(ports) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No serial ports found")
				return nil
			}
			for _, p := range ports {
				fmt.Fprintln(cmd.OutOrStdout(), p)
			}
			return nil
		},
	}
}
