// Command veil is the CLI for the veil statement compiler. It
// compiles statement blocks to instruction sets, runs them against
// an evaluation context, extracts blocks from documents, and serves
// the live compile service.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"

	"github.com/veildoc/veil/core/compile"
	"github.com/veildoc/veil/core/cond"
	"github.com/veildoc/veil/core/sqlite"
	"github.com/veildoc/veil/internal/logging"
	"github.com/veildoc/veil/internal/server"
	"github.com/veildoc/veil/internal/snapshot"
	"github.com/veildoc/veil/internal/source"
	"github.com/veildoc/veil/internal/transcript"
)

const version = "0.2.0"

// CLI defines the command-line interface for veil.
var CLI struct {
	// Global flags
	Verbose bool `name:"verbose" short:"v" help:"Enable debug logging"`
	JSONLog bool `name:"json-log" help:"Log in JSON format"`

	Compile CompileCmd `cmd:"" help:"Compile statement lines to an instruction set"`
	Run     RunCmd     `cmd:"" help:"Compile and execute against an evaluation context"`
	Extract ExtractCmd `cmd:"" help:"Extract statement blocks from an XML/HTML document"`
	History HistoryCmd `cmd:"" help:"List recorded compile runs"`
	Serve   ServeCmd   `cmd:"" help:"Start the WebSocket compile service"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// CompileCmd compiles a block of statement lines.
type CompileCmd struct {
	Input      string `arg:"" optional:"" help:"Statement file (default: stdin)" type:"path"`
	BlockID    string `name:"block-id" short:"b" default:"cli" help:"Block identity for instruction IDs"`
	Snapshot   string `name:"snapshot" help:"Write the result to this file (.xz compresses)" type:"path"`
	Transcript string `name:"transcript" help:"Record the run in this transcript database" type:"path"`
}

// Run executes the compile command.
func (c *CompileCmd) Run() error {
	lines, err := readLines(c.Input)
	if err != nil {
		return err
	}

	started := time.Now()
	res := compile.Compile(lines, c.BlockID)

	if c.Transcript != "" {
		if err := record(c.Transcript, res, time.Since(started)); err != nil {
			return err
		}
	}
	if c.Snapshot != "" {
		if err := snapshot.Write(c.Snapshot, res); err != nil {
			return err
		}
	}
	return printJSON(res)
}

// RunCmd compiles and executes a block.
type RunCmd struct {
	Input   string `arg:"" optional:"" help:"Statement file (default: stdin)" type:"path"`
	BlockID string `name:"block-id" short:"b" default:"cli" help:"Block identity for instruction IDs"`
	Context string `name:"context" short:"c" help:"Evaluation context JSON file" type:"path"`
}

// Run executes the run command.
func (c *RunCmd) Run() error {
	lines, err := readLines(c.Input)
	if err != nil {
		return err
	}

	ec := &cond.Context{}
	if c.Context != "" {
		data, err := os.ReadFile(c.Context)
		if err != nil {
			return fmt.Errorf("read context: %w", err)
		}
		if err := json.Unmarshal(data, ec); err != nil {
			return fmt.Errorf("parse context: %w", err)
		}
	}

	pipeline := compile.NewPipeline()
	res := compile.Compile(lines, c.BlockID)

	ctx, cancel := signalContext()
	defer cancel()

	outcome := pipeline.Execute(ctx, res, ec)
	return printJSON(struct {
		Compile *compile.Result `json:"compile"`
		Execute any             `json:"execute"`
	}{res, outcome})
}

// ExtractCmd pulls statement blocks out of a document.
type ExtractCmd struct {
	Input   string `arg:"" help:"XML/HTML document" type:"path"`
	Compile bool   `name:"compile" help:"Also compile each extracted block"`
}

// Run executes the extract command.
func (c *ExtractCmd) Run() error {
	blocks, err := source.ExtractFile(c.Input)
	if err != nil {
		return err
	}
	if !c.Compile {
		return printJSON(blocks)
	}

	results := make([]*compile.Result, 0, len(blocks))
	for _, b := range blocks {
		results = append(results, compile.Compile(b.Lines, b.ID))
	}
	return printJSON(results)
}

// HistoryCmd lists recorded compile runs.
type HistoryCmd struct {
	Transcript string `name:"transcript" default:"veil-transcript.db" help:"Transcript database path" type:"path"`
	BlockID    string `name:"block-id" short:"b" help:"Filter by block identity"`
	Limit      int    `name:"limit" short:"n" default:"20" help:"Maximum runs to list"`
}

// Run executes the history command.
func (c *HistoryCmd) Run() error {
	store, err := transcript.Open(c.Transcript)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(context.Background(), c.BlockID, c.Limit)
	if err != nil {
		return err
	}
	return printJSON(entries)
}

// ServeCmd starts the WebSocket compile service.
type ServeCmd struct {
	Port int `name:"port" short:"p" default:"8473" help:"Listen port (localhost only)"`
}

// Run executes the serve command.
func (c *ServeCmd) Run() error {
	ctx, cancel := signalContext()
	defer cancel()

	srv := server.New(compile.NewPipeline())
	return srv.ListenAndServe(ctx, c.Port)
}

// VersionCmd prints version information.
type VersionCmd struct{}

// Run executes the version command.
func (c *VersionCmd) Run() error {
	info := sqlite.GetInfo()
	fmt.Printf("veil %s (sqlite driver: %s)\n", version, info.DriverType)
	return nil
}

// readLines loads statement lines from a file or stdin.
func readLines(path string) ([]string, error) {
	var data []byte
	var err error
	if path == "" || path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}
	return strings.Split(strings.TrimRight(string(data), "\n"), "\n"), nil
}

// record appends one compile run to the transcript store.
func record(path string, res *compile.Result, took time.Duration) error {
	store, err := transcript.Open(path)
	if err != nil {
		return err
	}
	defer store.Close()

	return store.Record(context.Background(), transcript.Entry{
		BlockID:      res.BlockID,
		Valid:        res.Valid,
		Instructions: len(res.Instructions),
		Errors:       len(res.Errors),
		Warnings:     len(res.Warnings),
		Duration:     took,
	})
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// signalContext cancels on SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("veil"),
		kong.Description("Veil statement compiler"),
		kong.UsageOnError(),
	)

	level := logging.LevelInfo
	if CLI.Verbose {
		level = logging.LevelDebug
	}
	format := logging.FormatText
	if CLI.JSONLog {
		format = logging.FormatJSON
	}
	logging.InitLogger(level, format)

	if err := ctx.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "veil: %v\n", err)
		os.Exit(1)
	}
}
