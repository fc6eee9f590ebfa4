// demoparse 解析单个录像并输出比赛概要
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	cfgpkg "github.com/taoyao-code/demo-analyzer/internal/config"
	"github.com/taoyao-code/demo-analyzer/internal/demo"
	"github.com/taoyao-code/demo-analyzer/internal/logging"
	"github.com/taoyao-code/demo-analyzer/internal/metrics"
	"github.com/taoyao-code/demo-analyzer/internal/parser"
	"github.com/taoyao-code/demo-analyzer/internal/service"
)

type options struct {
	format          string
	parseAll        bool
	state           bool
	metricsTextfile string
	config          string
	verbose         bool
}

// output 命令输出
type output struct {
	Digest string      `json:"digest" yaml:"digest"`
	Header demo.Header `json:"header" yaml:"header"`
	Match  any         `json:"match,omitempty" yaml:"match,omitempty"`
	State  any         `json:"state,omitempty" yaml:"state,omitempty"`
}

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "demoparse:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	var opts options
	fs := pflag.NewFlagSet("demoparse", pflag.ContinueOnError)
	fs.StringVarP(&opts.format, "format", "f", "json", "output format: json or yaml")
	fs.BoolVar(&opts.parseAll, "parse-all", false, "decode every message type")
	fs.BoolVar(&opts.state, "state", false, "print the parser state summary instead of the match")
	fs.StringVar(&opts.metricsTextfile, "metrics-textfile", "", "write parse metrics to a Prometheus textfile")
	fs.StringVarP(&opts.config, "config", "c", "", "config file")
	fs.BoolVarP(&opts.verbose, "verbose", "v", false, "debug logging")
	fs.Usage = func() {
		fmt.Fprintln(fs.Output(), "usage: demoparse [flags] <file.dem|->")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return errors.New("expected exactly one demo file")
	}
	if opts.format != "json" && opts.format != "yaml" {
		return fmt.Errorf("unknown format %q", opts.format)
	}

	cfg, err := cfgpkg.Load(opts.config)
	if err != nil {
		return err
	}
	// 日志只写 stderr，stdout 留给结果
	cfg.Logging.Output = "stderr"
	cfg.Logging.File.Filename = ""
	if opts.verbose {
		cfg.Logging.Level = "debug"
	}
	log, err := logging.InitLogger(cfg.Logging)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	data, err := readInput(fs.Arg(0), stdin)
	if err != nil {
		return err
	}
	plain, err := demo.Decompress(data, cfg.Parser.MaxDemoBytes)
	if err != nil {
		return err
	}

	reg := metrics.NewRegistry()
	appm := metrics.NewAppMetrics(reg)
	parserOpts := []parser.Option{
		parser.WithLogger(log.With(zap.String("file", fs.Arg(0)))),
		parser.WithMetrics(appm),
		parser.WithParseAll(opts.parseAll || cfg.Parser.ParseAll),
	}

	out := output{Digest: service.Digest(plain)}
	start := time.Now()
	if opts.state {
		var state *parser.ParserState
		out.Header, state, err = parser.NewStateParser(plain, parserOpts...).Parse()
		if err == nil {
			out.State = state.Summary()
		}
	} else {
		var match parser.MatchState
		out.Header, match, err = parser.NewDemoParser[parser.MatchState](plain, parser.NewAnalyser(), parserOpts...).Parse()
		out.Match = match
	}
	log.Debug("parse finished", zap.Duration("elapsed", time.Since(start)))

	if opts.metricsTextfile != "" {
		if werr := metrics.WriteTextfile(reg, opts.metricsTextfile); werr != nil {
			log.Warn("write metrics textfile failed", zap.Error(werr))
		}
	}
	if err != nil {
		return err
	}
	return encode(stdout, opts.format, out)
}

func readInput(path string, stdin io.Reader) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

func encode(w io.Writer, format string, v any) error {
	if format == "yaml" {
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
