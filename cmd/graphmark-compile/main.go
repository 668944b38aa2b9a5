package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/rdelaney/graphmark/internal/compiler"
	"github.com/rdelaney/graphmark/internal/config"
	"github.com/rdelaney/graphmark/internal/dataset"
)

func main() {
	if err := run(); err != nil {
		var cfgErr *compiler.ConfigError
		var dataErr *dataset.DataError
		switch {
		case errors.As(err, &cfgErr):
			fmt.Fprintf(os.Stderr, "graphmark-compile: configuration error: %v\n", err)
		case errors.As(err, &dataErr):
			fmt.Fprintf(os.Stderr, "graphmark-compile: data error: %v\n", err)
		default:
			fmt.Fprintf(os.Stderr, "graphmark-compile: %v\n", err)
		}
		os.Exit(1)
	}
}

func run() error {
	var (
		datasetPath = flag.String("dataset", "", "path to the dataset (edge list file or CSV directory)")
		format      = flag.String("format", "edgelist", "dataset format: edgelist or csv")
		workload    = flag.String("workload", "", "path to the workload spec JSON")
		outDir      = flag.String("out", "workloads", "output directory for compiled artifacts")
		seed        = flag.Int64("seed", 42, "seed for sampling and compilation")
		sampleSize  = flag.Int("sample-size", dataset.DefaultSampleSize, "reservoir sample size")
	)
	flag.Parse()

	if *datasetPath == "" || *workload == "" {
		flag.Usage()
		return fmt.Errorf("-dataset and -workload are required")
	}

	logger := config.NewLogger(os.Stderr, config.Load().LogLevel)

	var src dataset.Source
	switch *format {
	case "edgelist":
		src = &dataset.EdgeListSource{Path: *datasetPath}
	case "csv":
		src = &dataset.CSVPairSource{Dir: *datasetPath}
	default:
		return fmt.Errorf("unknown format %q", *format)
	}

	data, err := os.ReadFile(*workload)
	if err != nil {
		return fmt.Errorf("read workload spec: %w", err)
	}
	var spec compiler.WorkloadSpec
	if err := json.Unmarshal(data, &spec); err != nil {
		return fmt.Errorf("parse workload spec: %w", err)
	}

	scanner := dataset.NewScanner(*sampleSize, *seed, logger)
	snap, err := scanner.Scan(src)
	if err != nil {
		return err
	}
	logger.Info("dataset scanned",
		"max_id", snap.MaxID,
		"sampled_nodes", len(snap.Nodes),
		"sampled_edges", len(snap.Edges),
	)

	files, err := compiler.New(logger).Compile(spec, snap, *seed, *outDir)
	if err != nil {
		return err
	}

	for _, f := range files {
		fmt.Println(f)
	}
	return nil
}
