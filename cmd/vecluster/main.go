// Package main provides the vecluster CLI entry point.
//
// The CLI is a thin driver over the engine packages: it reads pre-computed
// embedding vectors from CSV (one row per line, one float per column), runs
// a similarity or clustering operation, and prints the result. It also ships
// a synthetic data generator for benchmarking and a backend info command.
package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"fmt"
	"math/rand"
	"os"
	"strconv"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/veclusterhq/vecluster/pkg/compute"
	"github.com/veclusterhq/vecluster/pkg/config"
	"github.com/veclusterhq/vecluster/pkg/engine"
	"github.com/veclusterhq/vecluster/pkg/keyword"
	"github.com/veclusterhq/vecluster/pkg/logging"
	"github.com/veclusterhq/vecluster/pkg/vecmath"
)

var version = "0.1.0"

func main() {
	var configPath string

	rootCmd := &cobra.Command{
		Use:   "vecluster",
		Short: "vecluster - similarity ranking and topic clustering over embedding vectors",
		Long: `vecluster computes structure over row embeddings: pairwise
cosine-similarity ranking, k-means clustering, and agglomerative
hierarchical clustering, on either a CPU path or a parallel
worker-pool backend with automatic fallback.`,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to vecluster.yaml (optional)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("vecluster %s\n", version)
		},
	})

	rootCmd.AddCommand(&cobra.Command{
		Use:   "info",
		Short: "Show compute backend and SIMD acceleration info",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, _, err := setup(configPath)
			if err != nil {
				return err
			}
			cc := compute.NewContext(cfg.Compute)
			defer cc.Close()
			fmt.Printf("parallel backend available: %v (workers: %d)\n", cc.Available(), cc.Workers())
			info := vecmath.Info()
			fmt.Printf("simd accelerated: %v (arch: %s, features: %v)\n",
				info.Accelerated, info.Arch, info.Features)
			return nil
		},
	})

	genCmd := &cobra.Command{
		Use:   "gen [output.csv]",
		Short: "Generate synthetic clustered vectors for testing",
		Args:  cobra.ExactArgs(1),
		RunE:  runGen,
	}
	genCmd.Flags().Int("count", 1000, "Number of vectors")
	genCmd.Flags().Int("dims", 64, "Vector dimensions")
	genCmd.Flags().Int("clusters", 8, "Number of natural clusters")
	genCmd.Flags().Int64("seed", 42, "Random seed")
	rootCmd.AddCommand(genCmd)

	pairsCmd := &cobra.Command{
		Use:   "pairs [vectors.csv]",
		Short: "Rank all row pairs by cosine similarity",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			top, _ := cmd.Flags().GetInt("top")
			return runPairs(configPath, args[0], top)
		},
	}
	pairsCmd.Flags().Int("top", 20, "Number of top pairs to print")
	rootCmd.AddCommand(pairsCmd)

	kmeansCmd := &cobra.Command{
		Use:   "kmeans [vectors.csv]",
		Short: "Cluster rows with k-means",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _ := cmd.Flags().GetInt("k")
			seed, _ := cmd.Flags().GetInt64("seed")
			return runCluster(configPath, args[0], k, seed, false)
		},
	}
	kmeansCmd.Flags().Int("k", 8, "Cluster count")
	kmeansCmd.Flags().Int64("seed", 0, "Random seed for centroid seeding (0 = time-based)")
	rootCmd.AddCommand(kmeansCmd)

	hclusterCmd := &cobra.Command{
		Use:   "hcluster [vectors.csv]",
		Short: "Cluster rows agglomeratively",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			k, _ := cmd.Flags().GetInt("k")
			return runCluster(configPath, args[0], k, 0, true)
		},
	}
	hclusterCmd.Flags().Int("k", 8, "Target cluster count")
	rootCmd.AddCommand(hclusterCmd)

	keywordsCmd := &cobra.Command{
		Use:   "keywords [texts.txt]",
		Short: "Extract top TF-IDF keywords from a file of lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, _ := cmd.Flags().GetInt("n")
			return runKeywords(args[0], n)
		},
	}
	keywordsCmd.Flags().Int("n", 10, "Number of keywords")
	rootCmd.AddCommand(keywordsCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads configuration and builds the process logger.
func setup(configPath string) (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger, nil
}

func runGen(cmd *cobra.Command, args []string) error {
	count, _ := cmd.Flags().GetInt("count")
	dims, _ := cmd.Flags().GetInt("dims")
	clusters, _ := cmd.Flags().GetInt("clusters")
	seed, _ := cmd.Flags().GetInt64("seed")

	rng := rand.New(rand.NewSource(seed))

	// Cluster centers on the unit sphere, members perturbed around them.
	centers := make([][]float32, clusters)
	for c := range centers {
		centers[c] = make([]float32, dims)
		for d := range centers[c] {
			centers[c][d] = float32(rng.NormFloat64())
		}
		vecmath.NormalizeInPlace(centers[c])
	}

	f, err := os.Create(args[0])
	if err != nil {
		return err
	}
	defer f.Close()
	w := csv.NewWriter(f)
	defer w.Flush()

	record := make([]string, dims)
	row := make([]float32, dims)
	for i := 0; i < count; i++ {
		center := centers[rng.Intn(clusters)]
		for d := 0; d < dims; d++ {
			row[d] = center[d] + float32(rng.NormFloat64())*0.1
		}
		vecmath.NormalizeInPlace(row)
		for d, v := range row {
			record[d] = strconv.FormatFloat(float64(v), 'g', -1, 32)
		}
		if err := w.Write(record); err != nil {
			return err
		}
	}

	fmt.Printf("wrote %d vectors (dim %d, %d natural clusters) to %s\n",
		count, dims, clusters, args[0])
	return nil
}

func runPairs(configPath, path string, top int) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	vs, err := loadVectors(path)
	if err != nil {
		return err
	}

	cc := compute.NewContext(cfg.Compute, compute.WithLogger(logger))
	defer cc.Close()
	eng := engine.New(cc,
		engine.WithLogger(logger),
		engine.WithMaxIterations(cfg.Cluster.MaxIterations))

	runID := uuid.NewString()
	logger.Info("ranking pairs",
		zap.String("run_id", runID), zap.Int("rows", len(vs)), zap.Int("dim", vs.Dim()))

	bar := progressbar.Default(int64(compute.PairCount(len(vs))), "pairs")
	pairs, err := eng.AllPairs(context.Background(), vs,
		engine.WithProgress(func(processed, total int) {
			_ = bar.Set(processed)
		}))
	if err != nil {
		return err
	}
	_ = bar.Finish()

	if top > len(pairs) {
		top = len(pairs)
	}
	for _, p := range pairs[:top] {
		fmt.Printf("%6d %6d  %.4f\n", p.IndexA, p.IndexB, p.Score)
	}
	stats := cc.Stats()
	logger.Info("done", zap.String("run_id", runID),
		zap.Int64("parallel_dispatches", stats.DispatchesParallel),
		zap.Int64("cpu_ops", stats.OperationsCPU),
		zap.Int64("fallbacks", stats.FallbackCount))
	return nil
}

func runCluster(configPath, path string, k int, seed int64, hierarchical bool) error {
	cfg, logger, err := setup(configPath)
	if err != nil {
		return err
	}
	defer logger.Sync()

	vs, err := loadVectors(path)
	if err != nil {
		return err
	}

	cc := compute.NewContext(cfg.Compute, compute.WithLogger(logger))
	defer cc.Close()
	eng := engine.New(cc,
		engine.WithLogger(logger),
		engine.WithMaxIterations(cfg.Cluster.MaxIterations))

	runID := uuid.NewString()
	logger.Info("clustering",
		zap.String("run_id", runID), zap.Int("rows", len(vs)),
		zap.Int("k", k), zap.Bool("hierarchical", hierarchical))

	bar := progressbar.Default(100, "clustering")
	opts := []engine.CallOption{
		engine.WithFraction(func(f float64) {
			_ = bar.Set(int(f * 100))
		}),
	}
	if seed != 0 {
		opts = append(opts, engine.WithSeed(seed))
	}

	var clusters []engine.Cluster
	if hierarchical {
		clusters, err = eng.Hierarchical(context.Background(), vs, k, opts...)
	} else {
		clusters, err = eng.KMeans(context.Background(), vs, k, opts...)
	}
	if err != nil {
		return err
	}
	_ = bar.Finish()

	for i, c := range clusters {
		fmt.Printf("cluster %d: %d members, coherence %.4f\n", i, len(c.Members), c.Coherence)
	}
	stats := cc.Stats()
	logger.Info("done", zap.String("run_id", runID),
		zap.Int("clusters", len(clusters)),
		zap.Int64("parallel_dispatches", stats.DispatchesParallel),
		zap.Int64("cpu_ops", stats.OperationsCPU),
		zap.Int64("fallbacks", stats.FallbackCount))
	return nil
}

func runKeywords(path string, n int) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	var texts []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		if line := scanner.Text(); line != "" {
			texts = append(texts, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return err
	}

	for _, kw := range keyword.NewExtractor().TopKeywords(texts, n) {
		fmt.Println(kw)
	}
	return nil
}

// loadVectors reads a CSV of float columns, one vector per line.
func loadVectors(path string) (engine.VectorSet, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	vs := make(engine.VectorSet, 0, len(records))
	for line, record := range records {
		row := make([]float32, len(record))
		for col, field := range record {
			v, err := strconv.ParseFloat(field, 32)
			if err != nil {
				return nil, fmt.Errorf("%s line %d col %d: %w", path, line+1, col+1, err)
			}
			row[col] = float32(v)
		}
		vs = append(vs, row)
	}
	return vs, nil
}
