package docs

import (
	"encoding/csv"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/croftdb/croft/cmd/util"
	"github.com/croftdb/croft/lib/query"
	"github.com/rcrowley/go-metrics"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	perfTestCmd = &cobra.Command{
		Use:     "perf",
		Short:   "Performance testing tool for croft servers",
		Long:    "",
		RunE:    runPerf,
		PreRunE: processPerfConfig,
	}
	perfTypeID           = "doc"
	perfField            = "title"
	perfLargeValueSizeKB = 100
	perfNumThreads       = 10
	perfIterations       = 1000
	perfKeySpread        = 100
	perfSkip             = make([]string, 0)
)

func init() {
	// add flags
	key := "skip"
	perfTestCmd.Flags().String(key, "", util.WrapString("Benchmarks to skip (comma separated - e.g. save,get)"))
	key = "threads"
	perfTestCmd.Flags().Int(key, 10, util.WrapString("Number of threads to use for the benchmark"))
	key = "iterations"
	perfTestCmd.Flags().Int(key, 1000, util.WrapString("Number of operations per benchmark"))
	key = "large-value-size"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How large the text field for the save-large test should be (in KB)"))
	key = "keys"
	perfTestCmd.Flags().Int(key, 100, util.WrapString("How many different records to use for the read tests"))
	key = "type"
	perfTestCmd.Flags().String(key, "doc", util.WrapString("The record type to benchmark with. Must be declared in the server's schema file"))
	key = "field"
	perfTestCmd.Flags().String(key, "title", util.WrapString("The string field of the record type the benchmark payload is written to"))
	key = "csv"
	perfTestCmd.Flags().String(key, "", util.WrapString("Optional path to save benchmark results as CSV"))
}

func processPerfConfig(cmd *cobra.Command, _ []string) error {
	if err := viper.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	// Read the configuration from the command line flags and environment variables
	perfTypeID = viper.GetString("type")
	perfField = viper.GetString("field")
	perfLargeValueSizeKB = viper.GetInt("large-value-size")
	perfKeySpread = viper.GetInt("keys")
	perfNumThreads = viper.GetInt("threads")
	perfIterations = viper.GetInt("iterations")
	perfSkip = strings.Split(viper.GetString("skip"), ",")

	return nil
}

func runPerf(_ *cobra.Command, _ []string) error {

	fmt.Println("Performance testing tool for croft servers")

	// Print configuration
	fmt.Println()
	fmt.Println("Configuration:")
	fmt.Println(util.GetClientConfig().String())
	fmt.Printf("Type: %s\n", perfTypeID)
	fmt.Printf("Threads: %d\n", perfNumThreads)
	fmt.Printf("Iterations: %d\n", perfIterations)
	fmt.Println()

	fmt.Println("starting tests...")

	tenant := util.GetTenantID()
	results := make(map[string]metrics.Timer)

	// save: each operation creates a new record
	var savedIDs syncIDs
	results["save"] = runBench("save", func(i int) error {
		id, err := docStore.Save(perfTypeID, tenant, payload(fmt.Sprintf("perf save %d", i)))
		if err == nil {
			savedIDs.add(id)
		}
		return err
	})
	printResult("save", results["save"])

	// save-large: same, with a large text field
	largeText := strings.Repeat("x", perfLargeValueSizeKB*1024)
	var largeIDs syncIDs
	results["save-large"] = runBench("save-large", func(i int) error {
		id, err := docStore.Save(perfTypeID, tenant, payload(largeText))
		if err == nil {
			largeIDs.add(id)
		}
		return err
	})
	printResult("save-large", results["save-large"])

	// seed a fixed set of records for the read tests
	readIDs := make([]int64, 0, perfKeySpread)
	for i := 0; i < perfKeySpread; i++ {
		id, err := docStore.Save(perfTypeID, tenant, payload(fmt.Sprintf("perf read %d", i)))
		if err != nil {
			log.Printf("(seed) - error saving record: %v\n", err)
			continue
		}
		readIDs = append(readIDs, id)
	}

	// get: load seeded records by id
	results["get"] = runBench("get", func(i int) error {
		if len(readIDs) == 0 {
			return nil
		}
		_, _, err := docStore.Get(perfTypeID, tenant, readIDs[i%len(readIDs)])
		return err
	})
	printResult("get", results["get"])

	// search: full text search over the seeded records
	results["search"] = runBench("search", func(i int) error {
		_, _, _, err := docStore.Search(perfTypeID, tenant, query.Spec{Text: "perf", Limit: 10})
		return err
	})
	printResult("search", results["search"])

	// mixed: alternate save, get, search and delete
	results["mixed"] = runBench("mixed", func(i int) error {
		switch i % 4 {
		case 0:
			id, err := docStore.Save(perfTypeID, tenant, payload(fmt.Sprintf("perf mixed %d", i)))
			if err == nil {
				savedIDs.add(id)
			}
			return err
		case 1:
			if len(readIDs) == 0 {
				return nil
			}
			_, _, err := docStore.Get(perfTypeID, tenant, readIDs[i%len(readIDs)])
			return err
		case 2:
			_, _, _, err := docStore.Search(perfTypeID, tenant, query.Spec{Text: "perf", Limit: 10})
			return err
		default:
			id, ok := savedIDs.pop()
			if !ok {
				return nil
			}
			return docStore.Delete(perfTypeID, tenant, id)
		}
	})
	printResult("mixed", results["mixed"])

	// delete: remove the remaining saved records
	results["delete"] = runBench("delete", func(i int) error {
		id, ok := savedIDs.pop()
		if !ok {
			id, ok = largeIDs.pop()
		}
		if !ok {
			return nil
		}
		return docStore.Delete(perfTypeID, tenant, id)
	})
	printResult("delete", results["delete"])

	// cleanup seeded and leftover records
	cleanup := append(readIDs, savedIDs.drain()...)
	cleanup = append(cleanup, largeIDs.drain()...)
	for _, id := range cleanup {
		if err := docStore.Delete(perfTypeID, tenant, id); err != nil {
			log.Printf("(cleanup) - error deleting record %d: %v\n", id, err)
		}
	}

	// Write results to csv if specified
	if csvPath := viper.GetString("csv"); csvPath != "" {
		fmt.Printf("\nExporting results to CSV: %s\n", csvPath)
		if err := writeResultsToCSV(csvPath, results); err != nil {
			return fmt.Errorf("failed to export results to CSV: %v", err)
		}
		fmt.Println("Export complete")
	}

	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// payload renders the benchmark record with the given field value
func payload(value string) []byte {
	return []byte(fmt.Sprintf(`{%q: %q}`, perfField, value))
}

func shouldSkip(test string) bool {
	// Check if the test is in the skip list
	for _, skip := range perfSkip {
		if test == skip {
			return true
		}
	}
	return false
}

// runBench runs fn perfIterations times across perfNumThreads goroutines and
// records the latency of every call in a timer
func runBench(name string, fn func(i int) error) metrics.Timer {
	timer := metrics.NewTimer()

	if shouldSkip(name) {
		return timer
	}

	var wg sync.WaitGroup
	var counter int64

	for t := 0; t < perfNumThreads; t++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&counter, 1))
				if i > perfIterations {
					return
				}
				start := time.Now()
				if err := fn(i); err != nil {
					log.Printf("(%s) - error: %v\n", name, err)
				}
				timer.UpdateSince(start)
			}
		}()
	}

	wg.Wait()
	return timer
}

// printResult prints the result of a benchmark test in a formatted way
func printResult(test string, timer metrics.Timer) {
	if timer.Count() == 0 {
		fmt.Printf("%-20sskipped\n", test)
		return
	}

	mean := time.Duration(int64(timer.Mean()))
	p95 := time.Duration(int64(timer.Percentile(0.95)))
	p99 := time.Duration(int64(timer.Percentile(0.99)))

	// Print the formatted result
	fmt.Printf("%-20s%s/op (p95 %s, p99 %s)\t%.0f ops/sec\n", test, mean, p95, p99, timer.RateMean())
}

// writeResultsToCSV writes benchmark results to a CSV file
func writeResultsToCSV(csvPath string, results map[string]metrics.Timer) error {
	file, err := os.Create(csvPath)
	if err != nil {
		return fmt.Errorf("failed to create CSV file: %v", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	config := util.GetClientConfig()

	// Write header
	header := []string{
		"Test", "Count", "MeanNs", "P95Ns", "P99Ns", "OpsPerSec", "Skipped",
		"Endpoints", "TimeoutSec", "RetryCount", "ConnectionsPerEndpoint",
		"Type", "Serializer", "Transport",
		"Threads", "Iterations", "LargeValueSizeKB", "Keys Count",
	}
	if err := writer.Write(header); err != nil {
		return fmt.Errorf("failed to write CSV header: %v", err)
	}

	// Write test results
	for test, timer := range results {
		skipped := "false"
		if timer.Count() == 0 {
			skipped = "true"
		}

		row := []string{
			test,
			strconv.FormatInt(timer.Count(), 10),
			fmt.Sprintf("%.0f", timer.Mean()),
			fmt.Sprintf("%.0f", timer.Percentile(0.95)),
			fmt.Sprintf("%.0f", timer.Percentile(0.99)),
			fmt.Sprintf("%.0f", timer.RateMean()),
			skipped,
			strings.Join(config.Endpoints, ";"),
			strconv.Itoa(config.TimeoutSecond),
			strconv.Itoa(config.RetryCount),
			strconv.Itoa(config.ConnectionsPerEndpoint),
			perfTypeID,
			viper.GetString("serializer"),
			viper.GetString("transport"),
			strconv.Itoa(perfNumThreads),
			strconv.Itoa(perfIterations),
			strconv.Itoa(perfLargeValueSizeKB),
			strconv.Itoa(perfKeySpread),
		}

		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write row for test %s: %v", test, err)
		}
	}

	return nil
}

// --------------------------------------------------------------------------
// Id Tracking
// --------------------------------------------------------------------------

// syncIDs is a concurrency safe id list used to hand saved ids to the delete
// benchmark and the cleanup phase
type syncIDs struct {
	mu  sync.Mutex
	ids []int64
}

func (s *syncIDs) add(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = append(s.ids, id)
}

func (s *syncIDs) pop() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.ids) == 0 {
		return 0, false
	}
	id := s.ids[len(s.ids)-1]
	s.ids = s.ids[:len(s.ids)-1]
	return id, true
}

func (s *syncIDs) drain() []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := s.ids
	s.ids = nil
	return ids
}
