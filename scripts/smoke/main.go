// Command smoke probes a running course-feedback API instance and reports
// per-endpoint status and latency. Intended for post-deploy checks.
package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

type probe struct {
	Method   string
	Path     string
	Expected int
	Critical bool
}

type result struct {
	Probe    probe
	Status   int
	Duration time.Duration
	Err      error
}

func defaultProbes(apiPrefix string) []probe {
	prefix := strings.TrimRight(apiPrefix, "/")
	return []probe{
		{Method: http.MethodGet, Path: "/health", Expected: http.StatusOK, Critical: true},
		{Method: http.MethodGet, Path: "/ready", Expected: http.StatusOK, Critical: true},
		{Method: http.MethodGet, Path: "/metrics", Expected: http.StatusOK, Critical: false},
		// Protected routes must refuse anonymous calls.
		{Method: http.MethodGet, Path: prefix + "/courses", Expected: http.StatusUnauthorized, Critical: true},
		{Method: http.MethodGet, Path: prefix + "/feedbacks", Expected: http.StatusUnauthorized, Critical: true},
		{Method: http.MethodGet, Path: prefix + "/dashboard", Expected: http.StatusUnauthorized, Critical: true},
	}
}

func main() {
	var (
		base      string
		apiPrefix string
		timeout   time.Duration
	)

	flag.StringVar(&base, "base", "http://localhost:8080", "API base URL")
	flag.StringVar(&apiPrefix, "api-prefix", "/api/v1", "API route prefix")
	flag.DurationVar(&timeout, "timeout", 5*time.Second, "HTTP client timeout")
	flag.Parse()

	client := &http.Client{Timeout: timeout}

	var failures int
	results := make([]result, 0)
	for _, p := range defaultProbes(apiPrefix) {
		res := run(client, base, p)
		if res.Err != nil || res.Status != p.Expected {
			if p.Critical {
				failures++
			}
		}
		results = append(results, res)
	}

	printReport(results)
	fmt.Printf("Critical failures: %d\n", failures)
	if failures > 0 {
		os.Exit(1)
	}
}

func run(client *http.Client, base string, p probe) result {
	res := result{Probe: p}

	url := strings.TrimRight(base, "/") + p.Path
	req, err := http.NewRequest(p.Method, url, nil)
	if err != nil {
		res.Err = err
		return res
	}

	start := time.Now()
	resp, err := client.Do(req)
	res.Duration = time.Since(start)
	if err != nil {
		res.Err = err
		return res
	}
	defer resp.Body.Close() //nolint:errcheck

	res.Status = resp.StatusCode
	return res
}

func printReport(results []result) {
	fmt.Println("Smoke Report")
	fmt.Println("============")
	for _, res := range results {
		status := "OK"
		if res.Err != nil {
			status = "ERROR"
		} else if res.Status != res.Probe.Expected {
			status = "FAIL"
		}
		fmt.Printf("[%s] %s %s\n", status, res.Probe.Method, res.Probe.Path)
		if res.Err != nil {
			fmt.Printf("  Error: %v\n", res.Err)
			continue
		}
		fmt.Printf("  Status: %d (want %d) in %s | Critical: %t\n", res.Status, res.Probe.Expected, res.Duration, res.Probe.Critical)
	}
}
