// Command benchmark measures discovery latency and yield against a running
// skim server, once per strategy for each listing page.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"
)

// CLI flags
var (
	apiURL   = pflag.String("api-url", "http://localhost:5000", "skim API base URL")
	apiKey   = pflag.String("api-key", "", "API key for authenticated requests")
	runs     = pflag.Int("runs", 3, "number of runs per page and strategy")
	keywords = pflag.String("keywords", "a,e,i,o,u", "keywords sent with every request")
	output   = pflag.String("output", "benchmark-results.json", "JSON output file path")
)

// Listing pages covering common site types.
var testPages = []struct {
	Label string
	URL   string
}{
	{"News", "https://www.bbc.com/news"},
	{"Blog", "https://go.dev/blog/"},
	{"Magazine", "https://www.theverge.com/"},
	{"Community", "https://news.ycombinator.com/"},
}

var strategies = []string{"structure", "links"}

// --- Request / Response types (mirrors models package) ---

type discoverRequest struct {
	URL      string `json:"url"`
	Keywords string `json:"keywords"`
	Logic    string `json:"logic"`
	Strategy string `json:"strategy"`
}

type discoverResponse struct {
	Success         bool         `json:"success"`
	Articles        []article    `json:"article_links"`
	SeparationLevel *int         `json:"separation_level"`
	Timing          timingInfo   `json:"timing"`
	Error           *errorDetail `json:"error,omitempty"`
}

type article struct {
	URL   *string `json:"url"`
	Image *string `json:"image"`
}

type timingInfo struct {
	TotalMs   int64 `json:"total_ms"`
	FetchMs   int64 `json:"fetch_ms"`
	ExtractMs int64 `json:"extract_ms"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// --- Benchmark result types ---

type runResult struct {
	Run        int    `json:"run"`
	TotalMs    int64  `json:"total_ms"`
	FetchMs    int64  `json:"fetch_ms"`
	ExtractMs  int64  `json:"extract_ms"`
	Articles   int    `json:"articles"`
	WithImage  int    `json:"with_image"`
	Level      *int   `json:"separation_level,omitempty"`
	HTTPStatus int    `json:"http_status"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
}

type pageAverages struct {
	TotalMs   float64 `json:"total_ms"`
	FetchMs   float64 `json:"fetch_ms"`
	ExtractMs float64 `json:"extract_ms"`
	Articles  float64 `json:"articles"`
}

type pageResult struct {
	URL      string        `json:"url"`
	Label    string        `json:"label"`
	Strategy string        `json:"strategy"`
	Runs     []runResult   `json:"runs"`
	Averages *pageAverages `json:"averages,omitempty"`
}

type benchmarkReport struct {
	Timestamp  string       `json:"timestamp"`
	APIURL     string       `json:"api_url"`
	RunsPerURL int          `json:"runs_per_url"`
	Results    []pageResult `json:"results"`
}

func main() {
	pflag.Parse()

	fmt.Println("=== skim Benchmark Suite ===")
	fmt.Printf("API URL:   %s\n", *apiURL)
	fmt.Printf("Runs/URL:  %d\n", *runs)
	fmt.Printf("Output:    %s\n", *output)
	fmt.Println()

	if err := checkAPI(*apiURL); err != nil {
		fmt.Fprintf(os.Stderr, "Error: cannot reach API at %s: %v\n", *apiURL, err)
		fmt.Fprintf(os.Stderr, "Make sure skim is running (go run ./cmd/skim)\n")
		os.Exit(1)
	}

	report := benchmarkReport{
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		APIURL:     *apiURL,
		RunsPerURL: *runs,
	}

	for _, p := range testPages {
		for _, strategy := range strategies {
			fmt.Printf("Benchmarking [%s/%s] %s ...\n", p.Label, strategy, p.URL)
			pr := pageResult{URL: p.URL, Label: p.Label, Strategy: strategy}

			for i := 1; i <= *runs; i++ {
				fmt.Printf("  Run %d/%d ... ", i, *runs)
				rr := benchmarkPage(p.URL, strategy, i)
				if rr.Success {
					fmt.Printf("OK  %dms  %d articles\n", rr.TotalMs, rr.Articles)
				} else {
					fmt.Printf("FAILED: %s\n", rr.Error)
				}
				pr.Runs = append(pr.Runs, rr)
			}

			pr.Averages = computeAverages(pr.Runs)
			report.Results = append(report.Results, pr)
			fmt.Println()
		}
	}

	printTable(report.Results)

	if err := writeJSON(*output, report); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing JSON output: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("\nDetailed results written to %s\n", *output)
}

func checkAPI(baseURL string) error {
	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Get(baseURL + "/api/v1/health")
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

func benchmarkPage(url, strategy string, run int) runResult {
	rr := runResult{Run: run}

	bodyBytes, err := json.Marshal(discoverRequest{
		URL:      url,
		Keywords: *keywords,
		Logic:    "or",
		Strategy: strategy,
	})
	if err != nil {
		rr.Error = fmt.Sprintf("marshal error: %v", err)
		return rr
	}

	req, err := http.NewRequest(http.MethodPost, *apiURL+"/api/v1/discover", bytes.NewReader(bodyBytes))
	if err != nil {
		rr.Error = fmt.Sprintf("request error: %v", err)
		return rr
	}
	req.Header.Set("Content-Type", "application/json")
	if *apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+*apiKey)
	}

	client := &http.Client{Timeout: 60 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		rr.Error = fmt.Sprintf("request failed: %v", err)
		return rr
	}
	defer resp.Body.Close()
	rr.HTTPStatus = resp.StatusCode

	var dr discoverResponse
	if err := json.NewDecoder(resp.Body).Decode(&dr); err != nil {
		rr.Error = fmt.Sprintf("decode error: %v", err)
		return rr
	}

	rr.Success = dr.Success
	rr.TotalMs = dr.Timing.TotalMs
	rr.FetchMs = dr.Timing.FetchMs
	rr.ExtractMs = dr.Timing.ExtractMs
	rr.Articles = len(dr.Articles)
	rr.Level = dr.SeparationLevel
	for _, a := range dr.Articles {
		if a.Image != nil && *a.Image != "" {
			rr.WithImage++
		}
	}
	if dr.Error != nil {
		rr.Error = fmt.Sprintf("[%s] %s", dr.Error.Code, dr.Error.Message)
	}

	return rr
}

func computeAverages(runs []runResult) *pageAverages {
	var successCount int
	var avg pageAverages

	for _, r := range runs {
		if !r.Success {
			continue
		}
		successCount++
		avg.TotalMs += float64(r.TotalMs)
		avg.FetchMs += float64(r.FetchMs)
		avg.ExtractMs += float64(r.ExtractMs)
		avg.Articles += float64(r.Articles)
	}

	if successCount == 0 {
		return nil
	}

	n := float64(successCount)
	avg.TotalMs /= n
	avg.FetchMs /= n
	avg.ExtractMs /= n
	avg.Articles /= n
	return &avg
}

func printTable(results []pageResult) {
	fmt.Println(strings.Repeat("─", 90))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\tStrategy\tAvg Latency\tFetch\tExtract\tArticles\n")
	fmt.Fprintf(w, "───\t────────\t───────────\t─────\t───────\t────────\n")

	for _, r := range results {
		if r.Averages == nil {
			fmt.Fprintf(w, "%s\t%s\tFAILED\t-\t-\t-\n", truncateURL(r.URL, 40), r.Strategy)
			continue
		}
		fmt.Fprintf(w, "%s\t%s\t%dms\t%dms\t%dms\t%.1f\n",
			truncateURL(r.URL, 40),
			r.Strategy,
			int64(r.Averages.TotalMs),
			int64(r.Averages.FetchMs),
			int64(r.Averages.ExtractMs),
			r.Averages.Articles,
		)
	}

	w.Flush()
	fmt.Println(strings.Repeat("─", 90))
}

func truncateURL(u string, max int) string {
	if len(u) <= max {
		return u
	}
	return u[:max-3] + "..."
}

func writeJSON(path string, report benchmarkReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
