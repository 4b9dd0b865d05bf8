package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// article mirrors one entry of the skim article_links list.
type article struct {
	Title    string   `json:"title"`
	URL      *string  `json:"url"`
	Image    *string  `json:"image"`
	Keywords []string `json:"keywords"`
}

// discoverResponse mirrors the skim discover API response.
type discoverResponse struct {
	Success   bool      `json:"success"`
	Articles  []article `json:"article_links"`
	SiteName  string    `json:"site_name"`
	SiteTitle string    `json:"site_title"`
	SourceURL string    `json:"source_url"`
	Strategy  string    `json:"strategy"`
	Error     *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// batchResponse mirrors the skim batch API response.
type batchResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Total  int    `json:"total"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// batchStatusResponse mirrors the skim batch status API response.
type batchStatusResponse struct {
	ID        string             `json:"id"`
	Status    string             `json:"status"`
	Completed int                `json:"completed"`
	Total     int                `json:"total"`
	Results   []discoverResponse `json:"results"`
}

func main() {
	apiURL := os.Getenv("SKIM_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:5000"
	}
	apiKey := os.Getenv("SKIM_API_KEY")

	s := server.NewMCPServer(
		"skim",
		"1.0.0",
		server.WithToolCapabilities(false),
	)

	discoverTool := mcp.NewTool("discover_articles",
		mcp.WithDescription("Find article listings (title, link, image) on a news homepage, blog index or similar page and keep those matching the keywords."),
		mcp.WithString("url",
			mcp.Required(),
			mcp.Description("The listing page to analyse"),
		),
		mcp.WithString("keywords",
			mcp.Required(),
			mcp.Description("Comma-separated keywords matched against article titles and links"),
		),
		mcp.WithString("logic",
			mcp.Description("'or' (default): any keyword matches; 'and': every keyword must match"),
			mcp.Enum("and", "or"),
		),
		mcp.WithString("strategy",
			mcp.Description("'structure' (default): repeated image blocks; 'links': slug-shaped article links"),
			mcp.Enum("structure", "links"),
		),
	)
	s.AddTool(discoverTool, handleDiscover(apiURL, apiKey))

	batchTool := mcp.NewTool("batch_discover",
		mcp.WithDescription("Run discover_articles over several listing pages in parallel."),
		mcp.WithArray("urls",
			mcp.Required(),
			mcp.Description("Listing pages to analyse"),
		),
		mcp.WithString("keywords",
			mcp.Required(),
			mcp.Description("Comma-separated keywords applied to every page"),
		),
		mcp.WithString("logic",
			mcp.Description("'or' (default) or 'and'"),
			mcp.Enum("and", "or"),
		),
		mcp.WithString("strategy",
			mcp.Description("'structure' (default) or 'links'"),
			mcp.Enum("structure", "links"),
		),
	)
	s.AddTool(batchTool, handleBatchDiscover(apiURL, apiKey))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// apiDo sends a request to the skim API and returns the response body.
func apiDo(ctx context.Context, client *http.Client, method, endpoint, apiKey string, payload any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if apiKey != "" {
		req.Header.Set("X-API-Key", apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("API request failed: %w", err)
	}
	defer resp.Body.Close()

	return io.ReadAll(resp.Body)
}

// pollBatch polls a batch job until it leaves the processing state or ctx
// is cancelled.
func pollBatch(ctx context.Context, client *http.Client, apiURL, apiKey, id string) (*batchStatusResponse, error) {
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	endpoint := apiURL + "/api/v1/batch/" + url.PathEscape(id)
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			body, err := apiDo(ctx, client, http.MethodGet, endpoint, apiKey, nil)
			if err != nil {
				return nil, err
			}
			var status batchStatusResponse
			if err := json.Unmarshal(body, &status); err != nil {
				return nil, fmt.Errorf("parse poll status: %w", err)
			}
			if status.Status != "processing" {
				return &status, nil
			}
		}
	}
}

func handleDiscover(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		target, err := request.RequireString("url")
		if err != nil {
			return mcp.NewToolResultError("url is required"), nil
		}
		keywords, err := request.RequireString("keywords")
		if err != nil {
			return mcp.NewToolResultError("keywords is required"), nil
		}

		payload := map[string]string{
			"url":      target,
			"keywords": keywords,
			"logic":    request.GetString("logic", "or"),
			"strategy": request.GetString("strategy", ""),
		}

		body, err := apiDo(ctx, client, http.MethodPost, apiURL+"/api/v1/discover", apiKey, payload)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}

		var resp discoverResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse response: %v", err)), nil
		}
		if !resp.Success {
			errMsg := "discovery failed"
			if resp.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", resp.Error.Code, resp.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		var sb strings.Builder
		writeArticles(&sb, &resp)
		return mcp.NewToolResultText(sb.String()), nil
	}
}

func handleBatchDiscover(apiURL, apiKey string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 60 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		urls, err := request.RequireStringSlice("urls")
		if err != nil {
			return mcp.NewToolResultError("urls is required and must be an array of strings"), nil
		}
		keywords, err := request.RequireString("keywords")
		if err != nil {
			return mcp.NewToolResultError("keywords is required"), nil
		}

		payload := map[string]any{
			"urls":     urls,
			"keywords": keywords,
			"logic":    request.GetString("logic", "or"),
			"strategy": request.GetString("strategy", ""),
		}

		body, err := apiDo(ctx, client, http.MethodPost, apiURL+"/api/v1/batch/discover", apiKey, payload)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("batch request failed: %v", err)), nil
		}

		var created batchResponse
		if err := json.Unmarshal(body, &created); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to parse batch response: %v", err)), nil
		}
		if created.ID == "" {
			errMsg := "batch job creation failed"
			if created.Error != nil {
				errMsg = fmt.Sprintf("[%s] %s", created.Error.Code, created.Error.Message)
			}
			return mcp.NewToolResultError(errMsg), nil
		}

		status, err := pollBatch(ctx, client, apiURL, apiKey, created.ID)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("polling batch job failed: %v", err)), nil
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "Batch %s: %s (%d/%d completed)\n\n", status.ID, status.Status, status.Completed, status.Total)
		for i := range status.Results {
			r := &status.Results[i]
			if !r.Success {
				errMsg := "unknown error"
				if r.Error != nil {
					errMsg = r.Error.Message
				}
				fmt.Fprintf(&sb, "--- [%d] %s FAILED: %s ---\n\n", i+1, urls[i], errMsg)
				continue
			}
			fmt.Fprintf(&sb, "--- [%d] %s ---\n", i+1, urls[i])
			writeArticles(&sb, r)
			sb.WriteString("\n")
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
}

// writeArticles renders one page's articles as a numbered list.
func writeArticles(sb *strings.Builder, resp *discoverResponse) {
	fmt.Fprintf(sb, "Site: %s (%s)\nSource: %s\nStrategy: %s\n\n", resp.SiteTitle, resp.SiteName, resp.SourceURL, resp.Strategy)
	if len(resp.Articles) == 0 {
		sb.WriteString("No matching articles.\n")
		return
	}
	for i, a := range resp.Articles {
		fmt.Fprintf(sb, "%d. %s\n", i+1, a.Title)
		if a.URL != nil {
			fmt.Fprintf(sb, "   %s\n", *a.URL)
		}
		if a.Image != nil {
			fmt.Fprintf(sb, "   image: %s\n", *a.Image)
		}
		if len(a.Keywords) > 0 {
			fmt.Fprintf(sb, "   keywords: %s\n", strings.Join(a.Keywords, ", "))
		}
	}
}
