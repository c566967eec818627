package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"
)

func main() {
	server := flag.String("server", "http://localhost:8000", "Echoes server URL")
	model := flag.String("model", "", "model to query (server default when empty)")
	trace := flag.Bool("trace", false, "print the reasoning trace after each answer")
	flag.Parse()

	fmt.Println("Echoes CLI")
	fmt.Printf("Server: %s", *server)
	if *model != "" {
		fmt.Printf(" | Model: %s", *model)
	}
	fmt.Println()
	fmt.Println("Type 'exit' or 'quit' to leave. Anything else is sent to the agent.")
	fmt.Println("Commands: /models, /history, /stats, /clear")
	fmt.Println("---")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("\n> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Bye!")
			return
		}
		switch input {
		case "/models":
			fetchModels(*server)
		case "/history":
			fetchHistory(*server)
		case "/stats":
			fetchStats(*server)
		case "/clear":
			clearCache(*server)
		default:
			sendQuery(*server, *model, input, *trace)
		}
	}
}

type queryResult struct {
	ExecutionID string `json:"execution_id"`
	Answer      string `json:"answer"`
	Trace       []struct {
		Step    int    `json:"step"`
		Type    string `json:"type"`
		Content string `json:"content"`
		Tool    string `json:"tool,omitempty"`
	} `json:"reasoning_trace"`
	Metrics struct {
		Model           string  `json:"model"`
		ExecutionTime   float64 `json:"execution_time_seconds"`
		EstimatedTokens struct {
			Total int `json:"total"`
		} `json:"estimated_tokens"`
		EstimatedCost float64  `json:"estimated_cost_usd"`
		NumSteps      int      `json:"num_steps"`
		ToolsUsed     []string `json:"tools_used"`
	} `json:"metrics"`
	FromCache bool `json:"from_cache"`
}

func sendQuery(server, model, query string, trace bool) {
	payload := map[string]interface{}{"query": query}
	if model != "" {
		payload["model"] = model
	}
	body, _ := json.Marshal(payload)

	client := &http.Client{Timeout: 90 * time.Second}
	resp, err := client.Post(
		server+"/api/v1/agent/query",
		"application/json",
		bytes.NewReader(body),
	)
	if err != nil {
		printError("Request failed: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, string(data))
		return
	}

	var result queryResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		printError("Failed to parse response: %v", err)
		return
	}

	fmt.Printf("\033[36m%s\033[0m\n", result.Answer)
	if trace {
		fmt.Println("\033[90m--- reasoning trace ---\033[0m")
		for _, step := range result.Trace {
			label := step.Type
			if step.Tool != "" {
				label = fmt.Sprintf("%s:%s", step.Type, step.Tool)
			}
			fmt.Printf("\033[90m[%d %s] %.120s\033[0m\n", step.Step, label, step.Content)
		}
	}

	cached := ""
	if result.FromCache {
		cached = " (cached)"
	}
	tools := ""
	if len(result.Metrics.ToolsUsed) > 0 {
		tools = " | tools: " + strings.Join(result.Metrics.ToolsUsed, ", ")
	}
	fmt.Printf("\033[90m%s | %.2fs | ~%d tokens | $%.6f | %d steps%s%s\033[0m\n",
		result.Metrics.Model, result.Metrics.ExecutionTime,
		result.Metrics.EstimatedTokens.Total, result.Metrics.EstimatedCost,
		result.Metrics.NumSteps, tools, cached)
}

func fetchModels(server string) {
	resp, err := http.Get(server + "/api/v1/agent/models")
	if err != nil {
		printError("Failed to fetch models: %v", err)
		return
	}
	defer resp.Body.Close()

	var models []struct {
		Name        string `json:"name"`
		DisplayName string `json:"display_name"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		printError("Failed to parse models: %v", err)
		return
	}
	fmt.Println("Available models:")
	for _, m := range models {
		fmt.Printf("  %s (%s) — %s\n", m.Name, m.DisplayName, m.Description)
	}
}

func fetchHistory(server string) {
	resp, err := http.Get(server + "/api/v1/agent/history?limit=10")
	if err != nil {
		printError("Failed to fetch history: %v", err)
		return
	}
	defer resp.Body.Close()

	var history struct {
		Total      int `json:"total"`
		Executions []struct {
			Query         string  `json:"query"`
			Model         string  `json:"model"`
			ExecutionTime float64 `json:"execution_time"`
			EstimatedCost float64 `json:"estimated_cost"`
		} `json:"executions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&history); err != nil {
		printError("Failed to parse history: %v", err)
		return
	}
	if history.Total == 0 {
		fmt.Println("No executions yet.")
		return
	}
	fmt.Printf("Recent executions (%d):\n", history.Total)
	for _, e := range history.Executions {
		fmt.Printf("  [%s] %.2fs $%.6f — %s\n",
			e.Model, e.ExecutionTime, e.EstimatedCost, e.Query)
	}
}

func fetchStats(server string) {
	resp, err := http.Get(server + "/api/v1/agent/cache/stats")
	if err != nil {
		printError("Failed to fetch stats: %v", err)
		return
	}
	defer resp.Body.Close()

	var stats struct {
		Size           int     `json:"size"`
		MaxSize        int     `json:"max_size"`
		Hits           int64   `json:"hits"`
		Misses         int64   `json:"misses"`
		HitRatePercent float64 `json:"hit_rate_percent"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		printError("Failed to parse stats: %v", err)
		return
	}
	fmt.Printf("Cache: %d/%d entries | %d hits, %d misses (%.1f%% hit rate)\n",
		stats.Size, stats.MaxSize, stats.Hits, stats.Misses, stats.HitRatePercent)
}

func clearCache(server string) {
	req, err := http.NewRequest(http.MethodDelete, server+"/api/v1/agent/cache", nil)
	if err != nil {
		printError("Failed to build request: %v", err)
		return
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		printError("Failed to clear cache: %v", err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		printError("Server error (%d): %s", resp.StatusCode, string(data))
		return
	}
	fmt.Println("Cache cleared.")
}

func printError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "\033[31m"+format+"\033[0m\n", args...)
}
