package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/wolfman30/salesforce-ai-backend/internal/app/bootstrap"
	appconfig "github.com/wolfman30/salesforce-ai-backend/internal/config"
	"github.com/wolfman30/salesforce-ai-backend/internal/leads"
	"github.com/wolfman30/salesforce-ai-backend/internal/llm"
	"github.com/wolfman30/salesforce-ai-backend/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg := appconfig.Load()
	client, err := bootstrap.BuildLLMClient(ctx, cfg, logging.New("warn"))
	if err != nil {
		log.Fatalf("failed to create %s client: %v", cfg.LLMProvider, err)
	}
	defer func() { _ = client.Close() }()

	rule := strings.Repeat("=", 60)
	fmt.Println(rule)
	fmt.Printf("LLM Provider Test (%s)\n", cfg.LLMProvider)
	fmt.Println(rule)

	fmt.Println("\n[1] Embedding a metadata chunk...")
	start := time.Now()
	vector, err := llm.EmbedOne(ctx, client, "The Salesforce object 'Lead' has a total of 42 fields.", llm.TaskRetrievalDocument)
	if err != nil {
		fmt.Printf("    embed error: %v\n", err)
	} else {
		fmt.Printf("    %d dimensions (%v), expected %d\n", len(vector), time.Since(start).Round(time.Millisecond), cfg.EmbeddingDimension)
	}

	fmt.Println("\n[2] Scoring two sample leads...")
	candidates := []json.RawMessage{
		json.RawMessage(`{"Name":"Jane Doe","Company":"Acme Corp","Industry":"Manufacturing","AnnualRevenue":25000000,"LeadSource":"Webinar"}`),
		json.RawMessage(`{"Name":"Bob Lee","Company":"Globex","Industry":"Retail","AnnualRevenue":400000,"LeadSource":"Cold Call"}`),
	}
	prompt, err := leads.BuildPrompt(&leads.PredictRequest{Candidates: candidates})
	if err != nil {
		log.Fatalf("build prompt: %v", err)
	}
	start = time.Now()
	resp, err := client.Complete(ctx, llm.Request{Prompt: prompt, Temperature: -1})
	if err != nil {
		fmt.Printf("    generate error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("    raw response (%v):\n%s\n", time.Since(start).Round(time.Millisecond), resp.Text)
	fmt.Printf("    tokens: in=%d, out=%d\n", resp.Usage.InputTokens, resp.Usage.OutputTokens)

	records := leads.ParseScores(resp.Text)
	fmt.Printf("\n    parsed %d of %d leads\n", len(records), len(candidates))
	for _, r := range records {
		fmt.Printf("    - %s (%s): %d/10 %s\n", r.Name, r.Company, r.Score, r.Justification)
	}
}
