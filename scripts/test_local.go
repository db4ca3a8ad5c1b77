//go:build ignore
// +build ignore

package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

var testCases = []string{
	"I'm Sarah, 28 years old, female entrepreneur. Need $150,000 for my business expansion. I'm self-employed making $75,000 annually.",
	"John, 45, employed male with $80k income. Looking for $30k personal loan for home renovation.",
	"Maria, 22, student seeking $50k education loan for medical school tuition.",
}

type analyzeResponse struct {
	Intent  map[string]interface{} `json:"intent"`
	Summary struct {
		BestMatch *struct {
			Product struct {
				Name string `json:"name"`
			} `json:"product"`
			Score    int  `json:"score"`
			Eligible bool `json:"eligible"`
		} `json:"best_match"`
		EligibleCount int `json:"eligible_count"`
	} `json:"summary"`
	Decision struct {
		Eligible bool `json:"eligible"`
	} `json:"decision"`
}

func main() {
	baseURL := os.Getenv("API_URL")
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}

	fmt.Println("=== Loan Application Engine - Local Test ===")
	client := &http.Client{Timeout: 60 * time.Second}

	for _, text := range testCases {
		fmt.Printf("\nTesting: %s\n", text)

		body, _ := json.Marshal(map[string]string{"text": text})
		resp, err := client.Post(baseURL+"/loan/analyze", "application/json", bytes.NewReader(body))
		if err != nil {
			fmt.Printf("❌ Request failed: %v\n", err)
			os.Exit(1)
		}

		var result analyzeResponse
		err = json.NewDecoder(resp.Body).Decode(&result)
		resp.Body.Close()
		if err != nil || resp.StatusCode != http.StatusOK {
			fmt.Printf("❌ Status %d: %v\n", resp.StatusCode, err)
			continue
		}

		fmt.Printf("   Intent extracted: %v\n", result.Intent)
		if bm := result.Summary.BestMatch; bm != nil {
			fmt.Printf("   Best match: %s (score %d, eligible %t)\n", bm.Product.Name, bm.Score, bm.Eligible)
		}
		fmt.Printf("   Eligible products: %d, final decision: %t\n", result.Summary.EligibleCount, result.Decision.Eligible)
	}
}
