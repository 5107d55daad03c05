package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"
)

type statusResponse struct {
	Status     string     `json:"status"`
	LastChange *time.Time `json:"last_change"`
	Resource   string     `json:"resource"`
	Address    string     `json:"address"`
}

func main() {
	api := os.Getenv("API_BASE")
	if api == "" {
		api = "http://localhost:8080"
	}

	req, err := http.NewRequest(http.MethodGet, api+"/api/status", nil)
	if err != nil {
		fmt.Println("Invalid API_BASE:", err)
		os.Exit(1)
	}
	if key := os.Getenv("WATCHDOG_API_KEY"); key != "" {
		req.Header.Set("X-API-Key", key)
	}

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Println("Error contacting API:", err)
		os.Exit(1)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		fmt.Println("API returned status:", resp.Status)
		os.Exit(1)
	}

	var st statusResponse
	if err := json.NewDecoder(resp.Body).Decode(&st); err != nil {
		fmt.Println("Unexpected response:", err)
		os.Exit(1)
	}

	since := "never"
	if st.LastChange != nil {
		since = fmt.Sprintf("%s (%s ago)", st.LastChange.Local().Format(time.RFC1123),
			time.Since(*st.LastChange).Round(time.Second))
	}
	fmt.Printf("%s (%s) is %s\nsince: %s\n", st.Resource, st.Address, st.Status, since)
}
