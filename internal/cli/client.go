package cli

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"betterhist/internal/auth"
	"betterhist/internal/bhconfig"
	"betterhist/internal/snapshot"
)

const requestTimeout = 5 * time.Second

// historyName picks the name a CLI client addresses the running session's
// history by.
func historyName(cfg bhconfig.Config) string {
	if cfg.HistoryName != "" {
		return cfg.HistoryName
	}
	return "history"
}

// itemsResponse is the wire shape of GET /{name}/items/{index}.
type itemsResponse struct {
	Snapshot snapshot.Snapshot `json:"snapshot"`
	Index    int               `json:"index"`
	ListName string            `json:"list_name"`
}

// fetchSnapshot retrieves one entry by index (negative indices count from
// the end) from the running session's HTTP frontend.
func fetchSnapshot(serverAddr, token, name string, index int) (snapshot.Snapshot, error) {
	url := fmt.Sprintf("http://%s/%s/items/%d", serverAddr, name, index)
	resp, err := doGet[itemsResponse](url, token)
	if err != nil {
		return snapshot.Snapshot{}, err
	}
	return resp.Snapshot, nil
}

func doGet[T any](url, token string) (T, error) {
	var zero T

	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return zero, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set(auth.Header, token)

	client := &http.Client{Timeout: requestTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return zero, fmt.Errorf("request %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return zero, fmt.Errorf("request %s: unexpected status %s", url, resp.Status)
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return zero, fmt.Errorf("decode response from %s: %w", url, err)
	}
	return out, nil
}
