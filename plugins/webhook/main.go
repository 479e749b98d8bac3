// Package main provides a plugin that forwards gesture events to an HTTP endpoint.
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/ayusman/mudra/internal/plugin"
)

const defaultTimeout = 3 * time.Second

// Config is the per-binding configuration.
type Config struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers"`
	Timeout string            `json:"timeout"`
}

func main() {
	var req plugin.Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(os.Stdout, plugin.Response{Error: fmt.Sprintf("failed to decode request: %v", err)})
		return
	}
	writeResponse(os.Stdout, handle(req, http.DefaultClient))
}

// handle runs one request and never fails silently: every error becomes an
// unsuccessful response.
func handle(req plugin.Request, client *http.Client) plugin.Response {
	if req.Action != "post" {
		return plugin.Response{Error: fmt.Sprintf("unknown action: %s", req.Action)}
	}

	var cfg Config
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return plugin.Response{Error: fmt.Sprintf("invalid config: %v", err)}
		}
	}
	if cfg.URL == "" {
		return plugin.Response{Error: "config.url is required"}
	}

	timeout := defaultTimeout
	if cfg.Timeout != "" {
		d, err := time.ParseDuration(cfg.Timeout)
		if err != nil {
			return plugin.Response{Error: fmt.Sprintf("invalid timeout: %v", err)}
		}
		timeout = d
	}

	body, err := json.Marshal(req.Event)
	if err != nil {
		return plugin.Response{Error: fmt.Sprintf("failed to encode event: %v", err)}
	}

	httpReq, err := http.NewRequest(http.MethodPost, cfg.URL, bytes.NewReader(body))
	if err != nil {
		return plugin.Response{Error: fmt.Sprintf("invalid url: %v", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range cfg.Headers {
		httpReq.Header.Set(k, v)
	}

	c := *client
	c.Timeout = timeout
	resp, err := c.Do(httpReq)
	if err != nil {
		return plugin.Response{Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		return plugin.Response{Error: fmt.Sprintf("endpoint returned %s", resp.Status)}
	}

	data, _ := json.Marshal(map[string]int{"status": resp.StatusCode})
	return plugin.Response{Success: true, Data: data}
}

func writeResponse(w io.Writer, resp plugin.Response) {
	json.NewEncoder(w).Encode(resp)
}
