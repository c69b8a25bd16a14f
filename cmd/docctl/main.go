package main

// docctl is a small operator CLI against a running fleetdocs API:
//   docctl -base http://localhost:8080 list
//   docctl -base http://localhost:8080 download agr_7 -dest ./downloads
//   docctl -base http://localhost:8080 preview 12

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"time"

	"fleetdocs-backend/internal/aggregate"
	"fleetdocs-backend/internal/preview"
)

func main() {
	base := flag.String("base", "http://localhost:8080", "API base URL")
	dest := flag.String("dest", ".", "Directory for downloaded files")
	timeout := flag.Duration("timeout", 30*time.Second, "Request timeout")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		exitErr("usage: docctl [flags] list | download <id> | preview <id>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	ctl := &preview.Controller{Fetcher: &preview.HTTPFetcher{BaseURL: *base}}
	defer ctl.Close()

	switch args[0] {
	case "list":
		if err := list(ctx, *base); err != nil {
			exitErr(err.Error())
		}
	case "download":
		if len(args) < 2 {
			exitErr("download requires a document id")
		}
		doc, err := lookup(ctx, *base, args[1])
		if err != nil {
			exitErr(err.Error())
		}
		path, err := ctl.Download(ctx, doc, *dest)
		if err != nil {
			exitErr(fmt.Sprintf("download %s: %v", args[1], err))
		}
		fmt.Println(path)
	case "preview":
		if len(args) < 2 {
			exitErr("preview requires a document id")
		}
		doc, err := lookup(ctx, *base, args[1])
		if err != nil {
			exitErr(err.Error())
		}
		session, err := ctl.Preview(ctx, doc)
		if errors.Is(err, preview.ErrPreviewUnavailable) {
			exitErr(fmt.Sprintf("no inline preview for %s; use download instead", args[1]))
		}
		if err != nil {
			exitErr(fmt.Sprintf("preview %s: %v", args[1], err))
		}
		fmt.Printf("%s (%s)\n%s\n", session.DocumentName, session.MimeType, session.Path)
	default:
		exitErr(fmt.Sprintf("unknown command %q", args[0]))
	}
}

func fetchOverview(ctx context.Context, base string) ([]aggregate.Document, error) {
	endpoint := base + "/api/v1/documents/overview"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch overview: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch overview: status %d", resp.StatusCode)
	}

	var payload struct {
		Documents []aggregate.Document `json:"documents"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode overview: %w", err)
	}
	return payload.Documents, nil
}

func list(ctx context.Context, base string) error {
	docs, err := fetchOverview(ctx, base)
	if err != nil {
		return err
	}
	for _, d := range docs {
		fmt.Printf("%-12s %-14s %-14s %s\n", d.ID, d.Category, d.Status, d.Name)
	}
	return nil
}

func lookup(ctx context.Context, base, id string) (aggregate.Document, error) {
	docs, err := fetchOverview(ctx, base)
	if err != nil {
		return aggregate.Document{}, err
	}
	for _, d := range docs {
		if d.ID == id {
			return d, nil
		}
	}
	return aggregate.Document{}, fmt.Errorf("document %s not found", id)
}

func exitErr(msg string) {
	fmt.Fprintln(os.Stderr, msg)
	os.Exit(1)
}
