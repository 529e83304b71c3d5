// Package api is the HTTP client for the remote EdViz graph service: PDF
// upload, diagram rendering, and graph listing/search. It owns the error
// taxonomy for everything that crosses the network.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/edviz/edviz/pkg/logging"
	"github.com/edviz/edviz/pkg/model"
)

// MaxUploadSize is the client-side upload limit. Larger files are rejected
// locally without a network call.
const MaxUploadSize = 10 * 1024 * 1024

// GraphType selects how the service should render an uploaded graph.
type GraphType string

const (
	// GraphTypeDiagram requests a server-rendered static diagram.
	// The wire value is historical.
	GraphTypeDiagram GraphType = "mermaid"
	// GraphTypeForce requests raw graph data for local force layout.
	GraphTypeForce GraphType = "force"
)

// UploadResponse is the service's answer to a PDF upload.
type UploadResponse struct {
	Message    string      `json:"message"`
	FileID     string      `json:"file_id"`
	Graph      model.Graph `json:"graph_json"`
	SVGContent string      `json:"svg_content"`
}

// GraphPayload is the stored form of a graph: the rendered diagram text
// plus the node/link structure.
type GraphPayload struct {
	SVGContent string       `json:"svg_content,omitempty"`
	Nodes      []model.Node `json:"nodes,omitempty"`
	Links      []model.Link `json:"links,omitempty"`
}

// ListEntry is one previously generated graph, as returned by the listing
// and search endpoints. Read-only on the client.
type ListEntry struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	SummaryText string       `json:"summary_text"`
	CreatedAt   time.Time    `json:"created_at"`
	GraphData   GraphPayload `json:"graph_data"`
}

// Client talks to the EdViz service.
type Client struct {
	baseURL string
	httpc   *http.Client
	timeout time.Duration
}

// NewClient creates a client for the service at baseURL. Every request is
// bounded by timeout so a hung upload cannot leave the UI stuck.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// UploadPDF uploads a PDF for conversion into a concept graph.
// File type and size are validated locally first; violations never reach
// the network.
func (c *Client) UploadPDF(ctx context.Context, filename string, content io.Reader, size int64, graphType GraphType) (*UploadResponse, error) {
	if !strings.HasSuffix(strings.ToLower(filename), ".pdf") {
		return nil, &ValidationError{Msg: fmt.Sprintf("invalid file type: %q. Please upload only PDF files.", filename)}
	}
	if size > MaxUploadSize {
		return nil, &ValidationError{Msg: fmt.Sprintf(
			"file is too large. Maximum size is 10MB. Your file is %.1fMB.",
			float64(size)/(1024*1024))}
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if _, err := io.Copy(part, content); err != nil {
		return nil, fmt.Errorf("reading upload content: %w", err)
	}
	if err := mw.WriteField("graph_type", string(graphType)); err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("building upload form: %w", err)
	}

	logging.InfoContext(ctx, "uploading pdf", "file", filename, "sizeBytes", size, "graphType", graphType)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/upload-pdf", &body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var out UploadResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RenderGraph asks the service to render the full graph to a diagram.
func (c *Client) RenderGraph(ctx context.Context, g model.Graph) (string, error) {
	payload, err := json.Marshal(map[string]any{"graph_json": g})
	if err != nil {
		return "", fmt.Errorf("encoding graph: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/render-graph", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	var out struct {
		SVGContent string `json:"svg_content"`
	}
	if err := c.do(req, &out); err != nil {
		return "", err
	}
	return out.SVGContent, nil
}

// ListGraphs fetches the most recent entries, newest first.
func (c *Client) ListGraphs(ctx context.Context, limit int) ([]ListEntry, error) {
	q := url.Values{"limit": {strconv.Itoa(limit)}}
	return c.getEntries(ctx, "/graphs", q)
}

// SearchGraphs fetches entries matching the query, relevance-ordered by the
// service.
func (c *Client) SearchGraphs(ctx context.Context, query string, limit int) ([]ListEntry, error) {
	q := url.Values{"q": {query}, "limit": {strconv.Itoa(limit)}}
	return c.getEntries(ctx, "/graphs/search", q)
}

// GetSVG fetches the rendered diagram text for a stored upload.
func (c *Client) GetSVG(ctx context.Context, fileID string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/get-svg/"+url.PathEscape(fileID), nil)
	if err != nil {
		return "", err
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return "", wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", statusError(resp)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", wrapTransport(err)
	}
	return string(data), nil
}

func (c *Client) getEntries(ctx context.Context, path string, q url.Values) ([]ListEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var entries []ListEntry
	if err := c.do(req, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// do executes a request and decodes a JSON response into out.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpc.Do(req)
	if err != nil {
		return wrapTransport(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// statusError builds a StatusError, preferring a server-supplied detail or
// message field from the body over the generic status text.
func statusError(resp *http.Response) error {
	var body struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
	}
	detail := ""
	if data, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024)); err == nil {
		if json.Unmarshal(data, &body) == nil {
			detail = body.Detail
			if detail == "" {
				detail = body.Message
			}
		}
	}
	return &StatusError{Status: resp.StatusCode, Detail: detail}
}
