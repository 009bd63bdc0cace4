package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"
)

type Action string

const (
	ActionInsert          Action = "insert"
	ActionUpdate          Action = "update"
	ActionUpdateTasks     Action = "updateTasks"
	ActionUploadFile      Action = "uploadFile"
	ActionUploadImage     Action = "uploadImage"
	ActionUpdateSalesData Action = "updateSalesData"
	ActionUpdateTimestamp Action = "updateTimestamp"
)

// Request is one multiplexed call to the Apps Script endpoint. RowData and
// Tasks are JSON-encoded; their shape is positional and action specific.
type Request struct {
	Action    Action
	SheetName string
	RowData   any
	Tasks     any
	Fields    map[string]string
}

type Response struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type ScriptError struct {
	Status  int
	Message string
}

func (e *ScriptError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("apps script: status %d: %s", e.Status, e.Message)
	}
	return "apps script: " + e.Message
}

// Writer submits rows to the spreadsheet.
type Writer interface {
	Submit(ctx context.Context, req Request) (*Response, error)
	Fire(ctx context.Context, req Request) error
}

type ScriptClient struct {
	URL  string
	HTTP *http.Client
}

func NewScriptClient(url string, hc *http.Client) *ScriptClient {
	if hc == nil {
		hc = &http.Client{Timeout: 30 * time.Second}
	}
	return &ScriptClient{URL: url, HTTP: hc}
}

// Submit posts the request and reads the {success, ...} reply.
func (c *ScriptClient) Submit(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.post(ctx, req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("apps script: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &ScriptError{Status: resp.StatusCode, Message: strings.TrimSpace(string(body))}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, &ScriptError{Status: resp.StatusCode, Message: "unreadable response"}
	}
	if !out.Success {
		msg := out.Error
		if msg == "" {
			msg = out.Message
		}
		if msg == "" {
			msg = "request rejected"
		}
		return &out, &ScriptError{Message: msg}
	}
	return &out, nil
}

// Fire posts the request and discards the reply. Only transport failures
// are reported.
func (c *ScriptClient) Fire(ctx context.Context, req Request) error {
	resp, err := c.post(ctx, req)
	if err != nil {
		return err
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return resp.Body.Close()
}

func (c *ScriptClient) post(ctx context.Context, req Request) (*http.Response, error) {
	if strings.TrimSpace(c.URL) == "" {
		return nil, errors.New("apps script: endpoint not configured")
	}
	body, contentType, err := encodeForm(req)
	if err != nil {
		return nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.URL, body)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", contentType)

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("apps script: %s %s: %w", req.Action, req.SheetName, err)
	}
	return resp, nil
}

func encodeForm(req Request) (io.Reader, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	fields := map[string]string{
		"action":    string(req.Action),
		"sheetName": req.SheetName,
	}
	if req.RowData != nil {
		b, err := json.Marshal(req.RowData)
		if err != nil {
			return nil, "", fmt.Errorf("apps script: encode rowData: %w", err)
		}
		fields["rowData"] = string(b)
	}
	if req.Tasks != nil {
		b, err := json.Marshal(req.Tasks)
		if err != nil {
			return nil, "", fmt.Errorf("apps script: encode tasks: %w", err)
		}
		fields["tasks"] = string(b)
	}
	for k, v := range req.Fields {
		fields[k] = v
	}

	for _, k := range []string{"action", "sheetName", "rowData", "tasks"} {
		if v, ok := fields[k]; ok {
			if err := mw.WriteField(k, v); err != nil {
				return nil, "", err
			}
			delete(fields, k)
		}
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return nil, "", err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}
