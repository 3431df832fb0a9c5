package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"tableadmin/internal/domain"
	"tableadmin/internal/domain/models"
	"tableadmin/internal/utils"
)

// Client talks REST/JSON to the record backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

// NewClient builds a Client; timeout <= 0 leaves the transport default.
func NewClient(baseURL string, timeout time.Duration) *Client {
	hc := &http.Client{}
	if timeout > 0 {
		hc.Timeout = timeout
	}
	return &Client{BaseURL: strings.TrimRight(baseURL, "/"), HTTP: hc}
}

type criteriaWire struct {
	Status    string      `json:"status"`
	MinAmount json.Number `json:"minAmount"`
	MaxAmount json.Number `json:"maxAmount,omitempty"`
}

type queryWire struct {
	Criteria criteriaWire `json:"criteria"`
	Sort     domain.Sort  `json:"sort"`
	Page     int          `json:"page"`
	PageSize int          `json:"pageSize"`
}

type listWire struct {
	Data        []models.Record `json:"data"`
	TotalItems  int             `json:"totalItems"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
}

type bulkStatusWire struct {
	IDs    []int64       `json:"ids"`
	Status models.Status `json:"status"`
}

func (c *Client) ListRecords(ctx context.Context, q domain.ListQuery) (domain.ListResult, error) {
	body := queryWire{
		Criteria: criteriaWire{
			Status:    string(q.Criteria.Status),
			MinAmount: json.Number(q.Criteria.MinAmount.String()),
		},
		Sort:     q.Sort,
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	if q.Criteria.MaxAmount != nil {
		body.Criteria.MaxAmount = json.Number(q.Criteria.MaxAmount.String())
	}
	var out listWire
	if err := c.do(ctx, "list records", http.MethodPost, "/api/data", 0, body, &out); err != nil {
		return domain.ListResult{}, err
	}
	if out.Data == nil {
		out.Data = []models.Record{}
	}
	page := out.CurrentPage
	if page == 0 {
		page = q.Page
	}
	return domain.ListResult{
		Records:    out.Data,
		TotalCount: out.TotalItems,
		TotalPages: out.TotalPages,
		Page:       page,
	}, nil
}

func (c *Client) CreateRecord(ctx context.Context, r models.Record) (models.Record, error) {
	var out models.Record
	if err := c.do(ctx, "create record", http.MethodPost, "/api/add_item", 0, r, &out); err != nil {
		return models.Record{}, err
	}
	return out, nil
}

func (c *Client) UpdateRecord(ctx context.Context, id int64, r models.Record) (models.Record, error) {
	r.ID = id
	var out models.Record
	path := "/api/update_item/" + strconv.FormatInt(id, 10)
	if err := c.do(ctx, "update record", http.MethodPut, path, id, r, &out); err != nil {
		return models.Record{}, err
	}
	return out, nil
}

func (c *Client) DeleteRecord(ctx context.Context, id int64) error {
	path := "/api/delete_item/" + strconv.FormatInt(id, 10)
	return c.do(ctx, "delete record", http.MethodDelete, path, id, nil, nil)
}

func (c *Client) BulkUpdateStatus(ctx context.Context, ids []int64, status models.Status) error {
	return c.do(ctx, "bulk update status", http.MethodPost, "/api/bulk_update_status", 0, bulkStatusWire{IDs: ids, Status: status}, nil)
}

func (c *Client) GetSummary(ctx context.Context) (domain.Summary, error) {
	var out domain.Summary
	if err := c.do(ctx, "get summary", http.MethodPost, "/api/summary", 0, struct{}{}, &out); err != nil {
		return domain.Summary{}, err
	}
	return out, nil
}

// do sends one request and maps failures onto the domain error taxonomy.
// id is reported in NotFoundError for record-scoped calls.
func (c *Client) do(ctx context.Context, op, method, path string, id int64, body, out any) error {
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return domain.ValidationError{Msg: op + ": encode payload", Err: err}
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, rdr)
	if err != nil {
		return domain.TransportError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if rid := utils.RequestIDFrom(ctx); rid != "" {
		req.Header.Set("X-Request-ID", rid)
	}

	hc := c.HTTP
	if hc == nil {
		hc = http.DefaultClient
	}
	resp, err := hc.Do(req)
	if err != nil {
		return domain.TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.TransportError{Op: op, Status: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return statusError(op, resp.StatusCode, id, raw)
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return domain.ValidationError{Msg: op + ": malformed response", Err: err}
	}
	return nil
}

func statusError(op string, status int, id int64, raw []byte) error {
	msg := backendMessage(raw)
	var cause error
	if msg != "" {
		cause = errors.New(msg)
	}
	switch {
	case status == http.StatusNotFound:
		return domain.NotFoundError{Resource: "record", ID: id, Err: cause}
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if msg == "" {
			msg = fmt.Sprintf("%s rejected by backend", op)
		}
		return domain.ValidationError{Msg: msg}
	case status == http.StatusConflict:
		return domain.ConflictError{Resource: "record", Msg: msg}
	default:
		return domain.TransportError{Op: op, Status: status, Err: cause}
	}
}

// backendMessage pulls "error" or "message" out of a JSON error body.
func backendMessage(raw []byte) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return strings.TrimSpace(string(raw))
	}
	if payload.Error != "" {
		return payload.Error
	}
	return payload.Message
}
