package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/sprite-ai/qcreview/internal/model"
)

// Client talks to a qcreview API server over HTTP.
type Client struct {
	baseURL string
	http    *http.Client
}

// NewClient creates a client for the server at baseURL. A zero timeout
// leaves requests bounded only by their context.
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}
}

var _ Backend = (*Client)(nil)

// GetVehicleDetail implements Backend.
func (c *Client) GetVehicleDetail(ctx context.Context, vehicleID string) (*model.VehicleDetail, error) {
	var d model.VehicleDetail
	if err := c.do(ctx, http.MethodGet, "/api/vehicles/"+url.PathEscape(vehicleID), nil, &d); err != nil {
		return nil, fmt.Errorf("get vehicle %s: %w", vehicleID, err)
	}
	return &d, nil
}

// SaveQualityCheck implements Backend.
func (c *Client) SaveQualityCheck(ctx context.Context, in model.QualityCheckInput) error {
	if err := c.do(ctx, http.MethodPost, "/api/quality-checks", in, nil); err != nil {
		return fmt.Errorf("save quality check: %w", err)
	}
	return nil
}

// AssignQualityCheckUser implements Backend.
func (c *Client) AssignQualityCheckUser(ctx context.Context, in model.AssignInput) error {
	if err := c.do(ctx, http.MethodPost, "/api/assignments", in, nil); err != nil {
		return fmt.Errorf("assign quality check user: %w", err)
	}
	return nil
}

// UpdateVehicleImageType implements Backend.
func (c *Client) UpdateVehicleImageType(ctx context.Context, in model.ImageTypeInput) error {
	if err := c.do(ctx, http.MethodPost, "/api/image-types", in, nil); err != nil {
		return fmt.Errorf("update image type: %w", err)
	}
	return nil
}

// ListQualityCheckerVehicles implements Backend.
func (c *Client) ListQualityCheckerVehicles(ctx context.Context, f model.VehicleFilter) (*model.VehiclePage, error) {
	q := url.Values{}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.ReviewerUserID != "" {
		q.Set("reviewer", f.ReviewerUserID)
	}
	if f.VIN != "" {
		q.Set("vin", f.VIN)
	}
	if f.PageIndex > 0 {
		q.Set("page", strconv.Itoa(f.PageIndex))
	}
	if f.PageSize > 0 {
		q.Set("size", strconv.Itoa(f.PageSize))
	}
	path := "/api/vehicles"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var page model.VehiclePage
	if err := c.do(ctx, http.MethodGet, path, nil, &page); err != nil {
		return nil, fmt.Errorf("list vehicles: %w", err)
	}
	return &page, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		r = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, r)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return statusError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

// statusError turns an error response into an error wrapping the matching
// sentinel, so callers can use errors.Is across the wire.
func statusError(resp *http.Response) error {
	var payload struct {
		Error string `json:"error"`
	}
	_ = json.NewDecoder(io.LimitReader(resp.Body, 1<<16)).Decode(&payload)
	msg := payload.Error
	if msg == "" {
		msg = resp.Status
	}

	switch resp.StatusCode {
	case http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case http.StatusBadRequest, http.StatusUnprocessableEntity:
		return fmt.Errorf("%w: %s", ErrInvalid, msg)
	default:
		return fmt.Errorf("server returned %d: %s", resp.StatusCode, msg)
	}
}
