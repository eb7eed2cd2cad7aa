package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type httpRepository struct {
	baseURL string
	client  *http.Client
	tracer  trace.Tracer
}

// NewHTTPRepository reaches a remote transaction store through its REST API.
// Transport failures and 5xx responses surface as ErrUnavailable, 404 as
// ErrNotFound and 400 as ErrInvalidCheckout.
func NewHTTPRepository(baseURL string, client *http.Client) Repository {
	if client == nil {
		client = http.DefaultClient
	}
	return &httpRepository{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  client,
		tracer:  otel.Tracer("pos/client"),
	}
}

func (r *httpRepository) List(ctx context.Context, f Filter) ([]Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "GET /api/transactions")
	defer span.End()

	q := url.Values{}
	if f.StoreID != "" {
		q.Set("storeId", f.StoreID)
	}
	if f.BranchID != "" {
		q.Set("branchId", f.BranchID)
	}
	endpoint := r.baseURL + "/api/transactions"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var out listResponse
	if err := r.do(ctx, span, http.MethodGet, endpoint, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	if out.Transactions == nil {
		out.Transactions = []Transaction{}
	}
	return out.Transactions, nil
}

func (r *httpRepository) Create(ctx context.Context, d Draft) (Transaction, error) {
	ctx, span := r.tracer.Start(ctx, "POST /api/transactions")
	defer span.End()

	var out createResponse
	if err := r.do(ctx, span, http.MethodPost, r.baseURL+"/api/transactions", d, http.StatusCreated, &out); err != nil {
		return Transaction{}, err
	}
	span.SetAttributes(attribute.String("transaction_id", out.Transaction.ID))
	return out.Transaction, nil
}

func (r *httpRepository) Void(ctx context.Context, id, reason string) error {
	ctx, span := r.tracer.Start(ctx, "PATCH /api/transactions/{id}",
		trace.WithAttributes(attribute.String("transaction_id", id)))
	defer span.End()

	endpoint := r.baseURL + "/api/transactions/" + url.PathEscape(id)
	return r.do(ctx, span, http.MethodPatch, endpoint, voidRequest{Reason: reason}, http.StatusOK, nil)
}

func (r *httpRepository) do(ctx context.Context, span trace.Span, method, endpoint string, body interface{}, want int, out interface{}) error {
	var payload io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return err
		}
		payload = bytes.NewReader(buf)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, payload)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()
	span.SetAttributes(attribute.Int("http.status_code", resp.StatusCode))

	if resp.StatusCode != want {
		err := statusError(resp)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func statusError(resp *http.Response) error {
	var e errorResponse
	_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&e)
	msg := e.Error
	if msg == "" {
		msg = http.StatusText(resp.StatusCode)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, msg)
	case resp.StatusCode == http.StatusBadRequest:
		return fmt.Errorf("%w: %s", ErrInvalidCheckout, msg)
	default:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, msg)
	}
}
