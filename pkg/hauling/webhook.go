package hauling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"

	"p9e.in/fieldreport/models"
)

const maxResponseBody = 64 << 10

// Payload is the JSON body posted to the hauling company
type Payload struct {
	HaulingRequestID uuid.UUID     `json:"hauling_request_id"`
	ProjectID        uuid.UUID     `json:"project_id"`
	ProjectAddress   string        `json:"project_address"`
	CompanyName      string        `json:"hauling_company"`
	Items            []PayloadItem `json:"items"`
}

type PayloadItem struct {
	DumpsterType      string `json:"dumpster_type"`
	Service           string `json:"service"`
	Quantity          int    `json:"quantity"`
	ExtraWorkQuantity int    `json:"extra_work_quantity"`
	NormalQuantity    int    `json:"normal_work_quantity"`
}

func NewPayload(req *models.HaulingRequest, company models.HaulingCompany) Payload {
	p := Payload{
		HaulingRequestID: req.ID,
		ProjectID:        req.ProjectID,
		ProjectAddress:   req.ProjectAddress,
		CompanyName:      company.Name,
	}
	for _, it := range req.Items {
		p.Items = append(p.Items, PayloadItem{
			DumpsterType:      it.DumpsterType,
			Service:           it.Service,
			Quantity:          it.QuantityTotal,
			ExtraWorkQuantity: it.QuantityExtraWork,
			NormalQuantity:    models.NormalWork(it.QuantityTotal, it.QuantityExtraWork),
		})
	}
	return p
}

// HTTPNotifier posts payloads with a bounded timeout
type HTTPNotifier struct {
	client *http.Client
	apiKey string
}

func NewHTTPNotifier(timeout time.Duration, apiKey string) *HTTPNotifier {
	return &HTTPNotifier{client: &http.Client{Timeout: timeout}, apiKey: apiKey}
}

func (n *HTTPNotifier) Notify(ctx context.Context, url string, p Payload) (Delivery, error) {
	body, err := json.Marshal(p)
	if err != nil {
		return Delivery{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return Delivery{}, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if n.apiKey != "" {
		req.Header.Set("x-api-key", n.apiKey)
	}

	d := Delivery{AttemptedAt: time.Now()}
	resp, err := n.client.Do(req)
	if err != nil {
		return d, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return d, fmt.Errorf("read webhook response: %w", err)
	}
	d.StatusCode = resp.StatusCode
	d.Body = responseJSON(raw)
	return d, nil
}

// responseJSON keeps a JSON body as is and wraps anything else so it fits
// the jsonb column.
func responseJSON(raw []byte) []byte {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil
	}
	if json.Valid(raw) {
		return raw
	}
	wrapped, _ := json.Marshal(map[string]string{"body": string(raw)})
	return wrapped
}
