package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SUNATPayload is sent by the worker pool to the SUNAT sidecar, which handles
// the actual SOL credentials and CPE submission.
type SUNATPayload struct {
	Tipo        string  `json:"tipo"` // boleta | factura | ticket
	Serie       string  `json:"serie"`
	Correlativo int     `json:"correlativo"`
	RUCEmisor   string  `json:"ruc_emisor"`
	MontoNeto   float64 `json:"monto_neto"`
	MontoIGV    float64 `json:"monto_igv"`
	MontoTotal  float64 `json:"monto_total"`
	VentaID     string  `json:"venta_id"`
}

// SUNATResponse is returned by the sidecar after submission.
type SUNATResponse struct {
	Hash          string `json:"hash"`
	Resultado     string `json:"resultado"` // "A" (aceptado) | "R" (rechazado)
	Observaciones []struct {
		Codigo  string `json:"codigo"`
		Mensaje string `json:"mensaje"`
	} `json:"observaciones"`
}

// SUNATClient delegates fiscal submission to the sidecar over HTTP, keeping
// SUNAT outages isolated from the core backend.
type SUNATClient struct {
	sidecarURL string
	httpClient *http.Client
}

func NewSUNATClient(sidecarURL string) *SUNATClient {
	return &SUNATClient{
		sidecarURL: sidecarURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Emitir sends a POST to the sidecar and returns the acceptance response.
func (c *SUNATClient) Emitir(ctx context.Context, payload SUNATPayload) (*SUNATResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("sunat: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.sidecarURL+"/emitir", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("sunat: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sunat: sidecar unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("sunat: sidecar returned %d", resp.StatusCode)
	}

	var result SUNATResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("sunat: decode response: %w", err)
	}
	return &result, nil
}
