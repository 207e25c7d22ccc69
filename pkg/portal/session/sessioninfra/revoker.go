package sessioninfra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/clientgate/clientgate/pkg/errx"
	"github.com/clientgate/clientgate/pkg/kernel"
)

// HTTPRemoteRevoker tells the surrounding application's sign-in layer to
// drop its credential for a customer. Best effort; the session manager
// never blocks local logout on it.
type HTTPRemoteRevoker struct {
	endpoint string
	client   *http.Client
}

func NewHTTPRemoteRevoker(endpoint string) *HTTPRemoteRevoker {
	return &HTTPRemoteRevoker{
		endpoint: endpoint,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

func (r *HTTPRemoteRevoker) SignOut(ctx context.Context, customerID kernel.CustomerID) error {
	body, err := json.Marshal(map[string]string{"customer_id": customerID.String()})
	if err != nil {
		return errx.Wrap(err, "failed to encode sign-out request", errx.TypeInternal)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.endpoint, bytes.NewReader(body))
	if err != nil {
		return errx.Wrap(err, "failed to build sign-out request", errx.TypeInternal)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return errx.Wrap(err, "remote sign-out request failed", errx.TypeExternal)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return errx.External(fmt.Sprintf("remote sign-out returned %d", resp.StatusCode))
	}
	return nil
}
