// Package netx holds the plain-HTTP helper the subsystem needs around its
// signed storage URLs.
package netx

import (
	"context"
	"fmt"
	"io"
	"net/http"
)

// FetchSignedURL downloads the object behind a signed storage URL. Operator
// tooling uses it to prove a freshly minted link actually serves bytes,
// through the same path a recipient's browser would take.
func FetchSignedURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download failed: %s; body: %s", resp.Status, string(body))
	}

	return body, nil
}
