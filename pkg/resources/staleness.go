package resources

import (
	"context"
	"fmt"
	"net/http"
)

// Staleness markers of a static feed, as reported by the producer.
type Staleness struct {
	ETag         string
	LastModified string
}

// Probe issues a metadata-only request against the static feed and
// returns its conditional-request headers.
func Probe(ctx context.Context, url string) (Staleness, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return Staleness{}, err
	}

	response, err := httpClient.Do(request)
	if err != nil {
		return Staleness{}, err
	}
	defer response.Body.Close()

	if response.StatusCode >= 400 {
		return Staleness{}, fmt.Errorf("staleness probe returned status %d", response.StatusCode)
	}

	return Staleness{
		ETag:         response.Header.Get("ETag"),
		LastModified: response.Header.Get("Last-Modified"),
	}, nil
}
