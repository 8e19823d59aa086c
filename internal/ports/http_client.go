package ports

import "net/http"

// HTTPClient is the part of *http.Client used by the HTTP batch sender.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}
