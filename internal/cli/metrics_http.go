package cli

import (
	"fmt"
	"net"
	"net/http"

	"github.com/Flamefire/cobalt/internal/metrics"
)

// serveMetrics exposes the metrics registry over HTTP while a run is in
// flight. It returns the bound address and a shutdown func, or an empty
// address when addr is empty.
func serveMetrics(addr string) (string, func(), error) {
	if addr == "" {
		return "", nil, nil
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("metrics listener: %w", err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	server := &http.Server{Handler: mux}
	go func() {
		_ = server.Serve(listener)
	}()
	return listener.Addr().String(), func() { _ = server.Close() }, nil
}
