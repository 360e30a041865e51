package client

import (
	"net"
	"net/http"
	"time"

	"github.com/mosheduminer/lmql/common/config"
)

// HTTPClient is the shared client for upstream streaming calls. It carries no
// overall timeout unless RELAY_TIMEOUT is set: liveness of an open stream is
// enforced by the stall watchdog, not by the transport.
var HTTPClient *http.Client

func init() {
	transport := &http.Transport{
		DialContext: (&net.Dialer{
			Timeout:   30 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout: 10 * time.Second,
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 16,
		IdleConnTimeout:     90 * time.Second,
	}

	HTTPClient = &http.Client{Transport: transport}
	if config.RelayTimeout > 0 {
		HTTPClient.Timeout = time.Duration(config.RelayTimeout) * time.Second
	}
}
