package network

import (
	"context"
	"net"
	"net/http"
	"time"

	"github.com/massmux/lndhub/internal"
	log "github.com/sirupsen/logrus"
	"golang.org/x/net/proxy"
)

// GetClient returns an http client with the given timeout, dialing through the
// configured SOCKS5 proxy if there is one.
func GetClient(timeout time.Duration, socks *internal.SocksConfiguration) *http.Client {
	client := http.Client{
		Timeout: timeout,
	}
	if socks == nil || socks.Host == "" {
		return &client
	}
	var auth *proxy.Auth
	if socks.Username != "" && socks.Password != "" {
		auth = &proxy.Auth{User: socks.Username, Password: socks.Password}
	}
	d, err := proxy.SOCKS5("tcp", socks.Host, auth, &net.Dialer{
		Timeout:   20 * time.Second,
		KeepAlive: -1,
	})
	if err != nil {
		log.Errorf("[network] could not set up socks proxy %s: %v", socks.Host, err)
		return &client
	}
	specialTransport := &http.Transport{}
	specialTransport.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		if cd, ok := d.(proxy.ContextDialer); ok {
			return cd.DialContext(ctx, network, addr)
		}
		return d.Dial(network, addr)
	}
	client.Transport = specialTransport
	return &client
}
