package apns

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sideshow/apns2"
)

// Channel is an open, authenticated session to the gateway.
//
// Implementations decide whether overlapping Sends are safe and in which order responses
// come back; Connection adds no locking of its own.
type Channel interface {
	// UseAlternatePort moves the channel to port 2197. Only valid before the first Send.
	UseAlternatePort()
	// Send pushes one wire notification and returns the gateway's response.
	Send(ctx context.Context, n *apns2.Notification, target Target) (*apns2.Response, error)
}

// Dialer opens a Channel bound to identity.
type Dialer func(identity *Identity, endpoint Endpoint) (Channel, error)

var errNoPrivateKey = errors.New("identity has no private key")

// DialAPNS opens an HTTP/2 channel using the identity's TLS certificate. Both targets share
// one underlying http.Client, so the channel is safe for concurrent Sends.
func DialAPNS(identity *Identity, endpoint Endpoint) (Channel, error) {
	if identity == nil {
		return nil, ErrIdentityMissing
	}
	cert := identity.Certificate()
	if len(cert.Certificate) == 0 || cert.PrivateKey == nil {
		return nil, errNoPrivateKey
	}
	production, development := targetURLs(endpoint)
	return newAPNSChannel(apns2.NewClient(cert), production, development), nil
}

// targetURLs keeps the dialled endpoint for its own target and points the other target
// at the matching gateway on the same port.
func targetURLs(endpoint Endpoint) (production, development string) {
	prod := EndpointFor(Production, false)
	dev := EndpointFor(Sandbox, false)
	prod.Port, dev.Port = endpoint.Port, endpoint.Port
	if endpoint.Host == prod.Host {
		return endpoint.URL(), dev.URL()
	}
	return prod.URL(), endpoint.URL()
}

type apnsChannel struct {
	production  *apns2.Client
	development *apns2.Client
}

func newAPNSChannel(client *apns2.Client, productionURL, developmentURL string) *apnsChannel {
	client.HTTPClient = withExpirationTransport(client.HTTPClient)
	dev := &apns2.Client{
		Host:        developmentURL,
		Certificate: client.Certificate,
		HTTPClient:  client.HTTPClient,
	}
	client.Host = productionURL
	return &apnsChannel{production: client, development: dev}
}

func (c *apnsChannel) UseAlternatePort() {
	c.production.Host = withPort(c.production.Host, AlternatePort)
	c.development.Host = withPort(c.development.Host, AlternatePort)
}

func (c *apnsChannel) Send(ctx context.Context, n *apns2.Notification, target Target) (*apns2.Response, error) {
	client := c.production
	if target == TargetDevelopment {
		client = c.development
	}
	if n.Expiration.Equal(doNotStoreTime) {
		ctx = context.WithValue(ctx, doNotStoreKey{}, true)
	}
	return client.PushWithContext(ctx, n)
}

// apns2 only writes apns-expiration for instants after the epoch, so a zero expiration
// never leaves the client. expirationTransport adds it for requests flagged in ctx.
var doNotStoreTime = time.Unix(0, 0)

type doNotStoreKey struct{}

type expirationTransport struct {
	base http.RoundTripper
}

// withExpirationTransport returns a copy of hc whose transport emits apns-expiration: 0
// for DoNotStore pushes. hc itself is left untouched since it may be shared.
func withExpirationTransport(hc *http.Client) *http.Client {
	if hc == nil {
		hc = http.DefaultClient
	}
	wrapped := *hc
	base := hc.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	wrapped.Transport = &expirationTransport{base: base}
	return &wrapped
}

func (t *expirationTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if flagged, _ := req.Context().Value(doNotStoreKey{}).(bool); flagged && req.Header.Get("apns-expiration") == "" {
		req = req.Clone(req.Context())
		req.Header.Set("apns-expiration", "0")
	}
	return t.base.RoundTrip(req)
}

func (t *expirationTransport) CloseIdleConnections() {
	if c, ok := t.base.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

func withPort(raw string, port int) string {
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return raw
	}
	u.Host = net.JoinHostPort(u.Hostname(), strconv.Itoa(port))
	return u.String()
}
