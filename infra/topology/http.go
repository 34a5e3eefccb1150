package topology

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/kilianp07/trackdispatch/auth"
	"github.com/kilianp07/trackdispatch/core/factory"
	"github.com/kilianp07/trackdispatch/core/model"
	coretopo "github.com/kilianp07/trackdispatch/core/topology"
)

func init() {
	_ = coretopo.RegisterProvider("http", func(conf map[string]any) (coretopo.Provider, error) {
		var c HTTPConfig
		if err := factory.Decode(conf, &c); err != nil {
			return nil, err
		}
		return NewHTTPProvider(c)
	})
}

// HTTPConfig locates a network document served over HTTP.
type HTTPConfig struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"timeout"`
	Auth    auth.Conf     `json:"auth"`
}

// HTTPProvider downloads the YAML network once, on the first call, and serves
// every collection from that copy so all collections describe the same
// version of the timetable.
type HTTPProvider struct {
	url    string
	client *http.Client
	creds  *auth.ClientCred

	mu  sync.Mutex
	doc *coretopo.StaticProvider
}

// NewHTTPProvider validates the configuration.
func NewHTTPProvider(c HTTPConfig) (*HTTPProvider, error) {
	if c.URL == "" {
		return nil, fmt.Errorf("http topology: url is required")
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	p := &HTTPProvider{url: c.URL, client: &http.Client{Timeout: c.Timeout}}
	if c.Auth.Enabled() {
		p.creds = auth.NewClientCred(c.Auth)
	}
	return p, nil
}

func (p *HTTPProvider) fetch(ctx context.Context) (*coretopo.StaticProvider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.doc != nil {
		return p.doc, nil
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.url, nil)
	if err != nil {
		return nil, err
	}
	if p.creds != nil {
		if err := p.creds.SetAuthHeader(req); err != nil {
			return nil, fmt.Errorf("http topology: %w", err)
		}
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http topology: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http topology: %s returned %s", p.url, resp.Status)
	}
	doc, err := Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("http topology: %w", err)
	}
	p.doc = doc
	return doc, nil
}

func (p *HTTPProvider) Places(ctx context.Context) ([]model.Place, error) {
	d, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return d.PlaceList, nil
}

func (p *HTTPProvider) TrackStretches(ctx context.Context) ([]model.TrackStretch, error) {
	d, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return d.StretchList, nil
}

func (p *HTTPProvider) DispatchStretches(ctx context.Context) ([]model.DispatchStretch, error) {
	d, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return d.DispatchList, nil
}

func (p *HTTPProvider) Trains(ctx context.Context) ([]model.Train, error) {
	d, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return d.TrainList, nil
}

func (p *HTTPProvider) Calls(ctx context.Context) ([]model.TrainStationCall, error) {
	d, err := p.fetch(ctx)
	if err != nil {
		return nil, err
	}
	return d.CallList, nil
}
