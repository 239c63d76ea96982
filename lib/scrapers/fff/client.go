// Package fff scrapes player and team statistics from the Fantasy
// Football Fix internal API. Access requires a form login protected by
// a csrf token; the resulting session cookie is reused for every stats
// request and cached on disk between runs.
package fff

import (
	"net/http/cookiejar"
	"net/url"
	"os"
	"time"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"

	"fffscraper/lib/restyutil"
	"fffscraper/lib/telemetry"
)

var tracer = otel.Tracer("scrapers/fff")

const (
	DefaultBaseUrl = "https://www.fantasyfootballfix.com"

	DefaultTimeout = time.Second * 30
	DefaultRetries = 3
	// minimum gap between consecutive stats requests, keeps the
	// request rate polite towards the origin server
	DefaultDelay = time.Second
)

type ClientOptions struct {
	BaseUrl string
	Season  string
	Timeout time.Duration
	Retries int
	Delay   time.Duration
}

func (o ClientOptions) withDefaults() ClientOptions {
	if o.BaseUrl == "" {
		o.BaseUrl = DefaultBaseUrl
	}
	if o.Timeout == 0 {
		o.Timeout = DefaultTimeout
	}
	if o.Retries == 0 {
		o.Retries = DefaultRetries
	}
	if o.Delay == 0 {
		o.Delay = DefaultDelay
	}
	return o
}

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36"

// newHttpClient builds a resty client with its own cookie jar. The
// site sits behind cloudflare so the transport is wrapped with the
// bypass as well.
func newHttpClient(opts ClientOptions) (*resty.Client, *url.URL, error) {
	baseUrl, err := url.Parse(opts.BaseUrl)
	if err != nil {
		return nil, nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, nil, err
	}
	client.SetCookieJar(jar)
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)

	client.SetHeader("user-agent", userAgent)
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(baseUrl.Hostname()))
	client.SetTimeout(opts.Timeout)

	telemetry.InstrumentResty(client, "scrapers/fff/http")
	if dir := os.Getenv("FFF_DEBUG_HTTP"); dir != "" {
		restyutil.InstrumentClient(client, restyutil.NewFilesystemOutput(dir))
	}

	return client, baseUrl, nil
}
