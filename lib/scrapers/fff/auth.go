package fff

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/codes"

	"fffscraper/lib/timezone"
)

var (
	ErrNoCsrfToken             = errors.New("csrf token not found on signin page")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrUnexpectedLoginResponse = errors.New("unexpected login response")
	ErrNoSessionCookie         = errors.New("sessionid cookie not set after login")
	ErrVerificationFailed      = errors.New("session failed verification request")
)

const (
	signinPath        = "/signin/"
	sessionCookieName = "sessionid"

	invalidCredentialsMarker = "Invalid email or password"
)

type AuthClient struct {
	options ClientOptions
}

func NewAuthClient(options ClientOptions) AuthClient {
	return AuthClient{options: options.withDefaults()}
}

// authContext holds the state of a single login attempt. The cookie
// jar inside the http client accumulates across the csrf fetch, the
// login post and the verification request; it is never reset
// mid-attempt.
type authContext struct {
	http      *resty.Client
	baseUrl   *url.URL
	csrfToken string
}

func (a AuthClient) newAttempt() (*authContext, error) {
	client, baseUrl, err := newHttpClient(a.options)
	if err != nil {
		return nil, err
	}
	return &authContext{http: client, baseUrl: baseUrl}, nil
}

func (a AuthClient) fetchCsrfToken(ctx context.Context, att *authContext) error {
	ctx, span := tracer.Start(ctx, "auth:fetchCsrfToken")
	defer span.End()

	res, err := att.http.R().
		SetContext(ctx).
		Get(signinPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch signin page")
		return err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse signin page html")
		return err
	}

	token := doc.Find("input[name=csrfmiddlewaretoken]").AttrOr("value", "")
	if token == "" {
		span.SetStatus(codes.Error, ErrNoCsrfToken.Error())
		return ErrNoCsrfToken
	}

	att.csrfToken = token
	return nil
}

// submitLogin posts the login form and interprets the response. The
// site does not answer logins uniformly, so success is decided by an
// ordered ladder whose order is a contract:
//
//  1. explicit "Invalid email or password" text -> failure
//  2. final url differs from the signin url (redirect) -> success
//  3. "dashboard"/"logout" markers on the page -> success
//  4. otherwise ambiguous -> left to the live verification probe
//
// The returned bool reports whether the heuristics alone concluded
// success; an ambiguous response returns (false, nil).
func (a AuthClient) submitLogin(ctx context.Context, att *authContext, email, password string) (bool, error) {
	ctx, span := tracer.Start(ctx, "auth:submitLogin")
	defer span.End()

	signinUrl := att.baseUrl.JoinPath(signinPath).String()

	res, err := att.http.R().
		SetContext(ctx).
		SetHeader("Referer", signinUrl).
		SetHeader("Origin", att.baseUrl.String()).
		SetFormData(map[string]string{
			"csrfmiddlewaretoken": att.csrfToken,
			"email":               email,
			"password":            password,
			"next":                "",
		}).
		Post(signinPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to post login form")
		return false, err
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, ErrUnexpectedLoginResponse.Error())
		return false, ErrUnexpectedLoginResponse
	}

	body := res.String()
	if strings.Contains(body, invalidCredentialsMarker) {
		span.SetStatus(codes.Error, ErrInvalidCredentials.Error())
		return false, ErrInvalidCredentials
	}

	finalUrl := res.RawResponse.Request.URL.String()
	if finalUrl != signinUrl {
		return true, nil
	}

	lower := strings.ToLower(body)
	if strings.Contains(lower, "dashboard") || strings.Contains(lower, "logout") {
		return true, nil
	}

	span.AddEvent("login response ambiguous, deferring to verification probe")
	return false, nil
}

// extractSessionToken scans the accumulated cookie jar for the session
// cookie. The login post can look successful by page heuristics yet
// still not set one; that is a hard failure.
func (a AuthClient) extractSessionToken(att *authContext) (string, error) {
	jar := att.http.GetClient().Jar
	if jar == nil {
		return "", ErrNoSessionCookie
	}
	for _, cookie := range jar.Cookies(att.baseUrl) {
		if cookie.Name == sessionCookieName {
			return cookie.Value, nil
		}
	}
	return "", ErrNoSessionCookie
}

// probeStats issues one cheap stats request through the given client
// and requires a non-empty list back. It is the authoritative check of
// whether a session is usable; every cookie the client's jar holds
// rides along with the probe.
func (a AuthClient) probeStats(ctx context.Context, client *resty.Client) bool {
	ctx, span := tracer.Start(ctx, "auth:probeStats")
	defer span.End()

	res, err := client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"season":    a.options.Season,
			"min_gw":    "1",
			"max_gw":    "1",
			"home_away": "home",
		}).
		Get(playersPath)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "verification request failed")
		return false
	}
	if res.StatusCode() != 200 {
		span.SetStatus(codes.Error, ErrVerificationFailed.Error())
		return false
	}

	records, err := decodeStatsBody(res.Body())
	if err != nil || len(records) == 0 {
		span.SetStatus(codes.Error, ErrVerificationFailed.Error())
		return false
	}

	return true
}

// Verify checks a session token restored from the cache. Nothing of
// the original handshake survives a restart, so the probe goes out on
// a fresh client carrying only the session cookie.
func (a AuthClient) Verify(ctx context.Context, sessionId string) bool {
	ctx, span := tracer.Start(ctx, "auth:Verify")
	defer span.End()

	client, _, err := newHttpClient(a.options)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to build verification client")
		return false
	}
	client.SetCookie(sessionCookie(sessionId))

	return a.probeStats(ctx, client)
}

// Authenticate runs the whole login handshake:
// csrf fetch -> login post -> cookie extraction -> live verification.
// Every stage failure is logged and reported as an absent result, the
// caller never sees an error value.
func (a AuthClient) Authenticate(ctx context.Context, email, password string) (SessionToken, bool) {
	ctx, span := tracer.Start(ctx, "auth:Authenticate")
	defer span.End()

	att, err := a.newAttempt()
	if err != nil {
		slog.ErrorContext(ctx, "failed to initialize login attempt", "err", err)
		return SessionToken{}, false
	}

	err = a.fetchCsrfToken(ctx, att)
	if err != nil {
		slog.ErrorContext(ctx, "failed to fetch csrf token", "err", err)
		return SessionToken{}, false
	}

	heuristicOk, err := a.submitLogin(ctx, att, email, password)
	if err != nil {
		slog.ErrorContext(ctx, "login rejected", "err", err)
		return SessionToken{}, false
	}
	if !heuristicOk {
		slog.WarnContext(ctx, "login status unclear, relying on verification probe")
	}

	sessionId, err := a.extractSessionToken(att)
	if err != nil {
		slog.ErrorContext(ctx, "no session cookie after login", "err", err)
		return SessionToken{}, false
	}

	// the probe goes through the attempt's own client, the jar built
	// up during the handshake must not be thrown away here
	if !a.probeStats(ctx, att.http) {
		slog.ErrorContext(ctx, "session verification failed", "err", ErrVerificationFailed)
		return SessionToken{}, false
	}

	return SessionToken{
		Value:      sessionId,
		ObtainedAt: timezone.Now(),
		Email:      email,
	}, true
}
