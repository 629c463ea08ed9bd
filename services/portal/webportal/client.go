// Package webportal is the portal.Client talking to the institute's student web portal API.
package webportal

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pkg/errors"
	"github.com/sendgrid/rest"
	"golang.org/x/time/rate"

	"github.com/trezcool/campuscompanion/core"
	"github.com/trezcool/campuscompanion/core/portal"
)

const responseSuccess = "Success"

// defaultCaptcha is the fixed captcha pair the portal accepts for API logins.
var defaultCaptcha = map[string]string{"captcha": "phw5n", "hidden": "gmBctEffdSg="}

type Options struct {
	BaseURL    string
	Timeout    time.Duration
	RateLimit  float64 // requests per second; <= 0 disables limiting
	Burst      int
	HTTPClient *http.Client
}

// OptionsFromConfig maps the portal configuration to Options.
func OptionsFromConfig(conf *core.Config) Options {
	return Options{
		BaseURL:   conf.Portal.BaseURL,
		Timeout:   conf.Portal.Timeout,
		RateLimit: conf.Portal.RateLimit,
		Burst:     conf.Portal.Burst,
	}
}

type session struct {
	token       string
	memberID    string
	clientID    string
	memberType  string
	instituteID string
	enrollment  string
}

type client struct {
	baseURL string
	rest    *rest.Client
	limiter *rate.Limiter

	mu   sync.RWMutex
	sess *session
}

var _ portal.Client = (*client)(nil)

func NewClient(opts Options) portal.Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.Burst
	if burst <= 0 {
		burst = 1
	}
	return &client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		rest:    &rest.Client{HTTPClient: httpClient},
		limiter: rate.NewLimiter(limit, burst),
	}
}

// envelope is the wrapper around every JSON answer of the portal.
type envelope struct {
	Status struct {
		ResponseStatus string            `json:"responseStatus"`
		Errors         []json.RawMessage `json:"errors"`
	} `json:"status"`
	Response json.RawMessage `json:"response"`
}

func (c *client) session() (*session, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.sess == nil {
		return nil, portal.ErrNotLoggedIn
	}
	return c.sess, nil
}

// do sends req bound to ctx, so a cancelled caller aborts the round trip.
func (c *client) do(ctx context.Context, req rest.Request) (*rest.Response, error) {
	httpReq, err := rest.BuildRequestObject(req)
	if err != nil {
		return nil, err
	}
	res, err := c.rest.MakeRequest(httpReq.WithContext(ctx))
	if err != nil {
		return nil, err
	}
	return rest.BuildResponse(res)
}

// send performs one rate limited request and classifies transport and server failures.
func (c *client) send(ctx context.Context, method rest.Method, path string, body []byte, token string) (*rest.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, errors.Wrap(err, "waiting for rate limiter")
	}

	headers := map[string]string{
		"Accept":       "application/json",
		"Content-Type": "application/json",
	}
	if token != "" {
		headers["Authorization"] = "Bearer " + token
	}
	req := rest.Request{
		Method:  method,
		BaseURL: c.baseURL + path,
		Headers: headers,
		Body:    body,
	}

	resp, err := c.do(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, errors.WithMessage(portal.ErrNetwork, err.Error())
	}

	switch {
	case isHTML(resp):
		return nil, errors.WithMessage(portal.ErrServiceUnavailable, pageTitle(resp.Body))
	case resp.StatusCode >= http.StatusInternalServerError:
		return nil, errors.WithMessagef(portal.ErrServiceUnavailable, "status %d", resp.StatusCode)
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, portal.ErrNotLoggedIn
	}
	return resp, nil
}

// post sends payload as JSON and decodes the "response" member of the answer into out.
func (c *client) post(ctx context.Context, path string, payload interface{}, token string, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return errors.Wrap(err, "encoding payload")
	}
	resp, err := c.send(ctx, rest.Post, path, body, token)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal([]byte(resp.Body), &env); err != nil {
		return &portal.APIError{Status: resp.StatusCode, Message: "malformed answer: " + err.Error()}
	}
	if env.Status.ResponseStatus != responseSuccess {
		return classify(resp.StatusCode, env.Status.Errors)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Response, out); err != nil {
		return errors.Wrapf(err, "decoding %s", path)
	}
	return nil
}

// postAuthed is post with the session token and ids.
func (c *client) postAuthed(ctx context.Context, path string, payload func(s *session) map[string]interface{}, out interface{}) error {
	s, err := c.session()
	if err != nil {
		return err
	}
	return c.post(ctx, path, payload(s), s.token, out)
}

// classify maps the error messages of a non-success answer to the portal error kinds.
func classify(status int, raw []json.RawMessage) error {
	msgs := make([]string, 0, len(raw))
	for _, r := range raw {
		var s string
		if err := json.Unmarshal(r, &s); err != nil {
			s = string(r)
		}
		msgs = append(msgs, s)
	}
	msg := strings.Join(msgs, "; ")
	lower := strings.ToLower(msg)

	switch {
	case strings.Contains(msg, portal.ErrNoAttendance.Message):
		return portal.ErrNoAttendance
	case strings.Contains(lower, "temporarily unavailable"):
		return errors.WithMessage(portal.ErrServiceUnavailable, msg)
	case strings.Contains(lower, "not found"), strings.Contains(lower, "no record"), strings.Contains(lower, "no data"):
		return &portal.NoDataError{Message: msg}
	}
	if msg == "" {
		msg = "request failed"
	}
	return &portal.APIError{Status: status, Message: msg}
}

func isHTML(resp *rest.Response) bool {
	for _, ct := range resp.Headers["Content-Type"] {
		if strings.Contains(ct, "text/html") {
			return true
		}
	}
	return strings.HasPrefix(strings.TrimSpace(resp.Body), "<")
}

// pageTitle extracts a readable message from an HTML error page.
func pageTitle(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "unexpected HTML answer"
	}
	for _, sel := range []string{"title", "h1", "h2"} {
		if t := strings.TrimSpace(doc.Find(sel).First().Text()); t != "" {
			return t
		}
	}
	return "unexpected HTML answer"
}
