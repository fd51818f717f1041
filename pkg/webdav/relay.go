package webdav

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
)

// RelayRequest is the body posted to the privileged relay.
type RelayRequest = Request

// RelayResponse is the relay's answer: either a full response or Error.
// RelayResponse 中继返回 {ok,status,statusText,headers,text} 或 {error}
type RelayResponse struct {
	Response
	Error string `json:"error,omitempty"`
}

// TokenSource returns the bearer token presented to the relay.
type TokenSource func() (string, error)

// RelayTransport forwards every request to a trusted process that performs the real fetch.
// RelayTransport 将请求交给受信任的中继进程执行，绕过沙箱的 TLS/CORS 限制
type RelayTransport struct {
	endpoint string
	token    TokenSource
	client   *resty.Client
}

func NewRelayTransport(endpoint string, token TokenSource, timeout time.Duration) *RelayTransport {
	c := resty.New().
		SetJSONMarshaler(sonic.Marshal).
		SetJSONUnmarshaler(sonic.Unmarshal).
		SetRetryCount(0)
	if timeout > 0 {
		c.SetTimeout(timeout)
	}
	return &RelayTransport{endpoint: endpoint, token: token, client: c}
}

func (t *RelayTransport) Do(ctx context.Context, req *Request) (*Response, error) {
	out := &RelayResponse{}
	r := t.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-Request-Id", uuid.NewString()).
		SetBody(req).
		SetResult(out).
		SetError(out)

	if t.token != nil {
		tok, err := t.token()
		if err != nil {
			return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
		}
		r.SetAuthToken(tok)
	}

	resp, err := r.Post(t.endpoint)
	if err != nil {
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: err}
	}
	if out.Error != "" {
		return nil, &TransportError{Method: req.Method, URL: req.URL, Err: errors.New(out.Error)}
	}
	if !isOK(resp.StatusCode()) {
		return nil, &TransportError{
			Method: req.Method,
			URL:    req.URL,
			Err:    &StatusError{Method: "POST", URL: t.endpoint, Status: resp.StatusCode(), StatusText: statusText(resp.Status())},
		}
	}

	res := out.Response
	return &res, nil
}
