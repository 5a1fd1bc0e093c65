package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"io/ioutil"
	"net/http"
	"os"
	"time"

	"blogmux/model"
	Logger "blogmux/utils/log"
	"github.com/codeGROOVE-dev/retry"
	"github.com/pkg/errors"
)

const (
	requestTimeout = 15 * time.Second
	retryAttempts  = 3
	retryDelay     = 200 * time.Millisecond
)

// Operation is one GraphQL request: a query document plus its variables.
type Operation struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// Client talks to the remote GraphQL backend over plain HTTP POST. A Client
// is immutable; deriving an authenticated variant returns a new Client.
type Client struct {
	endpoint string
	header   http.Header
	inner    *http.Client
}

// NewClient creates an unauthenticated client for the given GraphQL endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		endpoint: endpoint,
		header:   http.Header{},
		inner:    &http.Client{Timeout: requestTimeout},
	}
}

// NewClientFromEnv creates a client against the endpoint in API_URL.
func NewClientFromEnv() *Client {
	return NewClient(os.Getenv("API_URL"))
}

// Endpoint returns the GraphQL endpoint this client posts to.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// WithHeader returns a copy of the client carrying one extra header.
func (c *Client) WithHeader(key, value string) *Client {
	header := http.Header{}
	for k, v := range c.header {
		header[k] = v
	}
	header.Set(key, value)
	return &Client{endpoint: c.endpoint, header: header, inner: c.inner}
}

// WithBearer returns a copy of the client authorized with the given access
// token.
func (c *Client) WithBearer(token string) *Client {
	return c.WithHeader("Authorization", "Bearer "+token)
}

// Authenticated wraps base with the session's bearer token. When the session
// carries no access token the base client is returned unchanged. Pure
// function of the session, no caching of its own.
func Authenticated(base *Client, sess *model.Session) *Client {
	if !sess.HasAccessToken() {
		return base
	}
	return base.WithBearer(sess.AccessToken)
}

// response is the standard GraphQL envelope.
type response struct {
	Data   json.RawMessage `json:"data"`
	Errors []responseError `json:"errors"`
}

type responseError struct {
	Message    string `json:"message"`
	Extensions struct {
		Code string `json:"code"`
	} `json:"extensions"`
}

// Do executes one GraphQL operation and unmarshals the data envelope into
// out. Transport failures and 5xx responses are retried with backoff;
// GraphQL-level errors are not retried and surface as *GraphQLError.
func (c *Client) Do(ctx context.Context, op Operation, out interface{}) error {
	body, err := json.Marshal(op)
	if err != nil {
		return errors.Wrap(err, "marshal graphql operation")
	}

	var data json.RawMessage
	err = retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
			if err != nil {
				return retry.Unrecoverable(err)
			}
			for k, v := range c.header {
				req.Header[k] = v
			}
			req.Header.Set("Content-Type", "application/json")

			res, err := c.inner.Do(req)
			if err != nil {
				return err
			}
			defer res.Body.Close()

			if res.StatusCode >= 500 {
				maybeLogErrorBody(res)
				return errors.Errorf("backend returned http %d", res.StatusCode)
			}
			if res.StatusCode >= 300 {
				maybeLogErrorBody(res)
				return retry.Unrecoverable(errors.Errorf("backend returned http %d", res.StatusCode))
			}

			var envelope response
			if err := json.NewDecoder(res.Body).Decode(&envelope); err != nil {
				return retry.Unrecoverable(errors.Wrap(err, "decode graphql response"))
			}
			if len(envelope.Errors) > 0 {
				first := envelope.Errors[0]
				return retry.Unrecoverable(&GraphQLError{Message: first.Message, Code: first.Extensions.Code})
			}

			data = envelope.Data
			return nil
		},
		retry.Attempts(retryAttempts),
		retry.Delay(retryDelay),
		retry.Context(ctx),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			Logger.Log.Warnf("retrying graphql request (attempt %d): %s", n, err)
		}),
	)
	if err != nil {
		return err
	}

	if out == nil || data == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return errors.Wrap(err, "unmarshal graphql data")
	}
	return nil
}

func maybeLogErrorBody(res *http.Response) {
	body, err := ioutil.ReadAll(res.Body)
	if err == nil {
		Logger.Log.Errorf("non-2xx http code %d, body: %s", res.StatusCode, string(body))
	}
}
