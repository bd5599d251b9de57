package api

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"learn_with_me_client/internal/config"
	"learn_with_me_client/pkg/logger"
	"learn_with_me_client/pkg/monitoring"
	"learn_with_me_client/pkg/tracing"

	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
)

// TokenSource 提供当前会话的 access token，未登录时返回空串
type TokenSource interface {
	AccessToken() string
}

type Client struct {
	HTTP   *resty.Client
	URL    string
	Tokens TokenSource
}

func NewClient(cfg *config.APIConfig, tokens TokenSource) *Client {
	httpClient := resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &Client{
		HTTP:   httpClient,
		URL:    cfg.GraphQLURL,
		Tokens: tokens,
	}
}

type graphQLRequest struct {
	OperationName string                 `json:"operationName,omitempty"`
	Query         string                 `json:"query"`
	Variables     map[string]interface{} `json:"variables,omitempty"`
}

type graphQLError struct {
	Message    string                 `json:"message"`
	Path       []interface{}          `json:"path,omitempty"`
	Extensions map[string]interface{} `json:"extensions,omitempty"`
}

func (e graphQLError) code() string {
	if e.Extensions == nil {
		return ""
	}
	if c, ok := e.Extensions["code"].(string); ok {
		return c
	}
	return ""
}

type graphQLResponse struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

type operation struct {
	name  string
	query string
	vars  map[string]interface{}
	auth  bool

	// prepare 非空时由调用方自行构造请求体（multipart 上传）
	prepare func(req *resty.Request)
}

func (c *Client) bearer() string {
	if c.Tokens == nil {
		return ""
	}
	return c.Tokens.AccessToken()
}

// execute 发送一次 GraphQL 请求（network-only，不做任何缓存），data 解析到 out
func (c *Client) execute(ctx context.Context, op operation, out interface{}) error {
	ctx, span := tracing.StartSpan(ctx, "graphql."+op.name)
	defer span.End()
	span.SetAttributes(attribute.String("graphql.operation", op.name))

	start := time.Now()
	err := c.roundTrip(ctx, op, out)
	monitoring.ObserveUpstream(op.name, KindOf(err).String(), err == nil, time.Since(start))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		logger.Log.Debug("graphql operation failed",
			zap.String("op", op.name),
			zap.String("kind", KindOf(err).String()),
			zap.Error(err),
		)
	}
	return err
}

func (c *Client) roundTrip(ctx context.Context, op operation, out interface{}) error {
	req := c.HTTP.R().SetContext(ctx)
	tracing.InjectHeaders(ctx, req.Header)

	if op.auth {
		if token := c.bearer(); token != "" {
			req.SetAuthToken(token)
		}
	}

	if op.prepare != nil {
		op.prepare(req)
	} else {
		req.SetHeader("Content-Type", "application/json").
			SetBody(graphQLRequest{OperationName: op.name, Query: op.query, Variables: op.vars})
	}

	resp, err := req.Post(c.URL)
	if err != nil {
		return newTransportError(op.name, err)
	}

	var body graphQLResponse
	if len(resp.Body()) > 0 {
		if uerr := json.Unmarshal(resp.Body(), &body); uerr != nil && !resp.IsError() {
			return &Error{Kind: KindUnknown, Op: op.name, Status: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", uerr)}
		}
	}

	if resp.IsError() || len(body.Errors) > 0 {
		return classify(op.name, resp.StatusCode(), body.Errors)
	}

	if out == nil {
		return nil
	}
	if len(body.Data) == 0 || string(body.Data) == "null" {
		return &Error{Kind: KindUnknown, Op: op.name, Status: resp.StatusCode(), Message: "empty data"}
	}
	if err := json.Unmarshal(body.Data, out); err != nil {
		return &Error{Kind: KindUnknown, Op: op.name, Status: resp.StatusCode(), Err: fmt.Errorf("decode data: %w", err)}
	}
	return nil
}
