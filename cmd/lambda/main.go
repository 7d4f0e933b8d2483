package main

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"

	"github.com/wolfman30/clinic-scheduler/internal/app/bootstrap"
	appconfig "github.com/wolfman30/clinic-scheduler/internal/config"
	"github.com/wolfman30/clinic-scheduler/pkg/logging"
)

func main() {
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	app, err := bootstrap.BuildApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("failed to build application", "error", err)
		panic(err)
	}

	lambda.Start(func(ctx context.Context, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return handle(ctx, app.Handler, evt)
	})
}

// handle replays an API Gateway HTTP API event through the router in-process.
func handle(ctx context.Context, handler http.Handler, evt events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
	method := strings.ToUpper(strings.TrimSpace(evt.RequestContext.HTTP.Method))
	if method == "" {
		method = http.MethodGet
	}
	path := strings.TrimSpace(evt.RawPath)
	if path == "" {
		path = strings.TrimSpace(evt.RequestContext.HTTP.Path)
	}
	if path == "" {
		path = "/"
	}

	body, err := decodeBody(evt)
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid body"}, nil
	}

	target := path
	if qs := strings.TrimSpace(evt.RawQueryString); qs != "" {
		target += "?" + qs
	}
	req, err := http.NewRequestWithContext(ctx, method, target, bytes.NewReader(body))
	if err != nil {
		return events.APIGatewayV2HTTPResponse{StatusCode: http.StatusBadRequest, Body: "invalid request"}, nil
	}
	for k, v := range evt.Headers {
		req.Header.Set(k, v)
	}
	if len(evt.Cookies) > 0 {
		req.Header.Set("Cookie", strings.Join(evt.Cookies, "; "))
	}
	req.Host = strings.TrimSpace(evt.RequestContext.DomainName)
	if req.Host == "" {
		req.Host = headerValue(evt.Headers, "host")
	}
	if ip := strings.TrimSpace(evt.RequestContext.HTTP.SourceIP); ip != "" {
		req.RemoteAddr = ip + ":0"
	}
	if id := strings.TrimSpace(evt.RequestContext.RequestID); id != "" && req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", id)
	}
	req.ContentLength = int64(len(body))

	rw := newBufferedResponse()
	handler.ServeHTTP(rw, req)
	return rw.toEvent(), nil
}

func decodeBody(evt events.APIGatewayV2HTTPRequest) ([]byte, error) {
	if !evt.IsBase64Encoded {
		return []byte(evt.Body), nil
	}
	decoded, err := base64.StdEncoding.DecodeString(evt.Body)
	if err != nil {
		return nil, err
	}
	return decoded, nil
}

func headerValue(headers map[string]string, key string) string {
	for k, v := range headers {
		if strings.EqualFold(k, key) {
			return v
		}
	}
	return ""
}

// bufferedResponse collects a handler's response for the Lambda reply.
type bufferedResponse struct {
	header http.Header
	status int
	body   bytes.Buffer
}

func newBufferedResponse() *bufferedResponse {
	return &bufferedResponse{header: http.Header{}}
}

func (b *bufferedResponse) Header() http.Header { return b.header }

func (b *bufferedResponse) WriteHeader(status int) {
	if b.status == 0 {
		b.status = status
	}
}

func (b *bufferedResponse) Write(p []byte) (int, error) {
	if b.status == 0 {
		b.status = http.StatusOK
	}
	return b.body.Write(p)
}

func (b *bufferedResponse) toEvent() events.APIGatewayV2HTTPResponse {
	status := b.status
	if status == 0 {
		status = http.StatusOK
	}
	out := events.APIGatewayV2HTTPResponse{
		StatusCode: status,
		Headers:    map[string]string{},
	}
	for k, vals := range b.header {
		if strings.EqualFold(k, "Set-Cookie") {
			out.Cookies = append(out.Cookies, vals...)
			continue
		}
		out.Headers[strings.ToLower(k)] = strings.Join(vals, ",")
	}
	if isTextContent(b.header.Get("Content-Type")) {
		out.Body = b.body.String()
	} else {
		out.Body = base64.StdEncoding.EncodeToString(b.body.Bytes())
		out.IsBase64Encoded = true
	}
	return out
}

func isTextContent(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if ct == "" {
		return true
	}
	return strings.HasPrefix(ct, "text/") ||
		strings.Contains(ct, "json") ||
		strings.Contains(ct, "xml") ||
		strings.Contains(ct, "javascript") ||
		strings.HasPrefix(ct, "application/x-www-form-urlencoded")
}
