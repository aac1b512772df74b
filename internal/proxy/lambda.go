package proxy

import (
	"context"
	"strings"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/davecgh/go-spew/spew"
	"go.uber.org/zap"
)

// LambdaHandler adapts the proxy routes to API Gateway proxy events.
type LambdaHandler struct {
	adapter *ginadapter.GinLambda
	log     *zap.Logger
}

// NewLambdaHandler wraps the server's router for Lambda.
func NewLambdaHandler(s *Server) *LambdaHandler {
	return &LambdaHandler{
		adapter: ginadapter.New(s.Engine()),
		log:     s.log,
	}
}

// Handle serves one API Gateway request.
func (h *LambdaHandler) Handle(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	if ce := h.log.Check(zap.DebugLevel, "received lambda request"); ce != nil {
		ce.Write(
			zap.String("path", req.Path),
			zap.String("request", spew.Sdump(redactRequest(req))),
		)
	}
	return h.adapter.ProxyWithContext(ctx, req)
}

// redactedHeaders are masked before a request is dumped to the log.
var redactedHeaders = []string{"Authorization", "Proxy-Authorization", "Cookie"}

const redacted = "[REDACTED]"

// redactRequest returns a copy of req with credential headers masked. req
// itself is left untouched.
func redactRequest(req events.APIGatewayProxyRequest) events.APIGatewayProxyRequest {
	if len(req.Headers) > 0 {
		headers := make(map[string]string, len(req.Headers))
		for k, v := range req.Headers {
			if isRedacted(k) {
				v = redacted
			}
			headers[k] = v
		}
		req.Headers = headers
	}
	if len(req.MultiValueHeaders) > 0 {
		headers := make(map[string][]string, len(req.MultiValueHeaders))
		for k, vs := range req.MultiValueHeaders {
			if isRedacted(k) {
				vs = []string{redacted}
			}
			headers[k] = vs
		}
		req.MultiValueHeaders = headers
	}
	return req
}

func isRedacted(header string) bool {
	for _, h := range redactedHeaders {
		if strings.EqualFold(header, h) {
			return true
		}
	}
	return false
}

// StartLambda blocks serving Lambda invocations.
func StartLambda(s *Server) {
	lambda.Start(NewLambdaHandler(s).Handle)
}
