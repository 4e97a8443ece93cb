package auth

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/diwise/service-chassis/pkg/infrastructure/o11y/tracing"
	"github.com/open-policy-agent/opa/rego"
	"github.com/open-policy-agent/opa/storage/inmem"
	"go.opentelemetry.io/otel"
)

var tracer = otel.Tracer("admin-console/api/authz")

var ErrNotAuthorized = errors.New("not authorized")

type Enticator interface {
	// CheckAccess returns the name of the administrator making the request
	CheckAccess(ctx context.Context, r *http.Request) (string, error)
}

type enticatorImpl struct {
	preparedQuery rego.PreparedEvalQuery
}

// NewAuthenticator prepares the rego policy read from policies. The admin
// tokens, keyed by user name, are made available to it as data.admin.tokens
func NewAuthenticator(ctx context.Context, policies io.Reader, tokens map[string]string) (Enticator, error) {
	module, err := io.ReadAll(policies)
	if err != nil {
		return nil, fmt.Errorf("unable to read authz policies: %s", err.Error())
	}

	data := map[string]any{}
	for user, token := range tokens {
		data[user] = token
	}

	store := inmem.NewFromObject(map[string]any{
		"admin": map[string]any{
			"tokens": data,
		},
	})

	impl := &enticatorImpl{}

	impl.preparedQuery, err = rego.New(
		rego.Query("x = data.admin.authz.allow"),
		rego.Module("authz.rego", string(module)),
		rego.Store(store),
	).PrepareForEval(ctx)

	if err != nil {
		return nil, err
	}

	return impl, nil
}

func (e *enticatorImpl) CheckAccess(ctx context.Context, r *http.Request) (string, error) {
	var err error

	ctx, span := tracer.Start(ctx, "check-auth")
	defer func() { tracing.RecordAnyErrorAndEndSpan(err, span) }()

	token := r.Header.Get("Authorization")
	token, _ = strings.CutPrefix(token, "Bearer ")

	input := map[string]any{
		"method": r.Method,
		"path":   strings.Split(strings.Trim(r.URL.Path, "/"), "/"),
		"token":  token,
	}

	results, err := e.preparedQuery.Eval(ctx, rego.EvalInput(input))
	if err != nil {
		err = fmt.Errorf("opa eval failed: %w", err)
		return "", err
	}

	if len(results) == 0 {
		err = fmt.Errorf("auth failed: opa query could not be satisfied")
		return "", err
	}

	binding := results[0].Bindings["x"]

	// a denied request yields a single false
	allowed, ok := binding.(bool)
	if ok && !allowed {
		err = ErrNotAuthorized
		return "", err
	}

	result, ok := binding.(map[string]any)
	if !ok {
		err = errors.New("opa error: unexpected result type")
		return "", err
	}

	user, _ := result["user"].(string)

	return user, nil
}

// ParseTokens reads a comma separated list of user:token pairs
func ParseTokens(s string) map[string]string {
	tokens := map[string]string{}

	for _, pair := range strings.Split(s, ",") {
		user, token, found := strings.Cut(strings.TrimSpace(pair), ":")
		if !found || user == "" || token == "" {
			continue
		}
		tokens[user] = token
	}

	return tokens
}
