package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/AndrewGardhouse/ticketbeast-tdd/internal/domain"
)

const defaultHTTPTimeout = 10 * time.Second

// HTTPGateway charges through a remote payments API. Declines are returned
// as domain.ErrPaymentFailed. Failures where the provider cannot have
// charged (refused connection, 5xx, open breaker) are
// domain.ErrPaymentUnavailable. A request that was sent but got no answer is
// domain.ErrPaymentOutcomeUnknown. Declines never trip the breaker.
type HTTPGateway struct {
	baseURL  string
	client   *http.Client
	breaker  *gobreaker.CircuitBreaker
	settings gobreaker.Settings
	log      logrus.FieldLogger
}

type HTTPGatewayOption func(*HTTPGateway)

func WithHTTPClient(client *http.Client) HTTPGatewayOption {
	return func(g *HTTPGateway) {
		if client != nil {
			g.client = client
		}
	}
}

func WithGatewayLogger(log logrus.FieldLogger) HTTPGatewayOption {
	return func(g *HTTPGateway) {
		if log != nil {
			g.log = log
		}
	}
}

// WithBreakerSettings overrides the circuit breaker configuration.
// IsSuccessful is always replaced so declines never count as failures.
func WithBreakerSettings(settings gobreaker.Settings) HTTPGatewayOption {
	return func(g *HTTPGateway) {
		g.settings = settings
	}
}

func NewHTTPGateway(baseURL string, opts ...HTTPGatewayOption) *HTTPGateway {
	g := &HTTPGateway{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: defaultHTTPTimeout},
		log:     logrus.StandardLogger(),
		settings: gobreaker.Settings{
			Name:    "payments",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 5
			},
		},
	}
	for _, opt := range opts {
		opt(g)
	}

	settings := g.settings
	settings.IsSuccessful = isBreakerSuccess
	onStateChange := settings.OnStateChange
	settings.OnStateChange = func(name string, from, to gobreaker.State) {
		g.log.WithFields(logrus.Fields{
			"breaker": name,
			"from":    from.String(),
			"to":      to.String(),
		}).Warn("payment circuit breaker state changed")
		if onStateChange != nil {
			onStateChange(name, from, to)
		}
	}
	g.breaker = gobreaker.NewCircuitBreaker(settings)
	return g
}

type chargeRequest struct {
	Amount int64  `json:"amount"`
	Token  string `json:"token"`
}

type chargeResponse struct {
	ID string `json:"id"`
}

func (g *HTTPGateway) Charge(ctx context.Context, amount int64, token string) (string, error) {
	res, err := g.breaker.Execute(func() (interface{}, error) {
		return g.charge(ctx, amount, token)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
		}
		return "", err
	}
	return res.(string), nil
}

func (g *HTTPGateway) charge(ctx context.Context, amount int64, token string) (string, error) {
	body, err := json.Marshal(chargeRequest{Amount: amount, Token: token})
	if err != nil {
		return "", fmt.Errorf("encode charge: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/charges", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build charge request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		if notSent(err) {
			return "", fmt.Errorf("%w: %v", domain.ErrPaymentUnavailable, err)
		}
		g.log.WithError(err).WithField("amount", amount).Error("charge sent without a response")
		return "", fmt.Errorf("%w: %v", domain.ErrPaymentOutcomeUnknown, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		var out chargeResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			g.log.WithError(err).WithFields(logrus.Fields{
				"status": resp.StatusCode,
				"amount": amount,
			}).Warn("charge accepted with an unreadable body")
			return "", nil
		}
		return out.ID, nil
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity:
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		g.log.WithFields(logrus.Fields{
			"status": resp.StatusCode,
			"detail": strings.TrimSpace(string(detail)),
		}).Info("charge declined")
		return "", fmt.Errorf("%w: declined with status %d", domain.ErrPaymentFailed, resp.StatusCode)
	default:
		return "", fmt.Errorf("%w: provider returned status %d", domain.ErrPaymentUnavailable, resp.StatusCode)
	}
}

// notSent reports whether the request failed before reaching the provider.
func notSent(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func isBreakerSuccess(err error) bool {
	return err == nil || errors.Is(err, domain.ErrPaymentFailed)
}
