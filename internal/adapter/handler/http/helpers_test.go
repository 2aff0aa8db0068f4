package http

import (
	"context"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/middleware/auth"
	"github.com/wekeepgrowing/chronam-reader/internal/usecase"
	apperrors "github.com/wekeepgrowing/chronam-reader/pkg/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

var testUser = &entity.User{ID: "5d1a0c52-7f0e-4a43-9a0e-2f7c1d9b6a11", Email: "reader@example.com"}

type structValidator struct {
	v *validator.Validate
}

func (s *structValidator) Validate(i interface{}) error {
	return s.v.Struct(i)
}

func newEcho() *echo.Echo {
	e := echo.New()
	e.Validator = &structValidator{v: validator.New()}
	return e
}

func newContext(e *echo.Echo, method, target string, body io.Reader, user *entity.User) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, target, body)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if user != nil {
		req = req.WithContext(auth.WithUser(req.Context(), user))
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

// observedLogger records error-level entries for assertions.
func observedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.ErrorLevel)
	return zap.New(core), logs
}

// assertHTTPError checks the status and message the error handler would render.
func assertHTTPError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	he := apperrors.ToHTTPError(err)
	assert.Equal(t, status, he.Code)
	if message != "" {
		assert.Equal(t, message, he.Message)
	}
}

type mockArchiveFetcher struct {
	mock.Mock
}

func (m *mockArchiveFetcher) Fetch(ctx context.Context, req usecase.ProxyRequest) (*usecase.ProxyResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.ProxyResponse), args.Error(1)
}

type mockWebhookProcessor struct {
	mock.Mock
}

func (m *mockWebhookProcessor) HandleWebhook(ctx context.Context, payload []byte, signature string) (*usecase.WebhookResult, error) {
	args := m.Called(ctx, payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.WebhookResult), args.Error(1)
}

type mockBillingSessions struct {
	mock.Mock
}

func (m *mockBillingSessions) CreateCheckoutSession(ctx context.Context, req usecase.CheckoutRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *mockBillingSessions) CreatePortalLink(ctx context.Context, user *entity.User) (string, error) {
	args := m.Called(ctx, user)
	return args.String(0), args.Error(1)
}

type mockSessionIssuer struct {
	mock.Mock
}

func (m *mockSessionIssuer) Login(ctx context.Context, email, password string) (*entity.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *mockSessionIssuer) Logout(ctx context.Context, accessToken string) {
	m.Called(ctx, accessToken)
}

type mockAccountReader struct {
	mock.Mock
}

func (m *mockAccountReader) GetAccount(ctx context.Context, user *entity.User) (*usecase.AccountView, error) {
	args := m.Called(ctx, user)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.AccountView), args.Error(1)
}
