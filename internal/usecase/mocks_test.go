package usecase

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/stretchr/testify/mock"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/entity"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/provider"
	"github.com/wekeepgrowing/chronam-reader/internal/domain/repository"
)

// MockSubscriptionRepository is a mock implementation of SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) Upsert(ctx context.Context, subscription *entity.Subscription) error {
	args := m.Called(ctx, subscription)
	return args.Error(0)
}

func (m *MockSubscriptionRepository) HasEntitlement(ctx context.Context, userID string) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *MockSubscriptionRepository) GetLatestForUser(ctx context.Context, userID string) (*entity.Subscription, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Subscription), args.Error(1)
}

// MockProfileRepository is a mock implementation of ProfileRepository
type MockProfileRepository struct {
	mock.Mock
}

func (m *MockProfileRepository) GetByID(ctx context.Context, userID string) (*entity.Profile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockProfileRepository) GetByStripeCustomerID(ctx context.Context, stripeCustomerID string) (*entity.Profile, error) {
	args := m.Called(ctx, stripeCustomerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockProfileRepository) Ensure(ctx context.Context, userID string, fullName *string) (*entity.Profile, error) {
	args := m.Called(ctx, userID, fullName)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Profile), args.Error(1)
}

func (m *MockProfileRepository) SetStripeCustomerID(ctx context.Context, userID, stripeCustomerID string) error {
	args := m.Called(ctx, userID, stripeCustomerID)
	return args.Error(0)
}

// mockStore binds the two mocks as a repository.Store
type mockStore struct {
	profiles      *MockProfileRepository
	subscriptions *MockSubscriptionRepository
}

func newMockStore() *mockStore {
	return &mockStore{
		profiles:      &MockProfileRepository{},
		subscriptions: &MockSubscriptionRepository{},
	}
}

func (s *mockStore) Profiles() repository.ProfileRepository           { return s.profiles }
func (s *mockStore) Subscriptions() repository.SubscriptionRepository { return s.subscriptions }

// scopedStub runs every scoped call against store and records the users.
type scopedStub struct {
	store *mockStore
	mu    sync.Mutex
	users []string
	err   error
}

func (f *scopedStub) WithUser(_ context.Context, userID string, fn func(repository.Store) error) error {
	f.mu.Lock()
	f.users = append(f.users, userID)
	f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	return fn(f.store)
}

// MockBillingProvider is a mock implementation of BillingProvider
type MockBillingProvider struct {
	mock.Mock
}

func (m *MockBillingProvider) GetSubscription(ctx context.Context, subscriptionID string) (*entity.ProviderSubscription, error) {
	args := m.Called(ctx, subscriptionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.ProviderSubscription), args.Error(1)
}

func (m *MockBillingProvider) CreateCustomer(ctx context.Context, req *provider.CreateCustomerRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockBillingProvider) CreateCheckoutSession(ctx context.Context, req *provider.CheckoutSessionRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockBillingProvider) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	args := m.Called(ctx, customerID, returnURL)
	return args.String(0), args.Error(1)
}

// MockIdentityProvider is a mock implementation of IdentityProvider
type MockIdentityProvider struct {
	mock.Mock
}

func (m *MockIdentityProvider) VerifyAccessToken(token string) (*entity.User, time.Time, error) {
	args := m.Called(token)
	if args.Get(0) == nil {
		return nil, time.Time{}, args.Error(2)
	}
	return args.Get(0).(*entity.User), args.Get(1).(time.Time), args.Error(2)
}

func (m *MockIdentityProvider) SignInWithPassword(ctx context.Context, email, password string) (*entity.Session, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockIdentityProvider) RefreshSession(ctx context.Context, refreshToken string) (*entity.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entity.Session), args.Error(1)
}

func (m *MockIdentityProvider) SignOut(ctx context.Context, accessToken string) error {
	args := m.Called(ctx, accessToken)
	return args.Error(0)
}

// fakeArchive serves canned responses and counts upstream calls.
type fakeArchive struct {
	calls   atomic.Int32
	mu      sync.Mutex
	urls    []string
	modes   []provider.ResponseMode
	respond func(url string, mode provider.ResponseMode) (*provider.ArchiveResponse, error)
}

func (f *fakeArchive) Fetch(_ context.Context, url string, mode provider.ResponseMode) (*provider.ArchiveResponse, error) {
	f.calls.Add(1)
	f.mu.Lock()
	f.urls = append(f.urls, url)
	f.modes = append(f.modes, mode)
	f.mu.Unlock()
	return f.respond(url, mode)
}

func (f *fakeArchive) lastMode() provider.ResponseMode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.modes[len(f.modes)-1]
}

func (f *fakeArchive) lastURL() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.urls) == 0 {
		return ""
	}
	return f.urls[len(f.urls)-1]
}

func jsonArchive(body string) *fakeArchive {
	return &fakeArchive{respond: func(string, provider.ResponseMode) (*provider.ArchiveResponse, error) {
		return &provider.ArchiveResponse{Body: []byte(body), ContentType: "application/json"}, nil
	}}
}

// MockWebhookVerifier is a mock implementation of WebhookVerifier
type MockWebhookVerifier struct {
	mock.Mock
}

func (m *MockWebhookVerifier) VerifyEvent(payload []byte, signature string) (entity.BillingEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entity.BillingEvent), args.Error(1)
}
