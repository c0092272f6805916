package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/medauth/internal/common"
	"github.com/dmitrijs2005/medauth/internal/dbx"
	"github.com/dmitrijs2005/medauth/internal/server/models"
	"github.com/dmitrijs2005/medauth/internal/server/provider"
	"github.com/dmitrijs2005/medauth/internal/server/repositories/profiles"
)

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

// fakeProfiles serves GetProfile from a script: the n-th call returns
// script[n], and a nil entry means "row not there yet". Calls past the end
// repeat the last entry.
type fakeProfiles struct {
	script   []*models.Profile
	getErr   error
	getCalls int

	updated   *models.ProfileUpdate
	updateErr error

	recorded  []models.AuthMethod
	recordErr error

	emailExists bool
	phoneExists bool
	existsErr   error
	emailCalls  int
	phoneCalls  int
	exclOwner   string
}

var _ profiles.Repository = (*fakeProfiles)(nil)

func (f *fakeProfiles) GetProfile(ctx context.Context, id string) (*models.Profile, error) {
	f.getCalls++
	if f.getErr != nil {
		return nil, f.getErr
	}
	if len(f.script) == 0 {
		return nil, common.ErrorNotFound
	}
	i := f.getCalls - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	if f.script[i] == nil {
		return nil, common.ErrorNotFound
	}
	p := *f.script[i]
	return &p, nil
}

func (f *fakeProfiles) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) error {
	if f.updateErr != nil {
		return f.updateErr
	}
	f.updated = &upd
	return nil
}

func (f *fakeProfiles) RecordAuthMethod(ctx context.Context, id string, method models.AuthMethod) (bool, error) {
	if f.recordErr != nil {
		return false, f.recordErr
	}
	f.recorded = append(f.recorded, method)
	return true, nil
}

func (f *fakeProfiles) EmailExists(ctx context.Context, email string) (bool, error) {
	f.emailCalls++
	return f.emailExists, f.existsErr
}

func (f *fakeProfiles) PhoneExists(ctx context.Context, phone string) (bool, error) {
	f.phoneCalls++
	return f.phoneExists, f.existsErr
}

func (f *fakeProfiles) PhoneExistsExcludingSelf(ctx context.Context, phone, ownerID string) (bool, error) {
	f.phoneCalls++
	f.exclOwner = ownerID
	return f.phoneExists, f.existsErr
}

func (f *fakeProfiles) Ping(ctx context.Context) error { return nil }

type fakeRepoManager struct {
	p *fakeProfiles
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error { return nil }
func (m *fakeRepoManager) Profiles(db dbx.DBTX) profiles.Repository     { return m.p }

type fakeProvider struct {
	exchangeRes   *provider.ExchangeResult
	exchangeErr   error
	exchangeCalls int

	signUpRes      *provider.SignUpResult
	signUpErr      error
	signUpCalls    int
	signUpEmail    string
	signUpMetadata map[string]any
	signUpFlow     provider.Flow

	resendErr   error
	resendEmail string
	resendFlow  provider.Flow

	signedOut  []string
	signOutErr error

	updateErr      error
	updateMetadata map[string]any

	user    *models.Identity
	userErr error
}

var _ IdentityProvider = (*fakeProvider)(nil)

func (f *fakeProvider) ExchangeCode(ctx context.Context, code, codeVerifier string) (*provider.ExchangeResult, error) {
	f.exchangeCalls++
	if f.exchangeErr != nil {
		return nil, f.exchangeErr
	}
	return f.exchangeRes, nil
}

func (f *fakeProvider) SignUp(ctx context.Context, email, password string, metadata map[string]any, flow provider.Flow) (*provider.SignUpResult, error) {
	f.signUpCalls++
	f.signUpFlow = flow
	f.signUpEmail = email
	f.signUpMetadata = metadata
	if f.signUpErr != nil {
		return nil, f.signUpErr
	}
	return f.signUpRes, nil
}

func (f *fakeProvider) ResendConfirmation(ctx context.Context, email string, flow provider.Flow) error {
	f.resendEmail = email
	f.resendFlow = flow
	return f.resendErr
}

func (f *fakeProvider) SignOut(ctx context.Context, accessToken string) error {
	f.signedOut = append(f.signedOut, accessToken)
	return f.signOutErr
}

func (f *fakeProvider) UpdateUser(ctx context.Context, accessToken string, metadata map[string]any) error {
	f.updateMetadata = metadata
	return f.updateErr
}

func (f *fakeProvider) GetUser(ctx context.Context, accessToken string) (*models.Identity, error) {
	if f.userErr != nil {
		return nil, f.userErr
	}
	return f.user, nil
}

// recordingSleeper counts sleeps instead of waiting.
type recordingSleeper struct {
	calls []time.Duration
	err   error
}

func (s *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	s.calls = append(s.calls, d)
	return s.err
}
