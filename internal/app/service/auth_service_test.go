package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/authz"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	"github.com/ikkim/budongsan-crm/internal/db"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeMailer struct {
	mu    sync.Mutex
	codes map[string]string
}

func (m *fakeMailer) SendVerificationCode(to, code string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.codes == nil {
		m.codes = make(map[string]string)
	}
	m.codes[to] = code
	return nil
}

func (m *fakeMailer) lastCode(to string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.codes[to]
}

type fakeRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func (r *fakeRevoker) Revoke(_ context.Context, tokenID string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.revoked == nil {
		r.revoked = make(map[string]bool)
	}
	r.revoked[tokenID] = true
	return nil
}

func (r *fakeRevoker) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[tokenID], nil
}

type rejectingVerifier struct{}

func (rejectingVerifier) Verify(_ context.Context, businessNumber, _, _ string) (*util.BusinessVerificationResult, error) {
	return &util.BusinessVerificationResult{IsValid: false, Message: "국세청에 등록되지 않은 사업자등록번호입니다"}, nil
}

type authFixture struct {
	service AuthService
	db      *gorm.DB
	mailer  *fakeMailer
	revoker *fakeRevoker
}

func setupAuthServiceTest(t *testing.T, verifier BusinessChecker) *authFixture {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	if verifier == nil {
		verifier = util.NewBusinessVerifier("", "")
	}
	mailer := &fakeMailer{}
	revoker := &fakeRevoker{}
	authService := NewAuthService(
		testDB,
		repository.NewUserRepository(testDB),
		repository.NewCompanyRepository(testDB),
		util.NewMemoryCodeStore(),
		mailer,
		verifier,
		revoker,
		AuthConfig{
			JWTSecret:     "test-jwt-secret",
			AccessExpiry:  15 * time.Minute,
			RefreshExpiry: 7 * 24 * time.Hour,
		},
	)

	return &authFixture{
		service: authService,
		db:      testDB,
		mailer:  mailer,
		revoker: revoker,
	}
}

func (f *authFixture) verifyEmail(t *testing.T, email string) {
	t.Helper()
	require.NoError(t, f.service.SendEmailCode(email))
	require.NoError(t, f.service.VerifyEmailCode(email, f.mailer.lastCode(email)))
}

func registerInput(email, nickname, businessNumber string) RegisterInput {
	return RegisterInput{
		Email:              email,
		Password:           "password123",
		Name:               "홍길동",
		Nickname:           nickname,
		Phone:              "010-1234-5678",
		BusinessNumber:     businessNumber,
		CompanyName:        "행복부동산",
		RepresentativeName: "홍길동",
		BusinessStartDate:  "20200101",
	}
}

func TestAuthService_Register_FirstRegistrantRule(t *testing.T) {
	f := setupAuthServiceTest(t, nil)

	f.verifyEmail(t, "a@example.com")
	inputA := registerInput("a@example.com", "중개사A", "111-11-11111")
	inputA.CreateCompany = true
	userA, tokens, err := f.service.Register(inputA)
	require.NoError(t, err)
	assert.Equal(t, model.LevelOwner, userA.Level)
	assert.True(t, userA.IsFirstRegistrant)
	assert.Equal(t, "1111111111", userA.BusinessNumber)
	assert.Equal(t, "01012345678", userA.Phone)
	assert.NotEmpty(t, tokens.AccessToken)

	var company model.Company
	require.NoError(t, f.db.Where("business_number = ?", "1111111111").First(&company).Error)
	require.NotNil(t, company.FounderUserID)
	assert.Equal(t, userA.ID, *company.FounderUserID)

	// 두 번째 가입자는 요청한 레벨과 관계없이 1
	f.verifyEmail(t, "b@example.com")
	inputB := registerInput("b@example.com", "중개사B", "1111111111")
	inputB.Level = 10
	userB, _, err := f.service.Register(inputB)
	require.NoError(t, err)
	assert.Equal(t, model.LevelMember, userB.Level)
	assert.False(t, userB.IsFirstRegistrant)

	// B 는 A 의 레벨을 바꿀 수 없다
	err = authz.CanChangeUserLevel(userB, userA, 1)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))
}

func TestAuthService_Register_Errors(t *testing.T) {
	f := setupAuthServiceTest(t, nil)

	f.verifyEmail(t, "owner@example.com")
	first := registerInput("owner@example.com", "대표", "1111111111")
	first.CreateCompany = true
	_, _, err := f.service.Register(first)
	require.NoError(t, err)

	tests := []struct {
		name     string
		verify   bool
		mutate   func(*RegisterInput)
		wantCode string
	}{
		{"email not verified", false, func(in *RegisterInput) {}, apperrors.AuthEmailNotVerified},
		{"weak password", true, func(in *RegisterInput) { in.Password = "short" }, apperrors.AuthWeakPassword},
		{"letters only password", true, func(in *RegisterInput) { in.Password = "passwordonly" }, apperrors.AuthWeakPassword},
		{"invalid phone", true, func(in *RegisterInput) { in.Phone = "123" }, apperrors.AuthInvalidPhone},
		{"duplicate nickname", true, func(in *RegisterInput) { in.Nickname = "대표" }, apperrors.AuthDuplicateNickname},
		{"duplicate business number", true, func(in *RegisterInput) { in.CreateCompany = true }, apperrors.AuthDuplicateBusinessNumber},
		{"invalid business number", true, func(in *RegisterInput) { in.BusinessNumber = "12345" }, apperrors.ValidationInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.verify {
				f.verifyEmail(t, "new@example.com")
			}
			input := registerInput("new@example.com", "신입", "1111111111")
			tt.mutate(&input)

			_, _, err := f.service.Register(input)
			require.Error(t, err)
			domainErr, ok := err.(apperrors.DomainError)
			require.True(t, ok, "got %v", err)
			assert.Equal(t, tt.wantCode, domainErr.ErrorCode())
		})
	}

	// 이미 사용된 이메일
	f.verifyEmail(t, "owner@example.com")
	_, _, err = f.service.Register(registerInput("owner@example.com", "다른닉네임", "1111111111"))
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))

	var count int64
	f.db.Model(&model.User{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestAuthService_Register_PhoneOptional(t *testing.T) {
	f := setupAuthServiceTest(t, nil)

	f.verifyEmail(t, "nophone@example.com")
	input := registerInput("nophone@example.com", "무전화", "3333333333")
	input.Phone = ""
	user, _, err := f.service.Register(input)
	require.NoError(t, err)
	assert.Empty(t, user.Phone)
}

func TestAuthService_Register_BusinessNotVerified(t *testing.T) {
	f := setupAuthServiceTest(t, rejectingVerifier{})

	f.verifyEmail(t, "a@example.com")
	_, _, err := f.service.Register(registerInput("a@example.com", "중개사", "4444444444"))
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	var companies int64
	f.db.Model(&model.Company{}).Count(&companies)
	assert.Zero(t, companies)
}

func TestAuthService_VerifyEmailCode(t *testing.T) {
	f := setupAuthServiceTest(t, nil)

	err := f.service.VerifyEmailCode("none@example.com", "123456")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	require.NoError(t, f.service.SendEmailCode("User@Example.com"))
	code := f.mailer.lastCode("user@example.com")
	require.Len(t, code, 6)

	wrong := "000000"
	if code == wrong {
		wrong = "111111"
	}
	err = f.service.VerifyEmailCode("user@example.com", wrong)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	assert.NoError(t, f.service.VerifyEmailCode("user@example.com", code))
}

func TestAuthService_CheckBusinessNumber(t *testing.T) {
	f := setupAuthServiceTest(t, nil)

	check, err := f.service.CheckBusinessNumber("111-11-11111")
	require.NoError(t, err)
	assert.False(t, check.CompanyExists)

	f.verifyEmail(t, "a@example.com")
	input := registerInput("a@example.com", "중개사", "1111111111")
	_, _, err = f.service.Register(input)
	require.NoError(t, err)

	check, err = f.service.CheckBusinessNumber("1111111111")
	require.NoError(t, err)
	assert.True(t, check.CompanyExists)
	assert.Equal(t, "행복부동산", check.CompanyName)

	_, err = f.service.CheckBusinessNumber("abc")
	assert.True(t, apperrors.IsValidation(err))
}

func TestAuthService_LoginRefreshLogout(t *testing.T) {
	f := setupAuthServiceTest(t, nil)

	f.verifyEmail(t, "a@example.com")
	_, _, err := f.service.Register(registerInput("a@example.com", "중개사", "1111111111"))
	require.NoError(t, err)

	_, _, err = f.service.Login("a@example.com", "wrongpass1")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = f.service.Login("nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	user, tokens, err := f.service.Login("A@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, model.LevelOwner, user.Level)

	// 사용한 refresh 토큰은 재사용할 수 없다
	refreshed, err := f.service.Refresh(tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
	_, err = f.service.Refresh(tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)

	// access 토큰으로는 갱신할 수 없다
	_, err = f.service.Refresh(refreshed.AccessToken)
	assert.Error(t, err)

	claims, err := util.ValidateToken(refreshed.AccessToken, "test-jwt-secret")
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(claims, refreshed.RefreshToken))

	revoked, err := f.revoker.IsRevoked(context.Background(), claims.ID)
	require.NoError(t, err)
	assert.True(t, revoked)
	_, err = f.service.Refresh(refreshed.RefreshToken)
	assert.ErrorIs(t, err, ErrTokenRevoked)
}

func TestAuthService_WithdrawAndRestore(t *testing.T) {
	f := setupAuthServiceTest(t, nil)

	f.verifyEmail(t, "a@example.com")
	user, _, err := f.service.Register(registerInput("a@example.com", "중개사", "1111111111"))
	require.NoError(t, err)

	assert.ErrorIs(t, f.service.Withdraw(user.ID, "wrongpass1"), ErrInvalidCredentials)
	require.NoError(t, f.service.Withdraw(user.ID, "password123"))

	_, err = f.service.GetUserByID(user.ID)
	assert.ErrorIs(t, err, ErrUserNotFound)

	_, _, err = f.service.Restore("a@example.com", "2222222222", "password123")
	assert.ErrorIs(t, err, ErrAccountNotFound)

	restored, tokens, err := f.service.Restore("a@example.com", "111-11-11111", "password123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, restored.ID)
	assert.NotEmpty(t, tokens.AccessToken)

	_, err = f.service.GetUserByID(user.ID)
	assert.NoError(t, err)
}

func TestAuthService_UpdateProfile(t *testing.T) {
	f := setupAuthServiceTest(t, nil)

	f.verifyEmail(t, "a@example.com")
	userA, _, err := f.service.Register(registerInput("a@example.com", "중개사A", "1111111111"))
	require.NoError(t, err)
	f.verifyEmail(t, "b@example.com")
	_, _, err = f.service.Register(registerInput("b@example.com", "중개사B", "1111111111"))
	require.NoError(t, err)

	taken := "중개사B"
	_, err = f.service.UpdateProfile(userA.ID, ProfileInput{Nickname: &taken})
	assert.True(t, apperrors.IsConflict(err))

	name := "김철수"
	phone := "010-9876-5432"
	updated, err := f.service.UpdateProfile(userA.ID, ProfileInput{Name: &name, Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, name, updated.Name)
	assert.Equal(t, "01098765432", updated.Phone)
}
