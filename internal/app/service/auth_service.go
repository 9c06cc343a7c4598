package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ikkim/budongsan-crm/internal/app/authz"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/pkg/logger"
	"github.com/ikkim/budongsan-crm/pkg/util"
	"gorm.io/gorm"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
	ErrAccountNotFound    = errors.New("no withdrawn account matches")
	ErrTokenRevoked       = errors.New("token has been revoked")
)

// EmailSender 인증코드 메일 발송. *util.Mailer 가 구현한다.
type EmailSender interface {
	SendVerificationCode(to, code string) error
}

// BusinessChecker 국세청 사업자 진위확인. *util.BusinessVerifier 가 구현한다.
type BusinessChecker interface {
	Verify(ctx context.Context, businessNumber, startDate, representativeName string) (*util.BusinessVerificationResult, error)
}

// TokenRevoker 로그아웃된 토큰 목록. *redis.TokenBlacklist 가 구현한다.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, ttl time.Duration) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

type AuthConfig struct {
	JWTSecret     string
	AccessExpiry  time.Duration
	RefreshExpiry time.Duration
	CodeTTL       time.Duration // 인증코드 유효시간
	VerifiedTTL   time.Duration // 인증 완료 표시 유효시간
}

// RegisterInput 회원가입 입력. Level 은 받더라도 무시하고 서버에서 결정한다.
type RegisterInput struct {
	Email              string
	Password           string
	Name               string
	Nickname           string
	Phone              string
	BusinessNumber     string
	CreateCompany      bool // 새 회사로 가입 (이미 있으면 DuplicateBusinessNumber)
	CompanyName        string
	RepresentativeName string
	BusinessStartDate  string
	CompanyAddress     string
	CompanyPhone       string
	Level              int
}

type ProfileInput struct {
	Name     *string
	Nickname *string
	Phone    *string
}

// BusinessNumberCheck 사업자번호 조회 결과. CompanyExists 면 기존 회사에 합류한다.
type BusinessNumberCheck struct {
	BusinessNumber string `json:"business_number"`
	CompanyExists  bool   `json:"company_exists"`
	CompanyName    string `json:"company_name,omitempty"`
}

type AuthService interface {
	SendEmailCode(email string) error
	VerifyEmailCode(email, code string) error
	CheckNickname(nickname string) (bool, error)
	CheckEmail(email string) (bool, error)
	CheckBusinessNumber(raw string) (*BusinessNumberCheck, error)
	Register(input RegisterInput) (*model.User, *util.TokenPair, error)
	Login(email, password string) (*model.User, *util.TokenPair, error)
	Refresh(refreshToken string) (*util.TokenPair, error)
	Logout(access *util.Claims, refreshToken string) error
	GetUserByID(id uint) (*model.User, error)
	UpdateProfile(userID uint, input ProfileInput) (*model.User, error)
	Withdraw(userID uint, password string) error
	Restore(email, businessNumber, password string) (*model.User, *util.TokenPair, error)
}

type authService struct {
	db          *gorm.DB
	userRepo    repository.UserRepository
	companyRepo repository.CompanyRepository
	codes       util.CodeStore
	mailer      EmailSender
	verifier    BusinessChecker
	revoker     TokenRevoker
	cfg         AuthConfig
}

// NewAuthService revoker 가 nil 이면 로그아웃은 클라이언트 토큰 삭제에만 의존한다.
func NewAuthService(
	db *gorm.DB,
	userRepo repository.UserRepository,
	companyRepo repository.CompanyRepository,
	codes util.CodeStore,
	mailer EmailSender,
	verifier BusinessChecker,
	revoker TokenRevoker,
	cfg AuthConfig,
) AuthService {
	if cfg.CodeTTL == 0 {
		cfg.CodeTTL = 5 * time.Minute
	}
	if cfg.VerifiedTTL == 0 {
		cfg.VerifiedTTL = 30 * time.Minute
	}
	return &authService{
		db:          db,
		userRepo:    userRepo,
		companyRepo: companyRepo,
		codes:       codes,
		mailer:      mailer,
		verifier:    verifier,
		revoker:     revoker,
		cfg:         cfg,
	}
}

func codeKey(email string) string     { return "email_code:" + email }
func verifiedKey(email string) string { return "email_verified:" + email }

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *authService) issueTokens(user *model.User) (*util.TokenPair, error) {
	tokens, err := util.GenerateTokenPair(
		user.ID,
		user.Email,
		user.Level,
		user.BusinessNumber,
		s.cfg.JWTSecret,
		s.cfg.AccessExpiry,
		s.cfg.RefreshExpiry,
	)
	if err != nil {
		logger.Error("Failed to generate tokens", err, map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, err
	}
	return tokens, nil
}

// SendEmailCode 6자리 인증코드를 저장하고 메일로 보낸다.
func (s *authService) SendEmailCode(email string) error {
	email = normalizeEmail(email)
	if !strings.Contains(email, "@") {
		return apperrors.NewValidationError("email", apperrors.ValidationInvalidFormat, "이메일 형식이 올바르지 않습니다")
	}

	code, err := util.GenerateVerificationCode()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.codes.Set(ctx, codeKey(email), code, s.cfg.CodeTTL); err != nil {
		logger.Error("Failed to store email code", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	if err := s.mailer.SendVerificationCode(email, code); err != nil {
		logger.Error("Failed to send email code", err, map[string]interface{}{
			"email": email,
		})
		return err
	}

	logger.Info("Email verification code sent", map[string]interface{}{
		"email": email,
	})
	return nil
}

func (s *authService) VerifyEmailCode(email, code string) error {
	email = normalizeEmail(email)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stored, err := s.codes.Get(ctx, codeKey(email))
	if err != nil {
		if errors.Is(err, util.ErrCodeNotFound) {
			return apperrors.NewValidationError("code", apperrors.AuthCodeExpired, "인증코드가 만료되었습니다. 다시 요청해주세요")
		}
		return err
	}
	if stored != strings.TrimSpace(code) {
		logger.Warn("Email code mismatch", map[string]interface{}{
			"email": email,
		})
		return apperrors.NewValidationError("code", apperrors.AuthCodeInvalid, "인증코드가 일치하지 않습니다")
	}

	if err := s.codes.Delete(ctx, codeKey(email)); err != nil {
		return err
	}
	return s.codes.Set(ctx, verifiedKey(email), "1", s.cfg.VerifiedTTL)
}

// CheckNickname 사용 가능하면 true
func (s *authService) CheckNickname(nickname string) (bool, error) {
	exists, err := s.userRepo.ExistsByNickname(strings.TrimSpace(nickname))
	return !exists, err
}

// CheckEmail 사용 가능하면 true
func (s *authService) CheckEmail(email string) (bool, error) {
	exists, err := s.userRepo.ExistsByEmail(normalizeEmail(email))
	return !exists, err
}

func (s *authService) CheckBusinessNumber(raw string) (*BusinessNumberCheck, error) {
	businessNumber, ok := util.NormalizeBusinessNumber(raw)
	if !ok {
		return nil, apperrors.NewValidationError("business_number", apperrors.ValidationInvalidFormat, "사업자등록번호는 10자리 숫자입니다")
	}

	company, err := s.companyRepo.FindByBusinessNumber(businessNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &BusinessNumberCheck{BusinessNumber: businessNumber}, nil
		}
		return nil, err
	}
	return &BusinessNumberCheck{
		BusinessNumber: businessNumber,
		CompanyExists:  true,
		CompanyName:    company.Name,
	}, nil
}

func (s *authService) validateRegistration(input *RegisterInput) error {
	input.Email = normalizeEmail(input.Email)
	input.Name = strings.TrimSpace(input.Name)
	input.Nickname = strings.TrimSpace(input.Nickname)

	switch {
	case !strings.Contains(input.Email, "@"):
		return apperrors.NewValidationError("email", apperrors.ValidationInvalidFormat, "이메일 형식이 올바르지 않습니다")
	case input.Name == "":
		return apperrors.NewValidationError("name", apperrors.ValidationRequired, "이름을 입력해주세요")
	case input.Nickname == "":
		return apperrors.NewValidationError("nickname", apperrors.ValidationRequired, "닉네임을 입력해주세요")
	}

	if err := util.ValidatePasswordStrength(input.Password); err != nil {
		return apperrors.NewValidationError("password", apperrors.AuthWeakPassword, "비밀번호는 8자 이상이며 영문과 숫자를 모두 포함해야 합니다")
	}

	if input.Phone != "" {
		phone, ok := util.NormalizePhone(input.Phone)
		if !ok {
			return apperrors.NewValidationError("phone", apperrors.AuthInvalidPhone, "휴대폰 번호 형식이 올바르지 않습니다")
		}
		input.Phone = phone
	}

	businessNumber, ok := util.NormalizeBusinessNumber(input.BusinessNumber)
	if !ok {
		return apperrors.NewValidationError("business_number", apperrors.ValidationInvalidFormat, "사업자등록번호는 10자리 숫자입니다")
	}
	input.BusinessNumber = businessNumber
	return nil
}

// Register 레벨은 회사 행 생성 성공 여부로만 결정된다. 최초 가입자는 10, 나머지는 1.
func (s *authService) Register(input RegisterInput) (*model.User, *util.TokenPair, error) {
	logger.Info("Attempting user registration", map[string]interface{}{
		"email":           input.Email,
		"business_number": input.BusinessNumber,
		"create_company":  input.CreateCompany,
	})

	if input.Level != 0 {
		logger.Warn("Client supplied level ignored", map[string]interface{}{
			"email": input.Email,
			"level": input.Level,
		})
	}

	if err := s.validateRegistration(&input); err != nil {
		return nil, nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if _, err := s.codes.Get(ctx, verifiedKey(input.Email)); err != nil {
		if errors.Is(err, util.ErrCodeNotFound) {
			return nil, nil, apperrors.NewValidationError("email", apperrors.AuthEmailNotVerified, "이메일 인증을 먼저 완료해주세요")
		}
		return nil, nil, err
	}

	if exists, err := s.userRepo.ExistsByEmail(input.Email); err != nil {
		return nil, nil, err
	} else if exists {
		logger.Warn("Registration failed: email already exists", map[string]interface{}{
			"email": input.Email,
		})
		return nil, nil, apperrors.NewConflictError(apperrors.AuthDuplicateEmail, "이미 사용 중인 이메일입니다")
	}
	if exists, err := s.userRepo.ExistsByNickname(input.Nickname); err != nil {
		return nil, nil, err
	} else if exists {
		return nil, nil, apperrors.NewConflictError(apperrors.AuthDuplicateNickname, "이미 사용 중인 닉네임입니다")
	}

	companyExists, err := s.companyRepo.Exists(input.BusinessNumber)
	if err != nil {
		return nil, nil, err
	}
	if companyExists && input.CreateCompany {
		logger.Warn("Registration failed: company already registered", map[string]interface{}{
			"business_number": input.BusinessNumber,
		})
		return nil, nil, apperrors.NewConflictError(apperrors.AuthDuplicateBusinessNumber, "이미 등록된 사업자번호입니다. 기존 회사로 가입해주세요")
	}

	var company *model.Company
	if !companyExists {
		result, err := s.verifier.Verify(ctx, input.BusinessNumber, input.BusinessStartDate, input.RepresentativeName)
		if err != nil {
			logger.Error("Business verification request failed", err, map[string]interface{}{
				"business_number": input.BusinessNumber,
			})
			return nil, nil, err
		}
		if !result.IsValid {
			return nil, nil, apperrors.NewValidationError("business_number", apperrors.AuthBusinessNotVerified, "사업자 정보를 확인할 수 없습니다: "+result.Message)
		}

		verifiedAt := time.Now()
		company = &model.Company{
			BusinessNumber:     input.BusinessNumber,
			Name:               input.CompanyName,
			RepresentativeName: input.RepresentativeName,
			BusinessStartDate:  input.BusinessStartDate,
			Address:            input.CompanyAddress,
			Phone:              input.CompanyPhone,
			IsVerified:         true,
			VerifiedAt:         &verifiedAt,
		}
		if company.Name == "" {
			company.Name = util.FormatBusinessNumber(input.BusinessNumber)
		}
	}

	hashedPassword, err := util.HashPassword(input.Password)
	if err != nil {
		return nil, nil, err
	}

	user := &model.User{
		Email:          input.Email,
		PasswordHash:   hashedPassword,
		Name:           input.Name,
		Nickname:       input.Nickname,
		Phone:          input.Phone,
		BusinessNumber: input.BusinessNumber,
	}

	err = runInTx(s.db, "register", func(tx *gorm.DB) error {
		founder := false
		companyRepo := s.companyRepo.WithTx(tx)

		if company != nil {
			// 동시에 같은 번호로 가입하면 먼저 회사 행을 만든 쪽만 최초 가입자가 된다
			if err := tx.SavePoint("company").Error; err != nil {
				return err
			}
			err := companyRepo.Create(company)
			switch {
			case err == nil:
				founder = true
			case errors.Is(err, gorm.ErrDuplicatedKey):
				if err := tx.RollbackTo("company").Error; err != nil {
					return err
				}
				logger.Info("Company created concurrently, joining as member", map[string]interface{}{
					"business_number": input.BusinessNumber,
				})
			default:
				return err
			}
		}

		user.Level = authz.RegistrationLevel(!founder)
		user.IsFirstRegistrant = founder

		if err := s.userRepo.WithTx(tx).Create(user); err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				if strings.Contains(err.Error(), "nickname") {
					return apperrors.NewConflictError(apperrors.AuthDuplicateNickname, "이미 사용 중인 닉네임입니다")
				}
				return apperrors.NewConflictError(apperrors.AuthDuplicateEmail, "이미 사용 중인 이메일입니다")
			}
			return err
		}

		if founder {
			company.FounderUserID = &user.ID
			return companyRepo.Update(company)
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}

	if err := s.codes.Delete(ctx, verifiedKey(input.Email)); err != nil {
		logger.Warn("Failed to clear email verification mark", map[string]interface{}{
			"email": input.Email,
			"error": err.Error(),
		})
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User registered successfully", map[string]interface{}{
		"user_id":          user.ID,
		"level":            user.Level,
		"first_registrant": user.IsFirstRegistrant,
	})
	return user, tokens, nil
}

func (s *authService) Login(email, password string) (*model.User, *util.TokenPair, error) {
	email = normalizeEmail(email)
	logger.Info("Login attempt", map[string]interface{}{
		"email": email,
	})

	user, err := s.userRepo.FindByEmail(email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Login failed: user not found", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrInvalidCredentials
		}
		return nil, nil, err
	}

	if !util.VerifyPassword(user.PasswordHash, password) {
		logger.Warn("Login failed: invalid password", map[string]interface{}{
			"user_id": user.ID,
		})
		return nil, nil, ErrInvalidCredentials
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User logged in successfully", map[string]interface{}{
		"user_id": user.ID,
		"level":   user.Level,
	})
	return user, tokens, nil
}

func (s *authService) isRevoked(ctx context.Context, claims *util.Claims) (bool, error) {
	if s.revoker == nil || claims.ID == "" {
		return false, nil
	}
	return s.revoker.IsRevoked(ctx, claims.ID)
}

func (s *authService) revoke(ctx context.Context, claims *util.Claims) error {
	if s.revoker == nil || claims.ID == "" {
		return nil
	}
	ttl := claims.TokenTTL()
	if ttl <= 0 {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, ttl)
}

// Refresh 새 토큰 쌍을 발급하고 사용한 refresh 토큰은 폐기한다. 레벨은 DB 에서 다시 읽는다.
func (s *authService) Refresh(refreshToken string) (*util.TokenPair, error) {
	claims, err := util.ValidateToken(refreshToken, s.cfg.JWTSecret)
	if err != nil {
		return nil, err
	}
	if claims.TokenType != util.TokenTypeRefresh {
		return nil, util.ErrInvalidToken
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	revoked, err := s.isRevoked(ctx, claims)
	if err != nil {
		return nil, err
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	user, err := s.GetUserByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if err := s.revoke(ctx, claims); err != nil {
		logger.Warn("Failed to revoke used refresh token", map[string]interface{}{
			"user_id": user.ID,
			"error":   err.Error(),
		})
	}
	return s.issueTokens(user)
}

// Logout access 토큰(과 전달된 refresh 토큰)을 만료 시각까지 폐기한다.
func (s *authService) Logout(access *util.Claims, refreshToken string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := s.revoke(ctx, access); err != nil {
		logger.Error("Failed to revoke access token", err, map[string]interface{}{
			"user_id": access.UserID,
		})
		return err
	}
	if refreshToken != "" {
		if claims, err := util.ValidateToken(refreshToken, s.cfg.JWTSecret); err == nil && claims.UserID == access.UserID {
			if err := s.revoke(ctx, claims); err != nil {
				return err
			}
		}
	}

	logger.Info("User logged out", map[string]interface{}{
		"user_id": access.UserID,
	})
	return nil
}

func (s *authService) GetUserByID(id uint) (*model.User, error) {
	user, err := s.userRepo.FindByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("User not found", map[string]interface{}{
				"user_id": id,
			})
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *authService) UpdateProfile(userID uint, input ProfileInput) (*model.User, error) {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, apperrors.NewValidationError("name", apperrors.ValidationRequired, "이름을 입력해주세요")
		}
		user.Name = name
	}
	if input.Nickname != nil {
		nickname := strings.TrimSpace(*input.Nickname)
		if nickname == "" {
			return nil, apperrors.NewValidationError("nickname", apperrors.ValidationRequired, "닉네임을 입력해주세요")
		}
		if nickname != user.Nickname {
			exists, err := s.userRepo.ExistsByNickname(nickname)
			if err != nil {
				return nil, err
			}
			if exists {
				return nil, apperrors.NewConflictError(apperrors.AuthDuplicateNickname, "이미 사용 중인 닉네임입니다")
			}
			user.Nickname = nickname
		}
	}
	if input.Phone != nil {
		if *input.Phone == "" {
			user.Phone = ""
		} else {
			phone, ok := util.NormalizePhone(*input.Phone)
			if !ok {
				return nil, apperrors.NewValidationError("phone", apperrors.AuthInvalidPhone, "휴대폰 번호 형식이 올바르지 않습니다")
			}
			user.Phone = phone
		}
	}

	if err := s.userRepo.Update(user); err != nil {
		return nil, err
	}

	logger.Info("User profile updated", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, nil
}

// Withdraw 소프트 삭제. 같은 이메일과 사업자번호로 복구할 수 있다.
func (s *authService) Withdraw(userID uint, password string) error {
	user, err := s.GetUserByID(userID)
	if err != nil {
		return err
	}
	if !util.VerifyPassword(user.PasswordHash, password) {
		return ErrInvalidCredentials
	}
	if err := s.userRepo.Delete(userID); err != nil {
		return err
	}

	logger.Info("User withdrew", map[string]interface{}{
		"user_id": userID,
	})
	return nil
}

func (s *authService) Restore(email, businessNumber, password string) (*model.User, *util.TokenPair, error) {
	email = normalizeEmail(email)
	normalized, ok := util.NormalizeBusinessNumber(businessNumber)
	if !ok {
		return nil, nil, apperrors.NewValidationError("business_number", apperrors.ValidationInvalidFormat, "사업자등록번호는 10자리 숫자입니다")
	}

	user, err := s.userRepo.FindDeletedByEmailAndBusinessNumber(email, normalized)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Warn("Restore failed: no withdrawn account", map[string]interface{}{
				"email": email,
			})
			return nil, nil, ErrAccountNotFound
		}
		return nil, nil, err
	}
	if !util.VerifyPassword(user.PasswordHash, password) {
		return nil, nil, ErrInvalidCredentials
	}

	if err := s.userRepo.Restore(user.ID); err != nil {
		return nil, nil, err
	}
	user.DeletedAt = gorm.DeletedAt{}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return nil, nil, err
	}

	logger.Info("User restored", map[string]interface{}{
		"user_id": user.ID,
	})
	return user, tokens, nil
}
