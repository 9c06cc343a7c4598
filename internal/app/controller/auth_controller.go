package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/service"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/ikkim/budongsan-crm/internal/middleware"
)

type AuthController struct {
	authService service.AuthService
}

func NewAuthController(authService service.AuthService) *AuthController {
	return &AuthController{
		authService: authService,
	}
}

type SendEmailCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type VerifyEmailCodeRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// RegisterRequest level 필드는 받더라도 무시된다. 등급은 서버가 정한다.
type RegisterRequest struct {
	Email              string `json:"email" binding:"required,email"`
	Password           string `json:"password" binding:"required"`
	Name               string `json:"name" binding:"required"`
	Nickname           string `json:"nickname" binding:"required,min=2,max=20"`
	Phone              string `json:"phone"`
	BusinessNumber     string `json:"business_number" binding:"required"`
	CreateCompany      bool   `json:"create_company"`
	CompanyName        string `json:"company_name"`
	RepresentativeName string `json:"representative_name"`
	BusinessStartDate  string `json:"business_start_date"`
	CompanyAddress     string `json:"company_address"`
	CompanyPhone       string `json:"company_phone"`
	Level              int    `json:"level"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type UpdateProfileRequest struct {
	Name     *string `json:"name"`
	Nickname *string `json:"nickname"`
	Phone    *string `json:"phone"`
}

type WithdrawRequest struct {
	Password string `json:"password" binding:"required"`
}

type RestoreRequest struct {
	Email          string `json:"email" binding:"required,email"`
	BusinessNumber string `json:"business_number" binding:"required"`
	Password       string `json:"password" binding:"required"`
}

func userResponse(user *model.User) gin.H {
	return gin.H{
		"id":                  user.ID,
		"email":               user.Email,
		"name":                user.Name,
		"nickname":            user.Nickname,
		"phone":               user.Phone,
		"level":               user.Level,
		"business_number":     user.BusinessNumber,
		"is_first_registrant": user.IsFirstRegistrant,
		"is_premium":          user.IsPremium,
		"premium_expires_at":  user.PremiumExpiresAt,
	}
}

// SendEmailCode 이메일 인증코드 발송
// POST /api/v1/auth/email/send-code
func (ctrl *AuthController) SendEmailCode(c *gin.Context) {
	var req SendEmailCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid send code request")
		return
	}

	if err := ctrl.authService.SendEmailCode(req.Email); err != nil {
		respondError(c, err, "send email code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "인증코드를 발송했습니다",
	})
}

// VerifyEmailCode 이메일 인증코드 확인
// POST /api/v1/auth/email/verify
func (ctrl *AuthController) VerifyEmailCode(c *gin.Context) {
	var req VerifyEmailCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid verify code request")
		return
	}

	if err := ctrl.authService.VerifyEmailCode(req.Email, req.Code); err != nil {
		respondError(c, err, "verify email code")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message":  "이메일 인증이 완료되었습니다",
		"verified": true,
	})
}

// CheckNickname 닉네임 사용 가능 여부
// GET /api/v1/auth/check-nickname?nickname=
func (ctrl *AuthController) CheckNickname(c *gin.Context) {
	nickname := c.Query("nickname")
	if nickname == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "닉네임을 입력해주세요")
		return
	}

	available, err := ctrl.authService.CheckNickname(nickname)
	if err != nil {
		respondError(c, err, "check nickname")
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}

// CheckEmail 이메일 사용 가능 여부
// GET /api/v1/auth/check-email?email=
func (ctrl *AuthController) CheckEmail(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		apperrors.BadRequest(c, apperrors.ValidationRequired, "이메일을 입력해주세요")
		return
	}

	available, err := ctrl.authService.CheckEmail(email)
	if err != nil {
		respondError(c, err, "check email")
		return
	}

	c.JSON(http.StatusOK, gin.H{"available": available})
}

// CheckBusinessNumber 사업자번호로 등록된 회사가 있는지 확인
// GET /api/v1/auth/check-business-number?business_number=
func (ctrl *AuthController) CheckBusinessNumber(c *gin.Context) {
	result, err := ctrl.authService.CheckBusinessNumber(c.Query("business_number"))
	if err != nil {
		respondError(c, err, "check business number")
		return
	}

	c.JSON(http.StatusOK, result)
}

// Register handles user registration
// POST /api/v1/auth/register
func (ctrl *AuthController) Register(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid registration request")
		return
	}

	log.Debug("Processing registration", map[string]interface{}{
		"email":          req.Email,
		"nickname":       req.Nickname,
		"create_company": req.CreateCompany,
	})

	user, tokens, err := ctrl.authService.Register(service.RegisterInput{
		Email:              req.Email,
		Password:           req.Password,
		Name:               req.Name,
		Nickname:           req.Nickname,
		Phone:              req.Phone,
		BusinessNumber:     req.BusinessNumber,
		CreateCompany:      req.CreateCompany,
		CompanyName:        req.CompanyName,
		RepresentativeName: req.RepresentativeName,
		BusinessStartDate:  req.BusinessStartDate,
		CompanyAddress:     req.CompanyAddress,
		CompanyPhone:       req.CompanyPhone,
		Level:              req.Level,
	})
	if err != nil {
		respondError(c, err, "register user")
		return
	}

	log.Info("User registered successfully", map[string]interface{}{
		"user_id": user.ID,
		"level":   user.Level,
	})

	c.JSON(http.StatusCreated, gin.H{
		"message": "회원가입이 완료되었습니다",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// Login handles user login
// POST /api/v1/auth/login
func (ctrl *AuthController) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid login request")
		return
	}

	user, tokens, err := ctrl.authService.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err, "login")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "로그인되었습니다",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}

// RefreshToken 사용한 refresh 토큰은 폐기되고 새 토큰 쌍을 발급한다
// POST /api/v1/auth/refresh
func (ctrl *AuthController) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid refresh request")
		return
	}

	tokens, err := ctrl.authService.Refresh(req.RefreshToken)
	if err != nil {
		respondError(c, err, "refresh token")
		return
	}

	c.JSON(http.StatusOK, gin.H{"tokens": tokens})
}

// Logout 현재 access 토큰과 전달된 refresh 토큰을 폐기한다
// POST /api/v1/auth/logout
func (ctrl *AuthController) Logout(c *gin.Context) {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		apperrors.Unauthorized(c, "로그인이 필요합니다")
		return
	}

	var req LogoutRequest
	_ = c.ShouldBindJSON(&req)

	if err := ctrl.authService.Logout(claims, req.RefreshToken); err != nil {
		respondError(c, err, "logout")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "로그아웃되었습니다"})
}

// GetMe returns current user information
// GET /api/v1/auth/me
func (ctrl *AuthController) GetMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userResponse(user)})
}

// UpdateMe 이름/닉네임/휴대폰 수정
// PUT /api/v1/auth/me
func (ctrl *AuthController) UpdateMe(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid profile update request")
		return
	}

	updated, err := ctrl.authService.UpdateProfile(user.ID, service.ProfileInput{
		Name:     req.Name,
		Nickname: req.Nickname,
		Phone:    req.Phone,
	})
	if err != nil {
		respondError(c, err, "update user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "회원 정보가 수정되었습니다",
		"user":    userResponse(updated),
	})
}

// Withdraw 회원 탈퇴 (소프트 삭제)
// DELETE /api/v1/auth/me
func (ctrl *AuthController) Withdraw(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}

	var req WithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid withdraw request")
		return
	}

	if err := ctrl.authService.Withdraw(user.ID, req.Password); err != nil {
		respondError(c, err, "withdraw user")
		return
	}

	if claims, ok := middleware.GetClaims(c); ok {
		if err := ctrl.authService.Logout(claims, ""); err != nil {
			middleware.GetLoggerFromContext(c).Warn("Failed to revoke token after withdraw", map[string]interface{}{
				"user_id": user.ID,
				"error":   err.Error(),
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{"message": "탈퇴 처리되었습니다"})
}

// Restore 탈퇴한 계정 복구 (이메일 + 사업자번호 + 비밀번호)
// POST /api/v1/auth/restore
func (ctrl *AuthController) Restore(c *gin.Context) {
	var req RestoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err, "Invalid restore request")
		return
	}

	user, tokens, err := ctrl.authService.Restore(req.Email, req.BusinessNumber, req.Password)
	if err != nil {
		respondError(c, err, "restore user")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "계정이 복구되었습니다",
		"user":    userResponse(user),
		"tokens":  tokens,
	})
}
