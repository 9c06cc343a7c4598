package errors

// 에러 코드 상수 정의
// 형식: CATEGORY_SPECIFIC_DETAIL
// 프론트엔드에서 이 코드를 기반으로 메시지를 매핑함

const (
	// ==================== 인증 (AUTH_) ====================
	AuthUnauthorized            = "AUTH_UNAUTHORIZED"              // 로그인 필요
	AuthInvalidCredentials      = "AUTH_INVALID_CREDENTIALS"       // 잘못된 이메일/비밀번호
	AuthTokenExpired            = "AUTH_TOKEN_EXPIRED"             // 토큰 만료
	AuthTokenInvalid            = "AUTH_TOKEN_INVALID"             // 잘못된 토큰
	AuthTokenRevoked            = "AUTH_TOKEN_REVOKED"             // 로그아웃된 토큰
	AuthDuplicateEmail          = "AUTH_DUPLICATE_EMAIL"           // 이메일 중복
	AuthDuplicateNickname       = "AUTH_DUPLICATE_NICKNAME"        // 닉네임 중복
	AuthDuplicateBusinessNumber = "AUTH_DUPLICATE_BUSINESS_NUMBER" // 이미 등록된 회사
	AuthWeakPassword            = "AUTH_WEAK_PASSWORD"             // 비밀번호 규칙 미충족
	AuthInvalidPhone            = "AUTH_INVALID_PHONE"             // 휴대폰 번호 형식 오류
	AuthEmailNotVerified        = "AUTH_EMAIL_NOT_VERIFIED"        // 이메일 미인증
	AuthCodeInvalid             = "AUTH_CODE_INVALID"              // 잘못된 인증코드
	AuthCodeExpired             = "AUTH_CODE_EXPIRED"              // 인증코드 만료
	AuthBusinessNotVerified     = "AUTH_BUSINESS_NOT_VERIFIED"     // 국세청 사업자 확인 실패
	AuthAccountNotFound         = "AUTH_ACCOUNT_NOT_FOUND"         // 복구할 계정 없음

	// ==================== 인가/권한 (AUTHZ_) ====================
	AuthzForbidden    = "AUTHZ_FORBIDDEN"     // 접근 권한 없음
	AuthzLevelTooLow  = "AUTHZ_LEVEL_TOO_LOW" // 등급 부족
	AuthzOtherCompany = "AUTHZ_OTHER_COMPANY" // 다른 회사 데이터

	// ==================== 검증 (VALIDATION_) ====================
	ValidationInvalidInput  = "VALIDATION_INVALID_INPUT"  // 잘못된 입력
	ValidationInvalidID     = "VALIDATION_INVALID_ID"     // 잘못된 ID
	ValidationInvalidFormat = "VALIDATION_INVALID_FORMAT" // 잘못된 형식
	ValidationInvalidRange  = "VALIDATION_INVALID_RANGE"  // 범위 초과
	ValidationRequired      = "VALIDATION_REQUIRED"       // 필수 항목

	// ==================== 리소스 (RESOURCE_) ====================
	ResourceNotFound      = "RESOURCE_NOT_FOUND"      // 리소스 없음
	ResourceAlreadyExists = "RESOURCE_ALREADY_EXISTS" // 이미 존재
	ResourceConflict      = "RESOURCE_CONFLICT"       // 충돌
	ResourceInUse         = "RESOURCE_IN_USE"         // 참조 중이라 삭제 불가

	// ==================== 계약 (CONTRACT_) ====================
	ContractNotFound          = "CONTRACT_NOT_FOUND"           // 계약 없음
	ContractCompleted         = "CONTRACT_COMPLETED"           // 완료된 계약은 수정 불가
	ContractOwnershipConflict = "CONTRACT_OWNERSHIP_CONFLICT"  // 소유권 이전 충돌
	ContractAlreadyTransfer   = "CONTRACT_ALREADY_TRANSFERRED" // 이미 소유권 이전된 계약

	// ==================== 고객/매물 (CUSTOMER_, PROPERTY_) ====================
	CustomerNotFound     = "CUSTOMER_NOT_FOUND"     // 고객 없음
	CustomerInactive     = "CUSTOMER_INACTIVE"      // 비활성 고객
	PropertyNotFound     = "PROPERTY_NOT_FOUND"     // 매물 없음
	ScheduleNotFound     = "SCHEDULE_NOT_FOUND"     // 일정 없음
	MemberNotFound       = "MEMBER_NOT_FOUND"       // 회원 없음
	NotificationNotFound = "NOTIFICATION_NOT_FOUND" // 알림 없음

	// ==================== 구독 (SUBSCRIPTION_) ====================
	SubscriptionNotFound      = "SUBSCRIPTION_NOT_FOUND"      // 구독 없음
	SubscriptionAlreadyActive = "SUBSCRIPTION_ALREADY_ACTIVE" // 이미 구독 중
	SubscriptionPaymentFailed = "SUBSCRIPTION_PAYMENT_FAILED" // 결제 실패

	// ==================== 업로드 (UPLOAD_) ====================
	UploadInvalidFileType = "UPLOAD_INVALID_FILE_TYPE" // 잘못된 파일 형식
	UploadFailed          = "UPLOAD_FAILED"            // 업로드 실패

	// ==================== 요청 제한 ====================
	RateLimitExceeded = "RATE_LIMIT_EXCEEDED" // 요청 과다

	// ==================== 내부 오류 (INTERNAL_) ====================
	InternalServerError   = "INTERNAL_SERVER_ERROR"   // 서버 오류
	InternalDatabaseError = "INTERNAL_DATABASE_ERROR" // DB 오류
	InternalExternalAPI   = "INTERNAL_EXTERNAL_API"   // 외부 API 오류
	InternalConfigError   = "INTERNAL_CONFIG_ERROR"   // 설정 오류
)
