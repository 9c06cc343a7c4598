// Package authz holds every level and company-scope check used by the services.
// Each predicate returns nil when allowed and an *errors.AuthorizationError
// naming the failed rule otherwise.
package authz

import (
	"github.com/ikkim/budongsan-crm/internal/app/model"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
)

// 규칙 이름. AuthorizationError.Rule 로 전달된다.
const (
	RuleViewMembers          = "can_view_members"
	RuleCreateContract       = "can_create_contract"
	RuleManageContract       = "can_manage_contract"
	RuleChangeUserLevel      = "can_change_user_level"
	RuleSelectCustomer       = "can_select_customer"
	RuleDeactivateLockedCust = "can_deactivate_locked_customer"
	RuleDeleteDirectoryEntry = "can_delete_directory_entry"
	RuleViewActivity         = "can_view_activity"
	RuleSameCompany          = "same_company"
)

func deny(rule, code, message string) error {
	return apperrors.NewAuthorizationError(rule, code, message)
}

// SameCompany requires the actor to belong to the given business number.
func SameCompany(actor *model.User, businessNumber string) error {
	if actor.BusinessNumber != businessNumber {
		return deny(RuleSameCompany, apperrors.AuthzOtherCompany, "다른 회사의 데이터에는 접근할 수 없습니다")
	}
	return nil
}

// CanViewMembers 레벨 2 이상
func CanViewMembers(actor *model.User) error {
	if actor.Level < model.LevelStaff {
		return deny(RuleViewMembers, apperrors.AuthzLevelTooLow, "멤버 목록을 볼 수 있는 권한이 없습니다")
	}
	return nil
}

// CanCreateContract 레벨 2 이상
func CanCreateContract(actor *model.User) error {
	if actor.Level < model.LevelStaff {
		return deny(RuleCreateContract, apperrors.AuthzLevelTooLow, "계약을 등록할 수 있는 권한이 없습니다")
	}
	return nil
}

// IsContractParty reports whether the actor is the agent or the member account
// linked to the buyer or seller. The creator alone is not a party. Buyer and Seller
// must be preloaded for the customer links to count.
func IsContractParty(actor *model.User, contract *model.Contract) bool {
	if contract.AgentID == actor.ID {
		return true
	}
	for _, party := range []*model.Customer{contract.Buyer, contract.Seller} {
		if party != nil && party.UserID != nil && *party.UserID == actor.ID {
			return true
		}
	}
	return false
}

// CanManageContract gates edit and delete: same company, and either level 5+ or
// a contract party who is at least staff.
func CanManageContract(actor *model.User, contract *model.Contract) error {
	if err := SameCompany(actor, contract.BusinessNumber); err != nil {
		return deny(RuleManageContract, apperrors.AuthzOtherCompany, "다른 회사의 계약은 수정하거나 삭제할 수 없습니다")
	}
	if actor.Level >= model.LevelManager {
		return nil
	}
	if actor.Level >= model.LevelStaff && IsContractParty(actor, contract) {
		return nil
	}
	return deny(RuleManageContract, apperrors.AuthzLevelTooLow, "계약을 수정하거나 삭제할 수 있는 권한이 없습니다")
}

// CanChangeUserLevel 요청자는 레벨 5 이상이어야 하고, 대상의 현재 레벨과
// 요청 레벨 모두 요청자 레벨보다 낮아야 한다.
func CanChangeUserLevel(actor, target *model.User, requestedLevel int) error {
	switch {
	case actor.Level < model.LevelManager:
		return deny(RuleChangeUserLevel, apperrors.AuthzLevelTooLow, "레벨을 변경할 수 있는 권한이 없습니다")
	case target.Level >= actor.Level:
		return deny(RuleChangeUserLevel, apperrors.AuthzLevelTooLow, "본인보다 높거나 같은 레벨의 회원은 변경할 수 없습니다")
	case requestedLevel >= actor.Level:
		return deny(RuleChangeUserLevel, apperrors.AuthzLevelTooLow, "본인 레벨 이상으로는 변경할 수 없습니다")
	case requestedLevel < model.LevelMember:
		return deny(RuleChangeUserLevel, apperrors.AuthzForbidden, "레벨은 1 이상이어야 합니다")
	}
	return nil
}

// CanSelectCustomer 계약 당사자로 고객을 선택할 수 있는지 확인한다.
// 시스템 관리자는 다른 회사의 고객도 선택할 수 있다.
func CanSelectCustomer(actor *model.User, customer *model.Customer) error {
	if actor.Level <= model.LevelStaff {
		return deny(RuleSelectCustomer, apperrors.AuthzLevelTooLow, "고객을 선택할 수 있는 권한이 없습니다")
	}
	if !customer.IsActive() {
		return deny(RuleSelectCustomer, apperrors.AuthzForbidden, "비활성 고객은 선택할 수 없습니다")
	}
	if actor.Level < model.LevelSystemAdmin && customer.BusinessNumber != actor.BusinessNumber {
		return deny(RuleSelectCustomer, apperrors.AuthzOtherCompany, "다른 회사의 고객은 선택할 수 없습니다")
	}
	return nil
}

// CanDeactivateLockedCustomer 잠긴 고객 비활성화는 시스템 관리자만
func CanDeactivateLockedCustomer(actor *model.User) error {
	if actor.Level < model.LevelSystemAdmin {
		return deny(RuleDeactivateLockedCust, apperrors.AuthzLevelTooLow, "잠긴 고객은 시스템 관리자만 비활성화할 수 있습니다")
	}
	return nil
}

// CanDeleteDirectoryEntry 고객/매물 삭제는 레벨 5 이상
func CanDeleteDirectoryEntry(actor *model.User) error {
	if actor.Level < model.LevelManager {
		return deny(RuleDeleteDirectoryEntry, apperrors.AuthzLevelTooLow, "삭제 권한이 없습니다")
	}
	return nil
}

// CanViewActivity 활동 로그 조회는 레벨 5 이상
func CanViewActivity(actor *model.User) error {
	if actor.Level < model.LevelManager {
		return deny(RuleViewActivity, apperrors.AuthzLevelTooLow, "활동 로그를 볼 수 있는 권한이 없습니다")
	}
	return nil
}

// RegistrationLevel is decided on the server only. Whatever level the client sent is ignored.
func RegistrationLevel(companyExists bool) int {
	if companyExists {
		return model.LevelMember
	}
	return model.LevelOwner
}
