package service

import (
	"testing"

	"github.com/ikkim/budongsan-crm/internal/app/model"
	"github.com/ikkim/budongsan-crm/internal/app/repository"
	apperrors "github.com/ikkim/budongsan-crm/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMemberServiceTest(t *testing.T) (MemberService, *contractFixture) {
	f := setupContractServiceTest(t)
	memberService := NewMemberService(
		f.db,
		repository.NewUserRepository(f.db),
		repository.NewActivityRepository(f.db),
		NewNotificationService(repository.NewNotificationRepository(f.db), nil),
	)
	return memberService, f
}

func TestMemberService_ListMembers(t *testing.T) {
	memberService, f := setupMemberServiceTest(t)
	createTestUser(t, f.db, "outsider@example.com", model.LevelOwner, otherBusinessNumber)

	_, err := memberService.ListMembers(f.member)
	require.Error(t, err)
	assert.True(t, apperrors.IsAuthorization(err))

	members, err := memberService.ListMembers(f.staff)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, f.owner.ID, members[0].ID)
	for _, m := range members {
		assert.Equal(t, testBusinessNumber, m.BusinessNumber)
	}
}

func TestMemberService_ChangeLevel(t *testing.T) {
	memberService, f := setupMemberServiceTest(t)

	updated, err := memberService.ChangeLevel(f.owner, f.member.ID, model.LevelManager)
	require.NoError(t, err)
	assert.Equal(t, model.LevelManager, updated.Level)

	var stored model.User
	require.NoError(t, f.db.First(&stored, f.member.ID).Error)
	assert.Equal(t, model.LevelManager, stored.Level)

	var notifications []model.Notification
	require.NoError(t, f.db.Where("user_id = ?", f.member.ID).Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, model.NotificationTypeLevelChanged, notifications[0].Type)

	var activities int64
	f.db.Model(&model.ActivityLog{}).Where("action = ?", model.ActivityMemberLevelChanged).Count(&activities)
	assert.Equal(t, int64(1), activities)
}

func TestMemberService_ChangeLevel_Guards(t *testing.T) {
	memberService, f := setupMemberServiceTest(t)
	manager := createTestUser(t, f.db, "manager@example.com", model.LevelManager, testBusinessNumber)
	outsider := createTestUser(t, f.db, "outsider@example.com", model.LevelMember, otherBusinessNumber)

	tests := []struct {
		name     string
		actor    *model.User
		targetID uint
		level    int
	}{
		{"member cannot change levels", f.member, f.staff.ID, model.LevelMember},
		{"staff cannot change levels", f.staff, f.member.ID, model.LevelStaff},
		{"cannot promote to own level", manager, f.member.ID, model.LevelManager},
		{"cannot touch higher level", manager, f.owner.ID, model.LevelMember},
		{"cannot set level below one", f.owner, f.member.ID, 0},
		{"other company", f.owner, outsider.ID, model.LevelStaff},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := memberService.ChangeLevel(tt.actor, tt.targetID, tt.level)
			require.Error(t, err)
			assert.True(t, apperrors.IsAuthorization(err), "got %v", err)
		})
	}

	_, err := memberService.ChangeLevel(f.owner, 9999, model.LevelStaff)
	assert.ErrorIs(t, err, ErrMemberNotFound)

	var stored model.User
	require.NoError(t, f.db.First(&stored, f.member.ID).Error)
	assert.Equal(t, model.LevelMember, stored.Level)
}

func TestMemberService_SystemAdminCrossesCompanies(t *testing.T) {
	memberService, f := setupMemberServiceTest(t)
	admin := createTestUser(t, f.db, "admin@example.com", model.LevelSystemAdmin, otherBusinessNumber)

	updated, err := memberService.ChangeLevel(admin, f.member.ID, model.LevelStaff)
	require.NoError(t, err)
	assert.Equal(t, model.LevelStaff, updated.Level)
}
