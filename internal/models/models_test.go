package models

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestParticipantDisplayCode(t *testing.T) {
	id := uuid.MustParse("7f1c1b2e-8d7e-4c55-9e57-1a2b3c4d5e6f")
	tests := []struct {
		name string
		p    Participant
		want string
	}{
		{"unique id wins", Participant{ID: id, UniqueID: "DG-001", StudentID: "S-9"}, "DG-001"},
		{"student id fallback", Participant{ID: id, StudentID: "S-9"}, "S-9"},
		{"blank codes fall back to key", Participant{ID: id, UniqueID: "  ", StudentID: ""}, id.String()},
		{"nothing at all", Participant{}, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.p.DisplayCode())
		})
	}
}

func TestParticipantMedicalSummary(t *testing.T) {
	p := Participant{MedicalConditions: []string{"Asthma", " ", "Peanut allergy"}, MedicalNotes: "carries inhaler"}
	assert.Equal(t, "Asthma, Peanut allergy (carries inhaler)", p.MedicalSummary())

	assert.Equal(t, "", (&Participant{}).MedicalSummary())
	assert.Equal(t, "note only", (&Participant{MedicalNotes: "note only"}).MedicalSummary())
}

func TestParticipantIsPaid(t *testing.T) {
	amount := 100.0
	now := time.Now()
	assert.True(t, (&Participant{FeeStatus: FeeStatusPaid, FeePaidAmount: &amount, FeePaidAt: &now}).IsPaid())
	assert.False(t, (&Participant{FeeStatus: FeeStatusPaid, FeePaidAmount: &amount}).IsPaid())
	assert.False(t, (&Participant{FeeStatus: FeeStatusPending}).IsPaid())
}

func TestVolunteerDefaults(t *testing.T) {
	v := Volunteer{ID: uuid.New()}
	assert.Equal(t, v.ID.String(), v.DisplayCode())
	assert.Equal(t, "Volunteer", v.RoleLabel())

	v.VolunteerID = "VOL-014"
	v.PreferredRole = "Kitchen"
	assert.Equal(t, "VOL-014", v.DisplayCode())
	assert.Equal(t, "Kitchen", v.RoleLabel())
}

func TestStaffAccountValidate(t *testing.T) {
	tests := []struct {
		name    string
		account StaffAccount
		wantErr error
	}{
		{
			name:    "password account",
			account: StaffAccount{AuthMethod: AuthMethodPassword, EmailOrPhone: "ops", PasswordHash: "$2a$", Role: RoleOperator, Permissions: []string{ModuleUsers}},
		},
		{
			name:    "google account",
			account: StaffAccount{AuthMethod: AuthMethodGoogle, GoogleEmail: "a@b.com", Role: RoleStaff},
		},
		{
			name:    "mixed fields",
			account: StaffAccount{AuthMethod: AuthMethodGoogle, GoogleEmail: "a@b.com", PasswordHash: "x", Role: RoleStaff},
			wantErr: ErrAuthModeMixed,
		},
		{
			name:    "missing hash",
			account: StaffAccount{AuthMethod: AuthMethodPassword, EmailOrPhone: "ops", Role: RoleStaff},
			wantErr: ErrMissingPassword,
		},
		{
			name:    "unknown module",
			account: StaffAccount{AuthMethod: AuthMethodGoogle, GoogleEmail: "a@b.com", Role: RoleStaff, Permissions: []string{"billing"}},
			wantErr: ErrUnknownModule,
		},
		{
			name:    "unknown role",
			account: StaffAccount{AuthMethod: AuthMethodGoogle, GoogleEmail: "a@b.com", Role: "Owner"},
			wantErr: ErrUnknownRole,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.account.Validate()
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHasPermission(t *testing.T) {
	assert.True(t, HasPermission(RoleAdmin, nil, ModuleSettings))
	assert.True(t, HasPermission(RoleStaff, []string{ModuleUsers, ModuleAttendance}, ModuleUsers))
	assert.False(t, HasPermission(RoleStaff, []string{ModuleUsers, ModuleAttendance}, ModuleSettings))
}

func TestParseRole(t *testing.T) {
	r, ok := ParseRole(" operator ")
	assert.True(t, ok)
	assert.Equal(t, RoleOperator, r)

	_, ok = ParseRole("owner")
	assert.False(t, ok)
}

func TestCanGrant(t *testing.T) {
	assert.NoError(t, CanGrant(RoleAdmin, nil, RoleAdmin, AllModules()))
	assert.NoError(t, CanGrant(RoleOperator, []string{ModuleUsers}, RoleOperator, []string{ModuleUsers}))
	assert.NoError(t, CanGrant(RoleOperator, []string{ModuleUsers}, RoleStaff, nil))
	assert.ErrorIs(t, CanGrant(RoleOperator, AllModules(), RoleAdmin, nil), ErrGrantExceedsCaller)
	assert.ErrorIs(t, CanGrant(RoleStaff, []string{ModuleSettings}, RoleOperator, nil), ErrGrantExceedsCaller)
	assert.ErrorIs(t, CanGrant(RoleOperator, []string{ModuleUsers}, RoleStaff, []string{ModulePayment}), ErrGrantExceedsCaller)
	assert.ErrorIs(t, CanGrant("", nil, RoleStaff, nil), ErrGrantExceedsCaller)
}
