package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestUserHasRole(t *testing.T) {
	u := &User{Email: "c@city.gov", RoleName: RoleConductor}

	assert.True(t, u.HasRole(RoleConductor, RoleAdmin))
	assert.False(t, u.HasRole(RoleSuperAdmin))
	assert.False(t, u.HasRole())

	var anon *User
	assert.False(t, anon.HasRole(RoleConductor))
}

func TestOpportunityIsPublished(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	past := now.Add(-24 * time.Hour)
	future := now.Add(24 * time.Hour)

	assert.True(t, Opportunity{IsPublic: true, PublishAt: &past}.IsPublished(now))
	assert.True(t, Opportunity{IsPublic: true, PublishAt: &now}.IsPublished(now))
	assert.False(t, Opportunity{IsPublic: true, PublishAt: &future}.IsPublished(now))
	assert.False(t, Opportunity{IsPublic: false, PublishAt: &past}.IsPublished(now))
	assert.False(t, Opportunity{IsPublic: true}.IsPublished(now))
}

func TestUserDisplayName(t *testing.T) {
	assert.Equal(t, "Ada", User{FirstName: "Ada", Email: "a@city.gov"}.DisplayName())
	assert.Equal(t, "a@city.gov", User{Email: "a@city.gov"}.DisplayName())
}
