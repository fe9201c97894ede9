package models

import "testing"

func TestUser_HasPassword(t *testing.T) {
	empty := ""
	hash := "$2a$10$abcdefghijklmnopqrstuv"

	tests := []struct {
		name string
		user User
		want bool
	}{
		{"nil hash", User{}, false},
		{"empty hash", User{PasswordHash: &empty}, false},
		{"hash set", User{PasswordHash: &hash}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.user.HasPassword(); got != tt.want {
				t.Errorf("HasPassword() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRole_Valid(t *testing.T) {
	for _, r := range []Role{RoleOwner, RoleManager, RoleStaff} {
		if !r.Valid() {
			t.Errorf("Role(%q).Valid() = false, want true", r)
		}
	}
	for _, r := range []Role{"", "admin", "Owner"} {
		if r.Valid() {
			t.Errorf("Role(%q).Valid() = true, want false", r)
		}
	}
}

func TestMenuItem_HasTag(t *testing.T) {
	item := MenuItem{Tags: []string{"vegan", "spicy"}}
	if !item.HasTag("spicy") {
		t.Error("HasTag(spicy) = false, want true")
	}
	if item.HasTag("halal") {
		t.Error("HasTag(halal) = true, want false")
	}
}
