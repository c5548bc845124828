package rbac

import "testing"

func TestLevelsAreInjective(t *testing.T) {
	seen := make(map[int]Role)
	for _, role := range All() {
		level := Level(role)
		if level < 1 || level > 7 {
			t.Fatalf("role %s has out-of-range level %d", role, level)
		}
		if other, dup := seen[level]; dup {
			t.Fatalf("roles %s and %s share level %d", role, other, level)
		}
		seen[level] = role
	}
	if len(seen) != 7 {
		t.Fatalf("expected 7 distinct levels, got %d", len(seen))
	}
}

func TestHasMinRoleMatchesLevelComparison(t *testing.T) {
	for _, r1 := range All() {
		for _, r2 := range All() {
			expected := Level(r1) >= Level(r2)
			if got := HasMinRole(r1, r2); got != expected {
				t.Errorf("HasMinRole(%s, %s) = %v, want %v", r1, r2, got, expected)
			}
		}
	}
}

func TestHasMinRoleRejectsUnknownRoles(t *testing.T) {
	if HasMinRole(Role("root"), RoleSubscriber) {
		t.Error("unknown actual role must not satisfy any minimum")
	}
	if HasMinRole(RoleOwner, Role("root")) {
		t.Error("unknown minimum role must not be satisfiable")
	}
}

func TestRoleSetQueries(t *testing.T) {
	below := RolesAtOrBelow(RoleManager)
	expectedBelow := []Role{RoleManager, RoleStaff, RoleUser, RoleCustomer, RoleSubscriber}
	if len(below) != len(expectedBelow) {
		t.Fatalf("expected %d roles at or below manager, got %d", len(expectedBelow), len(below))
	}
	for i, r := range expectedBelow {
		if below[i] != r {
			t.Errorf("RolesAtOrBelow(manager)[%d] = %s, want %s", i, below[i], r)
		}
	}

	above := RolesAbove(RoleManager)
	expectedAbove := []Role{RoleOwner, RoleAdministrator}
	if len(above) != len(expectedAbove) {
		t.Fatalf("expected %d roles above manager, got %d", len(expectedAbove), len(above))
	}
	for i, r := range expectedAbove {
		if above[i] != r {
			t.Errorf("RolesAbove(manager)[%d] = %s, want %s", i, above[i], r)
		}
	}
}

func TestConvenienceChecks(t *testing.T) {
	if !IsAdminOrAbove(RoleOwner) || !IsAdminOrAbove(RoleAdministrator) {
		t.Error("owner and administrator should be admin or above")
	}
	if IsAdminOrAbove(RoleManager) {
		t.Error("manager should not be admin or above")
	}
	if !IsOwner(RoleOwner) || IsOwner(RoleAdministrator) {
		t.Error("IsOwner must match the owner tier only")
	}
}
