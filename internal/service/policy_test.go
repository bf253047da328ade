package service

import (
	"testing"

	"github.com/muhammadhuzaifasarfraz/collab-sphere/internal/domain"
)

func TestCanMessage(t *testing.T) {
	student := &domain.Identity{ID: "s1", Role: domain.RoleStudent}
	alumni := &domain.Identity{ID: "a1", Role: domain.RoleAlumni}
	student2 := &domain.Identity{ID: "s2", Role: domain.RoleStudent}
	alumni2 := &domain.Identity{ID: "a2", Role: domain.RoleAlumni}
	admin := &domain.Identity{ID: "x1", Role: "admin"}

	cases := []struct {
		name string
		a, b *domain.Identity
		want bool
	}{
		{"student to alumni", student, alumni, true},
		{"alumni to student", alumni, student, true},
		{"student to student", student, student2, false},
		{"alumni to alumni", alumni, alumni2, false},
		{"unknown role", admin, student, false},
		{"unknown role reversed", student, admin, false},
		{"nil a", nil, student, false},
		{"nil b", alumni, nil, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := CanMessage(tc.a, tc.b); got != tc.want {
				t.Fatalf("CanMessage(%v, %v) = %v, want %v", tc.a, tc.b, got, tc.want)
			}
		})
	}
}
