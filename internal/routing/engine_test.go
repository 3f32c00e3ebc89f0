package routing

import (
	"context"
	"testing"

	"github.com/bihar-gov/sevalink/internal/department"
	"github.com/bihar-gov/sevalink/internal/shared/errors"
)

type fakeDirectory struct {
	departments []department.Department
	gotCategory department.Category
	gotTags     []string
}

func (f *fakeDirectory) FindForRouting(_ context.Context, category department.Category, tags []string) ([]department.Department, error) {
	f.gotCategory = category
	f.gotTags = tags

	var out []department.Department
	for _, d := range f.departments {
		if d.Category == category && d.IsActive && d.Serves(tags) {
			out = append(out, d)
		}
	}
	return out, nil
}

func TestDepartmentCategoryFor(t *testing.T) {
	tests := []struct {
		complaint string
		want      department.Category
	}{
		{"electricity", department.CategoryUtilities},
		{"water", department.CategoryUtilities},
		{"railways", department.CategoryTransportation},
		{"roads", department.CategoryTransportation},
		{"municipal", department.CategoryMunicipal},
		{"police", department.CategoryPolice},
		{"health", department.CategoryHealth},
		{"education", department.CategoryEducation},
		{"other", department.CategoryMunicipal},
		{"ELECTRICITY", department.CategoryUtilities},
		{"", department.CategoryMunicipal},
	}

	for _, tt := range tests {
		t.Run(tt.complaint, func(t *testing.T) {
			if got := DepartmentCategoryFor(tt.complaint); got != tt.want {
				t.Errorf("DepartmentCategoryFor(%q) = %q, want %q", tt.complaint, got, tt.want)
			}
		})
	}
}

func TestLocationTags(t *testing.T) {
	tags := LocationTags("Patna", "Bihar")

	want := []string{"all", "patna", "bihar"}
	if len(tags) != len(want) {
		t.Fatalf("expected %d tags, got %v", len(want), tags)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Errorf("tag %d = %q, want %q", i, tags[i], want[i])
		}
	}
}

func TestLocationTagsSkipsEmpty(t *testing.T) {
	tags := LocationTags("  ", "Bihar")
	if len(tags) != 2 || tags[0] != "all" || tags[1] != "bihar" {
		t.Errorf("expected [all bihar], got %v", tags)
	}
}

func TestAssignPicksMatchingDepartment(t *testing.T) {
	dir := &fakeDirectory{departments: []department.Department{
		{
			ShortName:    "BSEB",
			Category:     department.CategoryUtilities,
			Locations:    []string{"patna", "bihar"},
			ResponseTime: 48,
			IsActive:     true,
		},
	}}
	engine := NewEngine(dir)

	d, err := engine.Assign(context.Background(), "electricity", "Patna", "Bihar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ShortName != "BSEB" {
		t.Errorf("expected BSEB, got %s", d.ShortName)
	}
	if dir.gotCategory != department.CategoryUtilities {
		t.Errorf("expected utilities lookup, got %q", dir.gotCategory)
	}
}

func TestAssignPrefersFirstCandidate(t *testing.T) {
	// FindForRouting returns candidates already ordered by SLA then
	// short name, so Assign takes the head of the list.
	dir := &fakeDirectory{departments: []department.Department{
		{
			ShortName:    "FAST",
			Category:     department.CategoryUtilities,
			Locations:    []string{"all"},
			ResponseTime: 12,
			IsActive:     true,
		},
		{
			ShortName:    "SLOW",
			Category:     department.CategoryUtilities,
			Locations:    []string{"all"},
			ResponseTime: 72,
			IsActive:     true,
		},
	}}
	engine := NewEngine(dir)

	d, err := engine.Assign(context.Background(), "water", "Gaya", "Bihar")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.ShortName != "FAST" {
		t.Errorf("expected FAST, got %s", d.ShortName)
	}
}

func TestAssignRejectsWhenNoDepartmentMatches(t *testing.T) {
	dir := &fakeDirectory{departments: []department.Department{
		{
			ShortName:    "PMC",
			Category:     department.CategoryMunicipal,
			Locations:    []string{"patna"},
			ResponseTime: 24,
			IsActive:     true,
		},
	}}
	engine := NewEngine(dir)

	_, err := engine.Assign(context.Background(), "electricity", "Patna", "Bihar")
	if err == nil {
		t.Fatal("expected an error when no department matches")
	}

	appErr, ok := errors.AsAppError(err)
	if !ok {
		t.Fatalf("expected AppError, got %T", err)
	}
	if appErr.Code != "CONFLICT" {
		t.Errorf("expected CONFLICT, got %s", appErr.Code)
	}
}

func TestAssignIgnoresInactiveDepartments(t *testing.T) {
	dir := &fakeDirectory{departments: []department.Department{
		{
			ShortName:    "BSEB",
			Category:     department.CategoryUtilities,
			Locations:    []string{"all"},
			ResponseTime: 48,
			IsActive:     false,
		},
	}}
	engine := NewEngine(dir)

	if _, err := engine.Assign(context.Background(), "electricity", "Patna", "Bihar"); err == nil {
		t.Fatal("expected rejection when only candidate is inactive")
	}
}
