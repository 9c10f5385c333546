package domain

import (
	"errors"
	"testing"

	registrydomain "github.com/summitgrid/corebank/internal/registry/domain"
)

func TestRouteTable(t *testing.T) {
	cases := []struct {
		category registrydomain.ResourceCategory
		want     []Source
	}{
		{registrydomain.CategoryCompute, []Source{SourceCompute}},
		{registrydomain.CategoryInteractive, []Source{SourceCompute, SourceInteractive}},
		{registrydomain.CategoryDisk, []Source{SourceDisk}},
		{registrydomain.CategoryArchive, []Source{SourceArchive}},
	}

	for _, tc := range cases {
		got, err := Route(tc.category)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tc.category, err)
		}
		if len(got) == 0 {
			t.Fatalf("%s: route must never be empty", tc.category)
		}
		if len(got) != len(tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.category, tc.want, got)
		}
		for i := range tc.want {
			if got[i] != tc.want[i] {
				t.Fatalf("%s: expected %v, got %v", tc.category, tc.want, got)
			}
		}
	}
}

func TestRouteUnknownCategory(t *testing.T) {
	_, err := Route(registrydomain.ResourceCategory("quantum"))
	if !errors.Is(err, ErrUnsupportedResourceCategory) {
		t.Fatalf("expected unsupported_resource_category, got %v", err)
	}
	if err == nil || err.Error() == ErrUnsupportedResourceCategory.Error() {
		t.Fatalf("expected error to name the category, got %v", err)
	}
}

func TestRouteReturnsCopy(t *testing.T) {
	first, err := Route(registrydomain.CategoryInteractive)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	first[0] = SourceArchive

	second, err := Route(registrydomain.CategoryInteractive)
	if err != nil {
		t.Fatalf("route: %v", err)
	}
	if second[0] != SourceCompute {
		t.Fatalf("route table was mutated by a caller")
	}
}
