package internalcheck

import (
	"testing"

	"golang.org/x/tools/go/packages"
)

var checkedPackages = []string{
	"github.com/mahdiidarabi/sm2-affine/pkg/sm2",
	"github.com/mahdiidarabi/sm2-affine/pkg/sm2misuse",
}

// loadChecked loads the non-test sources of the checked packages.
func loadChecked(t *testing.T) []*packages.Package {
	t.Helper()
	cfg := &packages.Config{
		Mode: packages.NeedSyntax | packages.NeedTypes | packages.NeedTypesInfo | packages.NeedFiles | packages.NeedName,
	}

	pkgs, err := packages.Load(cfg, checkedPackages...)
	if err != nil {
		t.Fatalf("load packages: %v", err)
	}
	if packages.PrintErrors(pkgs) > 0 {
		t.Fatal("packages contain errors")
	}
	if len(pkgs) != len(checkedPackages) {
		t.Fatalf("loaded %d packages, want %d", len(pkgs), len(checkedPackages))
	}
	return pkgs
}
