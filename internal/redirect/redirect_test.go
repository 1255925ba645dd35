package redirect

import (
	"context"
	"testing"
)

type staticLookup map[string]string

func (m staticLookup) Lookup(_ context.Context, host string) (string, bool) {
	id, ok := m[host]
	return id, ok
}

func TestValidateControlledSuffix(t *testing.T) {
	res, err := Validate(context.Background(), "https://store-a.centerpiece.shop/cart", true, nil)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Origin != "https://store-a.centerpiece.shop" {
		t.Fatalf("unexpected origin: %s", res.Origin)
	}
	if res.TenantID != UnknownTenant {
		t.Fatalf("expected unknown-tenant sentinel, got %s", res.TenantID)
	}
	if res.ReturnTo != "/cart" {
		t.Fatalf("unexpected returnTo: %s", res.ReturnTo)
	}
}

func TestValidateRegisteredCustomDomain(t *testing.T) {
	domains := staticLookup{"shop.example.com": "tenant-42"}
	res, err := Validate(context.Background(), "https://shop.example.com/checkout?step=2", true, domains)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.TenantID != "tenant-42" {
		t.Fatalf("expected looked-up tenant id, got %s", res.TenantID)
	}
	if res.ReturnTo != "/checkout?step=2" {
		t.Fatalf("unexpected returnTo: %s", res.ReturnTo)
	}
}

func TestValidateRejectsUnregisteredDomain(t *testing.T) {
	if _, err := Validate(context.Background(), "https://unknown.example.com/", true, nil); err != ErrRejected {
		t.Fatalf("expected ErrRejected, got %v", err)
	}
}

func TestValidateRejectsHTTPInProduction(t *testing.T) {
	if _, err := Validate(context.Background(), "http://store-a.centerpiece.shop/", true, nil); err != ErrRejected {
		t.Fatalf("expected ErrRejected for http in production, got %v", err)
	}
}

func TestValidateAllowsHTTPOnDevLocalhost(t *testing.T) {
	res, err := Validate(context.Background(), "http://localhost:3000/dashboard", false, nil)
	if err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if res.Origin != "http://localhost:3000" {
		t.Fatalf("unexpected origin: %s", res.Origin)
	}
}

func TestValidateRejectsJavascriptScheme(t *testing.T) {
	if _, err := Validate(context.Background(), "javascript:alert(1)", false, nil); err != ErrRejected {
		t.Fatalf("expected ErrRejected for javascript: scheme, got %v", err)
	}
}

func TestValidateRejectsFragment(t *testing.T) {
	if _, err := Validate(context.Background(), "https://store-a.centerpiece.shop/cart#frag", true, nil); err != ErrRejected {
		t.Fatalf("expected ErrRejected for a redirect carrying a fragment, got %v", err)
	}
}

func TestValidateRejectsIPLiteralHost(t *testing.T) {
	if _, err := Validate(context.Background(), "https://93.184.216.34/", true, nil); err != ErrRejected {
		t.Fatalf("expected ErrRejected for an IP-literal host, got %v", err)
	}
}

func TestIsControlledHost(t *testing.T) {
	if !IsControlledHost("tenant.workers.dev") {
		t.Fatal("expected workers.dev suffix to be controlled")
	}
	if IsControlledHost("evil.com") {
		t.Fatal("expected an uncontrolled host to report false")
	}
}
