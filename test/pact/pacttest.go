//go:build pact
// +build pact

package pacttest

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

const (
	ProviderName = "storefront-api"
	ConsumerName = "storefront-web"

	StateProductInStock = "product saree is in stock"
	StatePromoActive    = "promo EID10 is active"
	StateNoPromos       = "no promo codes exist"
	StateNoOrders       = "no orders exist"
)

const (
	ProductID      = "saree"
	ProductName    = "Jamdani saree"
	ProductPrice   = 1200
	ProductStock   = 5
	ShippingCost   = 60
	PromoCode      = "EID10"
	PromoPercent   = 10
	PromoMinimum   = 500
	MissingPromo   = "NOPE"
	MissingOrderID = "ORD-20260101-MISSN00"

	// OrderIDPattern matches generated order ids.
	OrderIDPattern = `ORD-\d{8}-[A-Z0-9]{5}\d{2}`
	ExampleOrderID = "ORD-20260410-K3F9Q27"
)

// PactDir returns the workspace-level directory for generated pact files.
func PactDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "pacts")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact dir: %v", err)
	}
	return dir
}

// PactFile returns the canonical pact file path for the storefront consumer.
func PactFile(t testing.TB) string {
	t.Helper()
	return filepath.Join(PactDir(t), ConsumerName+"-"+ProviderName+".json")
}

// LogDir returns the log output directory for pact-go.
func LogDir(t testing.TB) string {
	t.Helper()
	dir := filepath.Join(projectRoot(t), "bin", "pact-logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatalf("create pact log dir: %v", err)
	}
	return dir
}

// ExampleCheckout is a cash on delivery checkout for one saree.
func ExampleCheckout() map[string]any {
	return map[string]any{
		"items": []map[string]any{{"product": ProductID, "quantity": 1}},
		"shipping": map[string]any{
			"name":     "Rahim Uddin",
			"phone":    "01711111111",
			"address":  "House 12, Road 5, Dhanmondi",
			"location": "insideDhaka",
		},
		"payment": map[string]any{"method": "cod"},
		"pricing": map[string]any{"shipping": ShippingCost},
	}
}

// projectRoot walks up from this file to the workspace root.
func projectRoot(t testing.TB) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("cannot determine caller for pact paths")
	}
	return filepath.Clean(filepath.Join(filepath.Dir(file), "..", ".."))
}
