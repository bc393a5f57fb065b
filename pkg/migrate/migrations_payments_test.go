package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shuddy05/compliancehub-backendd/pkg/migrate"
)

func TestPaymentTransactionsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_payment_transactions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no payment transactions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS payment_transactions",
		"CONSTRAINT uq_payment_transactions_provider_reference UNIQUE (provider_reference)",
		"FOREIGN KEY (company_id) REFERENCES companies(id) ON DELETE CASCADE",
		"FOREIGN KEY (subscription_id) REFERENCES subscriptions(id) ON DELETE SET NULL",
		"CHECK (status IN ('pending', 'successful', 'failed', 'refunded'))",
		"DROP TABLE IF EXISTS payment_transactions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestSubscriptionsMigrationContainsConstraints(t *testing.T) {
	matches, err := filepath.Glob(filepath.Join("migrations", "*_create_subscriptions.sql"))
	if err != nil {
		t.Fatalf("glob migrations: %v", err)
	}
	if len(matches) == 0 {
		t.Fatalf("no subscriptions migration file found")
	}

	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatalf("read migration file: %v", err)
	}
	content := string(data)

	checks := []string{
		"CREATE TABLE IF NOT EXISTS subscriptions",
		"CHECK (billing_cycle IN ('monthly', 'annual'))",
		"CHECK (status IN ('pending', 'active', 'pending_cancellation', 'cancelled', 'expired'))",
		"DROP TABLE IF EXISTS subscriptions",
	}

	for _, sub := range checks {
		if !strings.Contains(content, sub) {
			t.Errorf("missing expected statement %q", sub)
		}
	}
}

func TestMigrationsDirValidates(t *testing.T) {
	if err := migrate.ValidateDir("migrations"); err != nil {
		t.Fatalf("validate migrations dir: %v", err)
	}
}
