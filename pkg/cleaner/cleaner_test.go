package cleaner

import (
	"testing"

	"github.com/narayan-clinic/rx-pipeline/pkg/kb"
)

func newCleaner(t *testing.T) *Cleaner {
	t.Helper()
	base, err := kb.New()
	if err != nil {
		t.Fatalf("kb.New() error = %v", err)
	}
	return New(base)
}

func TestCleanAppliesPhoneticCorrections(t *testing.T) {
	c := newCleaner(t)
	res := c.Clean("patient has an inflection and took tylenol")
	if res.CorrectionsApplied == 0 {
		t.Fatal("expected at least one correction to be applied")
	}
	if got := res.Text; got == "patient has an inflection and took tylenol" {
		t.Errorf("expected corrected text, got unchanged input")
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	c := newCleaner(t)
	once := c.Clean("stayhappi tablet for inflection")
	twice := c.Clean(once.Text)
	if once.Text != twice.Text {
		t.Errorf("Clean is not idempotent: once=%q twice=%q", once.Text, twice.Text)
	}
	if twice.CorrectionsApplied != 0 {
		t.Errorf("expected zero further corrections on already-clean text, got %d", twice.CorrectionsApplied)
	}
}

func TestCleanNeverFails(t *testing.T) {
	c := newCleaner(t)
	res := c.Clean("")
	if res.Text != "" {
		t.Errorf("expected empty text to stay empty, got %q", res.Text)
	}
}
